package scanning

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// minOCRDimension is the reference size below which images are upscaled
// before recognition. Receipt photos from phones often come in small and
// the engine reads doubled-up text much more reliably.
const minOCRDimension = 2000

// upscaleFactor is the fixed factor applied to undersized images.
const upscaleFactor = 2

// binarizeThreshold is the global luminance cutoff: pixels brighter than
// this become white, everything else black. The threshold is fixed, not
// adaptive, so the same pixel always maps to the same output value.
const binarizeThreshold = 128

// NormalizeImage converts arbitrary input (JPEG, PNG, GIF, HEIC/HEIF or
// PDF) into an OCR-friendly pure black/white PNG. The input is never
// mutated. Undecodable input returns an error wrapping ErrImageDecode.
func NormalizeImage(data []byte, contentType string) ([]byte, error) {
	img, err := decodeImage(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	img = upscaleIfSmall(img)
	img = binarize(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeImage decodes raster data in any supported format into an
// in-memory image. PDFs are rendered to a bitmap of their first page
// (receipts are single page).
func decodeImage(data []byte, contentType string) (image.Image, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	if mimeType == "application/pdf" {
		return pdfToImage(data)
	}

	// HEIC/HEIF (common on iPhones) is not supported by Go's standard
	// image package
	if isHEICFormat(data) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// pdfToImage renders the first page of a PDF to a bitmap
func pdfToImage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// upscaleIfSmall doubles the image size when the narrower dimension is
// under minOCRDimension. Nearest neighbour keeps the glyph edges hard,
// which the binarization step preserves.
func upscaleIfSmall(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	narrow := w
	if h < w {
		narrow = h
	}
	if narrow >= minOCRDimension {
		return img
	}
	return imaging.Resize(img, w*upscaleFactor, h*upscaleFactor, imaging.NearestNeighbor)
}

// binarize converts every pixel to pure black or white using the
// ITU-R 601 luminance weights. The result contains only 0/255 channel
// values, so binarizing an already-binarized image is a no-op.
func binarize(img image.Image) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		y := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
		if y > binarizeThreshold {
			return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		}
		return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	})
}

// isHEICFormat checks if the image data is in HEIC/HEIF format.
// HEIC files carry an ftyp box with a HEIC-related brand at offset 4.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "image/heic" || mimeType == "image/heif" ||
		strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
