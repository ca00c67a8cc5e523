package scanning

import (
	"context"
	"errors"
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Scanner", func() {
	var (
		engine      *fakeEngine
		scanner     *Scanner
		input       []byte
		contentType string
		result      *Result
		err         error
	)

	BeforeEach(func() {
		engine = &fakeEngine{
			text:  "Joe's Coffee Shop\n123 Main St\nTotal: ₹250.00\n12/01/2024",
			ticks: []int{0, 50, 100},
		}
		input = encodePNG(8, 8, func(x, y int) color.NRGBA {
			return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		})
		contentType = "image/png"
	})

	JustBeforeEach(func() {
		scanner = NewScanner(NewHandle(func() (Engine, error) {
			return engine, nil
		}))
		result, err = scanner.ScanReceipt(context.Background(), input, contentType)
	})

	When("scanning a synthetic receipt", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should extract the merchant as the title", func() {
			Expect(result.Title.Value).To(Equal("Joe's Coffee Shop"))
			Expect(result.Title.Confidence).To(BeNumerically(">", 0))
		})

		It("should extract the total amount", func() {
			Expect(result.Amount.Value).To(Equal("250.00"))
			Expect(result.Amount.Confidence).To(BeNumerically(">", 0))
		})

		It("should extract the date", func() {
			Expect(result.Date.Value).To(Equal("2024-01-12"))
			Expect(result.Date.Confidence).To(BeNumerically(">", 0))
		})

		It("should guess a category consistent with the keyword table", func() {
			Expect(result.Category).To(Equal("food"))
		})

		It("should keep the raw text for audit", func() {
			Expect(result.RawText).To(Equal(engine.text))
		})
	})

	When("the recognized text has nothing usable", func() {
		BeforeEach(func() {
			engine.text = "zz\nqq"
		})

		It("should still complete with a degraded result", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Title.Value).To(Equal("Unknown Merchant"))
			Expect(result.Title.Confidence).To(Equal(20))
			Expect(result.Amount.Confidence).To(Equal(0))
			Expect(result.Date.Confidence).To(Equal(30))
			Expect(result.Category).To(Equal("other"))
		})
	})

	When("the input image cannot be decoded", func() {
		BeforeEach(func() {
			input = []byte("garbage")
		})

		It("should fail fast with no partial result", func() {
			Expect(errors.Is(err, ErrImageDecode)).To(BeTrue())
			Expect(result).To(BeNil())
		})

		It("should not invoke the engine", func() {
			Expect(engine.recognized).To(Equal(0))
		})
	})

	When("recognition aborts", func() {
		BeforeEach(func() {
			engine.recognizeErr = errors.New("engine crashed")
		})

		It("should fail fast with no partial result", func() {
			Expect(errors.Is(err, ErrRecognition)).To(BeTrue())
			Expect(result).To(BeNil())
		})
	})

	Describe("progress reporting", func() {
		var progress chan int

		It("relays monotonically non-decreasing ticks", func() {
			progress = make(chan int, 16)
			_, scanErr := scanner.ScanReceiptWithProgress(context.Background(), input, contentType, progress)
			Expect(scanErr).NotTo(HaveOccurred())
			close(progress)

			last := -1
			count := 0
			for tick := range progress {
				Expect(tick).To(BeNumerically(">=", last))
				Expect(tick).To(BeNumerically(">=", 0))
				Expect(tick).To(BeNumerically("<=", 100))
				last = tick
				count++
			}
			Expect(count).To(BeNumerically(">", 0))
		})

		It("does not block when the receiver is not draining", func() {
			progress = make(chan int) // unbuffered, never read
			_, scanErr := scanner.ScanReceiptWithProgress(context.Background(), input, contentType, progress)
			Expect(scanErr).NotTo(HaveOccurred())
		})
	})
})
