package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeEngine is a scripted Engine implementation
type fakeEngine struct {
	text         string
	recognizeErr error
	closeErr     error
	recognized   int
	closed       int
	ticks        []int
}

func (f *fakeEngine) Recognize(ctx context.Context, png []byte, report func(int)) (string, error) {
	f.recognized++
	if f.recognizeErr != nil {
		return "", f.recognizeErr
	}
	if report != nil {
		for _, tick := range f.ticks {
			report(tick)
		}
	}
	return f.text, nil
}

func (f *fakeEngine) Close() error {
	f.closed++
	return f.closeErr
}

var _ = Describe("Handle", func() {
	var (
		engine  *fakeEngine
		created int
		factory EngineFactory
		handle  *Handle
	)

	BeforeEach(func() {
		engine = &fakeEngine{text: "some text"}
		created = 0
		factory = func() (Engine, error) {
			created++
			return engine, nil
		}
	})

	JustBeforeEach(func() {
		handle = NewHandle(factory)
	})

	Describe("Recognize", func() {
		It("does not create an engine before first use", func() {
			Expect(created).To(Equal(0))
		})

		It("creates the engine lazily on first use", func() {
			_, err := handle.Recognize(context.Background(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(1))
		})

		It("reuses the engine across sequential calls", func() {
			_, err := handle.Recognize(context.Background(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = handle.Recognize(context.Background(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(1))
			Expect(engine.recognized).To(Equal(2))
		})

		It("returns the recognized text", func() {
			text, err := handle.Recognize(context.Background(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("some text"))
		})

		When("engine creation fails", func() {
			BeforeEach(func() {
				factory = func() (Engine, error) {
					return nil, errors.New("no model assets")
				}
			})

			It("wraps ErrEngineUnavailable", func() {
				_, err := handle.Recognize(context.Background(), nil, nil)
				Expect(errors.Is(err, ErrEngineUnavailable)).To(BeTrue())
			})
		})

		When("recognition fails", func() {
			BeforeEach(func() {
				engine.recognizeErr = errors.New("aborted")
			})

			It("wraps ErrRecognition", func() {
				_, err := handle.Recognize(context.Background(), nil, nil)
				Expect(errors.Is(err, ErrRecognition)).To(BeTrue())
			})

			It("does not retry internally", func() {
				handle.Recognize(context.Background(), nil, nil)
				Expect(engine.recognized).To(Equal(1))
			})
		})
	})

	Describe("Release", func() {
		It("is a no-op when no engine exists", func() {
			Expect(handle.Release()).To(Succeed())
			Expect(engine.closed).To(Equal(0))
		})

		It("closes the active engine", func() {
			_, err := handle.Recognize(context.Background(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(handle.Release()).To(Succeed())
			Expect(engine.closed).To(Equal(1))
		})

		It("is idempotent", func() {
			_, err := handle.Recognize(context.Background(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(handle.Release()).To(Succeed())
			Expect(handle.Release()).To(Succeed())
			Expect(engine.closed).To(Equal(1))
		})

		It("lets a later Recognize re-create the engine", func() {
			_, err := handle.Recognize(context.Background(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(handle.Release()).To(Succeed())
			_, err = handle.Recognize(context.Background(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(2))
		})

		When("closing the engine fails", func() {
			BeforeEach(func() {
				engine.closeErr = errors.New("teardown failed")
			})

			It("surfaces the error but still clears the engine", func() {
				_, err := handle.Recognize(context.Background(), nil, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(handle.Release()).NotTo(Succeed())
				_, err = handle.Recognize(context.Background(), nil, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(created).To(Equal(2))
			})
		})
	})
})
