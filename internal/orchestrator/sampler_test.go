package orchestrator

import (
	"context"
	"image"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tavini/pricecart/internal/detect"
)

// mockDetector is a mock implementation of Detector
type mockDetector struct {
	mu       sync.Mutex
	texts    []detect.Text
	barcodes []detect.Barcode
}

func (m *mockDetector) Initialize() detect.Capabilities {
	return detect.Capabilities{TextSupported: true, BarcodeSupported: true}
}

func (m *mockDetector) DetectFrame(_ context.Context, _ image.Image) ([]detect.Text, []detect.Barcode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.texts, m.barcodes
}

func (m *mockDetector) set(texts []detect.Text, barcodes []detect.Barcode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = texts
	m.barcodes = barcodes
}

// mockSource is a mock implementation of CaptureSource
type mockSource struct {
	mu     sync.Mutex
	ready  bool
	frames int
	stills int
}

func (m *mockSource) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *mockSource) Frame(_ context.Context) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
	return image.NewNRGBA(image.Rect(0, 0, 32, 32)), nil
}

func (m *mockSource) CaptureStill(_ context.Context) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stills++
	return image.NewNRGBA(image.Rect(0, 0, 32, 32)), nil
}

func (m *mockSource) stillCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stills
}

var _ = Describe("Sampler", func() {
	var (
		detector     *mockDetector
		source       *mockSource
		cartStore    *mockCartAdder
		notifier     *mockNotifier
		connectivity *mockConnectivity
		orch         *Orchestrator
		sampler      *Sampler
		ctx          context.Context
		cancel       context.CancelFunc
	)

	BeforeEach(func() {
		detector = &mockDetector{}
		source = &mockSource{ready: true}
		cartStore = &mockCartAdder{}
		notifier = &mockNotifier{}
		connectivity = &mockConnectivity{online: false}

		cfg := DefaultConfig()
		cfg.SampleInterval = 5 * time.Millisecond
		orch = New(cfg, nil, cartStore, notifier, connectivity)
		sampler = NewSampler(orch, detector, source)
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		sampler.Stop()
		cancel()
	})

	Describe("Stop", func() {
		It("returns immediately when the sampler was never started", func() {
			done := make(chan struct{})
			go func() {
				sampler.Stop()
				close(done)
			}()
			Eventually(done, "100ms", "5ms").Should(BeClosed())
		})

		It("is idempotent after a started loop", func() {
			sampler.Start(ctx)
			sampler.Stop()
			sampler.Stop()
		})
	})

	When("frames carry nothing detectable", func() {
		It("never promotes a capture", func() {
			sampler.Start(ctx)
			Consistently(source.stillCount, "60ms", "10ms").Should(Equal(0))
			Expect(orch.State()).To(Equal(StateIdle))
		})
	})

	When("a frame carries a parseable price", func() {
		BeforeEach(func() {
			detector.set([]detect.Text{
				{RawValue: "LEITE INTEGRAL", Box: detect.Box{Y: 0}},
				{RawValue: "R$ 5,99", Box: detect.Box{Y: 20}},
			}, nil)
		})

		It("promotes the frame to a capture attempt", func() {
			sampler.Start(ctx)
			Eventually(orch.State, "500ms", "10ms").Should(Equal(StateConfirming))
		})

		It("pauses while the confirmation prompt is open", func() {
			sampler.Start(ctx)
			Eventually(orch.State, "500ms", "10ms").Should(Equal(StateConfirming))

			stills := source.stillCount()
			Consistently(source.stillCount, "60ms", "10ms").Should(Equal(stills))
		})

		It("resumes after the prompt is dismissed", func() {
			sampler.Start(ctx)
			Eventually(orch.State, "500ms", "10ms").Should(Equal(StateConfirming))

			stills := source.stillCount()
			orch.Cancel()
			Eventually(source.stillCount, "500ms", "10ms").Should(BeNumerically(">", stills))
		})
	})

	When("a frame carries only a barcode", func() {
		BeforeEach(func() {
			detector.set(nil, []detect.Barcode{{RawValue: "7891234567895", Format: "EAN_13"}})
		})

		It("promotes the frame to a capture attempt", func() {
			sampler.Start(ctx)
			Eventually(orch.State, "500ms", "10ms").Should(Equal(StateConfirming))
			Expect(orch.Pending().ProductCode).To(Equal("7891234567895"))
		})
	})

	When("the source is not ready", func() {
		BeforeEach(func() {
			source.ready = false
			detector.set([]detect.Text{{RawValue: "R$ 5,99"}}, nil)
		})

		It("samples nothing", func() {
			sampler.Start(ctx)
			Consistently(source.stillCount, "60ms", "10ms").Should(Equal(0))
		})
	})
})
