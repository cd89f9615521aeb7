package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tavini/pricecart/internal/scan"
)

// Sampler runs the auto-scan loop: it polls preview frames at a fixed
// interval, runs local detection on each, and promotes a frame to a
// full capture attempt when the frame carries a parseable price or a
// barcode. It only fires while the orchestrator is idle, so an open
// confirmation prompt or an in-flight attempt pauses auto-scan
// without any extra coordination.
type Sampler struct {
	orch     *Orchestrator
	detector Detector
	source   CaptureSource
	interval time.Duration

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSampler creates a sampler over the given frame source. The
// detector is initialized lazily on Start.
func NewSampler(orch *Orchestrator, detector Detector, source CaptureSource) *Sampler {
	return &Sampler{
		orch:     orch,
		detector: detector,
		source:   source,
		interval: orch.cfg.SampleInterval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sampling loop. It returns immediately; the loop
// runs until Stop is called or ctx is canceled.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	caps := s.detector.Initialize()
	slog.Info("auto-scan started",
		"interval", s.interval,
		"text_detection", caps.TextSupported,
		"barcode_detection", caps.BarcodeSupported)

	go s.loop(ctx)
}

// Stop halts the loop and waits for the in-flight tick to finish.
// Safe to call whether or not the sampler was ever started.
func (s *Sampler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.doneCh
	}
}

func (s *Sampler) loop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

// sample inspects one preview frame and promotes it when local
// detection finds either a price-bearing text cluster or a barcode.
func (s *Sampler) sample(ctx context.Context) {
	if s.orch.State() != StateIdle || !s.source.Ready() {
		return
	}

	frame, err := s.source.Frame(ctx)
	if err != nil {
		slog.Debug("preview frame unavailable", "error", err)
		return
	}

	texts, barcodes := s.detector.DetectFrame(ctx, frame)
	if scan.Parse(texts) == nil && len(barcodes) == 0 {
		return
	}

	still, err := s.source.CaptureStill(ctx)
	if err != nil {
		slog.Warn("still capture failed", "error", err)
		return
	}

	outcome := s.orch.OnCapture(ctx, still, texts, barcodes)
	slog.Info("auto-scan attempt finished", "outcome", outcome.Kind.String())
}
