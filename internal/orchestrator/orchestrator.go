// Package orchestrator drives the capture-to-confirmed-item pipeline:
// it consumes captured frames, reconciles local and remote recognition
// results under a confidence policy, and ends every attempt in exactly
// one terminal outcome: an automatic cart addition, a confirmation
// prompt, or a failure notification.
package orchestrator

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tavini/pricecart/internal/cart"
	"github.com/tavini/pricecart/internal/detect"
	"github.com/tavini/pricecart/internal/scan"
)

// State is the pipeline's externally visible mode.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateConfirming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateProcessing:
		return "PROCESSING"
	case StateConfirming:
		return "CONFIRMING"
	default:
		return "UNKNOWN"
	}
}

// Kind classifies a user-facing notification.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
)

// Notifier shows short, auto-dismissing messages. Fire-and-forget.
type Notifier interface {
	Show(message string, kind Kind)
}

// Connectivity reports whether remote analysis is worth attempting.
type Connectivity interface {
	Online() bool
}

// CartAdder is the store side of the accept outcome.
type CartAdder interface {
	Add(name string, unitPrice float64, quantity int) (cart.Item, error)
}

// Detector is the local detection capability consumed by the sampling
// loop and the capture entry points.
type Detector interface {
	Initialize() detect.Capabilities
	DetectFrame(ctx context.Context, frame image.Image) ([]detect.Text, []detect.Barcode)
}

// CaptureSource produces preview frames for sampling and full
// resolution stills on demand.
type CaptureSource interface {
	Ready() bool
	Frame(ctx context.Context) (image.Image, error)
	CaptureStill(ctx context.Context) (image.Image, error)
}

// OutcomeKind is how an attempt ended.
type OutcomeKind int

const (
	// OutcomeIgnored means the capture was refused before an attempt
	// started (a confirmation prompt was open).
	OutcomeIgnored OutcomeKind = iota
	// OutcomeAdded means the candidate passed the confidence policy
	// and went straight into the cart.
	OutcomeAdded
	// OutcomeConfirm means the candidate needs user confirmation.
	OutcomeConfirm
	// OutcomeFailed means the attempt produced nothing usable.
	OutcomeFailed
	// OutcomeSuperseded means a newer attempt started while this one
	// was in flight; its result was discarded.
	OutcomeSuperseded
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAdded:
		return "added"
	case OutcomeConfirm:
		return "confirm"
	case OutcomeFailed:
		return "failed"
	case OutcomeSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one capture attempt.
type Outcome struct {
	Kind      OutcomeKind     `json:"kind"`
	Item      *cart.Item      `json:"item,omitempty"`
	Candidate *scan.Candidate `json:"candidate,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Config carries the policy thresholds. The exact constants are not
// load-bearing; they are tunable per deployment.
type Config struct {
	// MinNameLen is the rune count a trimmed name must exceed to be
	// accepted as confident. Short generic words ("Item", "Uva") go to
	// confirmation instead.
	MinNameLen int
	// MaxUploadWidth bounds the still sent to remote analysis.
	MaxUploadWidth int
	// UploadQuality is the JPEG quality for the remote upload.
	UploadQuality int
	// SampleInterval paces the auto-scan loop.
	SampleInterval time.Duration
}

// DefaultConfig returns the standard policy thresholds.
func DefaultConfig() Config {
	return Config{
		MinNameLen:     4,
		MaxUploadWidth: 1024,
		UploadQuality:  80,
		SampleInterval: 500 * time.Millisecond,
	}
}

// User-facing messages.
const (
	msgOfflineNoResult = "Falha na leitura. Verifique a conexão."
	msgAnalysisFailed  = "Falha na análise da imagem."
	msgNoPriceOrCode   = "Não foi possível ler o preço."
	msgItemAdded       = "Item adicionado ao carrinho!"
	msgAddFailed       = "Não foi possível adicionar o item."
)

// ErrNothingPending is returned by Confirm when no confirmation prompt
// is open.
var ErrNothingPending = errors.New("orchestrator: nothing pending confirmation")

// Orchestrator owns the scan attempt state machine. All shared state
// lives behind one mutex; asynchronous work re-checks its attempt
// token after every suspension point before touching it.
type Orchestrator struct {
	cfg          Config
	analyzer     scan.Analyzer // nil when no remote provider is configured
	cart         CartAdder
	notifier     Notifier
	connectivity Connectivity

	mu      sync.Mutex
	state   State
	attempt uint64 // token of the current attempt; monotonically increasing
	pending *scan.Candidate
}

// New creates an orchestrator. analyzer may be nil, in which case
// every capture resolves from local detection alone.
func New(cfg Config, analyzer scan.Analyzer, cartStore CartAdder, notifier Notifier, connectivity Connectivity) *Orchestrator {
	if cfg.MinNameLen <= 0 {
		cfg.MinNameLen = DefaultConfig().MinNameLen
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultConfig().SampleInterval
	}
	return &Orchestrator{
		cfg:          cfg,
		analyzer:     analyzer,
		cart:         cartStore,
		notifier:     notifier,
		connectivity: connectivity,
	}
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Pending returns the candidate awaiting confirmation, or nil.
func (o *Orchestrator) Pending() *scan.Candidate {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return nil
	}
	c := *o.pending
	return &c
}

// OnCapture runs one full capture attempt. It is the entry point
// invoked by the sampling loop or by an explicit user capture; texts
// and barcodes are whatever local detection already produced for this
// frame, so the local pass costs no extra latency here.
//
// The call blocks through remote analysis. A capture started
// concurrently mints a newer attempt and supersedes this one: the
// older attempt finishes harmlessly and reports OutcomeSuperseded.
// While a confirmation prompt is open, captures are ignored.
func (o *Orchestrator) OnCapture(ctx context.Context, still image.Image, texts []detect.Text, barcodes []detect.Barcode) Outcome {
	o.mu.Lock()
	if o.state == StateConfirming {
		o.mu.Unlock()
		return Outcome{Kind: OutcomeIgnored}
	}
	o.attempt++ // invalidates any in-flight attempt
	id := o.attempt
	o.state = StateProcessing
	o.pending = nil
	o.mu.Unlock()

	initial := scan.Parse(texts)
	if initial == nil {
		initial = &scan.Candidate{}
	}
	if initial.ProductCode == "" && len(barcodes) > 0 {
		initial.ProductCode = barcodes[0].RawValue
	}

	if !o.connectivity.Online() {
		if initial.Price > 0 || initial.ProductCode != "" {
			return o.present(id, initial)
		}
		return o.fail(id, msgOfflineNoResult)
	}

	return o.analyzeRemote(ctx, id, still, initial)
}

// analyzeRemote refines the local candidate with the remote analyzer
// and applies the confidence policy to the merged result.
func (o *Orchestrator) analyzeRemote(ctx context.Context, id uint64, still image.Image, initial *scan.Candidate) Outcome {
	if o.analyzer == nil {
		return o.remoteFailed(id, initial)
	}

	payload, err := scan.Optimize(still, scan.OptimizeOptions{
		MaxWidth: o.cfg.MaxUploadWidth,
		Quality:  o.cfg.UploadQuality,
	})
	if err != nil {
		slog.Error("capture preprocessing failed", "error", err)
		return o.remoteFailed(id, initial)
	}

	if !o.current(id) {
		return Outcome{Kind: OutcomeSuperseded}
	}

	analysis, err := o.analyzer.AnalyzePriceTag(ctx, payload)
	if err != nil || analysis == nil {
		if err != nil {
			slog.Error("remote analysis failed", "error", err)
		}
		return o.remoteFailed(id, initial)
	}

	return o.decide(id, merge(initial, analysis))
}

// merge folds a remote analysis into the locally derived candidate.
// The local price wins when present. Product codes come from local
// barcode detection only: a vision-language guess is not trusted for
// exact codes.
func merge(initial *scan.Candidate, a *scan.Analysis) *scan.Candidate {
	final := &scan.Candidate{ProductCode: initial.ProductCode}

	final.GuessedName = a.GuessedName
	if final.GuessedName == "" {
		final.GuessedName = initial.GuessedName
	}

	switch {
	case initial.Price > 0:
		final.Price = initial.Price
	case a.Price > 0:
		final.Price = a.Price
	}

	return final
}

// decide applies the confidence policy to a final candidate.
func (o *Orchestrator) decide(id uint64, final *scan.Candidate) Outcome {
	hasPrice := final.Price > 0
	switch {
	case hasPrice && o.goodName(final.GuessedName):
		return o.accept(id, final)
	case hasPrice || final.ProductCode != "":
		return o.present(id, final)
	default:
		return o.fail(id, msgNoPriceOrCode)
	}
}

// goodName reports whether a guessed name is confident enough to
// accept without asking the user.
func (o *Orchestrator) goodName(name string) bool {
	name = strings.TrimSpace(name)
	if scan.IsPlaceholderName(name) {
		return false
	}
	return utf8.RuneCountInString(name) > o.cfg.MinNameLen
}

// remoteFailed degrades to the local candidate after a failed or
// unavailable remote analysis.
func (o *Orchestrator) remoteFailed(id uint64, initial *scan.Candidate) Outcome {
	if initial.Price > 0 || initial.ProductCode != "" {
		return o.present(id, initial)
	}
	return o.fail(id, msgAnalysisFailed)
}

// current reports whether id is still the authoritative attempt.
func (o *Orchestrator) current(id uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attempt == id
}

// accept adds the candidate to the cart without confirmation.
func (o *Orchestrator) accept(id uint64, final *scan.Candidate) Outcome {
	o.mu.Lock()
	if o.attempt != id {
		o.mu.Unlock()
		return Outcome{Kind: OutcomeSuperseded}
	}
	o.state = StateIdle
	o.pending = nil
	o.mu.Unlock()

	item, err := o.cart.Add(final.GuessedName, final.Price, 1)
	if err != nil {
		slog.Error("adding scanned item failed", "name", final.GuessedName, "error", err)
		o.notify(msgAddFailed, KindError)
		return Outcome{Kind: OutcomeFailed, Message: msgAddFailed}
	}
	o.notify(msgItemAdded, KindSuccess)
	return Outcome{Kind: OutcomeAdded, Item: &item, Candidate: final}
}

// present parks the candidate for user confirmation.
func (o *Orchestrator) present(id uint64, c *scan.Candidate) Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt != id {
		return Outcome{Kind: OutcomeSuperseded}
	}
	o.pending = c
	o.state = StateConfirming
	return Outcome{Kind: OutcomeConfirm, Candidate: c}
}

// fail ends the attempt with a transient notification.
func (o *Orchestrator) fail(id uint64, msg string) Outcome {
	o.mu.Lock()
	if o.attempt != id {
		o.mu.Unlock()
		return Outcome{Kind: OutcomeSuperseded}
	}
	o.state = StateIdle
	o.pending = nil
	o.mu.Unlock()

	o.notify(msg, KindError)
	return Outcome{Kind: OutcomeFailed, Message: msg}
}

// Confirm commits the pending candidate with possibly edited fields
// and returns the created cart item.
func (o *Orchestrator) Confirm(name string, unitPrice float64, quantity int) (cart.Item, error) {
	o.mu.Lock()
	if o.state != StateConfirming {
		o.mu.Unlock()
		return cart.Item{}, ErrNothingPending
	}
	item, err := o.cart.Add(name, unitPrice, quantity)
	if err != nil {
		// Invalid edits keep the prompt open.
		o.mu.Unlock()
		return cart.Item{}, err
	}
	o.pending = nil
	o.state = StateIdle
	o.mu.Unlock()

	o.notify(msgItemAdded, KindSuccess)
	return item, nil
}

// Cancel dismisses the confirmation prompt and discards the candidate.
// Back navigation while confirming behaves identically.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateConfirming {
		return
	}
	o.pending = nil
	o.state = StateIdle
}

func (o *Orchestrator) notify(msg string, kind Kind) {
	if o.notifier != nil {
		o.notifier.Show(msg, kind)
	}
}
