package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/tavini/pricecart/internal/capture"
	"github.com/tavini/pricecart/internal/cart"
	"github.com/tavini/pricecart/internal/detect"
	"github.com/tavini/pricecart/internal/orchestrator"
	"github.com/tavini/pricecart/internal/scan"
	"github.com/tavini/pricecart/internal/server"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// logNotifier surfaces toast-style messages through the process log.
type logNotifier struct{}

func (logNotifier) Show(message string, kind orchestrator.Kind) {
	switch kind {
	case orchestrator.KindError:
		slog.Warn("notification", "message", message)
	default:
		slog.Info("notification", "message", message)
	}
}

// staticConnectivity reports a fixed online/offline status. The
// server-side deployment has no radio to probe; remote analysis is
// either configured or it is not.
type staticConnectivity bool

func (c staticConnectivity) Online() bool { return bool(c) }

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("pricecart")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "pricecart.db", "Database file path")
		analyzer    = fs.StringLong("analyzer", "gemini", "Remote analyzer: 'gemini', 'ollama' or 'off'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		watchDir    = fs.StringLong("watch", "", "Directory to watch for dropped capture images (optional)")
		minNameLen  = fs.IntLong("min-name-len", 4, "Name length a scan must exceed to auto-add without confirmation")
		uploadWidth = fs.IntLong("upload-width", 1024, "Maximum width of images sent to the analyzer")
		interval    = fs.DurationLong("sample-interval", 500*time.Millisecond, "Auto-scan sampling interval")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PRICECART"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := cart.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize remote analyzer based on type
	var remote scan.Analyzer
	switch *analyzer {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini analyzer...", "model", *geminiModel)
		remote, err = scan.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama analyzer...", "url", *ollamaURL, "model", *ollamaModel)
		remote, err = scan.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	case "off":
		slog.Info("Remote analysis disabled; scans resolve from local detection only")
	default:
		slog.Error("Invalid analyzer type", "type", *analyzer, "valid", "gemini, ollama or off")
		os.Exit(1)
	}
	if remote != nil {
		defer remote.Close()
	}

	// Initialize detection
	detector := detect.NewAdapter()
	caps := detector.Initialize()
	slog.Info("Local detection ready",
		"text", caps.TextSupported,
		"barcode", caps.BarcodeSupported)
	defer detector.Close()

	// Initialize cart and orchestrator
	cartStore := cart.NewCart(db)

	cfg := orchestrator.DefaultConfig()
	cfg.MinNameLen = *minNameLen
	cfg.MaxUploadWidth = *uploadWidth
	cfg.SampleInterval = *interval

	orch := orchestrator.New(cfg, remote, cartStore, logNotifier{}, staticConnectivity(remote != nil))

	// Optional hot-folder auto-scan
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *watchDir != "" {
		source := capture.NewDirSource(*watchDir)
		sampler := orchestrator.NewSampler(orch, detector, source)
		slog.Info("Watching for captures", "dir", *watchDir, "interval", *interval)
		sampler.Start(ctx)
		defer sampler.Stop()
	}

	// Initialize server
	basicAuth := server.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	srv := server.NewServer(orch, cartStore, detector, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := srv.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
