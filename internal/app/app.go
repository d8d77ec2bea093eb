package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"smartreader/internal/catalog"
	"smartreader/internal/config"
	"smartreader/internal/infrastructure/hubapi"
	"smartreader/internal/infrastructure/readtext"
	"smartreader/internal/infrastructure/speech"
	"smartreader/internal/logging"
	"smartreader/internal/playback"
	"smartreader/internal/ports"
	"smartreader/internal/session"
)

// Application wires the configuration into a runnable reading session.
type Application struct {
	cfg     config.Config
	session *session.Controller
	logger  *slog.Logger
	closer  io.Closer
}

// New builds the session controller with its HTTP service client and speech
// engine. Synthesized audio goes to the configured output path, or is
// discarded when none is set.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	service := hubapi.NewClient(cfg.Hub)
	synth := speech.NewOpenAIClient(cfg.TTS)

	var sink io.Writer = io.Discard
	var closer io.Closer
	if cfg.TTS.OutputPath != "" {
		f, err := os.Create(cfg.TTS.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("open audio output: %w", err)
		}
		sink = f
		closer = f
	}

	engine := speech.NewEngine(synth, sink, baseLogger.With("component", "speech"))
	machine := playback.NewMachine(engine, baseLogger.With("component", "playback"))

	controller := session.NewController(session.Deps{
		Service:   service,
		Catalog:   catalog.NewStore(),
		Playback:  machine,
		Extractor: readtext.New(),
		Logger:    baseLogger.With("component", "session"),
		Speech: ports.SpeechOptions{
			Language: cfg.Speech.Language,
			Rate:     cfg.Speech.Rate,
			Voice:    cfg.Speech.Voice,
		},
		UserID: cfg.Hub.UserID,
	})

	return &Application{cfg: cfg, session: controller, logger: baseLogger, closer: closer}, nil
}

// Session exposes the controller to the presentation layer.
func (a *Application) Session() *session.Controller {
	return a.session
}

// Run performs the initial catalog load, the same warm-up the page does on
// mount. The controller stays usable after a failure; the caller decides
// whether to retry.
func (a *Application) Run(ctx context.Context) error {
	if err := a.session.FetchCatalog(ctx); err != nil {
		return fmt.Errorf("initial catalog load: %w", err)
	}

	snap := a.session.Snapshot()
	a.logger.Info("session ready", "articles", snap.Articles)
	return nil
}

// Close releases the audio output, if one was opened.
func (a *Application) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
