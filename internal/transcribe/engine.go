package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"transcribr/internal/logging"
	"transcribr/internal/services"
)

// Engine owns the currently loaded model. Use holds the engine for the whole
// callback, so a tier change waits for the running job and a reload always
// completes before the next job starts.
type Engine struct {
	loader Loader
	logger *slog.Logger

	mu    sync.Mutex
	tier  Tier
	model Model
	loads int
}

// NewEngine creates an engine with no model loaded.
func NewEngine(loader Loader, logger *slog.Logger) *Engine {
	return &Engine{
		loader: loader,
		logger: logging.NewComponentLogger(logger, "engine"),
	}
}

// Use runs fn with the model for tier, loading or reloading it first when needed.
func (e *Engine) Use(ctx context.Context, tier Tier, fn func(Model) error) error {
	if e == nil || e.loader == nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "use engine", "no model loader configured", nil)
	}
	if fn == nil {
		return errors.New("transcribe: nil engine callback")
	}
	if !tier.Valid() {
		return services.Wrap(services.ErrInvalidInput, "transcribe", "use engine", fmt.Sprintf("unknown tier %q", tier), nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil || e.tier != tier {
		if err := e.reload(ctx, tier); err != nil {
			return err
		}
	}
	return fn(e.model)
}

func (e *Engine) reload(ctx context.Context, tier Tier) error {
	logger := logging.WithContext(ctx, e.logger)
	previous := e.tier
	// Drop the old model before loading so only one is ever held.
	e.model = nil
	e.tier = ""

	logger.Info("loading recognition model",
		logging.String("tier", string(tier)),
		logging.String("model", tier.Model()),
		logging.String("previous_tier", string(previous)),
	)
	model, err := e.loader.Load(ctx, tier)
	if err != nil {
		return services.Wrap(services.ErrRecognition, "transcribe", "load model", tier.Label(), err)
	}
	e.model = model
	e.tier = tier
	e.loads++
	return nil
}

// Tier returns the tier of the loaded model, or "" when none is loaded.
func (e *Engine) Tier() Tier {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tier
}

// Loads returns how many times a model has been loaded.
func (e *Engine) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}
