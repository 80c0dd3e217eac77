// Package ai obtains a reply from a language model, falling back across
// candidate models.
package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/model"
)

// Backend talks to a model provider.
type Backend interface {
	Generate(ctx context.Context, modelName, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Attempt is one try against one model.
type Attempt struct {
	Model string `json:"model"`
	Error string `json:"error,omitempty"`
}

// Generation is the outcome of Engine.Generate. When every candidate fails,
// Raw holds a synthetic response with category ERROR and Failed is true.
type Generation struct {
	Raw      string
	Model    string
	Failed   bool
	Attempts []Attempt
}

// Err summarises the failed attempts, nil on success.
func (g Generation) Err() error {
	if !g.Failed {
		return nil
	}
	causes := lo.Map(g.Attempts, func(a Attempt, _ int) string {
		return a.Model + ": " + a.Error
	})
	if len(causes) == 0 {
		return model.ErrNoModelResponded
	}
	return fmt.Errorf("%w (%s)", model.ErrNoModelResponded, strings.Join(causes, "; "))
}

// Engine tries each candidate model in order and never returns an error.
type Engine struct {
	backend   Backend
	models    []string
	discovery bool
	timeout   time.Duration

	// OnFallback is called for every failed attempt.
	OnFallback func(modelName string, err error)

	mu         sync.Mutex
	discovered string
}

// Option configures an Engine.
type Option func(*Engine)

// WithDiscovery enables asking the provider for further models once the
// static list is exhausted.
func WithDiscovery(enabled bool) Option {
	return func(e *Engine) { e.discovery = enabled }
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine creates an engine over the ordered candidate list.
func NewEngine(backend Backend, models []string, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		models:  lo.Uniq(lo.Compact(models)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Models returns the configured candidates followed by a model found
// through discovery, if any.
func (e *Engine) Models() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discovered == "" {
		return append([]string(nil), e.models...)
	}
	return lo.Uniq(append(append([]string(nil), e.models...), e.discovered))
}

func (e *Engine) Generate(ctx context.Context, prompt string) Generation {
	var gen Generation
	tried := map[string]bool{}

	try := func(name string) bool {
		tried[name] = true
		text, err := e.attempt(ctx, name, prompt)
		if err != nil {
			gen.Attempts = append(gen.Attempts, Attempt{Model: name, Error: err.Error()})
			logrus.WithField("model", name).Warnf("Model attempt failed: %v", err)
			if e.OnFallback != nil {
				e.OnFallback(name, err)
			}
			return false
		}
		gen.Attempts = append(gen.Attempts, Attempt{Model: name})
		gen.Raw, gen.Model = text, name
		return true
	}

	for _, name := range e.Models() {
		if try(name) {
			return gen
		}
	}

	if e.discovery && ctx.Err() == nil {
		found, err := e.Discover(ctx)
		if err != nil {
			logrus.Warnf("Model discovery failed: %v", err)
			gen.Attempts = append(gen.Attempts, Attempt{Model: "discovery", Error: err.Error()})
		}
		for _, name := range found {
			if tried[name] {
				continue
			}
			if try(name) {
				e.mu.Lock()
				e.discovered = name
				e.mu.Unlock()
				logrus.WithField("model", name).Info("Using discovered model")
				return gen
			}
		}
	}

	gen.Failed = true
	gen.Raw = ErrorResponse()
	logrus.Errorf("All models failed: %v", gen.Err())
	return gen
}

func (e *Engine) attempt(ctx context.Context, name, prompt string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	text, err := e.backend.Generate(ctx, name, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}

var nonChatModels = []string{"embedding", "embed", "aqa", "imagen", "veo", "tts", "image", "audio", "vision", "learnlm"}

// Discover lists models that can generate text, fast ("flash") models first.
func (e *Engine) Discover(ctx context.Context) ([]string, error) {
	names, err := e.backend.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	usable := lo.Filter(lo.Uniq(lo.Map(names, func(n string, _ int) string {
		return strings.TrimPrefix(n, "models/")
	})), func(n string, _ int) bool {
		lower := strings.ToLower(n)
		return n != "" && !lo.ContainsBy(nonChatModels, func(marker string) bool {
			return strings.Contains(lower, marker)
		})
	})

	sort.SliceStable(usable, func(i, j int) bool {
		return strings.Contains(usable[i], "flash") && !strings.Contains(usable[j], "flash")
	})
	return usable, nil
}

// ErrorResponse is the raw response used when no model answered.
func ErrorResponse() string {
	return "CATEGORY: " + string(model.CategoryError) + "\n" +
		"ANSWER: We are sorry, we could not prepare an automatic reply to your message right now. " +
		"A member of our team will get back to you as soon as possible."
}
