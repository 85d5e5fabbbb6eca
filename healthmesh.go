// Package healthmesh provides a high-level façade over the orchestration
// engine: sessions, the dispatch loop, the response cache and the data
// version tracker, wired together behind a single streaming entry point.
// Most applications interact with this package by:
//  1. Creating a Mesh via New() with a registry of agents (or via
//     NewFromConfig, which assembles the built-in health team)
//  2. Submitting user turns asynchronously (SubmitTurn) or synchronously
//     (SubmitTurnSync)
//
// All defaults are safe for local development and testing; production
// deployments typically supply a structured logger and a configuration file.
package healthmesh

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/healthmesh/agent"
	"github.com/hupe1980/healthmesh/cache"
	"github.com/hupe1980/healthmesh/config"
	"github.com/hupe1980/healthmesh/core"
	"github.com/hupe1980/healthmesh/datawatch"
	"github.com/hupe1980/healthmesh/logging"
	"github.com/hupe1980/healthmesh/model"
	anthropicmodel "github.com/hupe1980/healthmesh/model/anthropic"
	openaimodel "github.com/hupe1980/healthmesh/model/openai"
	"github.com/hupe1980/healthmesh/orchestrator"
	"github.com/hupe1980/healthmesh/registry"
	"github.com/hupe1980/healthmesh/session"
	"github.com/hupe1980/healthmesh/tool"
)

// Options configures the Mesh instance.
type Options struct {
	// Sessions overrides the session manager (defaults to an in-memory
	// manager with the standard idle TTL).
	Sessions *session.Manager

	// Cache overrides the response cache.
	Cache *cache.ResponseCache

	// CacheTTL is the lifetime for cached final responses; zero selects the
	// cache's default.
	CacheTTL time.Duration

	// Tracker supplies the upstream data version. Nil pins the version to 0,
	// which keeps caching correct but never invalidates on data changes.
	Tracker *datawatch.Tracker

	// EventBufferSize sets the channel buffer size for turn events. Larger
	// buffers reduce blocking but increase memory usage.
	EventBufferSize int

	// Orchestrator collects overrides for the dispatch loop (hop limits,
	// invocation timeout).
	Orchestrator []func(o *orchestrator.Options)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the dispatch loop and its
// supporting services. Safe for concurrent use; turns within one session are
// serialized internally.
type Mesh struct {
	sessions *session.Manager
	cache    *cache.ResponseCache
	tracker  *datawatch.Tracker
	orch     *orchestrator.Orchestrator
	cacheTTL time.Duration
	bufSize  int
	logger   logging.Logger
}

// New creates a Mesh over a registry. The entry, coordinator and terminal
// names select the dispatch roles and must be registered.
func New(reg *registry.Registry, entry, coordinator, terminal string, optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{
		EventBufferSize: 64,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Sessions == nil {
		opts.Sessions = session.NewManager(func(o *session.Options) {
			o.Logger = opts.Logger
		})
	}
	if opts.Cache == nil {
		opts.Cache = cache.New()
	}

	orchOpts := append([]func(o *orchestrator.Options){func(o *orchestrator.Options) {
		o.Logger = opts.Logger
	}}, opts.Orchestrator...)

	orch, err := orchestrator.New(reg, entry, coordinator, terminal, orchOpts...)
	if err != nil {
		return nil, err
	}

	return &Mesh{
		sessions: opts.Sessions,
		cache:    opts.Cache,
		tracker:  opts.Tracker,
		orch:     orch,
		cacheTTL: opts.CacheTTL,
		bufSize:  opts.EventBufferSize,
		logger:   opts.Logger,
	}, nil
}

// NewFromConfig assembles a Mesh running the built-in health assistant team:
// model from the configured provider, data stores and version tracker over
// the configured directories, and dispatch limits from the config.
func NewFromConfig(cfg *config.Config) (*Mesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	llm, err := buildModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	userData := tool.NewUserDataStore(cfg.Data.UserDir)
	reference := tool.NewReferenceStore(cfg.Data.ReferenceDir)

	reg, err := registry.New(agent.HealthTeam(llm, userData, reference)...)
	if err != nil {
		return nil, err
	}

	tracker := datawatch.NewTracker(userData.Sources(), func(o *datawatch.Options) {
		o.Logger = logger
	})
	if cfg.Data.Watch {
		if err := tracker.Watch(); err != nil {
			return nil, err
		}
	}

	return New(reg, agent.GuardrailName, agent.TriageName, agent.CriticName, func(o *Options) {
		o.Logger = logger
		o.Tracker = tracker
		o.CacheTTL = cfg.Cache.TTL.Std()
		o.Cache = cache.New(func(co *cache.Options) {
			co.Capacity = cfg.Cache.Capacity
			co.TTL = cfg.Cache.TTL.Std()
		})
		o.Sessions = session.NewManager(func(so *session.Options) {
			so.TTL = cfg.Session.TTL.Std()
			so.Logger = logger
		})
		o.Orchestrator = []func(oo *orchestrator.Options){func(oo *orchestrator.Options) {
			oo.MaxHops = cfg.Dispatch.MaxHops
			oo.MaxCoordinatorCalls = cfg.Dispatch.MaxCoordinatorCalls
			oo.MaxCriticReturns = cfg.Dispatch.MaxCriticReturns
			oo.InvocationTimeout = cfg.Dispatch.InvocationTimeout.Std()
		}}
	})
}

// buildModel instantiates the configured reasoning service.
func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Name != "" {
				o.Model = anthropic.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		}), nil
	case "scripted":
		return model.NewScriptedModel(cfg.Name), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// SubmitTurn processes one user message asynchronously and returns the event
// stream for the turn. The stream carries agent activity and partial output
// while the turn runs, then exactly one final-text event (holding the
// session id to use on the next turn) followed by a done event. A transport
// or cancellation failure replaces the remaining events with a single error
// event.
//
// An empty or unknown sessionID starts a fresh session; its id is surfaced
// on the final-text event.
func (m *Mesh) SubmitTurn(ctx context.Context, message, sessionID string) (<-chan core.Event, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message must not be empty")
	}

	events := make(chan core.Event, m.bufSize)

	go func() {
		defer close(events)

		shared, id := m.sessions.Resolve(sessionID)
		unlock := m.sessions.LockTurn(id)
		defer unlock()

		// One version snapshot per turn: the cache lookup and the eventual
		// store use the same version even if sources change mid-turn.
		var version int64
		if m.tracker != nil {
			version = m.tracker.Current()
		}
		shared.DataVersion = version

		normalized := cache.NormalizeQuery(message)
		if cached, ok := m.cache.Get(id, version, normalized); ok {
			m.logger.Debug("cache hit session_id=%s data_version=%d", id, version)
			shared.AddMessage(core.RoleUser, message, "")
			shared.AddMessage(core.RoleAgent, cached, "cache")
			m.sessions.Persist(shared)
			m.send(ctx, events, core.NewFinalTextEvent(cached, id))
			m.send(ctx, events, core.NewDoneEvent())
			return
		}
		m.logger.Debug("cache miss session_id=%s data_version=%d", id, version)

		if shared.UserIntent == "" {
			shared.UserIntent = message
		}

		final, err := m.orch.RunTurn(ctx, shared, message, events)
		if err != nil {
			// The consumer may already have abandoned the stream; never block
			// the turn goroutine on delivering the terminal error event.
			select {
			case events <- core.NewErrorEvent(err):
			default:
			}
			return
		}

		m.cache.Put(id, version, normalized, final, m.cacheTTL)
		m.sessions.Persist(shared)
		m.send(ctx, events, core.NewFinalTextEvent(final, id))
		m.send(ctx, events, core.NewDoneEvent())
	}()

	return events, nil
}

// SubmitTurnSync is a synchronous helper that drains the event stream and
// returns the final response text and the session id for the next turn.
func (m *Mesh) SubmitTurnSync(ctx context.Context, message, sessionID string) (string, string, error) {
	events, err := m.SubmitTurn(ctx, message, sessionID)
	if err != nil {
		return "", "", err
	}

	var finalText, id string
	for ev := range events {
		switch ev.Kind {
		case core.EventFinalText:
			finalText = ev.Text
			id = ev.SessionID
		case core.EventError:
			return "", "", fmt.Errorf("turn failed: %s", ev.ErrText)
		}
	}
	return finalText, id, nil
}

// Reset drops a session so the next turn starts a fresh conversation.
func (m *Mesh) Reset(sessionID string) {
	m.sessions.Delete(sessionID)
}

// Sessions exposes the session manager, e.g. for explicit expiry sweeps.
func (m *Mesh) Sessions() *session.Manager { return m.sessions }

// Close releases background resources (the data watcher, if any).
func (m *Mesh) Close() error {
	if m.tracker != nil {
		return m.tracker.Close()
	}
	return nil
}

func (m *Mesh) send(ctx context.Context, events chan<- core.Event, ev core.Event) {
	select {
	case <-ctx.Done():
	case events <- ev:
	}
}
