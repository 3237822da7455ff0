package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/soyeahso/sidekick/internal/assistant"
	"github.com/soyeahso/sidekick/internal/config"
	"github.com/soyeahso/sidekick/internal/hooks"
	"github.com/soyeahso/sidekick/internal/logging"
	"github.com/soyeahso/sidekick/internal/plugin"
	"github.com/soyeahso/sidekick/internal/store"
	"github.com/soyeahso/sidekick/internal/workspace"
)

// purgeInterval is how often expired flows are swept from SQLite.
const purgeInterval = 5 * time.Minute

// engine is the assistant with everything it needs to run a turn.
type engine struct {
	stack   *assistant.Stack
	hooks   *hooks.Manager
	plugins *plugin.Registry
	flows   assistant.FlowStore
	runner  *assistant.Runner

	closers []io.Closer
}

// newEngine builds the stack from cfg, initializes plugins and opens the
// configured flow store.
func newEngine(ctx context.Context, cfg config.Config, p config.Paths, log *logging.Logger) (*engine, error) {
	e := &engine{hooks: hooks.NewManager(log)}
	registerConfigHooks(e.hooks, cfg.Hooks, log)

	e.stack = assistant.NewStack(assistant.StackConfig{
		CommandPrefix: cfg.Assistant.CommandPrefix,
		Vocabulary:    cfg.Vocabulary(),
		ThinkingDelay: time.Duration(cfg.Assistant.ThinkingDelayMs) * time.Millisecond,
	}, log)

	e.plugins = plugin.NewRegistry(plugin.API{
		Hooks:   e.hooks,
		Actions: e.stack.Executor,
		Flows:   e.stack.Flows,
		Intents: e.stack.Intents,
		Log:     log,
	}, log)
	if err := e.plugins.Register(workspace.NewPlugin()); err != nil {
		return nil, err
	}
	if err := e.plugins.InitAll(ctx); err != nil {
		return nil, fmt.Errorf("initializing plugins: %w", err)
	}

	flows, closer, err := openFlowStore(ctx, cfg.Session, p, log)
	if err != nil {
		e.plugins.CloseAll()
		return nil, err
	}
	e.flows = flows
	if closer != nil {
		e.closers = append(e.closers, closer)
	}

	e.runner = assistant.NewRunner(e.stack.Processor, flows, e.hooks, log)
	return e, nil
}

// Close waits for pending hooks, then releases plugins and the store.
func (e *engine) Close() error {
	e.hooks.Wait()
	e.plugins.CloseAll()
	var errs []error
	for _, c := range slices.Backward(e.closers) {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// openFlowStore opens the store named by cfg.Store. The closer is nil for
// the memory store.
func openFlowStore(ctx context.Context, cfg config.SessionConfig, p config.Paths, log *logging.Logger) (assistant.FlowStore, io.Closer, error) {
	idle := time.Duration(cfg.IdleMinutes) * time.Minute

	switch cfg.Store {
	case "sqlite":
		if err := p.EnsureDirs(); err != nil {
			return nil, nil, err
		}
		db, err := store.Open(p.FlowsDB, log)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		log.Info().Str("path", p.FlowsDB).Msg("using SQLite flow store")
		return store.NewSQLiteFlowStore(db, idle), db, nil
	case "redis":
		rs, err := store.OpenRedis(ctx, cfg.RedisURL, idle, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("using Redis flow store")
		return rs, rs, nil
	default:
		log.Info().Msg("using in-memory flow store")
		return assistant.NewMemoryFlowStore(idle), nil, nil
	}
}

// registerConfigHooks turns the hooks section of the config into shell
// command handlers.
func registerConfigHooks(hm *hooks.Manager, cfg config.HooksConfig, log *logging.Logger) {
	for _, event := range slices.Sorted(maps.Keys(cfg)) {
		for i, entry := range cfg[event] {
			name := fmt.Sprintf("config:%s:%d", event, i)
			hm.On(hooks.Event(event), name, hooks.CommandHandler(entry.Command, time.Duration(entry.Timeout)*time.Millisecond))
			log.Debug().Str("event", event).Str("command", entry.Command).Msg("hook registered")
		}
	}
}

type purger interface {
	Purge(ctx context.Context) (int64, error)
}

// purgeLoop sweeps expired flows until ctx ends. Stores that expire
// entries themselves are left alone.
func purgeLoop(ctx context.Context, flows assistant.FlowStore, interval time.Duration, log *logging.Logger) {
	p, ok := flows.(purger)
	if !ok {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Purge(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("purging expired flows")
				continue
			}
			if n > 0 {
				log.Debug().Int64("flows", n).Msg("purged expired flows")
			}
		}
	}
}
