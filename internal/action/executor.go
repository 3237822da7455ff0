// Package action executes resolved intents and completed flows by
// delegating to one registered invoker per action.
package action

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/logging"
)

// Request is what an invoker receives.
type Request struct {
	Action  string
	Params  map[string]string
	Context domain.AssistantContext
}

// Invoker performs the domain operation behind one action.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (domain.ActionResult, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, req Request) (domain.ActionResult, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, req Request) (domain.ActionResult, error) {
	return f(ctx, req)
}

// Failure is a domain error whose message can be shown to the user as is.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// Fail returns a Failure carrying a user-facing message.
func Fail(message string) error {
	return &Failure{Message: message}
}

// Failf wraps err with a user-facing message.
func Failf(err error, format string, args ...any) error {
	return &Failure{Message: fmt.Sprintf(format, args...), Err: err}
}

const (
	msgUnknownAction = "Je ne sais pas encore faire cela (%s)."
	msgGenericError  = "Désolé, l'opération n'a pas pu aboutir. Réessayez dans un instant."
)

// Executor dispatches actions to their invokers. It never retries.
type Executor struct {
	mu       sync.RWMutex
	invokers map[string]Invoker
	log      *logging.Logger
}

// NewExecutor creates an executor with no invokers.
func NewExecutor(log *logging.Logger) *Executor {
	return &Executor{
		invokers: make(map[string]Invoker),
		log:      log.Sub("action"),
	}
}

// Register binds an invoker to an action, replacing any previous one.
func (e *Executor) Register(action string, inv Invoker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invokers[action] = inv
	e.log.Debug().Str("action", action).Msg("invoker registered")
}

// RegisterFunc is Register for a plain function.
func (e *Executor) RegisterFunc(action string, fn func(ctx context.Context, req Request) (domain.ActionResult, error)) {
	e.Register(action, InvokerFunc(fn))
}

// Has reports whether an invoker is registered for action.
func (e *Executor) Has(action string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.invokers[action]
	return ok
}

// Actions returns the actions with an invoker, sorted.
func (e *Executor) Actions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.invokers))
	for a := range e.invokers {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Execute runs action. Failures come back as an unsuccessful result with a
// user-facing message; Execute itself never fails.
func (e *Executor) Execute(ctx context.Context, action string, params map[string]string, actx domain.AssistantContext) (res domain.ActionResult) {
	e.mu.RLock()
	inv, ok := e.invokers[action]
	e.mu.RUnlock()
	if !ok {
		e.log.Warn().Str("action", action).Msg("no invoker for action")
		return domain.ActionResult{Success: false, Message: fmt.Sprintf(msgUnknownAction, action)}
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("action", action).Interface("panic", r).Msg("invoker panicked")
			res = domain.ActionResult{Success: false, Message: msgGenericError}
		}
	}()

	if params == nil {
		params = map[string]string{}
	}
	res, err := inv.Invoke(ctx, Request{Action: action, Params: params, Context: actx})
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			e.log.Info().Err(err).Str("action", action).Msg("action refused")
			return domain.ActionResult{Success: false, Message: f.Message}
		}
		e.log.Error().Err(err).Str("action", action).Msg("action failed")
		return domain.ActionResult{Success: false, Message: msgGenericError}
	}

	e.log.Debug().Str("action", action).Bool("success", res.Success).Msg("action executed")
	return res
}

// Navigate returns an invoker that only sends the user to route.
func Navigate(route, message string) Invoker {
	return InvokerFunc(func(context.Context, Request) (domain.ActionResult, error) {
		return domain.ActionResult{Success: true, Message: message, NavigateTo: route}, nil
	})
}

// Reply returns an invoker that answers with a fixed message.
func Reply(message string) Invoker {
	return InvokerFunc(func(context.Context, Request) (domain.ActionResult, error) {
		return domain.ActionResult{Success: true, Message: message}, nil
	})
}
