// Package suggest produces the clickable shortcuts shown after every turn.
// Every suggestion goes through the same permission filter so nothing the
// user may not run is ever offered.
package suggest

import (
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/sidekick/internal/command"
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/flow"
	"github.com/soyeahso/sidekick/internal/textnorm"
)

// Category of suggestions that answer the current flow step.
const CategoryStep = "step"

// Catalogue is the static material suggestions are drawn from.
type Catalogue struct {
	// Defaults are offered when nothing more specific applies.
	Defaults []domain.Suggestion
	// Pages holds contextual suggestions keyed by page.
	Pages map[string][]domain.Suggestion
	// FollowUps holds suggestions keyed by action category.
	FollowUps map[string][]domain.Suggestion
	// Autocomplete is searched for pre-submit hints.
	Autocomplete []domain.Suggestion
}

// Engine builds suggestions. It is safe for concurrent use.
type Engine struct {
	cat      Catalogue
	perms    domain.PermissionChecker
	commands *command.Parser
	vocab    flow.Vocabulary
	now      func() time.Time
	limit    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for date shortcuts.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCommands lets autocomplete offer prefix commands.
func WithCommands(p *command.Parser) Option {
	return func(e *Engine) { e.commands = p }
}

// WithVocabulary sets the phrases used by confirm and skip chips.
func WithVocabulary(v flow.Vocabulary) Option {
	return func(e *Engine) { e.vocab = v.WithDefaults() }
}

// WithLimit caps the number of suggestions returned per call.
func WithLimit(n int) Option {
	return func(e *Engine) { e.limit = n }
}

// NewEngine creates a suggestion engine.
func NewEngine(cat Catalogue, perms domain.PermissionChecker, opts ...Option) *Engine {
	e := &Engine{
		cat:   cat,
		perms: perms,
		vocab: flow.DefaultVocabulary(),
		now:   time.Now,
		limit: 6,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ForStep returns chips answering a flow step: its options, date
// shortcuts, yes/no, and a skip chip when the step is optional.
func (e *Engine) ForStep(step flow.Step, actx domain.AssistantContext) []domain.Suggestion {
	var out []domain.Suggestion
	chip := func(label, query, icon string) {
		out = append(out, domain.Suggestion{
			ID:       fmt.Sprintf("step:%s:%d", step.Field, len(out)+1),
			Label:    label,
			Icon:     icon,
			Query:    query,
			Category: CategoryStep,
		})
	}

	switch step.Type {
	case flow.TypeSelect:
		for _, o := range step.Options {
			chip(o.Label, o.Label, "")
		}
	case flow.TypeDate:
		today := e.now()
		chip("Aujourd'hui", today.Format(time.DateOnly), "calendar")
		chip("Demain", today.AddDate(0, 0, 1).Format(time.DateOnly), "calendar")
		chip("Semaine prochaine", nextMonday(today).Format(time.DateOnly), "calendar")
	case flow.TypeConfirm:
		chip("Oui", e.vocab.Affirm[0], "check")
		chip("Annuler", e.vocab.Cancel[0], "x")
	}
	if !step.Required && step.Type != flow.TypeConfirm {
		chip("Passer", e.vocab.Skip[0], "skip")
	}
	return e.Filter(actx, out)
}

// Contextual returns the suggestions for the user's current page, or the
// defaults.
func (e *Engine) Contextual(actx domain.AssistantContext) []domain.Suggestion {
	if s, ok := e.cat.Pages[actx.CurrentPage]; ok && actx.CurrentPage != "" {
		if filtered := e.Filter(actx, s); len(filtered) > 0 {
			return e.cap(filtered)
		}
	}
	return e.cap(e.Filter(actx, e.cat.Defaults))
}

// FollowUps returns suggestions for after an action of the given category
// ran or failed, falling back to the contextual ones.
func (e *Engine) FollowUps(category string, actx domain.AssistantContext) []domain.Suggestion {
	if s, ok := e.cat.FollowUps[category]; ok {
		if filtered := e.Filter(actx, s); len(filtered) > 0 {
			return e.cap(filtered)
		}
	}
	return e.Contextual(actx)
}

// Autocomplete returns hints for partially typed input. Prefix matches on
// the label or query come before substring matches.
func (e *Engine) Autocomplete(partial string, actx domain.AssistantContext) []domain.Suggestion {
	trimmed := strings.TrimSpace(partial)
	if trimmed == "" {
		return nil
	}
	if e.commands != nil && e.commands.IsCommand(trimmed) {
		return e.cap(e.Filter(actx, e.commandSuggestions(trimmed)))
	}

	needle := textnorm.Fold(trimmed)
	var prefix, contains []domain.Suggestion
	seen := make(map[string]bool)
	for _, s := range e.cat.Autocomplete {
		if seen[s.ID] {
			continue
		}
		label, query := textnorm.Fold(s.Label), textnorm.Fold(s.Query)
		switch {
		case strings.HasPrefix(label, needle) || strings.HasPrefix(query, needle):
			prefix = append(prefix, s)
		case strings.Contains(label, needle) || strings.Contains(query, needle):
			contains = append(contains, s)
		default:
			continue
		}
		seen[s.ID] = true
	}
	return e.cap(e.Filter(actx, append(prefix, contains...)))
}

func (e *Engine) commandSuggestions(partial string) []domain.Suggestion {
	var out []domain.Suggestion
	for _, c := range e.commands.Complete(partial) {
		out = append(out, domain.Suggestion{
			ID:          "cmd:" + c.Name,
			Label:       e.commands.Syntax(c),
			Icon:        "terminal",
			Query:       e.commands.Prefix() + c.Name,
			Category:    "command",
			Description: c.Description,
			Action:      c.Action,
		})
	}
	return out
}

// Filter drops suggestions whose action the context may not run.
func (e *Engine) Filter(actx domain.AssistantContext, in []domain.Suggestion) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(in))
	for _, s := range in {
		if s.Action == "" || e.perms == nil || e.perms.HasPermissionForAction(actx, s.Action) {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) cap(s []domain.Suggestion) []domain.Suggestion {
	if e.limit > 0 && len(s) > e.limit {
		return s[:e.limit]
	}
	return s
}

func nextMonday(t time.Time) time.Time {
	days := (8 - int(t.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return t.AddDate(0, 0, days)
}
