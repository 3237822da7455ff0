// Package flow drives multi-turn guided dialogues: slot filling with
// validation, a summary before confirmation, and cancellation.
package flow

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// StepType controls how a step's input is interpreted.
type StepType string

const (
	TypeText    StepType = "text"
	TypeSelect  StepType = "select"
	TypeDate    StepType = "date"
	TypeConfirm StepType = "confirm"
)

// Option is one fixed choice of a select step.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Step is one slot to fill.
type Step struct {
	Field    string   `json:"field"`
	Label    string   `json:"label"`
	Type     StepType `json:"type"`
	Options  []Option `json:"options,omitempty"`
	Required bool     `json:"required"`
	// Validate returns a user-facing error message, or "" when the value is
	// acceptable.
	Validate func(value string) string `json:"-"`
}

// OptionLabel returns the label of the option whose value is v, or v itself.
func (s Step) OptionLabel(v string) string {
	for _, o := range s.Options {
		if o.Value == v {
			return o.Label
		}
	}
	return v
}

// Definition is the static template of a flow, registered per action.
type Definition struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Steps       []Step `json:"steps"`
}

// ErrUnknownFlow is returned when no definition is registered for an action.
var ErrUnknownFlow = errors.New("flow: no definition registered for action")

// Registry holds flow definitions keyed by action.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition. The confirm step, when present, must be last
// and select steps must carry options.
func (r *Registry) Register(def Definition) error {
	if def.Action == "" {
		return errors.New("flow: definition action is required")
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("flow %q: at least one step is required", def.Action)
	}
	seen := make(map[string]bool, len(def.Steps))
	for i, s := range def.Steps {
		if s.Field == "" {
			return fmt.Errorf("flow %q: step %d has no field", def.Action, i)
		}
		if seen[s.Field] {
			return fmt.Errorf("flow %q: duplicate field %q", def.Action, s.Field)
		}
		seen[s.Field] = true
		if s.Type == TypeConfirm && i != len(def.Steps)-1 {
			return fmt.Errorf("flow %q: confirm step %q must be last", def.Action, s.Field)
		}
		if s.Type == TypeSelect && len(s.Options) == 0 {
			return fmt.Errorf("flow %q: select step %q has no options", def.Action, s.Field)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Action]; exists {
		return fmt.Errorf("flow %q already registered", def.Action)
	}
	r.defs[def.Action] = def
	return nil
}

// MustRegister is Register that panics on error, for static catalogues.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns the definition for an action.
func (r *Registry) Get(action string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[action]
	return def, ok
}

// Actions returns the registered action names, sorted.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for a := range r.defs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
