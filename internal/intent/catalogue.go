// Package intent turns free text into a structured intent by keyword and
// pattern matching against a catalogue of known actions.
package intent

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/soyeahso/sidekick/internal/domain"
)

// ActionDefinition describes one action the assistant understands.
type ActionDefinition struct {
	Action      string
	Category    string
	Description string
	// Keywords are matched as substrings of the folded input.
	Keywords []string
	// Patterns are matched against the folded input and outrank keywords.
	Patterns []*regexp.Regexp
	// Priority breaks ties between actions matching the same input.
	Priority int
	// Permission required to run the action; empty means always allowed.
	Permission   string
	RequiresFlow bool
	// DateFields receive extracted dates in order of appearance.
	DateFields []string
	// TitleField receives a quoted title, defaults to "title".
	TitleField string
}

// Catalogue is the set of actions the detector can resolve to. It also
// answers permission checks since it knows each action's permission.
type Catalogue struct {
	mu       sync.RWMutex
	entries  []ActionDefinition
	byAction map[string]int
}

// NewCatalogue creates a catalogue from definitions, panicking on
// duplicates since catalogues are static.
func NewCatalogue(defs ...ActionDefinition) *Catalogue {
	c := &Catalogue{byAction: make(map[string]int)}
	for _, d := range defs {
		if err := c.Register(d); err != nil {
			panic(err)
		}
	}
	return c
}

// Register adds an action definition.
func (c *Catalogue) Register(def ActionDefinition) error {
	if def.Action == "" {
		return fmt.Errorf("intent: action name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byAction[def.Action]; exists {
		return fmt.Errorf("intent: action %q already registered", def.Action)
	}
	c.byAction[def.Action] = len(c.entries)
	c.entries = append(c.entries, def)
	return nil
}

// Get returns the definition of an action.
func (c *Catalogue) Get(action string) (ActionDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byAction[action]
	if !ok {
		return ActionDefinition{}, false
	}
	return c.entries[i], true
}

// All returns the definitions in registration order.
func (c *Catalogue) All() []ActionDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ActionDefinition, len(c.entries))
	copy(out, c.entries)
	return out
}

// HasPermissionForAction implements domain.PermissionChecker. Actions not in
// the catalogue are refused.
func (c *Catalogue) HasPermissionForAction(actx domain.AssistantContext, action string) bool {
	def, ok := c.Get(action)
	if !ok {
		return false
	}
	return actx.Can(def.Permission)
}

var _ domain.PermissionChecker = (*Catalogue)(nil)
