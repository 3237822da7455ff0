package flow

import (
	"fmt"
	"maps"
)

// ActiveFlow is the only state carried between turns. The engine never
// mutates an ActiveFlow it was given; it returns a new one.
type ActiveFlow struct {
	Action           string            `json:"action"`
	Steps            []Step            `json:"steps"`
	CurrentStepIndex int               `json:"currentStepIndex"`
	CollectedData    map[string]string `json:"collectedData"`
}

// New starts an empty flow for a definition.
func New(def Definition) *ActiveFlow {
	return &ActiveFlow{
		Action:        def.Action,
		Steps:         def.Steps,
		CollectedData: make(map[string]string),
	}
}

// Clone returns a copy whose collected data can be changed independently.
// Steps are immutable and shared.
func (f *ActiveFlow) Clone() *ActiveFlow {
	if f == nil {
		return nil
	}
	c := *f
	c.CollectedData = maps.Clone(f.CollectedData)
	if c.CollectedData == nil {
		c.CollectedData = make(map[string]string)
	}
	return &c
}

// CurrentStep returns the step awaiting input, if any.
func (f *ActiveFlow) CurrentStep() (Step, bool) {
	if f == nil || f.CurrentStepIndex < 0 || f.CurrentStepIndex >= len(f.Steps) {
		return Step{}, false
	}
	return f.Steps[f.CurrentStepIndex], true
}

// Snapshot is the serialisable form of an ActiveFlow. Steps are not stored
// since they carry validation funcs; Restore looks them up again.
type Snapshot struct {
	Action    string            `json:"action"`
	StepIndex int               `json:"stepIndex"`
	Collected map[string]string `json:"collected"`
}

// Snapshot returns the serialisable form of f.
func (f *ActiveFlow) Snapshot() Snapshot {
	return Snapshot{
		Action:    f.Action,
		StepIndex: f.CurrentStepIndex,
		Collected: maps.Clone(f.CollectedData),
	}
}

// Restore rebuilds an ActiveFlow from a snapshot using the registered
// definition. Collected values for fields the definition no longer has are
// dropped.
func Restore(s Snapshot, reg *Registry) (*ActiveFlow, error) {
	def, ok := reg.Get(s.Action)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, s.Action)
	}
	if s.StepIndex < 0 || s.StepIndex >= len(def.Steps) {
		return nil, fmt.Errorf("flow %q: step index %d out of range", s.Action, s.StepIndex)
	}
	f := New(def)
	f.CurrentStepIndex = s.StepIndex
	for _, step := range def.Steps {
		if v, ok := s.Collected[step.Field]; ok {
			f.CollectedData[step.Field] = v
		}
	}
	return f, nil
}
