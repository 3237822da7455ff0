package flow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/soyeahso/sidekick/internal/textnorm"
)

// State is where a flow stands after a turn.
type State string

const (
	StateCollecting State = "collecting"
	StateConfirming State = "confirming"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether the flow is over.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Outcome is the result of starting or advancing a flow.
type Outcome struct {
	State State
	// Flow is the flow to hand back on the next turn; nil once terminal.
	Flow *ActiveFlow
	// Message is the prompt, re-prompt or acknowledgement to show.
	Message string
	// Step is the step now awaiting input; nil once terminal.
	Step *Step
	// Rejected is set when the input was refused and the flow is unchanged.
	Rejected bool
	// Action and Data describe what to execute once completed.
	Action string
	Data   map[string]string
}

// Messages holds the user-facing strings produced by the engine.
type Messages struct {
	Required      string
	InvalidChoice string
	ConfirmHint   string
	SummaryTitle  string
	Cancelled     string
	EmptyValue    string
}

// DefaultMessages returns the French strings.
func DefaultMessages() Messages {
	return Messages{
		Required:      "Ce champ est obligatoire.",
		InvalidChoice: "Choix invalide. Répondez par le numéro ou le nom d'une option :",
		ConfirmHint:   "Répondez par **oui** pour confirmer ou **annuler** pour abandonner.",
		SummaryTitle:  "**Récapitulatif**",
		Cancelled:     "D'accord, j'ai annulé l'opération.",
		EmptyValue:    "non renseigné",
	}
}

// Engine applies the step transition rules. It holds no per-flow state and
// is safe for concurrent use.
type Engine struct {
	vocab Vocabulary
	msgs  Messages
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMessages overrides the user-facing strings.
func WithMessages(m Messages) EngineOption {
	return func(e *Engine) { e.msgs = m }
}

// NewEngine creates an engine recognising the given vocabulary.
func NewEngine(vocab Vocabulary, opts ...EngineOption) *Engine {
	e := &Engine{vocab: vocab.WithDefaults(), msgs: DefaultMessages()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Vocabulary returns the phrases the engine recognises.
func (e *Engine) Vocabulary() Vocabulary { return e.vocab }

// Start begins a flow, pre-filling the longest prefix of steps whose field
// has a usable value in entities. Entities for steps after the first gap
// are discarded.
func (e *Engine) Start(def Definition, entities map[string]string) Outcome {
	f := New(def)
	for _, step := range def.Steps {
		if step.Type == TypeConfirm {
			break
		}
		v, ok := e.prefill(step, entities[step.Field])
		if !ok {
			break
		}
		f.CollectedData[step.Field] = v
		f.CurrentStepIndex++
	}

	out := e.land(f)
	if !out.State.Terminal() && def.Description != "" {
		out.Message = def.Description + "\n\n" + out.Message
	}
	return out
}

func (e *Engine) prefill(step Step, raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	if step.Type == TypeSelect {
		var ok bool
		if v, ok = resolveOption(step, v); !ok {
			return "", false
		}
	}
	if step.Validate != nil && step.Validate(v) != "" {
		return "", false
	}
	return v, true
}

// Advance applies one user turn to f.
func (e *Engine) Advance(f *ActiveFlow, input string) Outcome {
	step, ok := f.CurrentStep()
	if !ok {
		return e.land(f.Clone())
	}
	value := strings.TrimSpace(input)

	if step.Type == TypeConfirm {
		switch {
		case e.vocab.IsCancel(value):
			return Outcome{State: StateCancelled, Action: f.Action, Message: e.msgs.Cancelled}
		case e.vocab.IsAffirm(value):
			return Outcome{State: StateCompleted, Action: f.Action, Data: f.Clone().CollectedData}
		default:
			return e.reject(f, step, e.msgs.ConfirmHint+"\n\n"+step.Label)
		}
	}

	if value == "" || (!step.Required && e.vocab.IsSkip(value)) {
		if step.Required {
			return e.reject(f, step, e.msgs.Required+"\n\n"+Prompt(step))
		}
		return e.accept(f, step, "")
	}

	if step.Type == TypeSelect {
		canonical, ok := resolveOption(step, value)
		if !ok {
			return e.reject(f, step, e.msgs.InvalidChoice+formatOptions(step.Options))
		}
		value = canonical
	}

	if step.Validate != nil {
		if msg := step.Validate(value); msg != "" {
			return e.reject(f, step, msg+"\n\n"+Prompt(step))
		}
	}

	return e.accept(f, step, value)
}

func (e *Engine) accept(f *ActiveFlow, step Step, value string) Outcome {
	next := f.Clone()
	next.CollectedData[step.Field] = value
	next.CurrentStepIndex++
	return e.land(next)
}

func (e *Engine) reject(f *ActiveFlow, step Step, msg string) Outcome {
	state := StateCollecting
	if step.Type == TypeConfirm {
		state = StateConfirming
	}
	return Outcome{State: state, Flow: f, Message: msg, Step: &f.Steps[f.CurrentStepIndex], Rejected: true, Action: f.Action}
}

// land describes the flow positioned at its current index: the next prompt,
// the summary before confirmation, or completion past the last step.
func (e *Engine) land(f *ActiveFlow) Outcome {
	step, ok := f.CurrentStep()
	if !ok {
		return Outcome{State: StateCompleted, Action: f.Action, Data: f.CollectedData}
	}
	out := Outcome{State: StateCollecting, Flow: f, Step: &f.Steps[f.CurrentStepIndex], Action: f.Action}
	if step.Type == TypeConfirm {
		out.State = StateConfirming
		out.Message = e.Summary(f) + "\n\n" + step.Label
		return out
	}
	out.Message = Prompt(step)
	return out
}

// Summary lists every collected field before the confirm step.
func (e *Engine) Summary(f *ActiveFlow) string {
	var b strings.Builder
	b.WriteString(e.msgs.SummaryTitle)
	for _, step := range f.Steps[:min(f.CurrentStepIndex, len(f.Steps))] {
		if step.Type == TypeConfirm {
			continue
		}
		v := f.CollectedData[step.Field]
		switch {
		case v == "":
			v = e.msgs.EmptyValue
		case step.Type == TypeSelect:
			v = step.OptionLabel(v)
		}
		fmt.Fprintf(&b, "\n- %s : %s", SummaryLabel(step.Label), v)
	}
	return b.String()
}

// Prompt returns the question for a step; select steps list their options.
func Prompt(step Step) string {
	if step.Type == TypeSelect {
		return step.Label + formatOptions(step.Options)
	}
	return step.Label
}

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)

// SummaryLabel strips parentheticals and a trailing question mark from a
// step label.
func SummaryLabel(label string) string {
	l := parenthetical.ReplaceAllString(label, "")
	l = strings.TrimSpace(l)
	l = strings.TrimRight(l, "? ")
	return strings.TrimSpace(l)
}

func formatOptions(opts []Option) string {
	var b strings.Builder
	for i, o := range opts {
		fmt.Fprintf(&b, "\n%d. %s", i+1, o.Label)
	}
	return b.String()
}

// resolveOption matches a 1-based index, or an option label or value in any
// letter case, and returns the option's canonical value.
func resolveOption(step Step, input string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(step.Options) {
		return step.Options[n-1].Value, true
	}
	// Numbers out of range may still be a label, e.g. a year.
	folded := textnorm.Fold(input)
	for _, o := range step.Options {
		if textnorm.Fold(o.Label) == folded || textnorm.Fold(o.Value) == folded {
			return o.Value, true
		}
	}
	return "", false
}
