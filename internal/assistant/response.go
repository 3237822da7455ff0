package assistant

import (
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/flow"
)

// Kind tags what the host should do with a response.
type Kind string

const (
	// KindMessage is an ordinary reply to display.
	KindMessage Kind = "message"
	// KindClearConversation asks the host to drop its transcript. The
	// message is still a displayable acknowledgement.
	KindClearConversation Kind = "clear_conversation"
)

// SideEffectClearConversation is the side-effect key set on clear.
const SideEffectClearConversation = "clearConversation"

// Path is the branch of the processor that produced a response.
type Path string

const (
	PathFlow    Path = "flow"
	PathCommand Path = "command"
	PathIntent  Path = "intent"
)

// Response is the envelope returned for every turn.
type Response struct {
	Kind        Kind                `json:"kind"`
	Message     domain.ChatMessage  `json:"message"`
	Suggestions []domain.Suggestion `json:"suggestions"`
	// Flow must be handed back unchanged with the next turn; nil means no
	// flow is active.
	Flow        *flow.ActiveFlow `json:"flow,omitempty"`
	NavigateTo  string           `json:"navigateTo,omitempty"`
	SideEffects map[string]any   `json:"sideEffects,omitempty"`

	Trace Trace `json:"-"`
}

// Trace records how a turn was resolved, for hooks and logs.
type Trace struct {
	Path       Path
	Action     string
	Category   string
	Confidence float64
	FlowState  flow.State
	FlowStart  bool
	Executed   bool
	Success    bool
}

// HasFlow reports whether a flow is still active after the turn.
func (r Response) HasFlow() bool { return r.Flow != nil }
