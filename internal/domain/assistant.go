package domain

import "slices"

// AllPermissions grants every action.
const AllPermissions = "*"

// User is the person talking to the assistant.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// AssistantContext is the snapshot the host supplies with every turn. The
// engine only reads it.
type AssistantContext struct {
	User        User     `json:"user"`
	CurrentPage string   `json:"currentPage,omitempty"`
	Group       string   `json:"group,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Locale      string   `json:"locale,omitempty"`
}

// Can reports whether the context holds the given permission. An empty
// permission is always granted.
func (c AssistantContext) Can(permission string) bool {
	if permission == "" {
		return true
	}
	return slices.Contains(c.Permissions, AllPermissions) || slices.Contains(c.Permissions, permission)
}

// Suggestion is a clickable shortcut; choosing it resubmits Query as the
// next user turn.
type Suggestion struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Icon        string `json:"icon,omitempty"`
	Query       string `json:"query"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	// Action is the action the query resolves to, used for permission filtering.
	Action string `json:"action,omitempty"`
}

// ActionResult is what executing an action produced.
type ActionResult struct {
	Success             bool           `json:"success"`
	Message             string         `json:"message"`
	Attachment          *Attachment    `json:"attachment,omitempty"`
	NavigateTo          string         `json:"navigateTo,omitempty"`
	Data                map[string]any `json:"data,omitempty"`
	FollowUpSuggestions []Suggestion   `json:"followUpSuggestions,omitempty"`
}

// PermissionChecker decides whether an action may run in a context.
type PermissionChecker interface {
	HasPermissionForAction(actx AssistantContext, action string) bool
}

// PermissionFunc adapts a plain function to PermissionChecker.
type PermissionFunc func(actx AssistantContext, action string) bool

// HasPermissionForAction calls f.
func (f PermissionFunc) HasPermissionForAction(actx AssistantContext, action string) bool {
	return f(actx, action)
}
