// Package types holds the value types shared across the chatbot packages.
package types

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"    // RoleSystem marks the persona/instruction preamble.
	RoleHuman     Role = "human"     // RoleHuman marks a message typed by the user.
	RoleAssistant Role = "assistant" // RoleAssistant marks a generated reply.
)

// Turn is one message of the dialogue. Turns are values: once appended to a
// transcript they are never modified, only removed.
type Turn struct {
	Role Role
	Text string
}

// NewSystemTurn creates the preamble turn.
func NewSystemTurn(text string) Turn {
	return Turn{Role: RoleSystem, Text: text}
}

// NewHumanTurn creates a user turn.
func NewHumanTurn(text string) Turn {
	return Turn{Role: RoleHuman, Text: text}
}

// NewAssistantTurn creates an assistant turn.
func NewAssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}

// IsSystem reports whether the turn is the preamble.
func (t Turn) IsSystem() bool {
	return t.Role == RoleSystem
}

// Labels maps each role to the label printed in front of its text when a
// transcript is rendered. An empty label renders the text alone.
type Labels struct {
	System    string
	Human     string
	Assistant string
}

// For returns the label configured for the given role.
func (l Labels) For(role Role) string {
	switch role {
	case RoleSystem:
		return l.System
	case RoleHuman:
		return l.Human
	case RoleAssistant:
		return l.Assistant
	default:
		return string(role)
	}
}

// Render formats the turn as "{label}: {text}".
func (l Labels) Render(t Turn) string {
	label := l.For(t.Role)
	if label == "" {
		return t.Text
	}
	return label + ": " + t.Text
}
