package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTurns(t *testing.T) {
	assert.Equal(t, Turn{Role: RoleSystem, Text: "s"}, NewSystemTurn("s"))
	assert.Equal(t, Turn{Role: RoleHuman, Text: "h"}, NewHumanTurn("h"))
	assert.Equal(t, Turn{Role: RoleAssistant, Text: "a"}, NewAssistantTurn("a"))

	assert.True(t, NewSystemTurn("s").IsSystem())
	assert.False(t, NewHumanTurn("h").IsSystem())
}

func TestLabels_Render(t *testing.T) {
	labels := Labels{Human: "Human", Assistant: "Bot"}

	tests := []struct {
		name string
		turn Turn
		want string
	}{
		{"human", NewHumanTurn("hi"), "Human: hi"},
		{"assistant", NewAssistantTurn("hello"), "Bot: hello"},
		{"unlabelled system", NewSystemTurn("You are Bot."), "You are Bot."},
		{"unknown role", Turn{Role: "tool", Text: "x"}, "tool: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, labels.Render(tt.turn))
		})
	}

	labels.System = "System"
	assert.Equal(t, "System: be nice", labels.Render(NewSystemTurn("be nice")))
}
