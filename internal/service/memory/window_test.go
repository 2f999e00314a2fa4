package memory

import (
	"fmt"
	"testing"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/stretchr/testify/assert"
)

func users(n int) []core.Message {
	out := make([]core.Message, n)
	for i := range out {
		out[i] = core.UserMessage(fmt.Sprintf("m%d", i))
	}
	return out
}

func TestEvict(t *testing.T) {
	sys := core.SystemMessage("rules")

	tests := []struct {
		name  string
		input []core.Message
		size  int
		want  []core.Message
	}{
		{name: "under budget", input: users(2), size: 3, want: users(2)},
		{name: "keeps newest", input: users(5), size: 2, want: users(5)[3:]},
		{
			name:  "system message survives",
			input: append([]core.Message{sys}, users(4)...),
			size:  3,
			want:  append([]core.Message{sys}, users(4)[2:]...),
		},
		{
			name:  "only system fits",
			input: append([]core.Message{sys}, users(4)...),
			size:  1,
			want:  []core.Message{sys},
		},
		{name: "no limit", input: users(4), size: 0, want: users(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evict(tt.input, tt.size))
		})
	}
}

func TestSanitizeToolCalls(t *testing.T) {
	call := func(ids ...string) core.Message {
		msg := core.AssistantMessage("calling")
		for _, id := range ids {
			msg.ToolCalls = append(msg.ToolCalls, core.ToolCall{ID: id, Name: "search_docs"})
		}
		return msg
	}
	result := func(id string) core.Message {
		return core.Message{Role: core.RoleTool, ToolCallID: id, Content: "result " + id}
	}
	user := core.UserMessage("hi")

	tests := []struct {
		name  string
		input []core.Message
		want  []core.Message
	}{
		{name: "empty", input: nil, want: []core.Message{}},
		{
			name:  "valid exchange",
			input: []core.Message{user, call("c1"), result("c1")},
			want:  []core.Message{user, call("c1"), result("c1")},
		},
		{
			name:  "orphan at start",
			input: []core.Message{result("c1"), user},
			want:  []core.Message{user},
		},
		{
			name:  "id mismatch",
			input: []core.Message{call("c1"), result("c2")},
			want:  []core.Message{call("c1")},
		},
		{
			name:  "multiple calls",
			input: []core.Message{call("c1", "c2"), result("c1"), result("c2")},
			want:  []core.Message{call("c1", "c2"), result("c1"), result("c2")},
		},
		{
			name:  "duplicate result",
			input: []core.Message{call("c1"), result("c1"), result("c1")},
			want:  []core.Message{call("c1"), result("c1")},
		},
		{
			name:  "user interrupts",
			input: []core.Message{call("c1"), user, result("c1")},
			want:  []core.Message{call("c1"), user},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeToolCalls(tt.input))
		})
	}
}
