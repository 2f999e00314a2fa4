package memory

import "github.com/sandevgo/tuskmem/internal/core"

// Evict keeps the newest size messages. A leading system message survives
// eviction and counts toward size.
func Evict(window []core.Message, size int) []core.Message {
	if size <= 0 || len(window) <= size {
		return window
	}

	if window[0].Role == core.RoleSystem {
		if size == 1 {
			return window[:1:1]
		}
		out := make([]core.Message, 0, size)
		out = append(out, window[0])
		return append(out, window[len(window)-(size-1):]...)
	}

	out := make([]core.Message, size)
	copy(out, window[len(window)-size:])
	return out
}

// SanitizeToolCalls drops tool results that do not answer a call of the most
// recent assistant message. A user message ends any pending calls.
func SanitizeToolCalls(window []core.Message) []core.Message {
	out := make([]core.Message, 0, len(window))
	pending := map[string]struct{}{}

	for _, msg := range window {
		switch msg.Role {
		case core.RoleAssistant:
			pending = make(map[string]struct{}, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				pending[call.ID] = struct{}{}
			}
		case core.RoleUser:
			pending = map[string]struct{}{}
		case core.RoleTool:
			if _, ok := pending[msg.ToolCallID]; !ok {
				continue
			}
			delete(pending, msg.ToolCallID)
		case core.RoleSystem:
		}
		out = append(out, msg)
	}

	return out
}
