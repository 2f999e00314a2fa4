package catalog

import (
	"strings"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/service/retrieval"
)

const (
	userPromptOpenTag  = "[USER PROMPT]"
	userPromptCloseTag = "[/USER PROMPT]"
)

// BrowsingView drops system messages and strips injected context from user
// messages. The input is not modified.
func BrowsingView(window []core.Message) []core.Message {
	out := make([]core.Message, 0, len(window))
	for _, msg := range window {
		switch msg.Role {
		case core.RoleSystem:
			continue
		case core.RoleUser:
			msg.Content = StripInjected(msg.Content)
		}
		out = append(out, msg)
	}
	return out
}

// StripInjected returns the text the user actually typed.
func StripInjected(text string) string {
	if i := strings.Index(text, retrieval.ContextOpenTag); i >= 0 {
		text = text[:i]
	}
	text = strings.ReplaceAll(text, userPromptOpenTag, "")
	text = strings.ReplaceAll(text, userPromptCloseTag, "")
	return strings.TrimSpace(text)
}
