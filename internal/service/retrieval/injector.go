package retrieval

import (
	"fmt"
	"strings"

	"github.com/sandevgo/tuskmem/internal/core"
)

const (
	DefaultSnippetLimit = 1400

	// ContextOpenTag starts every injected block. Browsing views cut user text here.
	ContextOpenTag  = "[RAG CONTEXT]"
	ContextCloseTag = "[/RAG CONTEXT]"

	truncationMarker = " …"
	snippetSeparator = "\n---\n"
)

const contextTemplate = ContextOpenTag + `
Use this as a guide only. It may be incomplete or irrelevant.
If it conflicts with known facts or user intent, explain and prefer correctness.
If irrelevant, say so and answer without it.

<context>
%s
</context>
` + ContextCloseTag

// Injector merges retrieved snippets into outgoing user messages.
type Injector struct {
	snippetLimit int
	maxResults   int
}

func NewInjector(snippetLimit, maxResults int) *Injector {
	if snippetLimit <= 0 {
		snippetLimit = DefaultSnippetLimit
	}
	return &Injector{snippetLimit: snippetLimit, maxResults: maxResults}
}

// Block renders the context block, or "" when no snippet has content.
func (i *Injector) Block(matches []core.SearchMatch) string {
	snippets := make([]string, 0, len(matches))
	for _, m := range matches {
		if i.maxResults > 0 && len(snippets) == i.maxResults {
			break
		}
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		snippets = append(snippets, truncateRunes(m.Text, i.snippetLimit))
	}
	if len(snippets) == 0 {
		return ""
	}

	return fmt.Sprintf(contextTemplate, strings.Join(snippets, snippetSeparator))
}

// Inject returns msg with the context block appended. A nil msg counts as an
// empty user message. Non-user messages and empty blocks pass through as is.
func (i *Injector) Inject(msg *core.Message, matches []core.SearchMatch) core.Message {
	out := core.UserMessage("")
	if msg != nil {
		out = *msg
	}

	switch out.Role {
	case core.RoleUser:
		return i.appendBlock(out, matches)
	default:
		return out
	}
}

func (i *Injector) appendBlock(msg core.Message, matches []core.SearchMatch) core.Message {
	block := i.Block(matches)
	if strings.TrimSpace(block) == "" {
		return msg
	}

	if strings.TrimSpace(msg.Content) == "" {
		msg.Content = block
	} else {
		msg.Content = msg.Content + "\n\n" + block
	}
	return msg
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}
