package textsplit

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	enc     *tiktoken.Tiktoken
	encErr  error
	encOnce sync.Once
)

// tokenizer returns nil when the BPE ranks cannot be loaded, e.g. offline
// without TIKTOKEN_CACHE_DIR. Callers fall back to a rune estimate.
func tokenizer() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(encodingName)
	})
	if encErr != nil {
		return nil
	}
	return enc
}

// CountTokens reports the cl100k token count of text, or roughly one token
// per four runes when the encoding is unavailable.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if t := tokenizer(); t != nil {
		return len(t.Encode(text, nil, nil))
	}
	return estimateTokens(text)
}

func estimateTokens(text string) int {
	n := (utf8.RuneCountInString(text) + 3) / 4
	if n == 0 {
		return 1
	}
	return n
}
