package textsplit

import (
	"strings"
	"unicode"
)

type Chunk struct {
	Text      string
	TokenSize int
	Index     int
}

type Config struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultConfig fits common embedding models with a 512 token context.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     400,
		OverlapTokens: 50,
	}
}

// Split cuts text into sentence-aligned chunks of at most MaxTokens.
// Consecutive chunks share trailing sentences worth up to OverlapTokens.
func Split(text string, cfg Config) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if cfg.MaxTokens <= 0 {
		cfg = DefaultConfig()
	}

	sentences := splitSentences(text)

	var (
		chunks  []Chunk
		current strings.Builder
		tokens  int
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Text:      strings.TrimSpace(current.String()),
			TokenSize: tokens,
			Index:     len(chunks),
		})
		current.Reset()
		tokens = 0
	}

	for i, sentence := range sentences {
		size := CountTokens(sentence)

		if size > cfg.MaxTokens {
			flush()
			for _, part := range splitLong(sentence, cfg.MaxTokens) {
				current.WriteString(part)
				tokens = CountTokens(part)
				flush()
			}
			continue
		}

		if tokens+size > cfg.MaxTokens && current.Len() > 0 {
			flush()
			overlap := overlapBefore(sentences, i, cfg.OverlapTokens)
			if CountTokens(overlap)+size <= cfg.MaxTokens {
				current.WriteString(overlap)
				tokens = CountTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		tokens += size
	}
	flush()

	return chunks
}

// splitLong slices an oversized sentence by token count, or by runes when
// no tokenizer is available.
func splitLong(text string, maxTokens int) []string {
	var parts []string
	if t := tokenizer(); t != nil {
		ids := t.Encode(text, nil, nil)
		for i := 0; i < len(ids); i += maxTokens {
			end := min(i+maxTokens, len(ids))
			if part := strings.TrimSpace(t.Decode(ids[i:end])); part != "" {
				parts = append(parts, part)
			}
		}
		return parts
	}

	runes := []rune(text)
	step := maxTokens * 4
	for i := 0; i < len(runes); i += step {
		end := min(i+step, len(runes))
		if part := strings.TrimSpace(string(runes[i:end])); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '．': true, '…': true,
}

func splitSentences(text string) []string {
	var sentences []string

	for _, para := range splitParagraphs(text) {
		var current strings.Builder
		runes := []rune(para)

		for i, r := range runes {
			current.WriteRune(r)
			if !sentenceEnders[r] {
				continue
			}
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) || isCJK(runes[i+1]) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}

		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

// splitParagraphs treats single newlines as soft wraps.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func overlapBefore(sentences []string, idx, target int) string {
	if idx == 0 || target <= 0 {
		return ""
	}

	var (
		picked []string
		tokens int
	)
	for i := idx - 1; i >= 0 && tokens < target; i-- {
		picked = append([]string{sentences[i]}, picked...)
		tokens += CountTokens(sentences[i])
	}
	return strings.Join(picked, " ")
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
