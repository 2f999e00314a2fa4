package retrieval

import (
	"regexp"
	"strings"
)

var (
	disallowedChars = regexp.MustCompile(`[^a-z0-9\-\s]`)
	acronymPattern  = regexp.MustCompile(`^[a-z]{2,3}$`)
)

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "all": {}, "also": {}, "am": {},
	"an": {}, "and": {}, "any": {}, "are": {}, "as": {}, "at": {}, "be": {}, "been": {},
	"before": {}, "being": {}, "below": {}, "between": {}, "both": {}, "but": {}, "by": {},
	"can": {}, "could": {}, "did": {}, "do": {}, "does": {}, "doing": {}, "done": {}, "down": {},
	"each": {}, "few": {}, "for": {}, "from": {}, "get": {}, "got": {}, "had": {}, "has": {},
	"have": {}, "having": {}, "he": {}, "her": {}, "here": {}, "him": {}, "his": {}, "how": {},
	"if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {}, "just": {}, "like": {},
	"make": {}, "me": {}, "more": {}, "most": {}, "my": {}, "need": {}, "no": {}, "not": {},
	"now": {}, "of": {}, "off": {}, "on": {}, "once": {}, "only": {}, "or": {}, "other": {},
	"our": {}, "out": {}, "over": {}, "own": {}, "please": {}, "same": {}, "she": {}, "should": {},
	"show": {}, "so": {}, "some": {}, "such": {}, "tell": {}, "than": {}, "that": {}, "the": {},
	"their": {}, "them": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"those": {}, "through": {}, "to": {}, "too": {}, "under": {}, "until": {}, "up": {},
	"use": {}, "using": {}, "very": {}, "want": {}, "was": {}, "way": {}, "we": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "who": {}, "whom": {},
	"why": {}, "will": {}, "with": {}, "would": {}, "you": {}, "your": {},
}

// Keywords is the query vocabulary used for boosting.
type Keywords struct {
	Direct   []string
	Synonyms []string
}

func (k Keywords) Empty() bool {
	return len(k.Direct) == 0
}

// tokenize lowercases query and drops disallowed characters in place, so
// "node.js" stays one token.
func tokenize(query string) []string {
	cleaned := disallowedChars.ReplaceAllString(strings.ToLower(query), "")
	return strings.Fields(cleaned)
}

func isDirectKeyword(token string) bool {
	if strings.Trim(token, "-") == "" {
		return false
	}
	if _, stop := stopWords[token]; stop {
		return false
	}
	return len(token) > 3 || acronymPattern.MatchString(token)
}

// ExtractKeywords returns de-duplicated direct keywords in query order and
// their synonyms. A synonym that is also a direct keyword is listed once, as direct.
func ExtractKeywords(query string, synonyms SynonymTable) Keywords {
	var kw Keywords
	seen := make(map[string]struct{})

	for _, token := range tokenize(query) {
		if !isDirectKeyword(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		kw.Direct = append(kw.Direct, token)
	}

	for _, direct := range kw.Direct {
		for _, syn := range synonyms.Lookup(direct) {
			if _, dup := seen[syn]; dup {
				continue
			}
			seen[syn] = struct{}{}
			kw.Synonyms = append(kw.Synonyms, syn)
		}
	}

	return kw
}
