package memory

import (
	"strings"
	"unicode"
)

// stopWords are excluded from similarity scoring so overlap counts
// reflect content words, not glue.
var stopWords = map[string]bool{
	"the": true, "be": true, "to": true, "of": true, "and": true,
	"a": true, "in": true, "that": true, "have": true, "it": true,
	"for": true, "not": true, "on": true, "with": true, "as": true,
	"you": true, "do": true, "at": true, "this": true, "but": true,
	"his": true, "by": true, "from": true, "they": true, "we": true,
	"her": true, "she": true, "or": true, "an": true, "will": true,
	"my": true, "one": true, "all": true, "would": true, "there": true,
	"their": true, "what": true, "so": true, "if": true, "about": true,
	"who": true, "which": true, "when": true, "can": true, "like": true,
	"just": true, "him": true, "into": true, "your": true, "some": true,
	"could": true, "them": true, "than": true, "then": true, "now": true,
	"its": true, "over": true, "also": true, "after": true, "how": true,
	"our": true, "was": true, "are": true, "been": true, "has": true,
	"had": true, "were": true, "is": true, "he": true, "i": true,
}

// tokenize breaks text into the set of unique lowercase content words,
// splitting on any non-alphanumeric rune and dropping stop words and
// words shorter than three characters.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	text = strings.ToLower(text)

	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		current.Reset()
		if len(word) >= 3 && !stopWords[word] {
			tokens[word] = true
		}
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// overlapScore counts query tokens present in the candidate token set.
func overlapScore(query, candidate map[string]bool) int {
	score := 0
	for w := range query {
		if candidate[w] {
			score++
		}
	}
	return score
}
