package textsim

import "strings"

// Lexical scores similarity by word overlap. It is deterministic, needs no
// network and no configuration, and serves as the fallback whenever the
// embedding provider is unavailable.
type Lexical struct{}

// NewLexical creates a new lexical similarity scorer
func NewLexical() *Lexical {
	return &Lexical{}
}

// Similarity returns |shared words| / max(|words(a)|, |words(b)|, 1).
// Both inputs are lower-cased and split on whitespace and commas; duplicate
// words inside one text count once.
func (l *Lexical) Similarity(a, b string) float64 {
	wordsA := Tokenize(a)
	wordsB := Tokenize(b)

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}

	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}

	denom := max(len(setA), len(setB), 1)
	return float64(shared) / float64(denom)
}

// Tokenize lower-cases the text and splits it into words on whitespace and
// commas, dropping empty tokens.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}
