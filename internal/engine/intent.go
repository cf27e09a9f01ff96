package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/purifyx/crisp-chatbot/internal/fuzzy"
)

var (
	resumePhrases  = []string{"talk to you", "want to talk to bot", "talk to the bot again"}
	greetingWords  = []string{"hi", "hello", "hey", "hy", "yo", "sup", "hola", "good morning", "good evening"}
	supportPhrases = []string{"support", "contact", "human", "help", "talk to human", "customer service"}
)

// DefaultTriggers are substrings that always count as a support request.
var DefaultTriggers = []string{"refund", "billing"}

// matcher classifies normalized messages by fuzzy similarity.
type matcher struct {
	whole     fuzzy.Scorer
	partial   fuzzy.Scorer
	threshold float64
	triggers  []string
}

func newMatcher(triggers []string) *matcher {
	return &matcher{
		whole:     fuzzy.Ratio,
		partial:   fuzzy.PartialRatio,
		threshold: 85,
		triggers:  triggers,
	}
}

// phraseScore compares msg with phrase. A message shorter than the phrase
// must match as a whole, so "yo" does not match inside "talk to you".
func (m *matcher) phraseScore(msg, phrase string) float64 {
	if utf8.RuneCountInString(msg) < utf8.RuneCountInString(phrase) {
		return m.whole(msg, phrase)
	}
	return m.partial(msg, phrase)
}

func (m *matcher) anyPhrase(msg string, phrases []string) bool {
	for _, p := range phrases {
		if m.phraseScore(msg, p) > m.threshold {
			return true
		}
	}
	return false
}

func (m *matcher) resume(msg string) bool {
	return m.anyPhrase(msg, resumePhrases)
}

func (m *matcher) greeting(msg string) bool {
	for _, g := range greetingWords {
		if m.whole(msg, g) > m.threshold {
			return true
		}
	}
	return false
}

func (m *matcher) support(msg string) bool {
	if m.anyPhrase(msg, supportPhrases) {
		return true
	}
	for _, t := range m.triggers {
		if t != "" && strings.Contains(msg, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
