// Package fuzzy scores string similarity on a 0-100 scale.
//
// Scores use the Indel distance (insertions and deletions only), normalized
// by the combined length of both inputs: 100 * (1 - indel/(len(a)+len(b))).
// Identical strings score 100 and strings sharing no runes score 0. Inputs
// are compared rune-wise and case-sensitively; callers normalize first when
// they need case folding.
package fuzzy

import (
	"strings"
	"unicode"
)

// Scorer returns a similarity score in [0,100] for two strings.
type Scorer func(a, b string) float64

// Ratio scores the similarity of two whole strings.
func Ratio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	// indel = total - 2*lcs, so 1 - indel/total reduces to 2*lcs/total.
	return 100 * float64(2*lcs(a, b)) / float64(total)
}

// lcs returns the length of the longest common subsequence of a and b.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// PartialRatio scores how well the shorter string matches its best-aligned
// window inside the longer one.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	var best float64
	for i := 0; i+len(short) <= len(long); i++ {
		score := ratio(short, long[i:i+len(short)])
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// Normalize lowercases s, trims surrounding whitespace and punctuation, and
// collapses inner whitespace runs to single spaces.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.Join(strings.Fields(s), " ")
}
