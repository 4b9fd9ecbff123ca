// Package textmatch reconciles free-form labels against a closed set of
// canonical names using edit-distance similarity.
package textmatch

import "strings"

// ContainmentScore is the similarity assigned when one normalized
// string contains the other. Judges frequently emit verbose variants of
// a short canonical label ("Clarity of the Response" vs "Clarity"), and
// plain edit distance punishes the length difference too hard.
const ContainmentScore = 0.85

// Similarity returns an edit-distance similarity in [0, 1] between two
// strings, case-insensitive and whitespace-trimmed. Identical strings
// (after normalization) score exactly 1; two empty strings also score 1.
func Similarity(a, b string) float64 {
	na := normalize(a)
	nb := normalize(b)

	if na == nb {
		return 1
	}

	longest := max(len(na), len(nb))
	if longest == 0 {
		return 1
	}

	return 1 - float64(levenshtein(na, nb))/float64(longest)
}

// Match is the result of a successful FindBestMatch.
type Match struct {
	Candidate  string
	Similarity float64
}

// FindBestMatch scores label against every entry in pool and returns the
// best-scoring entry if it clears threshold. The effective score is the
// edit-distance similarity, boosted to ContainmentScore when one
// normalized string contains the other and the edit score is lower.
// Returns nil and the best similarity seen when nothing clears threshold.
func FindBestMatch(label string, pool []string, threshold float64) (*Match, float64) {
	var best *Match
	bestScore := 0.0

	for _, candidate := range pool {
		score := Similarity(label, candidate)
		if contains(label, candidate) && score < ContainmentScore {
			score = ContainmentScore
		}
		if score > bestScore {
			bestScore = score
			best = &Match{Candidate: candidate, Similarity: score}
		}
	}

	if best == nil || best.Similarity < threshold {
		return nil, bestScore
	}
	return best, bestScore
}

// contains reports whether either normalized string includes the other.
func contains(a, b string) bool {
	na := normalize(a)
	nb := normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// levenshtein computes edit distance with unit costs using a single
// rolling row.
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}

	row := make([]int, m+1)
	for j := 0; j <= m; j++ {
		row[j] = j
	}

	for i := 1; i <= n; i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= m; j++ {
			tmp := row[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			row[j] = min(row[j]+1, row[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return row[m]
}
