// Package complete ranks path completion candidates with a subsequence fuzzy
// scorer. The scorer is also what search uses for fuzzy name matching.
package complete

import "strings"

// Scoring weights. A match exists only when every query character appears in
// order within the candidate (case-insensitive). The exact values are tuning
// knobs, not a compatibility surface; what must hold is that consecutive runs
// beat scattered matches, segment starts beat mid-word hits, and trailing
// junk never raises a score.
const (
	matchBase        = 1.0  // per matched character
	consecutiveBonus = 0.8  // matched character directly follows the previous match
	segmentBonus     = 1.2  // matched character starts the candidate or a path segment
	gapPenalty       = 0.05 // per skipped character between two matched characters
	lengthPenalty    = 0.02 // per candidate character, favors shorter candidates
)

// segmentSeparators mark the start of a new path segment or word.
const segmentSeparators = "/\\-_. "

const noScore = -1 << 30

// Score computes the best subsequence alignment of query inside candidate and
// returns its score. ok is false when no alignment exists; such candidates are
// excluded from results rather than ranked at zero.
//
// The alignment maximizes: matchBase per character, plus consecutiveBonus for
// runs, plus segmentBonus at segment starts, minus gapPenalty per skipped
// character between matches, minus lengthPenalty per candidate character.
// Appending characters that match nothing can therefore only lower the score.
func Score(query, candidate string) (score float64, ok bool) {
	q := []rune(strings.ToLower(query))
	c := []rune(strings.ToLower(candidate))

	if len(q) == 0 {
		return -lengthPenalty * float64(len(c)), true
	}
	if len(q) > len(c) {
		return 0, false
	}

	// dp[j]: best score with the current query rune matched at candidate rune
	// j. prev holds the previous query rune's row.
	prev := make([]float64, len(c))
	dp := make([]float64, len(c))

	for j := range prev {
		prev[j] = noScore
		if c[j] == q[0] {
			prev[j] = matchBase + startBonus(c, j)
		}
	}

	for i := 1; i < len(q); i++ {
		// runningMax tracks max(prev[k] + gapPenalty*k) over k < j, which
		// turns the "best earlier match minus gap" lookup into O(1).
		runningMax := float64(noScore)
		for j := range dp {
			dp[j] = noScore
			if j > 0 && prev[j-1] > noScore/2 {
				if v := prev[j-1] + gapPenalty*float64(j-1); v > runningMax {
					runningMax = v
				}
			}
			if c[j] != q[i] {
				continue
			}
			best := float64(noScore)
			if runningMax > noScore/2 {
				best = runningMax - gapPenalty*float64(j-1)
			}
			if j > 0 && prev[j-1] > noScore/2 {
				if v := prev[j-1] + consecutiveBonus; v > best {
					best = v
				}
			}
			if best > noScore/2 {
				dp[j] = best + matchBase + startBonus(c, j)
			}
		}
		prev, dp = dp, prev
	}

	best := float64(noScore)
	for _, v := range prev {
		if v > best {
			best = v
		}
	}
	if best <= noScore/2 {
		return 0, false
	}
	return best - lengthPenalty*float64(len(c)), true
}

// startBonus rewards a match at the start of the candidate or of a segment.
func startBonus(c []rune, j int) float64 {
	if j == 0 {
		return segmentBonus
	}
	if strings.ContainsRune(segmentSeparators, c[j-1]) {
		return segmentBonus
	}
	return 0
}
