// Package fuzzy finds approximate occurrences of a pattern in a text.
package fuzzy

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxDistance is the edit distance allowed when none is given.
const DefaultMaxDistance = 5

// Match is a substring of the searched text. Start and End are rune offsets,
// End exclusive.
type Match struct {
	Start   int
	End     int
	Dist    int
	Matched string
}

// Normalize returns s in Unicode normalization form C, so that a typed
// pattern compares equal to OCR output using precomposed characters.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// FindNearMatches returns the substrings of text within Levenshtein distance
// maxDist of pattern. Overlapping candidates are collapsed to the best one,
// and the result is ordered by distance, then position.
func FindNearMatches(pattern, text string, maxDist int) []Match {
	p := []rune(pattern)
	t := []rune(text)
	if len(p) == 0 {
		return nil
	}
	if maxDist < 0 {
		maxDist = 0
	}

	m := len(p)
	prevD := make([]int, m+1)
	prevS := make([]int, m+1)
	curD := make([]int, m+1)
	curS := make([]int, m+1)
	for i := range prevD {
		prevD[i] = i
	}

	var candidates []Match
	for j := 1; j <= len(t); j++ {
		curD[0], curS[0] = 0, j
		for i := 1; i <= m; i++ {
			cost := 1
			if p[i-1] == t[j-1] {
				cost = 0
			}
			d, s := prevD[i-1]+cost, prevS[i-1]
			if v := curD[i-1] + 1; v < d {
				d, s = v, curS[i-1]
			}
			if v := prevD[i] + 1; v < d {
				d, s = v, prevS[i]
			}
			curD[i], curS[i] = d, s
		}

		if curD[m] <= maxDist && curS[m] < j {
			candidates = append(candidates, Match{Start: curS[m], End: j, Dist: curD[m]})
		}
		prevD, curD = curD, prevD
		prevS, curS = curS, prevS
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.Dist != cb.Dist {
			return ca.Dist < cb.Dist
		}
		if ca.Start != cb.Start {
			return ca.Start < cb.Start
		}
		return abs(ca.End-ca.Start-m) < abs(cb.End-cb.Start-m)
	})

	var out []Match
	for _, c := range candidates {
		if overlapsAny(c, out) {
			continue
		}
		c.Matched = string(t[c.Start:c.End])
		out = append(out, c)
	}
	return out
}

// Best returns the best match of pattern in text, if any.
func Best(pattern, text string, maxDist int) (Match, bool) {
	matches := FindNearMatches(pattern, text, maxDist)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

func overlapsAny(c Match, chosen []Match) bool {
	for _, o := range chosen {
		if c.Start < o.End && o.Start < c.End {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
