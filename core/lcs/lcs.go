// Package lcs implements patience-sorted unique longest common subsequence
// matching and the recursive gap filling built on top of it.
package lcs

import "sort"

// DefaultDepth bounds the recursion of RecurseMatches. Regions reached with
// an exhausted budget are left unmatched.
const DefaultDepth = 10

// Match pairs an index into the first sequence with an index into the second.
type Match struct {
	A int
	B int
}

// UniqueLCS returns the longest common subsequence of a and b restricted to
// values that occur exactly once in each input. Pairs are strictly
// increasing in both A and B.
func UniqueLCS[T comparable](a, b []T) []Match {
	btoa := uniqueIndex(a, b)
	return patience(btoa)
}

// uniqueIndex maps every position of b to the position of the same value in
// a, or -1 when the value is not unique in both.
func uniqueIndex[T comparable](a, b []T) []int {
	index := make(map[T]int, len(a))
	for i, line := range a {
		if _, seen := index[line]; seen {
			index[line] = -1
			continue
		}
		index[line] = i
	}

	btoa := make([]int, len(b))
	for i := range btoa {
		btoa[i] = -1
	}

	index2 := make(map[T]int, len(b))
	for pos, line := range b {
		next, ok := index[line]
		if !ok || next < 0 {
			continue
		}
		if prev, seen := index2[line]; seen {
			btoa[prev] = -1
			delete(index, line)
			continue
		}
		index2[line] = pos
		btoa[pos] = next
	}
	return btoa
}

func patience(btoa []int) []Match {
	backpointers := make([]int, len(btoa))
	var stacks, lasts []int
	k := 0

	for bpos, apos := range btoa {
		if apos < 0 {
			continue
		}
		backpointers[bpos] = -1
		k = nextStack(stacks, k, apos)
		if k > 0 {
			backpointers[bpos] = lasts[k-1]
		}
		if k < len(stacks) {
			stacks[k] = apos
			lasts[k] = bpos
		} else {
			stacks = append(stacks, apos)
			lasts = append(lasts, bpos)
		}
	}

	if len(lasts) == 0 {
		return nil
	}

	var result []Match
	for k := lasts[len(lasts)-1]; k >= 0; k = backpointers[k] {
		result = append(result, Match{A: btoa[k], B: k})
	}
	reverse(result)
	return result
}

// nextStack picks the pile apos lands on. The two fast paths cover the
// common cases of a match at the end and a match right after the previous one.
func nextStack(stacks []int, k, apos int) int {
	n := len(stacks)
	switch {
	case n > 0 && stacks[n-1] < apos:
		return n
	case n > 0 && stacks[k] < apos && (k == n-1 || stacks[k+1] > apos):
		return k + 1
	default:
		return sort.Search(n, func(i int) bool { return stacks[i] > apos })
	}
}

func reverse(m []Match) {
	for i, j := 0, len(m)-1; i < j; i, j = i+1, j-1 {
		m[i], m[j] = m[j], m[i]
	}
}

// RecurseMatches extends answer with the matching between a[lo:ahi] and
// b[lo:bhi], where lo is one past the last pair already in answer. Unique
// lines anchor the match; gaps between anchors are matched recursively and
// runs of equal leading or trailing lines are paired directly.
func RecurseMatches[T comparable](answer []Match, a, b []T, ahi, bhi, depth int) []Match {
	if depth < 0 {
		return answer
	}

	oldLen := len(answer)
	alo, blo := 0, 0
	if oldLen > 0 {
		last := answer[oldLen-1]
		alo, blo = last.A+1, last.B+1
	}
	if alo == ahi || blo == bhi {
		return answer
	}

	for _, m := range UniqueLCS(a[alo:ahi], b[blo:bhi]) {
		apos, bpos := m.A+alo, m.B+blo
		answer = RecurseMatches(answer, a, b, apos, bpos, depth-1)
		answer = append(answer, Match{A: apos, B: bpos})
	}

	switch {
	case len(answer) > oldLen:
		return RecurseMatches(answer, a, b, ahi, bhi, depth-1)
	case a[alo] == b[blo]:
		return matchLeading(answer, a, b, alo, blo, ahi, bhi, depth)
	case a[ahi-1] == b[bhi-1]:
		return matchTrailing(answer, a, b, alo, blo, ahi, bhi, depth)
	}
	return answer
}

func matchLeading[T comparable](answer []Match, a, b []T, alo, blo, ahi, bhi, depth int) []Match {
	for alo < ahi && blo < bhi && a[alo] == b[blo] {
		answer = append(answer, Match{A: alo, B: blo})
		alo++
		blo++
	}
	return RecurseMatches(answer, a, b, ahi, bhi, depth-1)
}

func matchTrailing[T comparable](answer []Match, a, b []T, alo, blo, ahi, bhi, depth int) []Match {
	nahi, nbhi := ahi-1, bhi-1
	for nahi > alo && nbhi > blo && a[nahi-1] == b[nbhi-1] {
		nahi--
		nbhi--
	}
	answer = RecurseMatches(answer, a, b, nahi, nbhi, depth-1)
	for i := 0; i < ahi-nahi; i++ {
		answer = append(answer, Match{A: nahi + i, B: nbhi + i})
	}
	return answer
}

// Matches returns the full matching between a and b.
func Matches[T comparable](a, b []T, depth int) []Match {
	return RecurseMatches(nil, a, b, len(a), len(b), depth)
}
