package weave

import "log/slog"

// Merge combines revisions a and b. Runs of lines present on only one side
// are taken from whichever side changed the adjacencies around them; when
// both sides did, the runs are reported as a conflict.
func (w *Weave) Merge(a, b RevisionID) (Result, error) {
	edgesA, err := w.resolve(a)
	if err != nil {
		return nil, err
	}
	edgesB, err := w.resolve(b)
	if err != nil {
		return nil, err
	}
	result := w.merge(edgesA, lineIDs(edgesA), edgesB, lineIDs(edgesB))
	w.logMerge("merge", a, b, result)
	return result, nil
}

// CherryPick applies only the change recorded by a, not a's history, onto b.
func (w *Weave) CherryPick(a, b RevisionID) (Result, error) {
	viewA, err := w.resolve(a)
	if err != nil {
		return nil, err
	}
	edgesB, err := w.resolve(b)
	if err != nil {
		return nil, err
	}
	result := w.merge(w.ownDelta(a), lineIDs(viewA), edgesB, lineIDs(edgesB))
	w.logMerge("cherry-pick", a, b, result)
	return result, nil
}

func (w *Weave) logMerge(op string, a, b RevisionID, result Result) {
	w.logger.Debug(op,
		slog.Int("from", int(a)),
		slog.Int("onto", int(b)),
		slog.Int("entries", len(result)),
		slog.Int("conflicts", result.Conflicts()))
}

type mergeState struct {
	edgesA, edgesB map[Edge]int
	aWins, bWins   bool
}

// observe compares both sides' state for edge and records who is ahead.
func (s *mergeState) observe(edge Edge) {
	aval, bval := s.edgesA[edge], s.edgesB[edge]
	if aval > bval {
		s.aWins = true
	}
	if bval > aval {
		s.bWins = true
	}
}

func (w *Weave) merge(edgesA map[Edge]int, linesA map[LineID]bool, edgesB map[Edge]int, linesB map[LineID]bool) Result {
	s := &mergeState{edgesA: edgesA, edgesB: edgesB}
	lastA, lastB := NoLine, NoLine
	var partialA, partialB []string
	result := make(Result, 0, len(w.entries))

	// One extra pass with the boundary id flushes whatever is pending at
	// the end of the file.
	for i := 0; i <= len(w.entries); i++ {
		id, text, boundary := NoLine, "", i == len(w.entries)
		if !boundary {
			id, text = w.entries[i].id, w.entries[i].text
		}

		inA := boundary || linesA[id]
		inB := boundary || linesB[id]
		if inA {
			s.observe(Edge{From: lastA, To: id})
			lastA = id
		}
		if inB {
			s.observe(Edge{From: lastB, To: id})
			lastB = id
		}

		if !(inA && inB) {
			if inA {
				partialA = append(partialA, text)
			}
			if inB {
				partialB = append(partialB, text)
			}
			continue
		}

		switch {
		case s.aWins && s.bWins:
			result = append(result, ConflictEntry(partialA, partialB))
		case s.aWins:
			result = appendLines(result, partialA)
		case s.bWins:
			result = appendLines(result, partialB)
		}
		s.aWins, s.bWins = false, false
		partialA, partialB = nil, nil
		if !boundary {
			result = append(result, LineEntry(text))
		}
	}
	return result
}

func appendLines(result Result, lines []string) Result {
	for _, line := range lines {
		result = append(result, LineEntry(line))
	}
	return result
}
