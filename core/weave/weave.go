// Package weave stores every revision of a file as one interleaved sequence
// of lines. Each revision records which adjacencies between lines it turned
// on or off; merge and cherry-pick compare those adjacency states to decide
// which side of a divergence wins.
package weave

import (
	"fmt"
	"log/slog"

	"github.com/adalundhe/fragments/core/lcs"
)

type Option func(*Weave)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Weave) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMatchDepth bounds the recursion used when matching a new revision
// against the weave.
func WithMatchDepth(depth int) Option {
	return func(w *Weave) {
		w.matchDepth = depth
	}
}

// WithViewCache keeps the resolved views of up to size sealed revisions.
func WithViewCache(size int) Option {
	return func(w *Weave) {
		w.views = newViewCache(size)
	}
}

type Weave struct {
	entries    []entry
	parents    map[RevisionID][]RevisionID
	deltas     map[RevisionID][]edgeState
	order      []RevisionID
	sealed     map[RevisionID]bool
	nextLine   LineID
	matchDepth int
	views      *viewCache
	logger     *slog.Logger
}

func New(opts ...Option) *Weave {
	w := &Weave{
		parents:    make(map[RevisionID][]RevisionID),
		deltas:     make(map[RevisionID][]edgeState),
		sealed:     make(map[RevisionID]bool),
		matchDepth: lcs.DefaultDepth,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Weave) Len() int {
	return len(w.entries)
}

// Revisions returns registered revision ids in registration order.
func (w *Weave) Revisions() []RevisionID {
	out := make([]RevisionID, len(w.order))
	copy(out, w.order)
	return out
}

func (w *Weave) Has(id RevisionID) bool {
	_, ok := w.parents[id]
	return ok
}

// Seal marks id as final: no revision may name it as a parent afterwards.
func (w *Weave) Seal(id RevisionID) error {
	if !w.Has(id) {
		return fmt.Errorf("seal revision %d: %w", id, ErrUnknownRevision)
	}
	w.sealed[id] = true
	return nil
}

func (w *Weave) validate(id RevisionID, parents []RevisionID) error {
	if w.Has(id) {
		return fmt.Errorf("add revision %d: %w", id, ErrDuplicateRevision)
	}
	for _, p := range parents {
		if !w.Has(p) {
			return fmt.Errorf("add revision %d: parent %d: %w", id, p, ErrUnknownRevision)
		}
		if w.sealed[p] {
			return fmt.Errorf("add revision %d: parent %d: %w", id, p, ErrSealedRevision)
		}
	}
	return nil
}

// AddRevision registers lines as revision id descending from parents.
// Lines already present in the weave are reused where they match; the rest
// are appended as new entries owned by id.
func (w *Weave) AddRevision(id RevisionID, lines []string, parents []RevisionID) error {
	if err := w.validate(id, parents); err != nil {
		return err
	}

	base := w.closureView(parents)
	matches := w.matchWeave(lines, base)
	current, minted := w.rebuild(id, lines, matches)
	delta := diffEdges(base, currentEdges(current))

	w.parents[id] = append([]RevisionID(nil), parents...)
	w.order = append(w.order, id)
	if len(delta) > 0 {
		w.deltas[id] = delta
	}

	w.logger.Debug("revision added",
		slog.Int("revision", int(id)),
		slog.Int("lines", len(lines)),
		slog.Int("minted", minted),
		slog.Int("edges", len(delta)),
		slog.Int("weave", len(w.entries)))
	return nil
}

// matchWeave pairs positions in lines with positions in the weave. Lines
// alive in the parents anchor the match first; the gaps are then matched
// against the full weave text.
func (w *Weave) matchWeave(lines []string, base map[Edge]int) []lcs.Match {
	living := livingLines(base)

	var mapping []int
	var livingText []string
	for pos, e := range w.entries {
		if living[e.id] {
			mapping = append(mapping, pos)
			livingText = append(livingText, e.text)
		}
	}

	anchors := lcs.Matches(lines, livingText, w.matchDepth)

	all := make([]string, len(w.entries))
	for i, e := range w.entries {
		all[i] = e.text
	}

	var matches []lcs.Match
	for _, m := range anchors {
		matches = lcs.RecurseMatches(matches, lines, all, m.A, mapping[m.B], w.matchDepth)
		matches = append(matches, lcs.Match{A: m.A, B: mapping[m.B]})
	}
	return lcs.RecurseMatches(matches, lines, all, len(lines), len(all), w.matchDepth)
}

// rebuild splices the unmatched lines of a new revision into the weave and
// returns the revision's line ids in order.
func (w *Weave) rebuild(id RevisionID, lines []string, matches []lcs.Match) ([]LineID, int) {
	known := w.knownEdges()
	old := w.entries
	next := make([]entry, 0, len(old)+len(lines))
	var current []LineID
	minted := 0

	revpos, weavepos := -1, -1
	matches = append(matches, lcs.Match{A: len(lines), B: len(old)})
	for _, m := range matches {
		// Historical lines go first when the adjacency they break was ever
		// recorded, otherwise after the new lines.
		before := true
		if weavepos != -1 && weavepos+1 != len(old) {
			before = known[Edge{From: old[weavepos].id, To: old[weavepos+1].id}]
		}
		if before {
			next = append(next, old[weavepos+1:m.B]...)
		}
		for i := revpos + 1; i < m.A; i++ {
			w.nextLine++
			current = append(current, w.nextLine)
			next = append(next, entry{id: w.nextLine, rev: id, text: lines[i]})
			minted++
		}
		if !before {
			next = append(next, old[weavepos+1:m.B]...)
		}
		if m.B != len(old) {
			next = append(next, old[m.B])
			current = append(current, old[m.B].id)
		}
		revpos, weavepos = m.A, m.B
	}

	w.entries = next
	return current, minted
}

func (w *Weave) knownEdges() map[Edge]bool {
	known := make(map[Edge]bool)
	for _, delta := range w.deltas {
		for _, es := range delta {
			known[es.edge] = true
		}
	}
	return known
}

func currentEdges(ids []LineID) map[Edge]bool {
	edges := make(map[Edge]bool, len(ids)+1)
	if len(ids) == 0 {
		edges[Edge{From: NoLine, To: NoLine}] = true
		return edges
	}
	for i := 0; i+1 < len(ids); i++ {
		edges[Edge{From: ids[i], To: ids[i+1]}] = true
	}
	edges[Edge{From: NoLine, To: ids[0]}] = true
	edges[Edge{From: ids[len(ids)-1], To: NoLine}] = true
	return edges
}

// diffEdges returns the state changes that turn base into exactly the edges
// in current.
func diffEdges(base map[Edge]int, current map[Edge]bool) []edgeState {
	var delta []edgeState
	for edge := range current {
		if _, ok := base[edge]; !ok {
			delta = append(delta, edgeState{edge: edge, state: 1})
		}
	}
	for edge, state := range base {
		if alive(state) != current[edge] {
			delta = append(delta, edgeState{edge: edge, state: state + 1})
		}
	}
	return delta
}

func alive(state int) bool {
	return state&1 == 1
}

// livingLines returns the ids that both end one alive edge and start another.
func livingLines(view map[Edge]int) map[LineID]bool {
	pre := make(map[LineID]bool)
	post := make(map[LineID]bool)
	for edge, state := range view {
		if !alive(state) {
			continue
		}
		if edge.From != NoLine {
			pre[edge.From] = true
		}
		if edge.To != NoLine {
			post[edge.To] = true
		}
	}
	living := make(map[LineID]bool)
	for id := range pre {
		if post[id] {
			living[id] = true
		}
	}
	return living
}

// lineIDs returns every id touched by an alive edge of view.
func lineIDs(view map[Edge]int) map[LineID]bool {
	ids := make(map[LineID]bool)
	for edge, state := range view {
		if !alive(state) {
			continue
		}
		if edge.From != NoLine {
			ids[edge.From] = true
		}
		if edge.To != NoLine {
			ids[edge.To] = true
		}
	}
	return ids
}

// resolve computes the per-edge maximum state across id and its ancestors.
func (w *Weave) resolve(id RevisionID) (map[Edge]int, error) {
	if !w.Has(id) {
		return nil, fmt.Errorf("resolve revision %d: %w", id, ErrUnknownRevision)
	}
	if view, ok := w.views.get(id); ok {
		return view, nil
	}
	view := w.closureView([]RevisionID{id})
	if w.sealed[id] {
		w.views.add(id, view)
	}
	return view, nil
}

// closureView merges the deltas of every revision reachable from roots.
// All roots must be registered.
func (w *Weave) closureView(roots []RevisionID) map[Edge]int {
	seen := make(map[RevisionID]bool)
	stack := append([]RevisionID(nil), roots...)
	view := make(map[Edge]int)
	for len(stack) > 0 {
		rev := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[rev] {
			continue
		}
		seen[rev] = true
		stack = append(stack, w.parents[rev]...)
		for _, es := range w.deltas[rev] {
			if es.state > view[es.edge] {
				view[es.edge] = es.state
			}
		}
	}
	return view
}

// ownDelta is the view holding only the changes id itself recorded.
func (w *Weave) ownDelta(id RevisionID) map[Edge]int {
	view := make(map[Edge]int)
	for _, es := range w.deltas[id] {
		if es.state > view[es.edge] {
			view[es.edge] = es.state
		}
	}
	return view
}

// Retrieve returns the content of revision id.
func (w *Weave) Retrieve(id RevisionID) ([]string, error) {
	view, err := w.resolve(id)
	if err != nil {
		return nil, err
	}
	ids := lineIDs(view)
	lines := make([]string, 0, len(ids))
	for _, e := range w.entries {
		if ids[e.id] {
			lines = append(lines, e.text)
		}
	}
	return lines, nil
}

// Origin reports which revision introduced each line of revision id.
func (w *Weave) Origin(id RevisionID) ([]RevisionID, error) {
	view, err := w.resolve(id)
	if err != nil {
		return nil, err
	}
	ids := lineIDs(view)
	origins := make([]RevisionID, 0, len(ids))
	for _, e := range w.entries {
		if ids[e.id] {
			origins = append(origins, e.rev)
		}
	}
	return origins, nil
}
