// Package selection tracks which hunks of a change the user wants to keep.
package selection

import "strings"

const Prompt = "Apply this change? [ynadjk?]"

// HelpLines documents the interactive commands accepted by Decide.
var HelpLines = []string{
	"y - include this change",
	"n - do not include this change",
	"a - include this change and all remaining changes",
	"d - done, do not include this change nor any remaining changes",
	"j - leave this change undecided, see next undecided change",
	"k - leave this change undecided, see previous undecided change",
	"? - interactive apply mode help",
}

type Decision int

const (
	Undecided Decision = iota
	Accepted
	Rejected
)

var decisionNames = map[Decision]string{
	Undecided: "undecided",
	Accepted:  "accepted",
	Rejected:  "rejected",
}

func (d Decision) String() string {
	if name, ok := decisionNames[d]; ok {
		return name
	}
	return "unknown"
}

type Mode int

const (
	Interactive Mode = iota
	Automatic
)

var modeNames = map[Mode]string{
	Interactive: "interactive",
	Automatic:   "automatic",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

func ParseMode(s string) (Mode, bool) {
	for mode, name := range modeNames {
		if strings.EqualFold(s, name) {
			return mode, true
		}
	}
	return Interactive, false
}

// Outcome tells the caller what to do after a command.
type Outcome int

const (
	// OutcomeNext: show the hunk at Current and prompt again.
	OutcomeNext Outcome = iota
	// OutcomeRepeat: the input was empty or unknown; prompt again.
	OutcomeRepeat
	// OutcomeHelp: print HelpLines and prompt again.
	OutcomeHelp
	// OutcomeDone: every hunk is decided.
	OutcomeDone
)

var outcomeNames = map[Outcome]string{
	OutcomeNext:   "next",
	OutcomeRepeat: "repeat",
	OutcomeHelp:   "help",
	OutcomeDone:   "done",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Selector walks the undecided hunks of a change. The cursor always points
// at an undecided hunk until none remain.
type Selector struct {
	decisions []Decision
	pending   []int
	cursor    int
	mode      Mode
}

func New(hunks int, mode Mode) *Selector {
	s := &Selector{
		decisions: make([]Decision, hunks),
		pending:   make([]int, hunks),
		mode:      mode,
	}
	for i := range s.pending {
		s.pending[i] = i
	}
	return s
}

func (s *Selector) Mode() Mode {
	return s.mode
}

// Current returns the hunk awaiting a decision.
func (s *Selector) Current() (int, bool) {
	if s.Done() {
		return 0, false
	}
	return s.pending[s.cursor], true
}

func (s *Selector) Done() bool {
	return len(s.pending) == 0
}

// Decide applies one interactive command. Commands are case-insensitive;
// y and n accept any word starting with them.
func (s *Selector) Decide(cmd string) Outcome {
	if s.Done() {
		return OutcomeDone
	}

	cmd = strings.ToLower(strings.TrimSpace(cmd))
	switch {
	case cmd == "":
		return OutcomeRepeat
	case strings.HasPrefix(cmd, "y"):
		return s.settle(Accepted)
	case strings.HasPrefix(cmd, "n"):
		return s.settle(Rejected)
	case cmd == "a":
		return s.settleAll(Accepted)
	case cmd == "d":
		return s.settleAll(Rejected)
	case cmd == "j":
		s.cursor = (s.cursor + 1) % len(s.pending)
		return OutcomeNext
	case cmd == "k":
		s.cursor = (s.cursor - 1 + len(s.pending)) % len(s.pending)
		return OutcomeNext
	case cmd == "?":
		return OutcomeHelp
	}
	return OutcomeRepeat
}

// AcceptAll settles every remaining hunk as accepted.
func (s *Selector) AcceptAll() {
	s.settleAll(Accepted)
}

func (s *Selector) settle(d Decision) Outcome {
	s.decisions[s.pending[s.cursor]] = d
	s.pending = append(s.pending[:s.cursor], s.pending[s.cursor+1:]...)
	if s.cursor >= len(s.pending) {
		s.cursor = 0
	}
	if s.Done() {
		return OutcomeDone
	}
	return OutcomeNext
}

func (s *Selector) settleAll(d Decision) Outcome {
	for _, idx := range s.pending {
		s.decisions[idx] = d
	}
	s.pending = nil
	s.cursor = 0
	return OutcomeDone
}

func (s *Selector) Decision(hunk int) Decision {
	return s.decisions[hunk]
}

func (s *Selector) Decisions() []Decision {
	out := make([]Decision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

func (s *Selector) Accepted() int {
	n := 0
	for _, d := range s.decisions {
		if d == Accepted {
			n++
		}
	}
	return n
}
