package sweep

import (
	"container/heap"
)

// Schedule merges the eligible sets of all rules into one deletion plan.
//
// Rules compete through a live score of importance divided by remaining
// candidate count; the rule with the highest score emits the next deletion,
// ties broken by rule name. Within a rule, the next file always comes from
// the directory with the most remaining candidates (ties by directory path),
// oldest file first within a directory. A path already scheduled by another
// rule is consumed without emitting it twice.
func Schedule(sets []EligibleSet) *Plan {
	h := &streamHeap{}
	for _, set := range sets {
		if set.Total == 0 {
			continue
		}
		s := &ruleStream{rule: set.Rule, remaining: set.Total}
		for _, dc := range set.Dirs {
			s.dirs = append(s.dirs, &dirCursor{dir: dc.Dir, files: dc.Files})
		}
		h.streams = append(h.streams, s)
	}
	heap.Init(h)

	plan := &Plan{}
	scheduled := make(map[string]bool)
	for h.Len() > 0 {
		s := heap.Pop(h).(*ruleStream)
		f, ok := s.next()
		if !ok {
			continue
		}
		s.remaining--
		if !scheduled[f.Path] {
			scheduled[f.Path] = true
			plan.Candidates = append(plan.Candidates, Candidate{File: f, Rule: s.rule.Name})
		}
		if s.remaining > 0 {
			heap.Push(h, s)
		}
	}
	return plan
}

// ruleStream walks one rule's eligible files in directory-balanced order.
type ruleStream struct {
	rule      Rule
	dirs      []*dirCursor
	remaining int
}

type dirCursor struct {
	dir   string
	files []FileRecord
	pos   int
}

func (c *dirCursor) left() int { return len(c.files) - c.pos }

// next pulls the oldest file from whichever directory has the most files
// left, so the most populated directories drain first.
func (s *ruleStream) next() (FileRecord, bool) {
	var pick *dirCursor
	for _, c := range s.dirs {
		if c.left() == 0 {
			continue
		}
		if pick == nil || c.left() > pick.left() ||
			(c.left() == pick.left() && c.dir < pick.dir) {
			pick = c
		}
	}
	if pick == nil {
		return FileRecord{}, false
	}
	f := pick.files[pick.pos]
	pick.pos++
	return f, true
}

// score is recomputed on every emission since the backlog shrinks as files
// are consumed.
func (s *ruleStream) score() float64 {
	left := s.remaining
	if left < 1 {
		left = 1
	}
	return s.rule.Importance / float64(left)
}

// streamHeap is a max-heap over rule streams keyed by the live score.
type streamHeap struct {
	streams []*ruleStream
}

func (h *streamHeap) Len() int { return len(h.streams) }

func (h *streamHeap) Less(i, j int) bool {
	si, sj := h.streams[i].score(), h.streams[j].score()
	if si == sj {
		return h.streams[i].rule.Name < h.streams[j].rule.Name
	}
	return si > sj
}

func (h *streamHeap) Swap(i, j int) {
	h.streams[i], h.streams[j] = h.streams[j], h.streams[i]
}

func (h *streamHeap) Push(x any) {
	h.streams = append(h.streams, x.(*ruleStream))
}

func (h *streamHeap) Pop() any {
	old := h.streams
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	h.streams = old[:n-1]
	return s
}
