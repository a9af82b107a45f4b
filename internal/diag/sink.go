package diag

import "iter"

// Sink collects diagnostics of one audit run in detection order.
// Besides the records it keeps the set of pointer targets already reported
// as missing, so that a dangling handle is diagnosed once per run no matter
// how many records point at it.
type Sink struct {
	items    []Diagnostic
	reported map[string]struct{}
}

func NewSink() *Sink {
	return &Sink{
		items:    make([]Diagnostic, 0, 16),
		reported: make(map[string]struct{}),
	}
}

// Reset drops all records and the reported-target set.
func (s *Sink) Reset() {
	s.items = s.items[:0]
	clear(s.reported)
}

// Add appends a diagnostic.
func (s *Sink) Add(code Code, msg string, ref EntityRef, data any) {
	s.items = append(s.items, New(code, msg, ref, data))
}

// длина
func (s *Sink) Len() int {
	return len(s.items)
}

func (s *Sink) Empty() bool {
	return len(s.items) == 0
}

// Items returns a copy of the records in detection order.
func (s *Sink) Items() []Diagnostic {
	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// All iterates the records in detection order.
func (s *Sink) All() iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		for _, d := range s.items {
			if !yield(d) {
				return
			}
		}
	}
}

// Filter yields the records with the given code, in detection order.
// The sequence is lazy and can be ranged over any number of times.
func (s *Sink) Filter(code Code) iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		for _, d := range s.items {
			if d.Code != code {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// Count returns the number of records with the given code.
func (s *Sink) Count(code Code) int {
	n := 0
	for i := range s.items {
		if s.items[i].Code == code {
			n++
		}
	}
	return n
}

// Codes returns the distinct codes present, in order of first appearance.
func (s *Sink) Codes() []Code {
	seen := make(map[Code]bool)
	var out []Code
	for i := range s.items {
		c := s.items[i].Code
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// HasReportedTarget reports whether a missing pointer target was already
// diagnosed in this run.
func (s *Sink) HasReportedTarget(handle string) bool {
	_, ok := s.reported[handle]
	return ok
}

func (s *Sink) MarkTargetReported(handle string) {
	s.reported[handle] = struct{}{}
}
