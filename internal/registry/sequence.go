// internal/registry/sequence.go
package registry

// sequence hands out monotonically increasing asset ids. An id is
// consumed only by a creation that commits, so ids are never burned by
// failed attempts and never reused.
type sequence struct {
	next uint64
}

func newSequence() *sequence {
	return &sequence{next: 1}
}

func (s *sequence) allocate() uint64 {
	id := s.next
	s.next++
	return id
}

// advancePast moves the sequence beyond id. Used when rebuilding state
// from the event log.
func (s *sequence) advancePast(id uint64) {
	if id >= s.next {
		s.next = id + 1
	}
}
