package trie

// MoveOnly is a sentinel value type used to verify that the trie never copies
// a stored value beyond the single move into its owning node. Go has no
// language-level move semantics, so this stands in for the original course
// project's std::unique_ptr<uint32_t> test: the marker is a pointer, and tests
// assert that every Get of a given key returns the same marker identity that
// was Put, never a duplicate.
type MoveOnly struct {
	marker *int
}

// NewMoveOnly returns a MoveOnly value wrapping a fresh marker.
func NewMoveOnly() MoveOnly {
	v := 0
	return MoveOnly{marker: &v}
}

// Marker returns the identity used to detect accidental duplication.
func (m MoveOnly) Marker() *int {
	return m.marker
}
