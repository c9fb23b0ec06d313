// Package anchors tracks the navigable points of a diff page: file tables,
// changed chunks, and comment flags. Anchors accumulate in document order as
// files load; keyboard navigation walks the sequence filtered by kind and
// never wraps past either end.
package anchors

// Kind identifies what an anchor points at.
type Kind int

const (
	// KindFile anchors the top of a file's diff table.
	KindFile Kind = iota
	// KindChunk anchors a changed chunk inside a table.
	KindChunk
	// KindComment anchors a row carrying a comment flag.
	KindComment
)

// Mask selects which anchor kinds a navigation step considers.
type Mask uint8

const (
	MaskFile    Mask = 1 << 0
	MaskChunk   Mask = 1 << 1
	MaskComment Mask = 1 << 2
	MaskAny          = MaskFile | MaskChunk | MaskComment
)

func (m Mask) matches(k Kind) bool {
	switch k {
	case KindFile:
		return m&MaskFile != 0
	case KindChunk:
		return m&MaskChunk != 0
	case KindComment:
		return m&MaskComment != 0
	default:
		return false
	}
}

// Direction is the navigation direction through the sequence.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Anchor is one navigable point.
type Anchor struct {
	Kind Kind
	// Name is the anchor's stable identifier, usable as a URL fragment.
	Name string
	// FileIndex orders anchors by the file they belong to.
	FileIndex int
	// ChunkIndex is the chunk within the file, for KindChunk.
	ChunkIndex int
	// Row is the table row the anchor scrolls to.
	Row int
}

// Sequence is the ordered set of anchors on a page. Anchors are only ever
// appended: as files load one at a time their anchors land after everything
// already present, so indices held by the selection stay valid.
type Sequence struct {
	anchors  []Anchor
	selected int
}

// NewSequence returns an empty sequence with nothing selected.
func NewSequence() *Sequence {
	return &Sequence{selected: -1}
}

// Add appends anchors in document order for one loaded file.
func (s *Sequence) Add(anchors ...Anchor) {
	s.anchors = append(s.anchors, anchors...)
}

// Len returns the number of anchors.
func (s *Sequence) Len() int { return len(s.anchors) }

// At returns the anchor at index i.
func (s *Sequence) At(i int) Anchor { return s.anchors[i] }

// Selected returns the selected index, or -1 when nothing is selected.
func (s *Sequence) Selected() int { return s.selected }

// Current returns the selected anchor.
func (s *Sequence) Current() (Anchor, bool) {
	if s.selected < 0 || s.selected >= len(s.anchors) {
		return Anchor{}, false
	}
	return s.anchors[s.selected], true
}

// Select sets the selected index. Out-of-range indices clear the selection.
func (s *Sequence) Select(i int) {
	if i < 0 || i >= len(s.anchors) {
		s.selected = -1
		return
	}
	s.selected = i
}

// SelectName selects the anchor with the given name and reports whether it
// was found.
func (s *Sequence) SelectName(name string) bool {
	for i, a := range s.anchors {
		if a.Name == name {
			s.selected = i
			return true
		}
	}
	return false
}

// Next moves the selection one matching anchor in the given direction and
// returns the new anchor. Skip reports anchors to pass over even when their
// kind matches, such as chunks inside dimmed files; it may be nil. When no
// matching anchor exists in that direction the selection does not move and
// ok is false. Navigation never wraps.
func (s *Sequence) Next(dir Direction, mask Mask, skip func(Anchor) bool) (a Anchor, ok bool) {
	i := s.selected
	if i < 0 && dir == Backward {
		// Nothing selected yet: backward has nowhere to go.
		return Anchor{}, false
	}

	for {
		i += int(dir)
		if i < 0 || i >= len(s.anchors) {
			return Anchor{}, false
		}
		cand := s.anchors[i]
		if !mask.matches(cand.Kind) {
			continue
		}
		if skip != nil && skip(cand) {
			continue
		}
		s.selected = i
		return cand, true
	}
}
