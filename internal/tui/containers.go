package tui

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/colonyops/revdeck/internal/core/fragment"
)

var fragmentTextPolicy = bluemonday.StrictPolicy()

// FragmentContainer holds one comment block's rendered fragment. The server
// sends HTML; the terminal shows its sanitized text form, so both are kept.
type FragmentContainer struct {
	id   string
	html string
	text string
}

var _ fragment.Container = (*FragmentContainer)(nil)

// NewFragmentContainer creates an empty container for a comment ID.
func NewFragmentContainer(id string) *FragmentContainer {
	return &FragmentContainer{id: id}
}

// ID returns the comment ID the container belongs to.
func (c *FragmentContainer) ID() string { return c.id }

// HTML returns the raw fragment markup.
func (c *FragmentContainer) HTML() string { return c.html }

// SetHTML stores the fragment and derives its terminal text.
func (c *FragmentContainer) SetHTML(s string) {
	c.html = s
	c.text = fragmentText(s)
}

// Text returns the sanitized plain-text rendering of the fragment.
func (c *FragmentContainer) Text() string { return c.text }

// fragmentText strips markup and entities, collapsing blank runs.
func fragmentText(s string) string {
	stripped := html.UnescapeString(fragmentTextPolicy.Sanitize(s))
	lines := strings.Split(stripped, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// ContainerSet resolves comment IDs to their containers; it implements the
// fragment queue's resolver. Containers for a revision are dropped wholesale
// when the revision is superseded, making stale fragment callbacks inert.
type ContainerSet struct {
	containers map[string]*FragmentContainer
}

var _ fragment.ContainerResolver = (*ContainerSet)(nil)

// NewContainerSet creates an empty set.
func NewContainerSet() *ContainerSet {
	return &ContainerSet{containers: map[string]*FragmentContainer{}}
}

// Add registers a container for a comment ID.
func (s *ContainerSet) Add(id string) *FragmentContainer {
	c := NewFragmentContainer(id)
	s.containers[id] = c
	return c
}

// Container implements fragment.ContainerResolver.
func (s *ContainerSet) Container(id string) (fragment.Container, bool) {
	c, ok := s.containers[id]
	return c, ok
}

// Get returns the typed container for an ID.
func (s *ContainerSet) Get(id string) (*FragmentContainer, bool) {
	c, ok := s.containers[id]
	return c, ok
}

// Clear drops every container.
func (s *ContainerSet) Clear() {
	s.containers = map[string]*FragmentContainer{}
}
