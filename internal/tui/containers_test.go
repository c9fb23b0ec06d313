package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentContainerDerivesText(t *testing.T) {
	c := NewFragmentContainer("42")
	c.SetHTML(`<div class="comment"><p>Looks &lt;wrong&gt; here</p></div>`)

	assert.Equal(t, `<div class="comment"><p>Looks &lt;wrong&gt; here</p></div>`, c.HTML())
	assert.Equal(t, "Looks <wrong> here", c.Text())
}

func TestFragmentTextCollapsesBlankRuns(t *testing.T) {
	c := NewFragmentContainer("1")
	c.SetHTML("first\n\n\n\nsecond")

	assert.Equal(t, "first\n\nsecond", c.Text())
}

func TestContainerSetResolves(t *testing.T) {
	s := NewContainerSet()
	s.Add("7")

	c, ok := s.Container("7")
	require.True(t, ok)
	c.SetHTML("<b>hello</b>")

	typed, ok := s.Get("7")
	require.True(t, ok)
	assert.Equal(t, "hello", typed.Text())

	_, ok = s.Container("missing")
	assert.False(t, ok)

	s.Clear()
	_, ok = s.Container("7")
	assert.False(t, ok)
}
