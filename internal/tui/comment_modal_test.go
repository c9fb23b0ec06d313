package tui

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/revdeck/pkg/tuitest"
)

func TestCommentModalLineRangeLabel(t *testing.T) {
	single := NewCommentModal(10, 10, 80, 24)
	assert.Contains(t, tuitest.StripANSI(single.View()), "Line 10")

	multi := NewCommentModal(10, 15, 80, 24)
	assert.Contains(t, tuitest.StripANSI(multi.View()), "Lines 10-15")
}

func TestCommentModalSubmitRequiresText(t *testing.T) {
	m := NewCommentModal(1, 1, 80, 24)

	m, _ = m.Update(tea.KeyPressMsg{Text: "ctrl+s", Mod: tea.ModCtrl, Code: 's'})
	assert.False(t, m.Submitted(), "blank comment must not submit")

	m, _ = m.Update(tuitest.KeyPress('h'))
	m, _ = m.Update(tuitest.KeyPress('i'))
	m, _ = m.Update(tea.KeyPressMsg{Text: "ctrl+s", Mod: tea.ModCtrl, Code: 's'})
	require.True(t, m.Submitted())
	assert.Equal(t, "hi", m.Value())
}

func TestCommentModalIssueToggle(t *testing.T) {
	m := NewCommentModal(1, 1, 80, 24)
	assert.False(t, m.IssueOpened())

	m, _ = m.Update(tea.KeyPressMsg{Mod: tea.ModCtrl, Code: 'o'})
	assert.True(t, m.IssueOpened())

	m, _ = m.Update(tea.KeyPressMsg{Mod: tea.ModCtrl, Code: 'o'})
	assert.False(t, m.IssueOpened())
}

func TestCommentModalCancel(t *testing.T) {
	m := NewCommentModal(1, 1, 80, 24)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.True(t, m.Cancelled())
}

func TestCommentModalPrefillsExistingDraft(t *testing.T) {
	m := NewCommentModal(3, 5, 80, 24)
	m.SetExistingComment("needs a nil check", true)

	assert.Equal(t, "needs a nil check", m.Value())
	assert.True(t, m.IssueOpened())
}
