package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/revdeck/internal/core/styles"
)

// CommentModal edits one draft comment: multi-line text plus the
// open-an-issue toggle.
type CommentModal struct {
	textarea    textarea.Model
	lineRange   string // e.g., "Lines 10-15"
	issueOpened bool
	width       int
	height      int
	submitted   bool
	cancelled   bool
}

// NewCommentModal creates a modal for a comment spanning the given lines.
func NewCommentModal(startLine, endLine, width, height int) CommentModal {
	ta := textarea.New()
	ta.Placeholder = "Enter your review comment..."
	ta.Focus()
	ta.SetWidth(width - 10) // Account for padding and borders
	ta.SetHeight(6)

	lineRange := fmt.Sprintf("Lines %d-%d", startLine, endLine)
	if startLine == endLine {
		lineRange = fmt.Sprintf("Line %d", startLine)
	}

	return CommentModal{
		textarea:  ta,
		lineRange: lineRange,
		width:     width,
		height:    height,
	}
}

// Update handles messages.
func (m CommentModal) Update(msg tea.Msg) (CommentModal, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+s":
			if strings.TrimSpace(m.textarea.Value()) != "" {
				m.submitted = true
				return m, nil
			}
		case "ctrl+o":
			m.issueOpened = !m.issueOpened
			return m, nil
		case "esc":
			m.cancelled = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// View renders the modal.
func (m CommentModal) View() string {
	issueBox := "[ ]"
	if m.issueOpened {
		issueBox = "[x]"
	}
	issueStyle := lipgloss.NewStyle().Foreground(styles.ColorForeground)
	if m.issueOpened {
		issueStyle = styles.IssueOpenStyle
	}

	content := strings.Join([]string{
		styles.ModalTitleStyle.Render("Add Review Comment"),
		lipgloss.NewStyle().Foreground(styles.ColorMuted).Render(m.lineRange),
		m.textarea.View(),
		issueStyle.Render(issueBox + " open an issue"),
		styles.ModalHelpStyle.Render("ctrl+s: save • ctrl+o: toggle issue • esc: cancel"),
	}, "\n")

	return styles.ModalStyle.Render(content)
}

// Submitted returns true if the comment was submitted.
func (m CommentModal) Submitted() bool {
	return m.submitted
}

// Cancelled returns true if the modal was cancelled.
func (m CommentModal) Cancelled() bool {
	return m.cancelled
}

// Value returns the entered comment text.
func (m CommentModal) Value() string {
	return m.textarea.Value()
}

// IssueOpened returns the state of the issue toggle.
func (m CommentModal) IssueOpened() bool {
	return m.issueOpened
}

// SetExistingComment pre-fills the modal with existing draft text for
// editing.
func (m *CommentModal) SetExistingComment(text string, issueOpened bool) {
	// SetValue leaves the cursor at the end of the inserted text.
	m.textarea.SetValue(text)
	m.issueOpened = issueOpened
}
