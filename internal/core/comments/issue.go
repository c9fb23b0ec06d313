package comments

import "fmt"

// IssueStatus is the review-issue state attached to a published comment.
type IssueStatus string

const (
	IssueNone     IssueStatus = ""
	IssueOpen     IssueStatus = "open"
	IssueResolved IssueStatus = "resolved"
	IssueDropped  IssueStatus = "dropped"
)

// IssueEvent is a user-triggered transition on an issue.
type IssueEvent string

const (
	IssueEventResolve IssueEvent = "resolve"
	IssueEventDrop    IssueEvent = "drop"
	IssueEventReopen  IssueEvent = "reopen"
)

// NextIssueStatus is the issue state machine as a pure function of state and
// event. Rendering is a projection elsewhere; this function never touches
// UI state.
//
// Valid transitions: open -> resolved | dropped, resolved -> open,
// dropped -> open.
func NextIssueStatus(s IssueStatus, e IssueEvent) (IssueStatus, error) {
	switch s {
	case IssueOpen:
		switch e {
		case IssueEventResolve:
			return IssueResolved, nil
		case IssueEventDrop:
			return IssueDropped, nil
		}
	case IssueResolved, IssueDropped:
		if e == IssueEventReopen {
			return IssueOpen, nil
		}
	}
	return s, fmt.Errorf("issue status %q does not accept event %q", s, e)
}
