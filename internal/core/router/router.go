// Package router keeps diff-viewer navigation state in a canonical route
// string: revision (or revision pair for interdiffs), page, commit-range
// filters, filename filter, and the selected anchor. Moving between routes
// is classified as either a full reload of the diff content or a
// fragment-only change that just reselects an anchor.
package router

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Route is the parsed navigation state for one diff page.
type Route struct {
	Revision          int
	InterdiffRevision int // 0 when viewing against the base
	Page              int // 1-based, 0 means first page
	BaseCommitID      string
	TipCommitID       string
	Filenames         []string // comma-separated glob patterns
	Anchor            string
}

// Parse parses a route of the shape
// <rev>[-<interdiff>]/[?page=&base-commit-id=&tip-commit-id=&filenames=][#anchor].
func Parse(raw string) (Route, error) {
	var r Route

	rest := raw
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		r.Anchor = rest[i+1:]
		rest = rest[:i]
	}

	var query string
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		query = rest[i+1:]
		rest = rest[:i]
	}

	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return Route{}, fmt.Errorf("route %q: missing revision", raw)
	}

	revPart, interPart, isPair := strings.Cut(rest, "-")
	rev, err := strconv.Atoi(revPart)
	if err != nil || rev < 1 {
		return Route{}, fmt.Errorf("route %q: bad revision %q", raw, revPart)
	}
	r.Revision = rev

	if isPair {
		inter, err := strconv.Atoi(interPart)
		if err != nil || inter <= rev {
			return Route{}, fmt.Errorf("route %q: bad interdiff revision %q", raw, interPart)
		}
		r.InterdiffRevision = inter
	}

	if query != "" {
		vals, err := url.ParseQuery(query)
		if err != nil {
			return Route{}, fmt.Errorf("route %q: %w", raw, err)
		}
		if p := vals.Get("page"); p != "" {
			page, err := strconv.Atoi(p)
			if err != nil || page < 1 {
				return Route{}, fmt.Errorf("route %q: bad page %q", raw, p)
			}
			r.Page = page
		}
		r.BaseCommitID = vals.Get("base-commit-id")
		r.TipCommitID = vals.Get("tip-commit-id")
		if f := vals.Get("filenames"); f != "" {
			for _, pat := range strings.Split(f, ",") {
				if pat = strings.TrimSpace(pat); pat != "" {
					r.Filenames = append(r.Filenames, pat)
				}
			}
		}
	}

	return r, nil
}

// String renders the canonical route string.
func (r Route) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", r.Revision)
	if r.InterdiffRevision > 0 {
		fmt.Fprintf(&b, "-%d", r.InterdiffRevision)
	}
	b.WriteByte('/')

	vals := url.Values{}
	if r.Page > 1 {
		vals.Set("page", strconv.Itoa(r.Page))
	}
	if r.BaseCommitID != "" {
		vals.Set("base-commit-id", r.BaseCommitID)
	}
	if r.TipCommitID != "" {
		vals.Set("tip-commit-id", r.TipCommitID)
	}
	if len(r.Filenames) > 0 {
		vals.Set("filenames", strings.Join(r.Filenames, ","))
	}
	if len(vals) > 0 {
		b.WriteByte('?')
		b.WriteString(vals.Encode())
	}

	if r.Anchor != "" {
		b.WriteByte('#')
		b.WriteString(r.Anchor)
	}
	return b.String()
}

// MatchesFilename reports whether the route's filename filter admits the
// given path. An empty filter admits everything. Patterns support the usual
// glob syntax including **; a pattern without a slash also matches against
// the path's base name so "*.go" works on nested files.
func (r Route) MatchesFilename(path string) bool {
	if len(r.Filenames) == 0 {
		return true
	}
	for _, pat := range r.Filenames {
		if ok, err := doublestar.Match(pat, path); err == nil && ok {
			return true
		}
		if !strings.ContainsRune(pat, '/') {
			base := path
			if i := strings.LastIndexByte(path, '/'); i >= 0 {
				base = path[i+1:]
			}
			if ok, err := doublestar.Match(pat, base); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// NavKind classifies a route transition.
type NavKind int

const (
	// NavNone means the routes are identical.
	NavNone NavKind = iota
	// NavAnchorOnly means only the fragment changed: reselect the anchor,
	// no reload.
	NavAnchorOnly
	// NavReload means revision, page, or a filter changed: rebuild the
	// diff content and anchor sequence.
	NavReload
)

// Classify compares two routes and returns what navigating from prev to
// next requires.
func Classify(prev, next Route) NavKind {
	if prev.Revision != next.Revision ||
		prev.InterdiffRevision != next.InterdiffRevision ||
		prev.Page != next.Page ||
		prev.BaseCommitID != next.BaseCommitID ||
		prev.TipCommitID != next.TipCommitID ||
		!equalStrings(prev.Filenames, next.Filenames) {
		return NavReload
	}
	if prev.Anchor != next.Anchor {
		return NavAnchorOnly
	}
	return NavNone
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PendingAnchor arms a one-shot anchor selection: a page opened with a
// fragment selects that anchor exactly once, as soon as its content has
// loaded, and never again on later loads.
type PendingAnchor struct {
	name  string
	armed bool
}

// NewPendingAnchor arms the selection when name is non-empty.
func NewPendingAnchor(name string) *PendingAnchor {
	return &PendingAnchor{name: name, armed: name != ""}
}

// TryConsume returns the anchor name once present reports it is now
// selectable. It fires at most once.
func (p *PendingAnchor) TryConsume(present func(name string) bool) (string, bool) {
	if !p.armed || !present(p.name) {
		return "", false
	}
	p.armed = false
	return p.name, true
}

// Armed reports whether a selection is still pending.
func (p *PendingAnchor) Armed() bool { return p.armed }
