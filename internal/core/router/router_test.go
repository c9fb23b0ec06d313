package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Route
		wantErr bool
	}{
		{
			name: "bare revision",
			raw:  "3/",
			want: Route{Revision: 3},
		},
		{
			name: "interdiff pair",
			raw:  "2-5/",
			want: Route{Revision: 2, InterdiffRevision: 5},
		},
		{
			name: "query and fragment",
			raw:  "4/?page=2&base-commit-id=abc&tip-commit-id=def&filenames=*.go,src/**#file12",
			want: Route{
				Revision:     4,
				Page:         2,
				BaseCommitID: "abc",
				TipCommitID:  "def",
				Filenames:    []string{"*.go", "src/**"},
				Anchor:       "file12",
			},
		},
		{
			name: "fragment only",
			raw:  "1/#chunk3.2",
			want: Route{Revision: 1, Anchor: "chunk3.2"},
		},
		{name: "empty", raw: "", wantErr: true},
		{name: "non-numeric revision", raw: "abc/", wantErr: true},
		{name: "zero revision", raw: "0/", wantErr: true},
		{name: "interdiff not after revision", raw: "5-3/", wantErr: true},
		{name: "bad page", raw: "1/?page=zero", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	routes := []Route{
		{Revision: 1},
		{Revision: 2, InterdiffRevision: 4},
		{Revision: 3, Page: 2, Anchor: "file1"},
		{Revision: 1, BaseCommitID: "aaa", TipCommitID: "bbb", Filenames: []string{"*.py"}},
	}

	for _, r := range routes {
		got, err := Parse(r.String())
		require.NoError(t, err, r.String())
		assert.Equal(t, r, got, r.String())
	}
}

func TestMatchesFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{name: "no filter admits all", path: "a/b/c.txt", want: true},
		{name: "basename glob on nested path", patterns: []string{"*.go"}, path: "internal/core/x.go", want: true},
		{name: "doublestar", patterns: []string{"src/**"}, path: "src/a/b.py", want: true},
		{name: "miss", patterns: []string{"*.go"}, path: "README.md", want: false},
		{name: "any of several", patterns: []string{"*.rs", "*.md"}, path: "README.md", want: true},
		{name: "slash pattern does not fall back to basename", patterns: []string{"src/*.go"}, path: "other/x.go", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Route{Filenames: tt.patterns}
			assert.Equal(t, tt.want, r.MatchesFilename(tt.path))
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	base := Route{Revision: 2, Page: 1}

	assert.Equal(t, NavNone, Classify(base, base))

	next := base
	next.Anchor = "chunk1.1"
	assert.Equal(t, NavAnchorOnly, Classify(base, next), "fragment change must not reload")

	next = base
	next.Revision = 3
	assert.Equal(t, NavReload, Classify(base, next))

	next = base
	next.Page = 2
	assert.Equal(t, NavReload, Classify(base, next))

	next = base
	next.Filenames = []string{"*.go"}
	assert.Equal(t, NavReload, Classify(base, next))

	// Anchor difference is irrelevant once a reload is needed.
	next = base
	next.Revision = 3
	next.Anchor = "file9"
	assert.Equal(t, NavReload, Classify(base, next))
}

func TestPendingAnchor_FiresExactlyOnce(t *testing.T) {
	t.Parallel()

	loaded := map[string]bool{}
	present := func(name string) bool { return loaded[name] }

	p := NewPendingAnchor("file2")
	require.True(t, p.Armed())

	// Content not loaded yet: nothing fires.
	_, ok := p.TryConsume(present)
	assert.False(t, ok)
	assert.True(t, p.Armed())

	loaded["file2"] = true
	name, ok := p.TryConsume(present)
	require.True(t, ok)
	assert.Equal(t, "file2", name)

	// Later loads never re-fire the selection.
	_, ok = p.TryConsume(present)
	assert.False(t, ok)
	assert.False(t, p.Armed())
}

func TestPendingAnchor_EmptyFragmentNeverArms(t *testing.T) {
	t.Parallel()

	p := NewPendingAnchor("")
	assert.False(t, p.Armed())
	_, ok := p.TryConsume(func(string) bool { return true })
	assert.False(t, ok)
}
