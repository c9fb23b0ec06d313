package comments

import (
	"context"
	"fmt"
	"strings"

	"github.com/colonyops/revdeck/internal/core/difftable"
)

// Block is the capability interface shared by every comment-block kind.
// A block aggregates zero or more published comments and at most one draft;
// count always equals published plus one if a draft exists.
type Block interface {
	IsEmpty() bool
	EnsureDraft()
	UpdateCount()
	CreateComment(text string)

	Count() int
	Published() []Comment
	Draft() *Comment
	CanDelete() bool

	Save(ctx context.Context) error
	Delete(ctx context.Context) error
	DiscardIfEmpty(ctx context.Context) (bool, error)

	Events() *Events
}

// base carries the kind-independent state machine. Concrete kinds embed it
// and supply their anchoring data.
type base struct {
	self  Block // the embedding block, for event payloads
	store Store

	published  []Comment
	draft      *Comment
	draftSaved bool // the draft exists server-side
	count      int

	events Events
}

// init partitions serialized comments into published and the single
// localdraft entry, if any. A block constructed with no comments at all
// eagerly gets an empty draft shell, ready for editing but not yet dirty.
func (b *base) init(self Block, store Store, serialized []difftable.SerializedComment) {
	b.self = self
	b.store = store

	for _, sc := range serialized {
		c := Comment{
			ID:          sc.CommentID,
			Text:        sc.Text,
			RichText:    sc.RichText,
			IssueOpened: sc.IssueOpened,
			IssueStatus: IssueStatus(sc.IssueStatus),
			User:        sc.User,
		}
		if sc.LocalDraft && b.draft == nil {
			draft := c
			b.draft = &draft
			b.draftSaved = true
			continue
		}
		b.published = append(b.published, c)
	}

	if len(serialized) == 0 {
		b.EnsureDraft()
	}
	b.UpdateCount()
}

// IsEmpty reports whether the block holds no published comments and no
// draft. Empty blocks must not stay in the rendered content.
func (b *base) IsEmpty() bool {
	return len(b.published) == 0 && b.draft == nil
}

// EnsureDraft creates the empty draft shell if the block has none.
func (b *base) EnsureDraft() {
	if b.draft == nil {
		b.draft = &Comment{}
		b.draftSaved = false
		b.UpdateCount()
	}
}

// UpdateCount recomputes the block's count invariant. Callers mutating
// published or draft state must call it immediately; the UI reflects count
// with no async delay.
func (b *base) UpdateCount() {
	b.count = len(b.published)
	if b.draft != nil {
		b.count++
	}
}

// CreateComment starts or replaces the draft's text.
func (b *base) CreateComment(text string) {
	b.EnsureDraft()
	b.SetDraftText(text)
}

// SetDraftText updates the draft body and notifies text listeners.
func (b *base) SetDraftText(text string) {
	b.EnsureDraft()
	old := b.draft.Text
	if old == text {
		return
	}
	b.draft.Text = text
	b.events.emitTextChanged(b.self, old, text)
}

// Count returns published plus one if a draft exists.
func (b *base) Count() int { return b.count }

// Published returns the published comments.
func (b *base) Published() []Comment { return b.published }

// Draft returns the editable draft, or nil.
func (b *base) Draft() *Comment { return b.draft }

// CanDelete reports whether a persisted draft exists to delete.
func (b *base) CanDelete() bool { return b.draft != nil && b.draftSaved }

// Events returns the block's subscription surface.
func (b *base) Events() *Events { return &b.events }

// AddPublished appends a comment made permanent by a publish and recounts.
func (b *base) AddPublished(c Comment) {
	b.published = append(b.published, c)
	b.UpdateCount()
}

// Store returns the backing comment store, for callers that run the save
// round-trip off the event loop and apply the result with ApplySaved.
func (b *base) Store() Store { return b.store }

// ApplySaved installs the stored form returned by the store as the block's
// draft and fires saved listeners. Must run on the event loop that owns
// the block.
func (b *base) ApplySaved(stored Comment) {
	if b.draft == nil {
		b.draft = &Comment{}
	}
	*b.draft = stored
	b.draftSaved = true
	b.UpdateCount()
	b.events.emitSaved(b.self)
}

// Save persists the draft's text, issue-opened and rich-text state. On
// success the stored form (with its server ID) replaces the draft and saved
// listeners fire, letting the UI show its confirmation and draft banner.
func (b *base) Save(ctx context.Context) error {
	if b.draft == nil {
		return fmt.Errorf("comment block has no draft to save")
	}

	stored, err := b.store.SaveComment(ctx, *b.draft)
	if err != nil {
		return fmt.Errorf("save comment: %w", err)
	}

	b.ApplySaved(stored)
	return nil
}

// Delete removes the persisted draft server-side, then re-evaluates
// emptiness; an empty block signals destroyed so the view can remove it.
func (b *base) Delete(ctx context.Context) error {
	if !b.CanDelete() {
		return fmt.Errorf("comment block has no persisted draft to delete")
	}

	if err := b.store.DeleteComment(ctx, b.draft.ID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	b.Discard()
	return nil
}

// Discard drops the draft locally with no server round-trip. An empty
// block signals destroyed so the view can remove it.
func (b *base) Discard() {
	b.draft = nil
	b.draftSaved = false
	b.UpdateCount()

	if b.IsEmpty() {
		b.events.emitDestroyed(b.self)
	}
}

// DiscardIfEmpty drops a textless draft when its editor closes. A draft
// that was never persisted is destroyed locally with no server round-trip;
// a persisted one is deleted remotely. Returns whether the draft was
// discarded.
func (b *base) DiscardIfEmpty(ctx context.Context) (bool, error) {
	if b.draft == nil {
		return false, nil
	}
	if strings.TrimSpace(b.draft.Text) != "" {
		return false, nil
	}

	if b.draftSaved {
		if err := b.Delete(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	b.Discard()
	return true, nil
}
