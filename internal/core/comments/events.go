package comments

// Events is the typed subscription surface of a comment block. Consumers
// register listeners for the specific transitions they care about instead of
// matching stringly-typed event names.
type Events struct {
	saved       []func(Block)
	destroyed   []func(Block)
	textChanged []func(b Block, oldText, newText string)
}

// OnSaved registers a listener fired after a draft persists successfully.
func (e *Events) OnSaved(fn func(Block)) {
	e.saved = append(e.saved, fn)
}

// OnDestroyed registers a listener fired when the block becomes empty and
// should be removed from the rendered content.
func (e *Events) OnDestroyed(fn func(Block)) {
	e.destroyed = append(e.destroyed, fn)
}

// OnTextChanged registers a listener fired when the draft's text changes.
func (e *Events) OnTextChanged(fn func(b Block, oldText, newText string)) {
	e.textChanged = append(e.textChanged, fn)
}

func (e *Events) emitSaved(b Block) {
	for _, fn := range e.saved {
		fn(b)
	}
}

func (e *Events) emitDestroyed(b Block) {
	for _, fn := range e.destroyed {
		fn(b)
	}
}

func (e *Events) emitTextChanged(b Block, oldText, newText string) {
	for _, fn := range e.textChanged {
		fn(b, oldText, newText)
	}
}
