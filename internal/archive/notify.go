package archive

// ChangeKind names what a committed operation changed.
type ChangeKind string

const (
	ChangeAnswer   ChangeKind = "answer"
	ChangeClassify ChangeKind = "classify"
	ChangeResolve  ChangeKind = "resolve"
	ChangePromote  ChangeKind = "promote"
	ChangeLedger   ChangeKind = "ledger"
	ChangeClear    ChangeKind = "clear"
	ChangeReset    ChangeKind = "reset"
	ChangeFavorite ChangeKind = "favorite"
	ChangeRestore  ChangeKind = "restore"
)

// Change is delivered to subscribers after a mutation commits.
type Change struct {
	Kind       ChangeKind `json:"kind"`
	QuestionID int        `json:"questionId,omitempty"`
	Mode       Mode       `json:"mode,omitempty"`
	Strength   int        `json:"strength,omitempty"`
	Favorite   bool       `json:"favorite,omitempty"`
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs synchronously on the goroutine that made the
// change, outside the engine lock.
func (e *Engine) Subscribe(fn func(Change)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) publish(c Change) {
	e.subMu.RLock()
	fns := make([]func(Change), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}
