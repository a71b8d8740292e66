package archive

import "context"

// RecordAnswer stores choice for id in the namespace of mode, replacing
// any previous record there.
func (e *Engine) RecordAnswer(ctx context.Context, mode Mode, id int, choice *int) error {
	if err := e.validate(id, choice); err != nil {
		return err
	}
	return e.update(ctx, func(t *txn) error {
		if err := t.putRecord(mode, id, choice); err != nil {
			return err
		}
		t.notify(Change{Kind: ChangeAnswer, QuestionID: id, Mode: mode})
		return nil
	})
}

func (t *txn) putRecord(mode Mode, id int, choice *int) error {
	recs, err := t.records(mode)
	if err != nil {
		return err
	}
	recs[id] = choice
	return t.setRecords(mode, recs)
}

// Records returns every record of one namespace.
func (e *Engine) Records(ctx context.Context, mode Mode) (Records, error) {
	var out Records
	err := e.view(ctx, func(t *txn) error {
		var err error
		out, err = t.records(mode)
		return err
	})
	return out, err
}

// CombinedView merges the namespaces. For an id present in several,
// main wins over fast, and fast wins over study.
func (e *Engine) CombinedView(ctx context.Context) (Records, error) {
	var out Records
	err := e.view(ctx, func(t *txn) error {
		var err error
		out, err = t.combined()
		return err
	})
	return out, err
}
