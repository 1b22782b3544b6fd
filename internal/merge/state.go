package merge

import (
	"context"
	"github.com/Andrei15193/Savannah-sub000/internal/bucket"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/Andrei15193/Savannah-sub000/internal/record"
)

type state uint8

const (
	// partitions ordered before the target are copied
	beforePartition state = iota
	// records of the target partition are merged with the edits
	inPartition
	// partitions ordered after the target are copied
	afterPartition
	done
)

func (s state) String() string {
	switch s {
	case beforePartition:
		return "before-partition"
	case inPartition:
		return "in-partition"
	case afterPartition:
		return "after-partition"
	case done:
		return "done"
	}
	return "unknown"
}

// merger is one pass over a bucket. Every step reads at most one partition header or one
// record and moves to the next state.
type merger struct {
	ctx          context.Context
	r            *bucket.Reader
	w            *bucket.Writer
	partitionKey string
	edits        []Edit // sorted by row key
	next         int    // first edit not applied yet
	state        state
	written      int
}

func (m *merger) run() error {
	for m.state != done {
		if err := m.ctx.Err(); err != nil {
			return err
		}
		if err := m.step(); err != nil {
			return err
		}
	}
	return nil
}

func (m *merger) step() error {
	switch m.state {
	case beforePartition:
		return m.stepBefore()
	case inPartition:
		return m.stepIn()
	case afterPartition:
		return m.stepAfter()
	}
	return nil
}

func (m *merger) stepBefore() error {
	key, ok, err := m.r.NextPartition()
	if err != nil {
		return err
	}

	switch {
	case !ok:
		if err := m.synthesize(); err != nil {
			return err
		}
		m.state = done
	case key < m.partitionKey:
		return m.copyPartition(key)
	case key == m.partitionKey:
		if err := m.w.StartPartition(key); err != nil {
			return err
		}
		m.state = inPartition
	default:
		if err := m.synthesize(); err != nil {
			return err
		}
		m.state = afterPartition
		return m.copyPartition(key)
	}
	return nil
}

func (m *merger) stepIn() error {
	rec, ok, err := m.r.NextRecord()
	if err != nil {
		return err
	}
	if !ok {
		if err := m.applyRemaining(); err != nil {
			return err
		}
		m.state = afterPartition
		return m.w.EndPartition()
	}

	for m.next < len(m.edits) && m.edits[m.next].RowKey < rec.RowKey {
		if err := m.applyAbsent(m.edits[m.next]); err != nil {
			return err
		}
		m.next++
	}

	if m.next < len(m.edits) && m.edits[m.next].RowKey == rec.RowKey {
		edit := m.edits[m.next]
		m.next++
		if edit.Kind == Insert {
			return errs.New(errs.ErrDuplicateKey, "(%s, %s)", m.partitionKey, edit.RowKey)
		}
		// deleted: the existing record is not copied
		return nil
	}
	return m.write(rec)
}

func (m *merger) stepAfter() error {
	key, ok, err := m.r.NextPartition()
	if err != nil {
		return err
	}
	if !ok {
		m.state = done
		return nil
	}
	return m.copyPartition(key)
}

// synthesize writes the target partition when the bucket does not hold it.
func (m *merger) synthesize() error {
	if err := m.w.StartPartition(m.partitionKey); err != nil {
		return err
	}
	if err := m.applyRemaining(); err != nil {
		return err
	}
	return m.w.EndPartition()
}

func (m *merger) applyRemaining() error {
	for ; m.next < len(m.edits); m.next++ {
		if err := m.applyAbsent(m.edits[m.next]); err != nil {
			return err
		}
	}
	return nil
}

// applyAbsent applies an edit whose row key is not stored.
func (m *merger) applyAbsent(edit Edit) error {
	if edit.Kind == Delete {
		return errs.New(errs.ErrNotFound, "(%s, %s)", m.partitionKey, edit.RowKey)
	}
	return m.write(edit.Record)
}

func (m *merger) copyPartition(key string) error {
	if err := m.w.StartPartition(key); err != nil {
		return err
	}
	for {
		if err := m.ctx.Err(); err != nil {
			return err
		}
		rec, ok, err := m.r.NextRecord()
		if err != nil {
			return err
		}
		if !ok {
			return m.w.EndPartition()
		}
		if err := m.write(rec); err != nil {
			return err
		}
	}
}

func (m *merger) write(rec *record.Record) error {
	if err := m.w.WriteRecord(rec); err != nil {
		return err
	}
	m.written++
	return nil
}
