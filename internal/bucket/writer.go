package bucket

import (
	"bufio"
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"io"
	"strings"
)

const (
	declaration = `<?xml version="1.0" encoding="utf-8"?>`

	bucketElement    = "Bucket"
	partitionElement = "Partition"
	objectElement    = "Object"

	partitionKeyAttr = "PartitionKey"
	rowKeyAttr       = "RowKey"
	timestampAttr    = "Timestamp"
	typeAttr         = "Type"
	valueAttr        = "Value"
)

var attrEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	"\t", "&#x9;",
	"\n", "&#xA;",
	"\r", "&#xD;",
)

// Writer writes a bucket document sequentially. Start tags are written lazily: a partition
// that receives no records leaves no trace, and a bucket without partitions is written as
// an empty Bucket element.
//
// Writer refuses partitions and records that are not in strictly ascending order.
type Writer struct {
	w   *bufio.Writer
	err error

	bucketOpen bool
	closed     bool

	partition        string
	partitionStarted bool
	partitionOpen    bool
	lastPartition    *string
	lastRowKey       *string
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	bw := &Writer{w: bufio.NewWriter(w)}
	bw.writeString(declaration)
	return bw
}

// StartPartition ends the current partition, if any, and starts a new one.
func (w *Writer) StartPartition(key string) error {
	if err := w.EndPartition(); err != nil {
		return err
	}
	if w.lastPartition != nil && key <= *w.lastPartition {
		return fmt.Errorf("partition %q written after %q", key, *w.lastPartition)
	}
	w.partition = key
	w.partitionStarted = true
	w.lastRowKey = nil
	return nil
}

// WriteRecord writes rec into the current partition.
func (w *Writer) WriteRecord(rec *record.Record) error {
	if !w.partitionStarted {
		return fmt.Errorf("record (%s, %s) written outside a partition", rec.PartitionKey, rec.RowKey)
	}
	if w.lastRowKey != nil && rec.RowKey <= *w.lastRowKey {
		return fmt.Errorf("row key %q written after %q", rec.RowKey, *w.lastRowKey)
	}

	if !w.bucketOpen {
		w.writeString("<" + bucketElement + ">")
		w.bucketOpen = true
	}
	if !w.partitionOpen {
		w.writeString("<" + partitionElement)
		w.writeAttr(partitionKeyAttr, w.partition)
		w.writeString(">")
		w.partitionOpen = true
		key := w.partition
		w.lastPartition = &key
	}

	w.writeString("<" + objectElement)
	w.writeAttr(partitionKeyAttr, rec.PartitionKey)
	w.writeAttr(rowKeyAttr, rec.RowKey)
	if rec.Timestamp != "" {
		w.writeAttr(timestampAttr, rec.Timestamp)
	}
	if len(rec.Properties) == 0 {
		w.writeString(" />")
	} else {
		w.writeString(">")
		for _, p := range rec.Properties {
			w.writeString("<" + p.Name)
			w.writeAttr(typeAttr, p.Type.String())
			if p.Value != nil {
				w.writeAttr(valueAttr, *p.Value)
			}
			w.writeString(" />")
		}
		w.writeString("</" + objectElement + ">")
	}

	rowKey := rec.RowKey
	w.lastRowKey = &rowKey
	return w.err
}

// EndPartition ends the current partition. Ending a partition that received no records is a
// no-op.
func (w *Writer) EndPartition() error {
	if w.partitionOpen {
		w.writeString("</" + partitionElement + ">")
	}
	w.partitionStarted = false
	w.partitionOpen = false
	return w.err
}

// Close ends the document and flushes it. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true

	if err := w.EndPartition(); err != nil {
		return err
	}
	if w.bucketOpen {
		w.writeString("</" + bucketElement + ">")
	} else {
		w.writeString("<" + bucketElement + " />")
	}
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}

func (w *Writer) writeAttr(name, value string) {
	w.writeString(" " + name + `="`)
	w.writeString(attrEscaper.Replace(value))
	w.writeString(`"`)
}

func (w *Writer) writeString(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.WriteString(s)
}
