package bucket

import (
	"encoding/xml"
	"errors"
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"github.com/Andrei15193/Savannah-sub000/internal/value"
	"io"
)

// Reader reads a bucket document sequentially, one partition and one record at a time.
//
//	for {
//		key, ok, err := r.NextPartition()
//		...
//		for {
//			rec, ok, err := r.NextRecord()
//			...
//		}
//	}
type Reader struct {
	dec *xml.Decoder

	started     bool
	done        bool
	inPartition bool
	partition   string
}

// NewReader creates a Reader on r. An empty r reads as a bucket without partitions.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// NextPartition skips what is left of the current partition and moves to the next one,
// returning its key. It returns false once the bucket has no more partitions.
func (r *Reader) NextPartition() (string, bool, error) {
	for r.inPartition {
		if _, _, err := r.NextRecord(); err != nil {
			return "", false, err
		}
	}

	for !r.done {
		tok, err := r.token()
		if err != nil {
			return "", false, err
		}
		if tok == nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case !r.started && t.Name.Local == bucketElement:
				r.started = true
			case r.started && t.Name.Local == partitionElement:
				r.inPartition = true
				r.partition = attr(t, partitionKeyAttr)
				return r.partition, true, nil
			default:
				return "", false, fmt.Errorf("unexpected element %s", t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == bucketElement {
				r.done = true
			}
		}
	}
	return "", false, nil
}

// NextRecord returns the next record of the current partition, or false at its end.
func (r *Reader) NextRecord() (*record.Record, bool, error) {
	if !r.inPartition {
		return nil, false, nil
	}

	for {
		tok, err := r.token()
		if err != nil {
			return nil, false, err
		}
		if tok == nil {
			return nil, false, io.ErrUnexpectedEOF
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != objectElement {
				return nil, false, fmt.Errorf("unexpected element %s in partition %q", t.Name.Local, r.partition)
			}
			rec, err := r.readObject(t)
			if err != nil {
				return nil, false, err
			}
			return rec, true, nil
		case xml.EndElement:
			r.inPartition = false
			return nil, false, nil
		}
	}
}

func (r *Reader) readObject(start xml.StartElement) (*record.Record, error) {
	rec := &record.Record{
		PartitionKey: r.partition,
		RowKey:       attr(start, rowKeyAttr),
		Timestamp:    attr(start, timestampAttr),
	}
	if pk, ok := lookupAttr(start, partitionKeyAttr); ok {
		rec.PartitionKey = pk
	}

	for {
		tok, err := r.token()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			return nil, io.ErrUnexpectedEOF
		}

		switch t := tok.(type) {
		case xml.StartElement:
			typ, ok := value.ParseType(attr(t, typeAttr))
			if !ok {
				return nil, fmt.Errorf("unknown type %q of property %s", attr(t, typeAttr), t.Name.Local)
			}
			p := record.Property{Name: t.Name.Local, Type: typ}
			if v, ok := lookupAttr(t, valueAttr); ok {
				p.Value = &v
			}
			rec.Properties = append(rec.Properties, p)
			if err := r.dec.Skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return rec, nil
		}
	}
}

// token returns the next element token, skipping everything else; nil at the end of input.
func (r *Reader) token() (xml.Token, error) {
	for {
		tok, err := r.dec.Token()
		if errors.Is(err, io.EOF) {
			if r.started && !r.done {
				return nil, io.ErrUnexpectedEOF
			}
			r.done = true
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		switch tok.(type) {
		case xml.StartElement, xml.EndElement:
			return tok, nil
		}
	}
}

func attr(e xml.StartElement, name string) string {
	v, _ := lookupAttr(e, name)
	return v
}

func lookupAttr(e xml.StartElement, name string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}
