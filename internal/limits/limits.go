// Package limits checks keys, values, records, batches and names against the store's
// bounds. Every check is pure and reports violations as errs.ErrInvalidOperation.
package limits

import (
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"github.com/Andrei15193/Savannah-sub000/internal/value"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	MaxKeyLength       = 512
	MaxStringLength    = 32 * 1024
	MaxBinaryLength    = 64 * 1024
	MaxRecordSize      = 1024 * 1024
	MaxBatchSize       = 4 * 1024 * 1024
	MaxBatchOperations = 100
	MaxFieldCount      = 255
)

// per type size accounting
const (
	booleanSize   = 1
	doubleSize    = 8
	int32Size     = 4
	int64Size     = 8
	guidSize      = 128
	dateTimeSize  = 64
	timestampSize = dateTimeSize
)

var (
	MinDateTime = time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxDateTime = time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC)

	collectionNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{2,62}$`)
	fieldNamePattern      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,254}$`)
)

// KeyKind names the key being checked in error messages.
type KeyKind string

const (
	PartitionKey KeyKind = "partition key"
	RowKey       KeyKind = "row key"
)

// CheckKey validates a partition or row key.
func CheckKey(kind KeyKind, key string) error {
	if n := utf16Len(key); n > MaxKeyLength {
		return errs.New(errs.ErrInvalidOperation, "%s is %d characters long, at most %d are allowed", kind, n, MaxKeyLength)
	}
	if !utf8.ValidString(key) {
		return errs.New(errs.ErrInvalidOperation, "%s is not valid UTF-8", kind)
	}
	for _, r := range key {
		if unicode.IsControl(r) || !storable(r) {
			return errs.New(errs.ErrInvalidOperation, "%s contains control character %U", kind, r)
		}
		switch r {
		case '/', '\\', '#', '?':
			return errs.New(errs.ErrInvalidOperation, "%s contains forbidden character %q", kind, r)
		}
	}
	return nil
}

// CheckValue validates the range of a single typed value.
func CheckValue(name string, v value.Value) error {
	if v.IsNull() {
		return nil
	}

	switch v.Type {
	case value.DateTime:
		t := v.Data.(time.Time)
		if t.Before(MinDateTime) || t.After(MaxDateTime) {
			return errs.New(errs.ErrInvalidOperation, "%s: date-time %s is outside [%s, %s]",
				name, t.Format(time.RFC3339Nano), MinDateTime.Format(time.RFC3339), MaxDateTime.Format(time.RFC3339Nano))
		}
	case value.String:
		s := v.Data.(string)
		if n := utf16Len(s); n > MaxStringLength {
			return errs.New(errs.ErrInvalidOperation, "%s: string is %d characters long, at most %d are allowed", name, n, MaxStringLength)
		}
		if !utf8.ValidString(s) {
			return errs.New(errs.ErrInvalidOperation, "%s: string is not valid UTF-8", name)
		}
		for _, r := range s {
			if !storable(r) {
				return errs.New(errs.ErrInvalidOperation, "%s: string contains character %U which cannot be stored", name, r)
			}
		}
	case value.Binary:
		if n := len(v.Data.([]byte)); n > MaxBinaryLength {
			return errs.New(errs.ErrInvalidOperation, "%s: binary is %d bytes long, at most %d are allowed", name, n, MaxBinaryLength)
		}
	}
	return nil
}

// RecordSize returns the approximate serialized size of rec, stopping as soon as the
// running total exceeds MaxRecordSize.
func RecordSize(rec *record.Record) int {
	size := 2*utf16Len(rec.PartitionKey) + 2*utf16Len(rec.RowKey) + timestampSize
	for _, p := range rec.Properties {
		size += propertySize(p)
		if size > MaxRecordSize {
			return size
		}
	}
	return size
}

func propertySize(p record.Property) int {
	if p.Value == nil {
		return 0
	}
	switch p.Type {
	case value.Boolean:
		return booleanSize
	case value.Double:
		return doubleSize
	case value.Int32:
		return int32Size
	case value.Int64:
		return int64Size
	case value.Guid:
		return guidSize
	case value.DateTime:
		return dateTimeSize
	case value.Binary:
		// two hex digits per byte, odd lengths are left padded
		return (len(strings.TrimSpace(*p.Value)) + 1) / 2
	default:
		return 2 * utf16Len(*p.Value)
	}
}

// CheckRecord validates the size of a record.
func CheckRecord(rec *record.Record) error {
	if rec == nil {
		return errs.New(errs.ErrInvalidOperation, "record has no partition key and row key")
	}
	if size := RecordSize(rec); size > MaxRecordSize {
		return errs.New(errs.ErrInvalidOperation, "record (%s, %s) exceeds %d bytes", rec.PartitionKey, rec.RowKey, MaxRecordSize)
	}
	return nil
}

// Entry is the part of a batch operation the batch limits look at.
type Entry struct {
	Retrieve     bool
	PartitionKey string
	RowKey       string
	Record       *record.Record
}

// CheckBatch validates a whole batch.
func CheckBatch(entries []Entry) error {
	if len(entries) == 0 {
		return errs.New(errs.ErrInvalidOperation, "batch is empty")
	}
	if len(entries) > MaxBatchOperations {
		return errs.New(errs.ErrInvalidOperation, "batch has %d operations, at most %d are allowed", len(entries), MaxBatchOperations)
	}

	size := 0
	rowKeys := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Retrieve && len(entries) > 1 {
			return errs.New(errs.ErrInvalidOperation, "a retrieve operation must be the only operation in a batch")
		}
		if e.PartitionKey != entries[0].PartitionKey {
			return errs.New(errs.ErrInvalidOperation, "operation %d targets partition %q, the batch targets %q", i, e.PartitionKey, entries[0].PartitionKey)
		}
		if _, ok := rowKeys[e.RowKey]; ok {
			return errs.New(errs.ErrInvalidOperation, "row key %q appears more than once in the batch", e.RowKey)
		}
		rowKeys[e.RowKey] = struct{}{}

		if e.Record != nil {
			size += RecordSize(e.Record)
			if size > MaxBatchSize {
				return errs.New(errs.ErrInvalidOperation, "batch exceeds %d bytes", MaxBatchSize)
			}
		}
	}
	return nil
}

// CheckCollectionName validates a collection name: 3 to 63 alphanumeric characters, not
// starting with a digit.
func CheckCollectionName(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return errs.New(errs.ErrInvalidOperation, "invalid collection name %q", name)
	}
	return nil
}

// CheckFieldName validates the name of a record field.
func CheckFieldName(name string) error {
	if !fieldNamePattern.MatchString(name) || strings.HasPrefix(strings.ToLower(name), "xml") {
		return errs.New(errs.ErrInvalidOperation, "invalid field name %q", name)
	}
	return nil
}

// CheckFieldCount validates the number of readable or writable fields of a record type.
func CheckFieldCount(n int) error {
	if n > MaxFieldCount {
		return errs.New(errs.ErrInvalidOperation, "record type has %d fields, at most %d are allowed", n, MaxFieldCount)
	}
	return nil
}

// storable reports whether r may appear in a bucket file.
func storable(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
