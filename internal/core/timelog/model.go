// Package timelog holds the TimeLog model (kinds, fields, schemas, entries) and
// decodes fixed-stride binary TimeLog payloads against a schema.
package timelog

import (
	"fmt"
	"time"

	perr "taskdata/internal/platform/errors"
)

// Kind is the encoding of a single field inside a TimeLog record
type Kind uint8

// The closed set of kinds; KindUnknown is never valid in a schema
const (
	KindUnknown Kind = iota
	RawByte
	EnumeratedCode
	UnsignedShort
	UnsignedLong32
	DdiReference
	ScaledDecimal16
	ScaledDouble32
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	RawByte:         "raw_byte",
	EnumeratedCode:  "enumerated_code",
	UnsignedShort:   "unsigned_short",
	UnsignedLong32:  "unsigned_long32",
	DdiReference:    "ddi_reference",
	ScaledDecimal16: "scaled_decimal16",
	ScaledDouble32:  "scaled_double32",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Width is the encoded size in bytes; 0 for unknown kinds
func (k Kind) Width() int {
	switch k {
	case RawByte, EnumeratedCode:
		return 1
	case UnsignedShort, DdiReference, ScaledDecimal16:
		return 2
	case UnsignedLong32, ScaledDouble32:
		return 4
	default:
		return 0
	}
}

// Scale is the multiplier applied to the raw integer
func (k Kind) Scale() float64 {
	switch k {
	case ScaledDecimal16:
		return 1e-1
	case ScaledDouble32:
		return 1e-7
	default:
		return 1
	}
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool { return k.Width() > 0 }

// Field describes one value inside a record. Offset, Width and Scale are
// derived by NewSchema; callers only choose DDI, Kind and Designator.
type Field struct {
	DDI        uint16  `json:"ddi"`
	Kind       Kind    `json:"kind"`
	Offset     int     `json:"offset"`
	Width      int     `json:"width"`
	Scale      float64 `json:"scale"`
	Designator string  `json:"designator,omitempty"`
}

// Schema is an ordered, non-empty, contiguous field layout
type Schema struct {
	name   string
	fields []Field
	width  int
	start  time.Time
}

// SchemaOption adjusts optional schema metadata
type SchemaOption func(*Schema)

// WithName records the TimeLog name declared in the structure description
func WithName(name string) SchemaOption { return func(s *Schema) { s.name = name } }

// WithStart records an explicit start time declared in the structure description
func WithStart(t time.Time) SchemaOption { return func(s *Schema) { s.start = t } }

// NewSchema assigns offsets from zero in the given order and enforces the layout invariants:
// at least one field, known kinds only, unique DDIs
func NewSchema(fields []Field, opts ...SchemaOption) (Schema, error) {
	if len(fields) == 0 {
		return Schema{}, perr.WithOp(perr.Schemaf("schema has no fields"), "schema")
	}
	out := make([]Field, len(fields))
	seen := make(map[uint16]int, len(fields))
	off := 0
	for i, f := range fields {
		if !f.Kind.Valid() {
			return Schema{}, perr.WithOp(perr.Schemaf("field %d (ddi %04X): unknown kind %s", i, f.DDI, f.Kind), "schema")
		}
		if j, dup := seen[f.DDI]; dup {
			return Schema{}, perr.WithOp(perr.Schemaf("field %d: ddi %04X already declared by field %d", i, f.DDI, j), "schema")
		}
		seen[f.DDI] = i
		out[i] = Field{
			DDI:        f.DDI,
			Kind:       f.Kind,
			Offset:     off,
			Width:      f.Kind.Width(),
			Scale:      f.Kind.Scale(),
			Designator: f.Designator,
		}
		off += out[i].Width
	}
	s := Schema{fields: out, width: off}
	for _, o := range opts {
		o(&s)
	}
	return s, nil
}

// Name returns the declared TimeLog name, if any
func (s Schema) Name() string { return s.name }

// Width is the record stride in bytes: the sum of field widths
func (s Schema) Width() int { return s.width }

// Len returns the number of fields
func (s Schema) Len() int { return len(s.fields) }

// Field returns the i-th field
func (s Schema) Field(i int) Field { return s.fields[i] }

// Fields returns a copy of the field list
func (s Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Start returns the declared start time and whether one was present
func (s Schema) Start() (time.Time, bool) { return s.start, !s.start.IsZero() }

// Reading is one decoded value
type Reading struct {
	DDI   uint16  `json:"ddi"`
	Value float64 `json:"value"`
}

// Entry is one decoded record. Seq is its zero-based position in the file;
// Values follow schema order.
type Entry struct {
	Seq    int       `json:"seq"`
	Values []Reading `json:"values"`
}

// Value returns the reading for ddi
func (e Entry) Value(ddi uint16) (float64, bool) {
	for _, r := range e.Values {
		if r.DDI == ddi {
			return r.Value, true
		}
	}
	return 0, false
}
