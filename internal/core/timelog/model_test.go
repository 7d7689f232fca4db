package timelog

import (
	"testing"
	"time"

	perr "taskdata/internal/platform/errors"
)

func TestKindWidthsAndScales(t *testing.T) {
	cases := []struct {
		k     Kind
		width int
		scale float64
	}{
		{RawByte, 1, 1},
		{EnumeratedCode, 1, 1},
		{UnsignedShort, 2, 1},
		{UnsignedLong32, 4, 1},
		{DdiReference, 2, 1},
		{ScaledDecimal16, 2, 1e-1},
		{ScaledDouble32, 4, 1e-7},
		{KindUnknown, 0, 1},
		{Kind(200), 0, 1},
	}
	for _, c := range cases {
		if c.k.Width() != c.width || c.k.Scale() != c.scale {
			t.Fatalf("%s: width=%d scale=%v, want %d %v", c.k, c.k.Width(), c.k.Scale(), c.width, c.scale)
		}
		if c.k.Valid() != (c.width > 0) {
			t.Fatalf("%s: Valid() = %v", c.k, c.k.Valid())
		}
	}
	if Kind(200).String() != "kind(200)" || ScaledDouble32.String() != "scaled_double32" {
		t.Fatalf("unexpected kind names")
	}
}

func TestNewSchemaAssignsContiguousOffsets(t *testing.T) {
	s, err := NewSchema([]Field{
		{DDI: 0x0001, Kind: DdiReference},
		{DDI: 0x0084, Kind: ScaledDouble32, Offset: 99, Width: 99},
		{DDI: 0x0085, Kind: RawByte, Designator: "state"},
		{DDI: 0x0086, Kind: ScaledDecimal16},
	}, WithName("TLG00001"))
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	sum, want := 0, 0
	for i := 0; i < s.Len(); i++ {
		f := s.Field(i)
		if f.Offset != want {
			t.Fatalf("field %d offset = %d, want %d", i, f.Offset, want)
		}
		want += f.Width
		sum += f.Kind.Width()
	}
	if s.Width() != sum || sum != 9 {
		t.Fatalf("width = %d, sum = %d, want 9", s.Width(), sum)
	}
	if s.Name() != "TLG00001" || s.Field(2).Designator != "state" {
		t.Fatalf("metadata lost: %q %q", s.Name(), s.Field(2).Designator)
	}
	if _, ok := s.Start(); ok {
		t.Fatalf("start should be absent")
	}
}

func TestNewSchemaCopiesInput(t *testing.T) {
	in := []Field{{DDI: 1, Kind: RawByte}}
	s, err := NewSchema(in)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	in[0].DDI = 7
	if s.Field(0).DDI != 1 {
		t.Fatalf("schema aliases caller slice")
	}
	out := s.Fields()
	out[0].DDI = 9
	if s.Field(0).DDI != 1 {
		t.Fatalf("Fields() exposes internal slice")
	}
}

func TestNewSchemaStart(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	s, err := NewSchema([]Field{{DDI: 1, Kind: RawByte}}, WithStart(at))
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	if got, ok := s.Start(); !ok || !got.Equal(at) {
		t.Fatalf("Start() = %v,%v", got, ok)
	}
}

func TestNewSchemaRejects(t *testing.T) {
	cases := []struct {
		name   string
		fields []Field
	}{
		{"empty", nil},
		{"unknown kind", []Field{{DDI: 1, Kind: KindUnknown}}},
		{"out of range kind", []Field{{DDI: 1, Kind: Kind(42)}}},
		{"duplicate ddi", []Field{{DDI: 5, Kind: RawByte}, {DDI: 5, Kind: UnsignedShort}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewSchema(c.fields)
			if !perr.IsCode(err, perr.ErrorCodeSchema) {
				t.Fatalf("want schema error, got %v", err)
			}
		})
	}
}

func TestEntryValue(t *testing.T) {
	e := Entry{Seq: 3, Values: []Reading{{DDI: 1, Value: 2}, {DDI: 0x84, Value: 4.5}}}
	if v, ok := e.Value(0x84); !ok || v != 4.5 {
		t.Fatalf("Value(0x84) = %v,%v", v, ok)
	}
	if _, ok := e.Value(9); ok {
		t.Fatalf("Value(9) should be absent")
	}
}
