package tlgschema

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"taskdata/internal/core/timelog"
	perr "taskdata/internal/platform/errors"

	"github.com/google/go-cmp/cmp"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<TLG A="TLG00001">
  <TIM A="2024-05-01T08:00:00Z"/>
  <PTN A="DFFF" B="5" C="ddi"/>
  <PTN A="0084" B="6"/>
  <PTN A="71" B="7" C="latitude"/>
  <PTN A="0072" B="7" C="longitude"/>
  <PTN A="1" B="1"/>
  <PTN A="0002" B="2"/>
  <PTN A="0003" B="3"/>
  <PTN A="0004" B="4"/>
</TLG>`

func TestParseSample(t *testing.T) {
	s, err := Parse([]byte(sample), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []timelog.Field{
		{DDI: 0xDFFF, Kind: timelog.DdiReference, Offset: 0, Width: 2, Scale: 1, Designator: "ddi"},
		{DDI: 0x0084, Kind: timelog.ScaledDecimal16, Offset: 2, Width: 2, Scale: 1e-1},
		{DDI: 0x0071, Kind: timelog.ScaledDouble32, Offset: 4, Width: 4, Scale: 1e-7, Designator: "latitude"},
		{DDI: 0x0072, Kind: timelog.ScaledDouble32, Offset: 8, Width: 4, Scale: 1e-7, Designator: "longitude"},
		{DDI: 0x0001, Kind: timelog.RawByte, Offset: 12, Width: 1, Scale: 1},
		{DDI: 0x0002, Kind: timelog.EnumeratedCode, Offset: 13, Width: 1, Scale: 1},
		{DDI: 0x0003, Kind: timelog.UnsignedShort, Offset: 14, Width: 2, Scale: 1},
		{DDI: 0x0004, Kind: timelog.UnsignedLong32, Offset: 16, Width: 4, Scale: 1},
	}
	if d := cmp.Diff(want, s.Fields()); d != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", d)
	}
	if s.Width() != 20 {
		t.Fatalf("width = %d, want 20", s.Width())
	}
	if s.Name() != "TLG00001" {
		t.Fatalf("name = %q", s.Name())
	}
	start, ok := s.Start()
	if !ok || !start.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v,%v", start, ok)
	}
}

func TestParseTIMRootWithoutZone(t *testing.T) {
	doc := `<TIM A="2023-09-14T06:30:15"><PTN A="0084" B="6"/><DLV A="0084" B="0"/></TIM>`
	s, err := Parse([]byte(doc), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	start, ok := s.Start()
	if !ok || !start.Equal(time.Date(2023, 9, 14, 6, 30, 15, 0, time.UTC)) {
		t.Fatalf("start = %v,%v", start, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("unknown elements should be ignored, got %d fields", s.Len())
	}
}

func TestParseIgnoresNestedPTN(t *testing.T) {
	doc := `<TLG><PTN A="1" B="1"/><EXT><PTN A="2" B="1"/></EXT></TLG>`
	s, err := Parse([]byte(doc), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("fields = %d, want 1", s.Len())
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		code perr.ErrorCode
		msg  string
	}{
		{"unknown type code", `<TLG><PTN A="0001" B="9"/></TLG>`, perr.ErrorCodeSchema, "unknown type code"},
		{"type code zero", `<TLG><PTN A="0001" B="0"/></TLG>`, perr.ErrorCodeSchema, "unknown type code"},
		{"missing A", `<TLG><PTN B="1"/></TLG>`, perr.ErrorCodeSchema, "missing DDI"},
		{"missing B", `<TLG><PTN A="0001"/></TLG>`, perr.ErrorCodeSchema, "missing type"},
		{"bad DDI", `<TLG><PTN A="XYZ" B="1"/></TLG>`, perr.ErrorCodeSchema, "not hex"},
		{"long DDI", `<TLG><PTN A="10000" B="1"/></TLG>`, perr.ErrorCodeSchema, "longer than 4"},
		{"bad code", `<TLG><PTN A="0001" B="x"/></TLG>`, perr.ErrorCodeSchema, "not a number"},
		{"duplicate DDI", `<TLG><PTN A="0001" B="1"/><PTN A="1" B="3"/></TLG>`, perr.ErrorCodeSchema, "already declared"},
		{"no PTN", `<TLG A="TLG1"/>`, perr.ErrorCodeSchema, "no PTN"},
		{"empty", ``, perr.ErrorCodeSchema, "no root"},
		{"malformed", `<TLG><PTN A="1" B="1"></TLG>`, perr.ErrorCodeSchema, "malformed"},
		{"truncated", `<TLG><PTN A="1" B="1"/>`, perr.ErrorCodeSchema, "malformed"},
		{"wrong root", `<ISO11783_TaskData/>`, perr.ErrorCodeSchema, "unexpected root"},
		{"two roots", `<TLG><PTN A="1" B="1"/></TLG><TLG/>`, perr.ErrorCodeSchema, "second root"},
		{"bad start", `<TLG><TIM A="yesterday"/><PTN A="1" B="1"/></TLG>`, perr.ErrorCodeSchema, "TIM start"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.doc), Options{})
			if !perr.IsCode(err, c.code) {
				t.Fatalf("want %v, got %v (%v)", c.code, perr.CodeOf(err), err)
			}
			if !strings.Contains(err.Error(), c.msg) {
				t.Fatalf("error %q does not mention %q", err, c.msg)
			}
			if e, _ := perr.As(err); e.Op() != "schema" {
				t.Fatalf("op = %q, want schema", e.Op())
			}
		})
	}
}

func TestParseMaxFields(t *testing.T) {
	var b strings.Builder
	b.WriteString("<TLG>")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, `<PTN A="%04X" B="1"/>`, i)
	}
	b.WriteString("</TLG>")

	if _, err := Parse([]byte(b.String()), Options{MaxFields: 4}); !perr.IsCode(err, perr.ErrorCodeResourceLimit) {
		t.Fatalf("want resource limit, got %v", err)
	}
	s, err := Parse([]byte(b.String()), Options{MaxFields: 5})
	if err != nil || s.Len() != 5 {
		t.Fatalf("at limit: %d fields, %v", s.Len(), err)
	}
}

func TestTypeCodeTableIsBijective(t *testing.T) {
	seen := map[timelog.Kind]int{}
	for code := 1; code <= 7; code++ {
		k, ok := KindOf(code)
		if !ok || !k.Valid() {
			t.Fatalf("code %d unresolved", code)
		}
		if prev, dup := seen[k]; dup {
			t.Fatalf("codes %d and %d share kind %s", prev, code, k)
		}
		seen[k] = code
		if back, ok := CodeOf(k); !ok || back != code {
			t.Fatalf("CodeOf(%s) = %d,%v want %d", k, back, ok, code)
		}
	}
	if _, ok := KindOf(8); ok {
		t.Fatalf("code 8 should be unknown")
	}
	if _, ok := CodeOf(timelog.KindUnknown); ok {
		t.Fatalf("unknown kind should have no code")
	}
}
