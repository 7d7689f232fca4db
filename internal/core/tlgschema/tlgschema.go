// Package tlgschema parses a TimeLog structure description into a timelog.Schema.
//
// The description is the XML companion of a TimeLog binary:
//
//	<TLG A="TLG00001">
//	  <TIM A="2024-05-01T08:00:00Z"/>
//	  <PTN A="DFFF" B="5" C="ddi"/>
//	  <PTN A="0084" B="6"/>
//	</TLG>
//
// Each PTN declares one record field in order: A is the DDI in hex, B the type
// code, C an optional designator. A TIM root is accepted in place of TLG, in
// which case its own A attribute is the start time.
package tlgschema

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"taskdata/internal/core/timelog"
	perr "taskdata/internal/platform/errors"
)

// Options bounds a Parse call
type Options struct {
	// MaxFields rejects descriptions declaring more PTN elements; 0 disables the check
	MaxFields int
}

// kinds maps ISO 11783-10 TimeLog type codes to kinds; index is the code
var kinds = [...]timelog.Kind{
	1: timelog.RawByte,
	2: timelog.EnumeratedCode,
	3: timelog.UnsignedShort,
	4: timelog.UnsignedLong32,
	5: timelog.DdiReference,
	6: timelog.ScaledDecimal16,
	7: timelog.ScaledDouble32,
}

// KindOf resolves a type code; ok is false for codes outside the table
func KindOf(code int) (timelog.Kind, bool) {
	if code <= 0 || code >= len(kinds) {
		return timelog.KindUnknown, false
	}
	return kinds[code], true
}

// CodeOf is the inverse of KindOf
func CodeOf(k timelog.Kind) (int, bool) {
	for code, kk := range kinds {
		if kk == k && k != timelog.KindUnknown {
			return code, true
		}
	}
	return 0, false
}

// startLayouts are tried in order; ISOXML exporters often omit the zone
var startLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05"}

// Parse reads the description token by token and builds the schema in declaration order
func Parse(data []byte, opts Options) (timelog.Schema, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		fields  []timelog.Field
		name    string
		start   time.Time
		depth   int
		sawRoot bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return timelog.Schema{}, fail(perr.Wrap(err, perr.ErrorCodeSchema, "malformed structure description"), dec.InputOffset())
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			at := dec.InputOffset()
			switch {
			case depth == 1:
				if sawRoot {
					return timelog.Schema{}, fail(perr.Schemaf("second root element <%s>", t.Name.Local), at)
				}
				sawRoot = true
				switch t.Name.Local {
				case "TLG":
					name = attr(t, "A")
				case "TIM":
					if start, err = parseStart(attr(t, "A")); err != nil {
						return timelog.Schema{}, fail(err, at)
					}
				default:
					return timelog.Schema{}, fail(perr.Schemaf("unexpected root element <%s>", t.Name.Local), at)
				}
			case depth == 2 && t.Name.Local == "TIM":
				if start, err = parseStart(attr(t, "A")); err != nil {
					return timelog.Schema{}, fail(err, at)
				}
			case depth == 2 && t.Name.Local == "PTN":
				if opts.MaxFields > 0 && len(fields) >= opts.MaxFields {
					return timelog.Schema{}, fail(perr.ResourceLimitf("more than %d fields declared", opts.MaxFields), at)
				}
				f, err := parseField(t, len(fields))
				if err != nil {
					return timelog.Schema{}, fail(err, at)
				}
				fields = append(fields, f)
			}
		case xml.EndElement:
			depth--
		}
	}

	if !sawRoot {
		return timelog.Schema{}, fail(perr.Schemaf("structure description has no root element"), 0)
	}
	if len(fields) == 0 {
		return timelog.Schema{}, fail(perr.Schemaf("structure description declares no PTN fields"), 0)
	}
	s, err := timelog.NewSchema(fields, timelog.WithName(name), timelog.WithStart(start))
	if err != nil {
		return timelog.Schema{}, err
	}
	return s, nil
}

func parseField(t xml.StartElement, idx int) (timelog.Field, error) {
	a, b := attr(t, "A"), attr(t, "B")
	if a == "" {
		return timelog.Field{}, perr.Schemaf("PTN %d: missing DDI attribute A", idx)
	}
	if b == "" {
		return timelog.Field{}, perr.Schemaf("PTN %d: missing type attribute B", idx)
	}
	if len(a) > 4 {
		return timelog.Field{}, perr.Schemaf("PTN %d: DDI %q longer than 4 hex digits", idx, a)
	}
	ddi, err := strconv.ParseUint(a, 16, 16)
	if err != nil {
		return timelog.Field{}, perr.Wrapf(err, perr.ErrorCodeSchema, "PTN %d: DDI %q is not hex", idx, a)
	}
	code, err := strconv.Atoi(b)
	if err != nil {
		return timelog.Field{}, perr.Wrapf(err, perr.ErrorCodeSchema, "PTN %d: type code %q is not a number", idx, b)
	}
	k, ok := KindOf(code)
	if !ok {
		return timelog.Field{}, perr.Schemaf("PTN %d: unknown type code %d", idx, code)
	}
	return timelog.Field{DDI: uint16(ddi), Kind: k, Designator: attr(t, "C")}, nil
}

func parseStart(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range startLayouts {
		if ts, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, perr.Schemaf("TIM start %q is not an ISO 8601 timestamp", v)
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func fail(err error, offset int64) error {
	return perr.WithOffset(perr.WithOp(err, "schema"), offset)
}
