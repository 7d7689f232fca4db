package timelog

import (
	"taskdata/internal/core/binval"
	perr "taskdata/internal/platform/errors"
)

// Options bounds and parameterises a Decode call
type Options struct {
	// MaxRecords rejects payloads holding more records; 0 disables the check
	MaxRecords int
	// Reader selects the byte order; the zero value reads big-endian
	Reader binval.Reader
}

// Decode strides over payload one record at a time and reads every field in schema order.
// The payload must be a positive exact multiple of the schema width; otherwise no entries
// are returned. Decode is pure and may be called concurrently.
func Decode(s Schema, payload []byte, opts Options) ([]Entry, error) {
	w := s.Width()
	if w <= 0 {
		return nil, perr.WithOp(perr.Schemaf("schema has no fields"), "timelog")
	}
	if len(payload) == 0 || len(payload)%w != 0 {
		err := perr.Alignmentf("payload of %d bytes is not a positive multiple of record width %d", len(payload), w)
		return nil, perr.WithOffset(perr.WithOp(err, "timelog"), int64(len(payload)-len(payload)%w))
	}
	n := len(payload) / w
	if opts.MaxRecords > 0 && n > opts.MaxRecords {
		err := perr.ResourceLimitf("payload holds %d records, limit is %d", n, opts.MaxRecords)
		return nil, perr.WithOp(err, "timelog")
	}

	nf := s.Len()
	backing := make([]Reading, n*nf)
	entries := make([]Entry, n)
	rd := opts.Reader

	for i := 0; i < n; i++ {
		base := i * w
		pos := base
		vals := backing[i*nf : (i+1)*nf : (i+1)*nf]
		for j := 0; j < nf; j++ {
			f := s.fields[j]
			v, next, err := readField(rd, f.Kind, payload, pos)
			if err != nil {
				if perr.IsCode(err, perr.ErrorCodeBufferUnderrun) {
					// unreachable while the alignment check and schema invariants hold
					err = perr.Wrapf(err, perr.ErrorCodeBufferUnderrun, "record %d field %04X: internal inconsistency", i, f.DDI)
				}
				return nil, perr.WithOffset(perr.WithOp(err, "timelog"), int64(pos))
			}
			vals[j] = Reading{DDI: f.DDI, Value: v}
			pos = next
		}
		if pos != base+w {
			err := perr.Internalf("record %d consumed %d bytes, schema width is %d", i, pos-base, w)
			return nil, perr.WithOffset(perr.WithOp(err, "timelog"), int64(base))
		}
		entries[i] = Entry{Seq: i, Values: vals}
	}
	return entries, nil
}

func readField(rd binval.Reader, k Kind, buf []byte, pos int) (float64, int, error) {
	switch k {
	case RawByte:
		v, next, err := rd.Byte(buf, pos)
		return float64(v), next, err
	case EnumeratedCode:
		v, next, err := rd.Enum(buf, pos)
		return float64(v), next, err
	case UnsignedShort:
		v, next, err := rd.Uint16(buf, pos)
		return float64(v), next, err
	case UnsignedLong32:
		v, next, err := rd.Uint32(buf, pos)
		return float64(v), next, err
	case DdiReference:
		v, next, err := rd.DDI(buf, pos)
		return float64(v), next, err
	case ScaledDecimal16:
		return rd.Decimal(buf, pos)
	case ScaledDouble32:
		return rd.Double(buf, pos)
	default:
		return 0, pos, perr.Schemaf("unknown kind %s", k)
	}
}
