package timelog

import (
	"encoding/binary"
	"math"
)

// encode is the inverse of Decode, used only to build fixtures
func encode(s Schema, order binary.AppendByteOrder, rows [][]float64) []byte {
	if order == nil {
		order = binary.BigEndian
	}
	out := make([]byte, 0, len(rows)*s.Width())
	for _, row := range rows {
		for j, f := range s.fields {
			v := row[j]
			switch f.Kind {
			case RawByte, EnumeratedCode:
				out = append(out, byte(v))
			case UnsignedShort, DdiReference:
				out = order.AppendUint16(out, uint16(v))
			case UnsignedLong32:
				out = order.AppendUint32(out, uint32(v))
			case ScaledDecimal16:
				out = order.AppendUint16(out, uint16(int16(math.Round(v/f.Scale))))
			case ScaledDouble32:
				out = order.AppendUint32(out, uint32(int32(math.Round(v/f.Scale))))
			default:
				panic("encode: unknown kind " + f.Kind.String())
			}
		}
	}
	return out
}
