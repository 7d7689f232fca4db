// Package binval reads fixed-width typed values out of a byte sequence at a cursor.
//
// Every read checks bounds before consuming anything and returns the advanced cursor.
// Nothing is retained between calls, so the functions are safe for concurrent use.
// The package-level functions read big-endian; use a Reader to select another order.
package binval

import (
	"encoding/binary"

	perr "taskdata/internal/platform/errors"
)

const (
	// DecimalScale is applied to the signed 16-bit scaled decimal kind
	DecimalScale = 1e-1
	// DoubleScale is applied to the signed 32-bit scaled double kind
	DoubleScale = 1e-7
)

// Reader binds a byte order to the typed reads
type Reader struct {
	Order binary.ByteOrder
}

// BigEndian and LittleEndian are the two readers callers choose between
var (
	BigEndian    = Reader{Order: binary.BigEndian}
	LittleEndian = Reader{Order: binary.LittleEndian}
)

func (r Reader) order() binary.ByteOrder {
	if r.Order == nil {
		return binary.BigEndian
	}
	return r.Order
}

// need returns the window buf[pos:pos+n] or a buffer underrun error
func need(buf []byte, pos, n int) ([]byte, error) {
	if pos < 0 || pos > len(buf) || len(buf)-pos < n {
		have := len(buf) - pos
		if pos < 0 || have < 0 {
			have = 0
		}
		err := perr.Underrunf("need %d bytes at offset %d, have %d", n, pos, have)
		return nil, perr.WithOffset(perr.WithOp(err, "binval"), int64(pos))
	}
	return buf[pos : pos+n], nil
}

// Byte reads one raw byte
func (r Reader) Byte(buf []byte, pos int) (uint8, int, error) {
	b, err := need(buf, pos, 1)
	if err != nil {
		return 0, pos, err
	}
	return b[0], pos + 1, nil
}

// Enum reads a one-byte enumerated code
func (r Reader) Enum(buf []byte, pos int) (uint8, int, error) { return r.Byte(buf, pos) }

// Uint16 reads an unsigned 16-bit value
func (r Reader) Uint16(buf []byte, pos int) (uint16, int, error) {
	b, err := need(buf, pos, 2)
	if err != nil {
		return 0, pos, err
	}
	return r.order().Uint16(b), pos + 2, nil
}

// DDI reads a 16-bit data dictionary identifier
func (r Reader) DDI(buf []byte, pos int) (uint16, int, error) { return r.Uint16(buf, pos) }

// Uint32 reads an unsigned 32-bit value
func (r Reader) Uint32(buf []byte, pos int) (uint32, int, error) {
	b, err := need(buf, pos, 4)
	if err != nil {
		return 0, pos, err
	}
	return r.order().Uint32(b), pos + 4, nil
}

// Decimal reads a signed 16-bit value scaled by DecimalScale
func (r Reader) Decimal(buf []byte, pos int) (float64, int, error) {
	u, next, err := r.Uint16(buf, pos)
	if err != nil {
		return 0, pos, err
	}
	return float64(int16(u)) * DecimalScale, next, nil
}

// Double reads a signed 32-bit value scaled by DoubleScale
func (r Reader) Double(buf []byte, pos int) (float64, int, error) {
	u, next, err := r.Uint32(buf, pos)
	if err != nil {
		return 0, pos, err
	}
	return float64(int32(u)) * DoubleScale, next, nil
}

// Big-endian shorthands

// Byte reads one raw byte
func Byte(buf []byte, pos int) (uint8, int, error) { return BigEndian.Byte(buf, pos) }

// Enum reads a one-byte enumerated code
func Enum(buf []byte, pos int) (uint8, int, error) { return BigEndian.Enum(buf, pos) }

// Uint16 reads a big-endian unsigned 16-bit value
func Uint16(buf []byte, pos int) (uint16, int, error) { return BigEndian.Uint16(buf, pos) }

// DDI reads a big-endian data dictionary identifier
func DDI(buf []byte, pos int) (uint16, int, error) { return BigEndian.DDI(buf, pos) }

// Uint32 reads a big-endian unsigned 32-bit value
func Uint32(buf []byte, pos int) (uint32, int, error) { return BigEndian.Uint32(buf, pos) }

// Decimal reads a big-endian scaled decimal
func Decimal(buf []byte, pos int) (float64, int, error) { return BigEndian.Decimal(buf, pos) }

// Double reads a big-endian scaled double
func Double(buf []byte, pos int) (float64, int, error) { return BigEndian.Double(buf, pos) }
