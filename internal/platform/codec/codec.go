// Package codec writes decoded documents as JSON, YAML or deterministic CBOR
package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	perr "taskdata/internal/platform/errors"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding
type Format string

// Supported formats
const (
	JSON Format = "json"
	YAML Format = "yaml"
	CBOR Format = "cbor"
)

// encMode uses Core Deterministic Encoding: identical documents give identical bytes.
// Binary marshalers are ignored so uuid.UUID takes its text form; times encode as RFC 3339 text.
var encMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.BinaryMarshaler = cbor.BinaryMarshalerNone
	opts.TextMarshaler = cbor.TextMarshalerTextString
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
}

// ParseFormat maps a flag value to a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, YAML, CBOR:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", perr.WithField(perr.InvalidArgf("unknown format %q (want json, yaml or cbor)", s), "format")
	}
}

// Encode writes v to w in format f
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case CBOR:
		return encMode.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("codec: unsupported format %q", f)
	}
}
