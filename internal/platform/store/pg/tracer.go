package pg

import (
	"context"
	"fmt"
	"strings"

	"taskdata/internal/platform/logger"

	"github.com/rs/zerolog"
)

// maxArgLen bounds how much of a string or byte argument reaches the log;
// inbox writes carry whole archives as parameters
const maxArgLen = 64

// QueryEvent describes one executed statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives one event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that prints every statement when SQL logging is on,
// independent of the process-wide root level
func Tracer(root logger.Logger) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &zlTracer{log: ll}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}

	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", summarize(ev.Args)).
		Err(ev.Err).
		Msg("pg query")
}

// summarize replaces long string and byte arguments with their size
func summarize(args any) any {
	list, ok := args.([]any)
	if !ok {
		return args
	}
	out := make([]any, len(list))
	for i, a := range list {
		switch v := a.(type) {
		case []byte:
			out[i] = fmt.Sprintf("<%d bytes>", len(v))
		case string:
			if len(v) > maxArgLen {
				out[i] = fmt.Sprintf("<%d chars>", len(v))
			} else {
				out[i] = v
			}
		default:
			out[i] = v
		}
	}
	return out
}

func compact(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
