// Command taskdata-decode decodes a local TaskData archive and prints the TimeLog documents
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"time"

	"taskdata/internal/core/container"
	"taskdata/internal/core/taskdata"
	"taskdata/internal/core/version"
	"taskdata/internal/platform/codec"
	"taskdata/internal/platform/config"
	perr "taskdata/internal/platform/errors"
	"taskdata/internal/services/ingest/domain"
	ingestmod "taskdata/internal/services/ingest/module"

	"github.com/spf13/pflag"
)

const name = "taskdata-decode"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	format       string
	base64       bool
	littleEndian bool
	output       string
	enqueue      bool

	endpointID string
	messageID  string
	senderID   string
	receiverID string
	sentAt     string
	techType   string

	maxArchiveBytes   int64
	maxArchiveEntries int
	maxEntryBytes     int64
	maxInflatedBytes  int64
	maxRecords        int
	maxFields         int
}

func flags(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&o.format, "format", "f", "json", "output format: json | yaml | cbor")
	fs.BoolVar(&o.base64, "base64", false, "input is base64 text as carried by content messages (default: raw zip)")
	fs.BoolVar(&o.littleEndian, "little-endian", false, "decode TimeLog binaries as little-endian")
	fs.StringVarP(&o.output, "output", "o", "-", "write documents to this file instead of stdout")
	fs.BoolVar(&o.enqueue, "enqueue", false, "store the archive in the worker inbox instead of decoding it")

	fs.StringVar(&o.endpointID, "endpoint-id", "local", "envelope endpoint id")
	fs.StringVar(&o.messageID, "message-id", "", "envelope message id (default: derived from the input file name)")
	fs.StringVar(&o.senderID, "sender-id", "", "envelope sender id")
	fs.StringVar(&o.receiverID, "receiver-id", "", "envelope receiver id")
	fs.StringVar(&o.sentAt, "timestamp", "", "envelope timestamp, RFC 3339 (default: now)")
	fs.StringVar(&o.techType, "technical-message-type", domain.TechTaskDataZip, "technical message type used with --enqueue")

	fs.Int64Var(&o.maxArchiveBytes, "max-archive-bytes", 0, "archive size bound (0: CORE_DECODE_MAX_ARCHIVE_BYTES or default)")
	fs.IntVar(&o.maxArchiveEntries, "max-archive-entries", 0, "archive entry count bound")
	fs.Int64Var(&o.maxEntryBytes, "max-entry-bytes", 0, "uncompressed entry size bound")
	fs.Int64Var(&o.maxInflatedBytes, "max-inflated-bytes", 0, "bound on all time log entries after decompression")
	fs.IntVar(&o.maxRecords, "max-records", 0, "records per TimeLog bound")
	fs.IntVar(&o.maxFields, "max-fields", 0, "fields per structure description bound")

	fs.Bool("version", false, "print version and exit")
	fs.BoolP("help", "h", false, "show help")
	return fs
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var o options
	fs := flags(&o)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if v, _ := fs.GetBool("version"); v {
		fmt.Fprintln(stdout, version.Info(name))
		return 0
	}
	if h, _ := fs.GetBool("help"); h {
		fmt.Fprintf(stderr, "Usage: %s [flags] <archive.zip | -> \n\n", name)
		fs.PrintDefaults()
		return 0
	}

	format, err := codec.ParseFormat(o.format)
	if err != nil {
		return fail(stderr, codec.JSON, err)
	}
	if fs.NArg() != 1 {
		return fail(stderr, format, perr.InvalidArgf("expected exactly one input path (or - for stdin), got %d", fs.NArg()))
	}
	path := fs.Arg(0)

	raw, err := readInput(path, stdin)
	if err != nil {
		return fail(stderr, format, err)
	}
	msg, err := o.message(path, raw)
	if err != nil {
		return fail(stderr, format, err)
	}

	if o.enqueue {
		if err := enqueue(ctx, msg); err != nil {
			return fail(stderr, format, err)
		}
		fmt.Fprintf(stderr, "enqueued %s\n", msg.MessageID)
		return 0
	}

	dec := o.decoder(config.New())
	var docs []container.Document
	if o.base64 {
		docs, err = dec.Decode(msg.Envelope(), raw)
	} else {
		docs, err = dec.DecodeZip(msg.Envelope(), raw)
	}
	if err != nil {
		return fail(stderr, format, err)
	}

	out, closeOut, err := openOutput(o.output, stdout)
	if err != nil {
		return fail(stderr, format, err)
	}
	defer closeOut()
	if err := codec.Encode(out, format, docs); err != nil {
		return fail(stderr, format, perr.Wrap(err, perr.ErrorCodeUnknown, "encode documents"))
	}
	return 0
}

// decoder starts from CORE_DECODE_ settings and applies explicit flags on top
func (o options) decoder(cfg config.Conf) taskdata.Decoder {
	d := ingestmod.DecodeFromConfig(cfg)
	if o.maxArchiveBytes > 0 {
		d.Limits.MaxArchiveBytes = o.maxArchiveBytes
	}
	if o.maxArchiveEntries > 0 {
		d.Limits.MaxArchiveEntries = o.maxArchiveEntries
	}
	if o.maxEntryBytes > 0 {
		d.Limits.MaxEntryBytes = o.maxEntryBytes
	}
	if o.maxInflatedBytes > 0 {
		d.Limits.MaxInflatedBytes = o.maxInflatedBytes
	}
	if o.maxRecords > 0 {
		d.Limits.MaxRecords = o.maxRecords
	}
	if o.maxFields > 0 {
		d.Limits.MaxFields = o.maxFields
	}
	if o.littleEndian {
		d.LittleEndian = true
	}
	return d.Decoder()
}

// message builds the envelope; Content is always base64 text, as the inbox stores it
func (o options) message(path string, raw []byte) (domain.ContentMessage, error) {
	sent := time.Now().UTC()
	if o.sentAt != "" {
		t, err := time.Parse(time.RFC3339, o.sentAt)
		if err != nil {
			return domain.ContentMessage{}, perr.WithField(perr.InvalidArgf("timestamp %q is not RFC 3339", o.sentAt), "timestamp")
		}
		sent = t.UTC()
	}
	id := o.messageID
	if id == "" {
		id = "local:" + path
	}
	content := raw
	if !o.base64 {
		content = []byte(base64.StdEncoding.EncodeToString(raw))
	}
	return domain.ContentMessage{
		EndpointID:           o.endpointID,
		MessageID:            id,
		TechnicalMessageType: o.techType,
		Timestamp:            sent,
		SenderID:             o.senderID,
		ReceiverID:           o.receiverID,
		FileName:             path,
		Content:              content,
	}, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "read stdin")
		}
		return bytes.TrimSpace(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "read input"), path)
	}
	return b, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "create output"), path)
	}
	return f, func() { _ = f.Close() }, nil
}

// fail writes the structured error in the requested format and returns exit code 1
func fail(stderr io.Writer, f codec.Format, err error) int {
	wire := perr.WireFrom(err)
	if f == codec.CBOR {
		f = codec.JSON
	}
	if encErr := codec.Encode(stderr, f, map[string]perr.Wire{"error": wire}); encErr != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return 1
}
