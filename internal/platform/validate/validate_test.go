package validate

import (
	"testing"

	perr "taskdata/internal/platform/errors"
)

type envelope struct {
	MessageID string `json:"message_id" validate:"notblank,max=8"`
	Endpoint  string `json:"endpoint_id" validate:"required"`
	Attempts  int    `json:"attempts" validate:"min=0"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		in        envelope
		wantField string
		wantMsg   string
	}{
		{name: "ok", in: envelope{MessageID: "m1", Endpoint: "e1"}},
		{name: "blank", in: envelope{MessageID: "  ", Endpoint: "e1"}, wantField: "message_id", wantMsg: "message_id must not be blank"},
		{name: "too long", in: envelope{MessageID: "123456789", Endpoint: "e1"}, wantField: "message_id", wantMsg: "message_id must be at most 8"},
		{name: "required", in: envelope{MessageID: "m1"}, wantField: "endpoint_id", wantMsg: "endpoint_id is a required field"},
		{name: "min", in: envelope{MessageID: "m1", Endpoint: "e1", Attempts: -1}, wantField: "attempts", wantMsg: "attempts must be at least 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			e, ok := perr.As(err)
			if !ok || e.Code() != perr.ErrorCodeValidation {
				t.Fatalf("want validation error, got %v", err)
			}
			if e.Field() != tc.wantField || e.Error() != tc.wantMsg {
				t.Fatalf("field=%q msg=%q", e.Field(), e.Error())
			}
		})
	}
}

func TestStruct_NotAStruct(t *testing.T) {
	t.Parallel()

	if err := Struct(42); perr.IsCode(err, perr.ErrorCodeValidation) || err == nil {
		t.Fatalf("want internal error for non-struct, got %v", err)
	}
}

func TestFieldAndMessage_Foreign(t *testing.T) {
	t.Parallel()

	if f, m := FieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("nil: %q %q", f, m)
	}
}
