package module

import (
	"testing"

	phttp "taskdata/internal/platform/net/http"
)

// stubModule records when MountRoutes is called and returns a configurable ports value
type stubModule struct {
	mounted *bool
	ports   any
}

func (s *stubModule) MountRoutes(_ phttp.Router) {
	if s.mounted != nil {
		*s.mounted = true
	}
}

func (s *stubModule) Ports() any   { return s.ports }
func (s *stubModule) Name() string { return "stub" }

var _ Module = (*stubModule)(nil)

func TestModule_MountRoutes(t *testing.T) {
	called := false
	m := &stubModule{mounted: &called}

	var r phttp.Router
	m.MountRoutes(r)

	if !called {
		t.Fatalf("expected MountRoutes to set called but it did not")
	}
}

func TestModule_Ports(t *testing.T) {
	type portSet struct {
		Name string
		ID   int
	}

	cases := []struct {
		name string
		in   any
	}{
		{name: "nil ports", in: nil},
		{name: "primitive ports", in: 123},
		{name: "struct ports", in: portSet{Name: "ingest", ID: 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &stubModule{ports: tc.in}
			if got := m.Ports(); got != tc.in {
				t.Fatalf("Ports() = %v, want %v", got, tc.in)
			}
		})
	}
}
