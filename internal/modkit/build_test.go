package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "taskdata/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestBuild_Defaults(t *testing.T) {
	t.Parallel()

	b := Build()
	if b.Name != "" || b.Prefix != "" || b.Ports != nil || len(b.Mw) != 0 {
		t.Fatalf("unexpected defaults %+v", b)
	}
	if b.Register == nil {
		t.Fatalf("default Register should be a no-op, not nil")
	}
	b.Register(nil)
}

func TestBuild_CopiesMiddlewares(t *testing.T) {
	t.Parallel()

	calls := 0
	mwA := func(next http.Handler) http.Handler { calls++; return next }
	mid := []func(http.Handler) http.Handler{mwA}

	type ports struct{ X int }
	b := Build(WithName("ingest"), WithPrefix("/ingest"), WithMiddlewares(mid...), WithPorts(ports{X: 7}))
	mid[0] = func(next http.Handler) http.Handler { return next }

	if b.Name != "ingest" || b.Prefix != "/ingest" {
		t.Fatalf("name/prefix %q %q", b.Name, b.Prefix)
	}
	if got, ok := b.Ports.(ports); !ok || got.X != 7 {
		t.Fatalf("ports %#v", b.Ports)
	}
	b.Mw[0](http.NotFoundHandler())
	if calls != 1 {
		t.Fatalf("Built.Mw changed after source slice mutation")
	}
}

func TestBuilt_Mount(t *testing.T) {
	t.Parallel()

	tagged := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Module", "ingest")
			next.ServeHTTP(w, r)
		})
	}
	register := func(r phttp.Router) {
		r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	}

	cases := []struct {
		name   string
		prefix string
		path   string
	}{
		{name: "with prefix", prefix: "/ingest", path: "/ingest/stats"},
		{name: "no prefix", prefix: "", path: "/stats"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := chi.NewRouter()
			Build(WithPrefix(tc.prefix), WithMiddlewares(tagged), WithRegister(register)).Mount(phttp.AdaptChi(mux))

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rr.Code != http.StatusNoContent {
				t.Fatalf("status %d", rr.Code)
			}
			if rr.Header().Get("X-Module") != "ingest" {
				t.Fatalf("module middleware not applied")
			}
		})
	}
}
