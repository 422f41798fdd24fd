package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/errors"
	"github.com/matzehuels/handwrite/pkg/observability"
	"github.com/matzehuels/handwrite/pkg/session"
)

const glyphSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 15 15"><path d="M1 1L14 14"/></svg>`

func testServer(t *testing.T) (*Server, *session.MemoryStore, *httptest.Server) {
	t.Helper()
	assets := &catalog.Memory{}
	for _, id := range []catalog.VariantID{"永/1.svg", "永/2.svg", "永/3.svg"} {
		assets.Add('永', id, []byte(glyphSVG))
	}
	store := session.NewMemoryStore()
	srv := New(assets, store)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, store, ts
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func createSession(t *testing.T, ts *httptest.Server, seed uint64) sessionResponse {
	t.Helper()
	var sess sessionResponse
	if code := do(t, http.MethodPost, ts.URL+"/api/v1/sessions", createSessionRequest{Seed: seed}, &sess); code != http.StatusCreated {
		t.Fatalf("create session status = %d", code)
	}
	return sess
}

func TestHealth(t *testing.T) {
	_, _, ts := testServer(t)
	var body map[string]string
	if code := do(t, http.MethodGet, ts.URL+"/healthz", nil, &body); code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("GET /healthz = %d %v", code, body)
	}
}

func TestCreateSession(t *testing.T) {
	_, store, ts := testServer(t)
	sess := createSession(t, ts, 7)
	if sess.Seed != 7 || session.ValidateID(sess.ID) != nil {
		t.Errorf("session = %+v", sess)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d sessions, want 1", store.Len())
	}

	var noBody sessionResponse
	resp, err := http.Post(ts.URL+"/api/v1/sessions", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&noBody); err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create without body = %d, %v", resp.StatusCode, err)
	}
	if noBody.Seed == 0 {
		t.Error("session without seed should get a random one")
	}
}

func TestRenderKeepsWindowsBetweenPasses(t *testing.T) {
	_, store, ts := testServer(t)
	sess := createSession(t, ts, 1)
	renderURL := ts.URL + "/api/v1/sessions/" + sess.ID + "/render"

	var first renderResponse
	if code := do(t, http.MethodPost, renderURL, renderRequest{Text: "永永"}, &first); code != http.StatusOK {
		t.Fatalf("first render status = %d", code)
	}
	if len(first.Placements) != 2 || !strings.Contains(first.SVG, "<svg") || first.SessionID != sess.ID {
		t.Fatalf("first render = %+v", first)
	}

	// Three variants, two used: the third is the only candidate left.
	var second renderResponse
	if code := do(t, http.MethodPost, renderURL, renderRequest{Text: "永"}, &second); code != http.StatusOK {
		t.Fatalf("second render status = %d", code)
	}
	used := map[string]bool{first.Placements[0].Variant: true, first.Placements[1].Variant: true}
	if v := second.Placements[0].Variant; used[v] || v == "" {
		t.Errorf("second render picked %q after %v", v, used)
	}
	if second.Seed == first.Seed {
		t.Error("each pass should get a new seed")
	}

	stored, err := store.Get(context.Background(), sess.ID)
	if err != nil || stored == nil {
		t.Fatalf("Get() = %v, %v", stored, err)
	}
	if stored.Passes != 2 || len(stored.Windows["永"]) != 3 {
		t.Errorf("stored session = passes %d windows %v", stored.Passes, stored.Windows)
	}
}

func TestRenderErrors(t *testing.T) {
	srv, _, ts := testServer(t)
	sess := createSession(t, ts, 1)

	tests := []struct {
		name string
		id   string
		body any
		want int
		code errors.Code
	}{
		{"bad id", "nope", renderRequest{Text: "a"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown session", "6f1c2e2a-8c1e-4f57-9a43-7d3b8e0c1a11", renderRequest{Text: "a"}, http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"bad columns", sess.ID, renderRequest{Text: "a", Columns: 9}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", sess.ID, map[string]any{"txt": "a"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorResponse
			code := do(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+tt.id+"/render", tt.body, &body)
			if code != tt.want || body.Error != string(tt.code) {
				t.Errorf("status = %d %s, want %d %s", code, body.Error, tt.want, tt.code)
			}
		})
	}

	t.Run("busy", func(t *testing.T) {
		if !srv.acquire(sess.ID) {
			t.Fatal("acquire() failed")
		}
		defer srv.release(sess.ID)
		var body errorResponse
		code := do(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sess.ID+"/render", renderRequest{Text: "a"}, &body)
		if code != http.StatusConflict || body.Error != string(errors.ErrCodeBusy) {
			t.Errorf("status = %d %s, want 409 %s", code, body.Error, errors.ErrCodeBusy)
		}
	})
}

func TestDeleteSession(t *testing.T) {
	_, store, ts := testServer(t)
	sess := createSession(t, ts, 1)

	if code := do(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+sess.ID, nil, nil); code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", code)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d sessions after delete", store.Len())
	}
	var body errorResponse
	if code := do(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+sess.ID+"/render", renderRequest{Text: "a"}, &body); code != http.StatusNotFound {
		t.Errorf("render after delete = %d, want 404", code)
	}
}

func TestVariants(t *testing.T) {
	_, _, ts := testServer(t)

	var got variantsResponse
	if code := do(t, http.MethodGet, ts.URL+"/api/v1/variants/"+url.PathEscape("永"), nil, &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	want := variantsResponse{Char: "永", Variants: []catalog.VariantID{"永/1.svg", "永/2.svg", "永/3.svg"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("variants mismatch (-want +got):\n%s", diff)
	}

	var empty variantsResponse
	if code := do(t, http.MethodGet, ts.URL+"/api/v1/variants/x", nil, &empty); code != http.StatusOK || empty.Variants == nil || len(empty.Variants) != 0 {
		t.Errorf("unknown char = %d %+v, want empty list", code, empty)
	}

	var bad errorResponse
	if code := do(t, http.MethodGet, ts.URL+"/api/v1/variants/ab", nil, &bad); code != http.StatusBadRequest {
		t.Errorf("multi-char = %d, want 400", code)
	}
}

type recordingHooks struct {
	observability.NoopServerHooks
	routes []string
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, method+" "+route)
}

func TestServerHooks(t *testing.T) {
	defer observability.Reset()
	hooks := &recordingHooks{}
	observability.SetServerHooks(hooks)

	srv, _, _ := testServer(t)
	h := srv.Handler()
	for _, path := range []string{"/healthz", "/api/v1/variants/x"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	want := []string{"GET /healthz", "GET /api/v1/variants/{char}"}
	if diff := cmp.Diff(want, hooks.routes); diff != "" {
		t.Errorf("hook routes mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeInvalidInput:    http.StatusBadRequest,
		errors.ErrCodeSessionNotFound: http.StatusNotFound,
		errors.ErrCodeBusy:            http.StatusConflict,
		errors.ErrCodeUnsupported:     http.StatusNotImplemented,
		errors.ErrCodeTimeout:         http.StatusGatewayTimeout,
		errors.ErrCodeInternal:        http.StatusInternalServerError,
		"":                            http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%q) = %d, want %d", code, got, want)
		}
	}
}
