package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
)

func testTree(t *testing.T) *domain.Node {
	t.Helper()
	root := domain.NewTree()
	root.AddPhrase("Hello!")

	yes, err := root.EnsureReply("confirm", false)
	if err != nil {
		t.Fatal(err)
	}
	yes.AddPhrase("yes")

	followup, err := yes.EnsureReply("", true)
	if err != nil {
		t.Fatal(err)
	}
	followup.AddPhrase("Great")

	no, err := root.EnsureReply("deny", false)
	if err != nil {
		t.Fatal(err)
	}
	no.AddPhrase("no")
	return root
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestGetHealth(t *testing.T) {
	handler := NewHandler(testTree(t))

	w := get(t, handler, "/healthz")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected health body: %s", w.Body.String())
	}
}

func TestGetInfo(t *testing.T) {
	handler := NewHandler(testTree(t), WithName("support-flows"))

	w := get(t, handler, "/api/v1/info")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}

	var info struct {
		App     string           `json:"app"`
		Name    string           `json:"name"`
		Version string           `json:"version"`
		Tree    domain.TreeStats `json:"tree"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("Invalid info JSON: %v", err)
	}
	if info.App != "espalier-http" {
		t.Errorf("app = %q", info.App)
	}
	if info.Name != "support-flows" {
		t.Errorf("name = %q", info.Name)
	}
	if info.Version == "" {
		t.Error("version is empty")
	}
	if info.Tree.Nodes != 4 || info.Tree.Intents != 2 {
		t.Errorf("tree stats = %+v", info.Tree)
	}
}

func TestGetTree(t *testing.T) {
	tree := testTree(t)
	handler := NewHandler(tree)

	w := get(t, handler, "/api/v1/tree")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}

	want, err := json.Marshal(tree)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(w.Body.String()); got != string(want) {
		t.Errorf("tree body = %s, want %s", got, want)
	}
}

func TestWalkTree(t *testing.T) {
	handler := NewHandler(testTree(t))

	tests := []struct {
		name     string
		url      string
		status   int
		contains string
	}{
		{
			name:     "Root Without Param",
			url:      "/api/v1/tree/walk",
			status:   http.StatusOK,
			contains: `"Hello!"`,
		},
		{
			name:     "Single Intent",
			url:      "/api/v1/tree/walk?path=confirm",
			status:   http.StatusOK,
			contains: `"intent":"confirm"`,
		},
		{
			name:     "Intent Then Agent Edge",
			url:      "/api/v1/tree/walk?path=confirm,",
			status:   http.StatusOK,
			contains: `"Great"`,
		},
		{
			name:     "Unknown Intent",
			url:      "/api/v1/tree/walk?path=nonsense",
			status:   http.StatusNotFound,
			contains: `"error"`,
		},
		{
			name:     "Agent Edge Missing At Root",
			url:      "/api/v1/tree/walk?path=",
			status:   http.StatusNotFound,
			contains: `"error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, handler, tt.url)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body %s missing %q", w.Body.String(), tt.contains)
			}
		})
	}
}

func TestGetIntents(t *testing.T) {
	handler := NewHandler(testTree(t))

	w := get(t, handler, "/api/v1/intents")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}

	var intents []string
	if err := json.Unmarshal(w.Body.Bytes(), &intents); err != nil {
		t.Fatalf("Invalid intents JSON: %v", err)
	}
	if len(intents) != 2 || intents[0] != "confirm" || intents[1] != "deny" {
		t.Errorf("intents = %v, want [confirm deny]", intents)
	}
}

func TestMetricsMount(t *testing.T) {
	stub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("espalier_cache_hits_total 0"))
	})

	withMetrics := NewHandler(testTree(t), WithMetricsHandler(stub))
	if w := get(t, withMetrics, "/metrics"); w.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", w.Code)
	}

	without := NewHandler(testTree(t))
	if w := get(t, without, "/metrics"); w.Code != http.StatusNotFound {
		t.Errorf("unmounted metrics status = %d, want 404", w.Code)
	}
}

func TestCORS(t *testing.T) {
	handler := NewHandler(testTree(t))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/v1/tree", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("preflight status = %d, want 200", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}
