package system

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/Blindtools/Api/internal/platform/storage"
	platformtesting "github.com/Blindtools/Api/internal/platform/testing"

	"github.com/gin-gonic/gin"
)

type fakeCatalog struct{}

func (fakeCatalog) LLMNames() []string    { return []string{"OpenAILLM", "OllamaLLM"} }
func (fakeCatalog) VisionNames() []string { return []string{"OpenAIVision"} }

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := platformtesting.SetupTestConfig(t)
	logger := platformtesting.SetupTestLogger(t)

	db, err := storage.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	usage, err := storage.NewUsageStore(db)
	if err != nil {
		t.Fatalf("usage store: %v", err)
	}

	svc := NewService(cfg, fakeCatalog{}, usage, logger)
	engine := gin.New()
	if err := svc.Register(context.Background(), engine.Group("")); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return engine
}

func get(t *testing.T, engine *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func payload(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("malformed envelope %q: %v", w.Body.String(), err)
	}
	return out
}

// shape returns the sorted key set, for idempotence comparisons that
// must ignore the timestamp value.
func shape(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestHealthIdempotent(t *testing.T) {
	engine := setup(t)

	first := get(t, engine, "/health")
	second := get(t, engine, "/health")
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("health status = %d/%d, want 200", first.Code, second.Code)
	}

	a, b := payload(t, first), payload(t, second)
	if a["success"] != true || a["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", a)
	}
	if len(shape(a)) != len(shape(b)) {
		t.Fatalf("health payload shape changed between calls: %v vs %v", a, b)
	}
}

func TestModelsListsProvidersAndOptions(t *testing.T) {
	engine := setup(t)

	w := get(t, engine, "/models")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	out := payload(t, w)

	langs, ok := out["languages"].([]interface{})
	if !ok || len(langs) == 0 || langs[0] != "auto" {
		t.Fatalf("unexpected languages: %v", out["languages"])
	}
	levels, ok := out["detail_levels"].([]interface{})
	if !ok || len(levels) != 4 {
		t.Fatalf("unexpected detail levels: %v", out["detail_levels"])
	}
	llms, ok := out["llm"].([]interface{})
	if !ok || !reflect.DeepEqual(llms, []interface{}{"OpenAILLM", "OllamaLLM"}) {
		t.Fatalf("unexpected llm list: %v", out["llm"])
	}

	again := payload(t, get(t, engine, "/models"))
	if !reflect.DeepEqual(shape(out), shape(again)) {
		t.Fatalf("models payload shape changed between calls")
	}
}

func TestStatsIncludesRuntimeGauges(t *testing.T) {
	engine := setup(t)

	w := get(t, engine, "/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	out := payload(t, w)
	if out["success"] != true {
		t.Fatalf("unexpected envelope: %v", out)
	}
	if _, ok := out["goroutines"].(float64); !ok {
		t.Fatalf("missing goroutine gauge: %v", out)
	}
	if _, ok := out["requests"]; !ok {
		t.Fatalf("missing request summary: %v", out)
	}
}

func TestDocsServesHTML(t *testing.T) {
	engine := setup(t)

	w := get(t, engine, "/docs")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"/chat", "/ocr/batch", "/send-text"} {
		if !strings.Contains(body, want) {
			t.Fatalf("docs page missing %s", want)
		}
	}
}
