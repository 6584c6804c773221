package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_RegistersMetrics はCollectorがレジストリに登録できることを検証する。
func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil collector")
	}
}

// TestCollector_RecordMethods は各記録メソッドがpanicしないことを検証する。
func TestCollector_RecordMethods(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPageResolve("quickpitch")
	c.RecordThemeFallback("retro-blast")
	c.RecordPageSave("quickpitch")
	c.RecordSignupSuccess()
	c.RecordCaptchaFailure()
	c.RecordHTTPStatus(200)
	c.RecordResolveLatency(100 * time.Millisecond)
}

// TestHandler_ServesRegisteredMetrics はスクレイプハンドラーが登録済みメトリクスを返すことを検証する。
func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPageResolve("quickpitch")
	c.RecordPageSave("quickpitch")
	c.RecordHTTPStatus(200)

	handler := Handler(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	for _, name := range []string{"biolink_page_resolve_total", "biolink_page_save_total", "biolink_http_status_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected metrics output to contain %s", name)
		}
	}
}
