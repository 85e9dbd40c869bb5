package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/focusfrenzy/capture-server/config"
	"github.com/focusfrenzy/capture-server/routes"
	"github.com/focusfrenzy/capture-server/store"
	"github.com/focusfrenzy/capture-server/utils"
)

func TestMain(m *testing.M) {
	if err := utils.InitLogger(config.AppConfig{LogLevel: "error"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const testCeiling = 1 << 20

func newTestServer(t *testing.T) (*gin.Engine, *store.CaptureStore) {
	t.Helper()
	t.Setenv("GIN_MODE", "test")
	t.Setenv("GIN_LOG_PATH", filepath.Join(t.TempDir(), "gin.log"))
	config.Reset()
	t.Cleanup(config.Reset)

	st := store.New(filepath.Join(t.TempDir(), "captures"), testCeiling, nil)
	return routes.SetupRouter(st), st
}

func captureForm(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "capture.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func postCapture(t *testing.T, r *gin.Engine, fields map[string]string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := captureForm(t, fields, image)
	req := httptest.NewRequest(http.MethodPost, "/capture", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadAndJSONListing(t *testing.T) {
	r, _ := newTestServer(t)

	fields := map[string]string{
		"email":     "player@example.com",
		"ip":        "203.0.113.5",
		"score":     "42",
		"timestamp": fmt.Sprint(time.Now().UnixMilli()),
	}
	w := postCapture(t, r, fields, []byte("fake jpeg bytes"))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}

	var up struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		Filename string `json:"filename"`
		Path     string `json:"path"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &up); err != nil {
		t.Fatal(err)
	}
	if !up.Success || up.Message != "Capture saved successfully" {
		t.Errorf("unexpected upload payload: %+v", up)
	}
	if !strings.HasPrefix(up.Filename, "capture_203.0.113.5_score42_") || !strings.HasSuffix(up.Filename, ".jpg") {
		t.Errorf("filename %q does not match capture grammar", up.Filename)
	}
	if up.Path == "" {
		t.Error("upload response missing path")
	}

	req := httptest.NewRequest(http.MethodGet, "/captures-json", nil)
	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, req)
	if lw.Code != http.StatusOK {
		t.Fatalf("listing status = %d", lw.Code)
	}

	var listing struct {
		Success       bool `json:"success"`
		TotalCaptures int  `json:"total_captures"`
		Captures      []struct {
			Filename    string `json:"filename"`
			URL         string `json:"url"`
			DownloadURL string `json:"download_url"`
			Size        int64  `json:"size"`
			SizeKB      string `json:"size_kb"`
			IP          string `json:"ip"`
			Score       string `json:"score"`
		} `json:"captures"`
	}
	if err := json.Unmarshal(lw.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if !listing.Success || listing.TotalCaptures != 1 || len(listing.Captures) != 1 {
		t.Fatalf("unexpected listing: %s", lw.Body.String())
	}
	entry := listing.Captures[0]
	if entry.IP != "203.0.113.5" || entry.Score != "42" {
		t.Errorf("decoded fields = (%q, %q)", entry.IP, entry.Score)
	}
	if entry.URL != "http://example.com/captures/"+entry.Filename {
		t.Errorf("url = %q", entry.URL)
	}
	if entry.DownloadURL != entry.URL+"?download=1" {
		t.Errorf("download_url = %q", entry.DownloadURL)
	}
	if entry.Size != int64(len("fake jpeg bytes")) {
		t.Errorf("size = %d", entry.Size)
	}
}

func TestUploadSanitizesIP(t *testing.T) {
	r, _ := newTestServer(t)

	w := postCapture(t, r, map[string]string{"ip": "1.2.3.4; DROP", "score": "42"}, []byte("x"))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d", w.Code)
	}
	var up struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &up); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(up.Filename, "1.2.3.4__DROP") {
		t.Errorf("filename %q missing sanitized ip", up.Filename)
	}

	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, httptest.NewRequest(http.MethodGet, "/captures-json", nil))
	if !strings.Contains(lw.Body.String(), `"ip":"1.2.3.4__DROP"`) {
		t.Errorf("listing does not carry sanitized ip: %s", lw.Body.String())
	}
}

func TestUploadMissingImage(t *testing.T) {
	r, st := newTestServer(t)

	w := postCapture(t, r, map[string]string{"ip": "1.2.3.4", "score": "1"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp utils.FailureResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error != "No image file received" {
		t.Errorf("unexpected payload: %+v", resp)
	}
	if st.DirExists() {
		t.Error("rejected upload created the capture directory")
	}
}

func TestUploadTooLarge(t *testing.T) {
	r, st := newTestServer(t)

	w := postCapture(t, r, map[string]string{"ip": "1.2.3.4", "score": "1"}, make([]byte, testCeiling+1))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "exceeds") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
	if n, _ := st.Count(); n != 0 {
		t.Errorf("oversized upload left %d records", n)
	}

	// Exactly at the ceiling is accepted
	w = postCapture(t, r, map[string]string{"ip": "1.2.3.4", "score": "1"}, make([]byte, testCeiling))
	if w.Code != http.StatusOK {
		t.Fatalf("upload at ceiling status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t)

	// Two uploads with distinct ips so even same-millisecond writes cannot collide
	for i, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		w := postCapture(t, r, map[string]string{"ip": ip, "score": fmt.Sprint(i)}, []byte("x"))
		if w.Code != http.StatusOK {
			t.Fatalf("upload %d status = %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}

	var health struct {
		Status        string            `json:"status"`
		Service       string            `json:"service"`
		Timestamp     string            `json:"timestamp"`
		CapturesCount int               `json:"captures_count"`
		Endpoints     map[string]string `json:"endpoints"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "OK" {
		t.Errorf("status = %q", health.Status)
	}
	if health.Service != "Focus Frenzy - Local Capture Edition" {
		t.Errorf("service = %q", health.Service)
	}
	if health.CapturesCount != 2 {
		t.Errorf("captures_count = %d, want 2", health.CapturesCount)
	}
	if _, err := time.Parse(time.RFC3339, health.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", health.Timestamp, err)
	}
	if health.Endpoints["view_captures"] != "/view-captures" || health.Endpoints["json_api"] != "/captures-json" {
		t.Errorf("endpoints map = %v", health.Endpoints)
	}
}

func TestGalleryMissingDir(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view-captures", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No captures yet!") || !strings.Contains(body, "Play Game") {
		t.Errorf("missing empty-state markup: %s", body)
	}
	if strings.Contains(body, `class="capture-card"`) {
		t.Error("empty gallery rendered capture cards")
	}
}

func TestGalleryEmptyDir(t *testing.T) {
	r, st := newTestServer(t)
	if err := os.MkdirAll(st.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view-captures", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No captures yet!") {
		t.Error("missing empty-state message")
	}
	if strings.Contains(body, `class="capture-card"`) {
		t.Error("empty gallery rendered capture cards")
	}
}

func TestGalleryRendersCards(t *testing.T) {
	r, st := newTestServer(t)
	if _, err := st.Put([]byte("jpeg"), "203.0.113.5", "42"); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view-captures", nil))
	body := w.Body.String()
	if !strings.Contains(body, `class="capture-card"`) {
		t.Error("gallery missing capture cards")
	}
	if !strings.Contains(body, "203.0.113.5") || !strings.Contains(body, "42") {
		t.Error("gallery missing decoded metadata")
	}
	if !strings.Contains(body, "window.location.reload()") {
		t.Error("gallery missing auto-refresh script")
	}
}

func TestJSONListingMissingDir(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/captures-json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["captures"]) != "[]" {
		t.Errorf("captures = %s, want []", raw["captures"])
	}
	// The missing-directory branch intentionally omits these keys
	if _, ok := raw["success"]; ok {
		t.Error("missing-dir reply should not carry a success key")
	}
	if _, ok := raw["total_captures"]; ok {
		t.Error("missing-dir reply should not carry a total_captures key")
	}
}

func TestAssetServing(t *testing.T) {
	r, st := newTestServer(t)
	rec, err := st.Put([]byte("raw jpeg"), "10.0.0.1", "3")
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/captures/"+rec.Filename, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("asset status = %d", w.Code)
	}
	if w.Body.String() != "raw jpeg" {
		t.Errorf("asset body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "image/jpeg") {
		t.Errorf("content type = %q", ct)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/captures/absent.jpg", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("request id not propagated, got %q", got)
	}
}
