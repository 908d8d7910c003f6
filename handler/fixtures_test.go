package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/service"
)

const testBaseURL = "https://ipms.example.com"

// fakeBackend serves /licenses/{id} from an in-memory map.
type fakeBackend struct {
	mu       sync.Mutex
	entities map[string]map[string]any
	puts     []map[string]any
	gets     int

	failStatus  int
	failMessage string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *service.BackendClient) {
	t.Helper()
	fb := &fakeBackend{entities: make(map[string]map[string]any)}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)

	client := service.NewBackendClient(&config.BackendConfig{
		BaseURL:        srv.URL,
		APIToken:       "service-token",
		TimeoutSeconds: 5,
		LicensePath:    "/licenses",
		CatalogPath:    "/ip-catalog",
	})
	return fb, client
}

func (fb *fakeBackend) put(id string, entity map[string]any) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	entity["id"] = id
	fb.entities[id] = entity
}

func (fb *fakeBackend) fail(status int, message string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failStatus = status
	fb.failMessage = message
}

func (fb *fakeBackend) updates() []map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]map[string]any(nil), fb.puts...)
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	id := strings.TrimPrefix(r.URL.Path, "/licenses/")
	entity, ok := fb.entities[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"License not found"}`))
		return
	}

	switch r.Method {
	case http.MethodGet:
		fb.gets++
		json.NewEncoder(w).Encode(map[string]any{"data": entity})
	case http.MethodPut:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if fb.failStatus != 0 {
			w.WriteHeader(fb.failStatus)
			json.NewEncoder(w).Encode(map[string]string{"message": fb.failMessage})
			return
		}
		fb.puts = append(fb.puts, body)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		delete(fb.entities, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

var errStoreDown = errors.New("draft store is down")

// brokenStore fails every write and reads as empty.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (brokenStore) Set(context.Context, string, string) error         { return errStoreDown }
func (brokenStore) Delete(context.Context, string) error              { return errStoreDown }

// unreadableStore fails every operation, reads included.
type unreadableStore struct{}

func (unreadableStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errStoreDown
}
func (unreadableStore) Set(context.Context, string, string) error { return errStoreDown }
func (unreadableStore) Delete(context.Context, string) error      { return errStoreDown }

// asUser stands in for the auth middleware.
func asUser(tenant, username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("tenant", tenant)
		c.Set("username", username)
		c.Next()
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return out
}

func notificationMessages(t *testing.T, body map[string]any) []string {
	t.Helper()
	raw, _ := body["notifications"].([]any)
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		m, _ := n.(map[string]any)
		out = append(out, m["level"].(string)+": "+m["message"].(string))
	}
	return out
}

func validGeneralInfo() map[string]any {
	return map[string]any{
		"method":     "HDCQ",
		"type":       "EXCLUSIVE",
		"doc_number": "HD-001",
		"sign_date":  "2026-03-01",
	}
}

func validTerms() map[string]any {
	return map[string]any{
		"geographical_area": "Vietnam",
		"scope_of_rights":   "Manufacture and sale",
		"fee_type":          "NO_FEE",
		"currency":          "VND",
	}
}
