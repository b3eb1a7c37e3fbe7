package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"
)

type apiCall struct {
	Method  string
	Payload map[string]any
}

// fakeAPI records Bot API calls and serves queued updates.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	nextID  int64
	updates [][]Update
	fail    map[string]bool
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{fail: map[string]bool{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, NewClientWithBaseURL(srv.URL+"/bottest", srv.Client())
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	payload := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Payload: payload})
	failing := f.fail[method]
	var result any = true
	var batch []Update
	switch method {
	case "sendMessage":
		f.nextID++
		result = MessageResult{MessageID: f.nextID}
	case "getUpdates":
		if len(f.updates) > 0 {
			batch, f.updates = f.updates[0], f.updates[1:]
		}
	}
	f.mu.Unlock()

	if method == "getUpdates" {
		if batch == nil {
			time.Sleep(20 * time.Millisecond)
			batch = []Update{}
		}
		result = batch
	}

	w.Header().Set("Content-Type", "application/json")
	if failing {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "Bad Request: " + method + " refused"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func (f *fakeAPI) callsFor(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
