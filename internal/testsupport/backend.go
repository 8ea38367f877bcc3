package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeBackend is an in-memory stand-in for the filing service. It mirrors the
// real endpoints' wire format and keeps the selection server-side.
type FakeBackend struct {
	server *httptest.Server

	mu            sync.Mutex
	rooms         map[string]map[string][]string
	room          string
	drawer        string
	detected      string
	classifyError string
	confirmError  string
	statusFail    map[string]int
	blocks        map[string]chan struct{}
	calls         map[string]int
	lastImage     string
	lastRequestID string
}

// NewFakeBackend starts a fake seeded with the default three-room layout and
// selection Sala 1 / Gaveta 1. The server is closed on test cleanup.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()

	f := &FakeBackend{
		rooms: map[string]map[string][]string{
			"Sala 1": {"Gaveta 1": {}, "Gaveta 2": {}, "Gaveta 3": {}},
			"Sala 2": {"Gaveta 1": {}, "Gaveta 2": {}},
			"Sala 3": {"Gaveta 1": {}, "Gaveta 2": {}, "Gaveta 3": {}, "Gaveta 4": {}},
		},
		room:       "Sala 1",
		drawer:     "Gaveta 1",
		detected:   "Maria Silva",
		statusFail: make(map[string]int),
		blocks:     make(map[string]chan struct{}),
		calls:      make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/get_salas", f.handleLocations)
	mux.HandleFunc("/set_sala_gaveta", f.handleSetSelection)
	mux.HandleFunc("/processar_imagem", f.handleProcessImage)
	mux.HandleFunc("/confirmar_nome", f.handleConfirm)
	f.server = httptest.NewServer(f.intercept(mux))
	t.Cleanup(f.Close)
	return f
}

// URL returns the fake's base URL.
func (f *FakeBackend) URL() string {
	return f.server.URL
}

// Close releases blocked requests and stops the server.
func (f *FakeBackend) Close() {
	f.mu.Lock()
	for path, ch := range f.blocks {
		close(ch)
		delete(f.blocks, path)
	}
	f.mu.Unlock()
	f.server.Close()
}

// SetTree replaces the location tree.
func (f *FakeBackend) SetTree(rooms map[string]map[string][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = rooms
}

// SetSelection overrides the server's current selection directly.
func (f *FakeBackend) SetSelection(room, drawer string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room, f.drawer = room, drawer
}

// Selection returns the server's current selection.
func (f *FakeBackend) Selection() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.room, f.drawer
}

// SetDetectedName sets the label returned by successful classifications.
func (f *FakeBackend) SetDetectedName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detected = name
}

// SetClassifyError makes classification reply success:false with msg. Empty clears it.
func (f *FakeBackend) SetClassifyError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifyError = msg
}

// SetConfirmError makes commits reply success:false with msg. Empty clears it.
func (f *FakeBackend) SetConfirmError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmError = msg
}

// FailWith makes path answer with the given HTTP status. Zero clears it.
func (f *FakeBackend) FailWith(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.statusFail, path)
		return
	}
	f.statusFail[path] = status
}

// Block holds requests to path until the returned release func is called or
// the request context ends.
func (f *FakeBackend) Block(path string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.blocks[path] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.blocks[path] == ch {
				delete(f.blocks, path)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many requests reached path.
func (f *FakeBackend) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// LastImage returns the most recent imagem payload.
func (f *FakeBackend) LastImage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastImage
}

// LastRequestID returns the X-Request-ID of the most recent request.
func (f *FakeBackend) LastRequestID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRequestID
}

// Folders returns a copy of the folders filed under (room, drawer).
func (f *FakeBackend) Folders(room, drawer string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.rooms[room][drawer]...)
}

func (f *FakeBackend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.URL.Path]++
		f.lastRequestID = r.Header.Get("X-Request-ID")
		status := f.statusFail[r.URL.Path]
		block := f.blocks[r.URL.Path]
		f.mu.Unlock()

		if block != nil {
			select {
			case <-block:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			http.Error(w, fmt.Sprintf(`{"error":"injected %d"}`, status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) handleLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	f.mu.Lock()
	payload := map[string]any{
		"salas":        f.rooms,
		"sala_atual":   f.room,
		"gaveta_atual": f.drawer,
	}
	body, err := json.Marshal(payload)
	f.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, body)
}

func (f *FakeBackend) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Room   string `json:"sala"`
		Drawer string `json:"gaveta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.room, f.drawer = req.Room, req.Drawer
	f.mu.Unlock()
	writeJSON(w, []byte(`{"status":"success"}`))
}

func (f *FakeBackend) handleProcessImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"imagem"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.lastImage = req.Image
	var payload map[string]any
	switch {
	case f.classifyError != "":
		payload = map[string]any{"success": false, "error": f.classifyError}
	case !strings.Contains(req.Image, ","):
		payload = map[string]any{"success": false, "error": "not enough values to unpack"}
	default:
		payload = map[string]any{
			"success":        true,
			"nome_detectado": f.detected,
			"sala_atual":     f.room,
			"gaveta_atual":   f.drawer,
		}
	}
	f.mu.Unlock()
	body, _ := json.Marshal(payload)
	writeJSON(w, body)
}

func (f *FakeBackend) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"nome"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	var payload map[string]any
	if f.confirmError != "" {
		payload = map[string]any{"success": false, "error": f.confirmError}
	} else if drawers, ok := f.rooms[f.room]; !ok || !hasDrawer(drawers, f.drawer) {
		payload = map[string]any{"success": false, "error": "'NoneType' object is not subscriptable"}
	} else {
		drawers[f.drawer] = append(drawers[f.drawer], req.Name)
		payload = map[string]any{
			"success": true,
			"message": fmt.Sprintf("Adicionado: %s -> %s/%s", req.Name, f.room, f.drawer),
		}
	}
	f.mu.Unlock()
	body, _ := json.Marshal(payload)
	writeJSON(w, body)
}

func hasDrawer(drawers map[string][]string, drawer string) bool {
	_, ok := drawers[drawer]
	return ok
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
