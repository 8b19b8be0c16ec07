package testsupport

import (
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// LibraryServer serves the embedded fixtures with the Library's v2 routes:
// /v2/schemas, /v2/schemas/{name} and /v2/countries. Names listed in failing
// answer with 500.
func LibraryServer(t *testing.T, failing ...string) *httptest.Server {
	t.Helper()

	broken := make(map[string]struct{}, len(failing))
	for _, name := range failing {
		broken[name] = struct{}{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/schemas", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(MustReadFixture(t, "schemas-list.json"))
	})
	mux.HandleFunc("GET /v2/schemas/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if _, ok := broken[name]; ok {
			http.Error(w, `{"errors":[{"status":500,"title":"Internal Server Error"}]}`, http.StatusInternalServerError)
			return
		}
		raw, err := fs.ReadFile(SchemasFS(), name+".json")
		if err != nil {
			http.Error(w, `{"errors":[{"status":404,"title":"Schema Not Found"}]}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	})
	mux.HandleFunc("GET /v2/countries", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(MustReadFixture(t, "countries.json"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// IndexStub is an in-process stand-in for the Murmurations Index. Tests tweak
// the exported fields before issuing requests; every request is recorded.
type IndexStub struct {
	Server *httptest.Server

	mu sync.Mutex
	// ValidateStatus is the status returned by /v2/validate (200 when zero).
	ValidateStatus int
	// ValidateBody is written verbatim by /v2/validate when set.
	ValidateBody string
	// Nodes maps node ids to their status.
	Nodes map[string]string
	// Requests records "METHOD path" for every request received.
	Requests []string
	// Bodies records decoded JSON request bodies keyed by "METHOD path".
	Bodies map[string]map[string]any
}

// NewIndexStub starts an IndexStub that is closed with the test.
func NewIndexStub(t *testing.T) *IndexStub {
	t.Helper()

	stub := &IndexStub{
		Nodes:  make(map[string]string),
		Bodies: make(map[string]map[string]any),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/validate", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		stub.mu.Lock()
		status, body := stub.ValidateStatus, stub.ValidateBody
		stub.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		if body == "" {
			body = `{"status":200}`
		}
		writeJSON(w, status, body)
	})
	mux.HandleFunc("POST /v2/nodes", func(w http.ResponseWriter, r *http.Request) {
		payload := stub.record(r)
		profileURL, _ := payload["profile_url"].(string)
		if profileURL == "" {
			writeJSON(w, http.StatusBadRequest, `{"error":"missing profile_url"}`)
			return
		}
		nodeID := "node-" + lastSegment(profileURL)
		stub.mu.Lock()
		stub.Nodes[nodeID] = "received"
		stub.mu.Unlock()
		writeJSON(w, http.StatusOK, `{"data":{"node_id":"`+nodeID+`","profile_url":"`+profileURL+`"}}`)
	})
	mux.HandleFunc("POST /v2/nodes-sync", func(w http.ResponseWriter, r *http.Request) {
		payload := stub.record(r)
		profileURL, _ := payload["profile_url"].(string)
		writeJSON(w, http.StatusOK, `{"data":{"node_id":"sync-`+lastSegment(profileURL)+`","status":"posted"}}`)
	})
	mux.HandleFunc("GET /v2/nodes/{id}", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		id := r.PathValue("id")
		stub.mu.Lock()
		status, ok := stub.Nodes[id]
		stub.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, `{"errors":[{"status":404,"title":"Node Not Found","detail":"Could not locate the following node_id in the Index: `+id+`"}]}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":{"node_id":"`+id+`","status":"`+status+`"}}`)
	})
	mux.HandleFunc("DELETE /v2/nodes/{id}", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		id := r.PathValue("id")
		stub.mu.Lock()
		_, ok := stub.Nodes[id]
		delete(stub.Nodes, id)
		stub.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, `{"error":"node not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"meta":{"message":"The Index has recorded as deleted the profile"}}`)
	})
	mux.HandleFunc("GET /v2/nodes", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		if r.URL.Query().Get("page_size") == "invalid" {
			writeJSON(w, http.StatusBadRequest, `{"errors":[{"status":400,"title":"Invalid Query Parameter","detail":"page_size must be a number"}]}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":[{"name":"Open Co","profile_url":"https://example.org/p.json"}],"links":{"first":"?page=1"},"meta":{"number_of_results":1,"total_pages":1}}`)
	})

	stub.Server = httptest.NewServer(mux)
	t.Cleanup(stub.Server.Close)
	return stub
}

// URL returns the stub's base URL.
func (s *IndexStub) URL() string {
	return s.Server.URL
}

// SetValidation configures the /v2/validate response.
func (s *IndexStub) SetValidation(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ValidateStatus = status
	s.ValidateBody = body
}

// SetNode registers a node status.
func (s *IndexStub) SetNode(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Nodes[id] = status
}

// Seen returns a copy of the recorded requests.
func (s *IndexStub) Seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Requests...)
}

// Body returns the JSON body recorded for the given "METHOD path" key.
func (s *IndexStub) Body(key string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Bodies[key]
}

func (s *IndexStub) record(r *http.Request) map[string]any {
	key := r.Method + " " + r.URL.Path
	var payload map[string]any
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &payload)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, key)
	if payload != nil {
		s.Bodies[key] = payload
	}
	return payload
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func lastSegment(raw string) string {
	trimmed := strings.TrimRight(raw, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
