package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ModelServer is an httptest stand-in for a local OpenAI-compatible
// inference endpoint: /v1/models answers the availability probe and
// /v1/chat/completions runs the configured reply function.
type ModelServer struct {
	*httptest.Server

	mu      sync.Mutex
	prompts []string
}

// NewModelServer starts a stub endpoint whose chat replies come from reply,
// invoked with the prompt text. A nil reply answers every chat with an empty
// JSON object.
func NewModelServer(t testing.TB, reply func(prompt string) string) *ModelServer {
	t.Helper()

	if reply == nil {
		reply = func(string) string { return "{}" }
	}
	server := &ModelServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"id": "test-model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Messages) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		prompt := payload.Messages[0].Content
		server.mu.Lock()
		server.prompts = append(server.prompts, prompt)
		server.mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": reply(prompt)}},
			},
		})
	})

	server.Server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// Prompts returns the chat prompts received so far.
func (s *ModelServer) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// ChatCalls returns how many chat requests the server has handled.
func (s *ModelServer) ChatCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
