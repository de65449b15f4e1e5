package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ChatRequest is the part of a chat completion request tests inspect.
type ChatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// OpenAIServer fakes the chat completions endpoint.
type OpenAIServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []ChatRequest
	status   int
	reply    string
}

// NewOpenAIServer starts a server that answers every completion with reply.
func NewOpenAIServer(t *testing.T, reply string) *OpenAIServer {
	t.Helper()
	s := &OpenAIServer{status: http.StatusOK, reply: reply}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Fail makes the server answer with an API error of the given status.
func (s *OpenAIServer) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// BaseURL is the value for the client's base URL option.
func (s *OpenAIServer) BaseURL() string {
	return s.URL + "/v1/"
}

// Requests returns the decoded requests received so far.
func (s *OpenAIServer) Requests() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatRequest(nil), s.requests...)
}

func (s *OpenAIServer) handle(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status, reply := s.status, s.reply
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"error":{"message":"fake error %d","type":"fake"}}`, status)
		return
	}
	_ = json.NewEncoder(w).Encode(CompletionResponse(req.Model, reply))
}

// CompletionResponse builds a minimal chat completion body.
func CompletionResponse(model, content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   model,
		"choices": []interface{}{
			map[string]interface{}{
				"index":         0,
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
	}
}

// JiraServer fakes the two Jira REST v2 calls the relay makes.
type JiraServer struct {
	*httptest.Server
	// Written receives every description PUT to the server.
	Written chan string

	tracker *MockTracker
}

// NewJiraServer starts a fake Jira site backed by tracker.
func NewJiraServer(t *testing.T, tracker *MockTracker) *JiraServer {
	t.Helper()
	s := &JiraServer{Written: make(chan string, 16), tracker: tracker}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/2/issue/{id}", s.get)
	mux.HandleFunc("PUT /rest/api/2/issue/{id}", s.put)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *JiraServer) get(w http.ResponseWriter, r *http.Request) {
	issue, err := s.tracker.GetIssue(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"errorMessages":["Issue does not exist"]}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":  issue.ID,
		"key": issue.Key,
		"fields": map[string]interface{}{
			"summary":     issue.Summary,
			"description": issue.Description,
		},
	})
}

func (s *JiraServer) put(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fields struct {
			Description string `json:"description"`
		} `json:"fields"`
	}
	raw, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.tracker.UpdateDescription(r.Context(), r.PathValue("id"), body.Fields.Description); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.Written <- body.Fields.Description
	w.WriteHeader(http.StatusNoContent)
}
