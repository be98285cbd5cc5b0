package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cs-simulator/internal/models"

	"github.com/stretchr/testify/require"
)

func TestChatTranslatesToUpstreamContract(t *testing.T) {
	var captured map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/ai/chat", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(models.ChatResponse{Response: "Sure, here is how returns work."})
	}))
	defer upstream.Close()

	svc := NewAIService(upstream.URL)
	resp, err := svc.Chat(context.Background(), models.ChatRequest{
		Message:        "How do I return an item?",
		ProjectID:      "p1",
		ConversationID: "c1",
		Role:           "customer",
		ModelID:        "gpt-4o-mini",
		Guidelines:     "be polite",
		ConversationHistory: []models.HistoryEntry{
			{Role: "user", Content: "hi"},
		},
		UserID: "u-42",
	})
	require.NoError(t, err)
	require.Equal(t, "Sure, here is how returns work.", resp.Response)

	// The upstream contract is snake_case.
	require.Equal(t, "p1", captured["project_id"])
	require.Equal(t, "c1", captured["conversation_id"])
	require.Equal(t, "gpt-4o-mini", captured["model_id"])
	require.Equal(t, "u-42", captured["user_id"])
	history, ok := captured["conversation_history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)
}

func TestChatGuestSendsNullUserAndDefaultModel(t *testing.T) {
	var captured map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(models.ChatResponse{Response: "ok"})
	}))
	defer upstream.Close()

	svc := NewAIService(upstream.URL)
	_, err := svc.Chat(context.Background(), models.ChatRequest{
		Message:        "hello",
		ProjectID:      "p1",
		ConversationID: "c1",
		Role:           "customer",
	})
	require.NoError(t, err)
	require.Nil(t, captured["user_id"], "guest identity is an explicit null")
	require.Equal(t, models.DefaultSelectedModel, captured["model_id"])
}

func TestUpstreamErrorCarriesDetailAndStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": "model_id is required"}`))
	}))
	defer upstream.Close()

	svc := NewAIService(upstream.URL)
	_, err := svc.Chat(context.Background(), models.ChatRequest{Message: "x"})
	require.Error(t, err)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	require.Equal(t, http.StatusUnprocessableEntity, upErr.Status)
	require.Equal(t, "model_id is required", upErr.Message)
}

func TestUploadFileBuildsMultipartForm(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/ai/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "p1", r.FormValue("project_id"))
		require.Equal(t, "50", r.FormValue("embed_percentage"))
		require.Equal(t, "u-42", r.FormValue("user_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "faq.txt", header.Filename)

		json.NewEncoder(w).Encode(models.FileUploadResponse{Success: true, FileID: "emb-1", ChunksCount: 4})
	}))
	defer upstream.Close()

	svc := NewAIService(upstream.URL)
	resp, err := svc.UploadFile(context.Background(), strings.NewReader("q: how?\na: like so"), "faq.txt", "p1", 50, "u-42")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "emb-1", resp.FileID)
}

func TestSearchDefaultsTopK(t *testing.T) {
	var captured map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/ai/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(models.SearchResponse{Results: []string{"chunk"}})
	}))
	defer upstream.Close()

	svc := NewAIService(upstream.URL)
	resp, err := svc.Search(context.Background(), models.SearchRequest{Query: "returns", ProjectID: "p1"})
	require.NoError(t, err)
	require.Equal(t, []string{"chunk"}, resp.Results)
	require.Equal(t, float64(3), captured["top_k"])
}

func TestHealthDegradesWhenUnreachable(t *testing.T) {
	svc := NewAIService("http://127.0.0.1:1")
	resp := svc.Health(context.Background())
	require.Equal(t, "unhealthy", resp.Status)
	require.NotEmpty(t, resp.Error)
}

func TestOllamaModelsDegradesToEmptyList(t *testing.T) {
	svc := NewAIService("http://127.0.0.1:1")
	resp := svc.OllamaModels(context.Background())
	require.NotNil(t, resp.Models)
	require.Empty(t, resp.Models)
	require.NotEmpty(t, resp.Error)
}

func TestDeleteProjectFiles(t *testing.T) {
	var called bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/ai/project/p1/files", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	svc := NewAIService(upstream.URL)
	require.NoError(t, svc.DeleteProjectFiles(context.Background(), "p1"))
	require.True(t, called)
}
