package service

import (
	"context"
	"jumpahead_backend/internal/config"
	"jumpahead_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSendsServerSideCredential(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hello there  "}}]}`))
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{
		BaseURL: srv.URL,
		APIKey:  "server-side-key",
		Model:   "gpt-4o",
	})

	reply, err := svc.Chat(context.Background(), PurposeFreeChat, []ChatMessage{
		{Role: "user", Content: "hi"},
	}, 100, 0.7)
	require.NoError(t, err)

	assert.Equal(t, "hello there", reply)
	assert.Equal(t, "Bearer server-side-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
}

func TestChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o"})

	_, err := svc.Chat(context.Background(), PurposeFreeChat, []ChatMessage{{Role: "user", Content: "hi"}}, 100, 0.7)
	assert.ErrorIs(t, err, util.ErrAIUnavailable)
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o"})

	_, err := svc.Chat(context.Background(), PurposeFreeChat, []ChatMessage{{Role: "user", Content: "hi"}}, 100, 0.7)
	assert.ErrorIs(t, err, util.ErrAIUnavailable)
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o"})

	stream, errChan := svc.ChatStream(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, 100)

	var got string
	for chunk := range stream {
		got += chunk
	}
	require.NoError(t, <-errChan)
	assert.Equal(t, "Hello", got)
}
