package service

import (
	"context"
	"jumpahead_backend/internal/config"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func configKnowledge() config.KnowledgeConfig {
	return config.KnowledgeConfig{
		FetchTimeout: 2 * time.Second,
		CacheTTL:     time.Minute,
	}
}

func TestFetchAllJoinsSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			w.Write([]byte("source A content"))
		case "/b":
			w.Write([]byte("source B content"))
		}
	}))
	defer srv.Close()

	svc := NewKnowledgeService(configKnowledge(), nil)
	got := svc.FetchAll(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"})

	assert.Equal(t, "source A content\n\n--- SOURCE SEPARATOR ---\n\nsource B content", got)
}

func TestFetchAllEmptyList(t *testing.T) {
	svc := NewKnowledgeService(configKnowledge(), nil)
	assert.Empty(t, svc.FetchAll(context.Background(), nil))
}

func TestFetchAllPrettyPrintsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"topic":"photosynthesis","level":2}`))
	}))
	defer srv.Close()

	svc := NewKnowledgeService(configKnowledge(), nil)
	got := svc.FetchAll(context.Background(), []string{srv.URL})

	assert.Contains(t, got, "{\n  \"topic\": \"photosynthesis\",\n  \"level\": 2\n}")
}

func TestFetchAllSkipsFailedSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("good content"))
	}))
	defer srv.Close()

	svc := NewKnowledgeService(configKnowledge(), nil)
	got := svc.FetchAll(context.Background(), []string{srv.URL + "/bad", srv.URL + "/good"})

	// 失败的源不产生占位文本，也不参与拼接
	assert.Equal(t, "good content", got)
	assert.NotContains(t, got, "SOURCE SEPARATOR")
}

func TestFetchAllTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte("too slow"))
	}))
	defer srv.Close()

	cfg := config.KnowledgeConfig{FetchTimeout: 50 * time.Millisecond, CacheTTL: time.Minute}
	svc := NewKnowledgeService(cfg, nil)
	got := svc.FetchAll(context.Background(), []string{srv.URL})

	assert.Empty(t, got)
}

func TestFetchAllAllFailed(t *testing.T) {
	svc := NewKnowledgeService(configKnowledge(), nil)
	got := svc.FetchAll(context.Background(), []string{"http://127.0.0.1:1/nope"})
	assert.Empty(t, got)
}
