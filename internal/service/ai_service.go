package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"jumpahead_backend/internal/config"
	"jumpahead_backend/internal/util"
	"jumpahead_backend/pkg/monitoring"
	"net/http"
	"strings"
	"time"
)

// AI 调用用途，用于监控打点
const (
	PurposeSessionOpen  = "session_open"
	PurposeTutorTurn    = "tutor_turn"
	PurposeEvaluate     = "evaluate"
	PurposeMerge        = "merge"
	PurposeAuthor       = "author"
	PurposeAuthorReport = "author_report"
	PurposeFreeChat     = "free_chat"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient 聊天补全客户端。session/module 服务只依赖该接口，
// 测试时注入假实现
type ChatClient interface {
	Chat(ctx context.Context, purpose string, messages []ChatMessage, maxTokens int, temperature float64) (string, error)
}

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
		Delta   ChatMessage `json:"delta"` // 流式响应
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AIService OpenAI兼容的聊天补全服务。实例在 app 初始化时构造一次并注入，
// API Key 只来自服务端配置
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{},
	}
}

func (s *AIService) Chat(ctx context.Context, purpose string, messages []ChatMessage, maxTokens int, temperature float64) (string, error) {
	start := time.Now()
	content, err := s.chat(ctx, messages, maxTokens, temperature)
	monitoring.AICallDuration.WithLabelValues(purpose).Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.AICallCounter.WithLabelValues(purpose, "error").Inc()
		return "", fmt.Errorf("%w: %v", util.ErrAIUnavailable, err)
	}
	monitoring.AICallCounter.WithLabelValues(purpose, "ok").Inc()
	return content, nil
}

func (s *AIService) chat(ctx context.Context, messages []ChatMessage, maxTokens int, temperature float64) (string, error) {
	reqBody := ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if len(result.Choices) > 0 && result.Choices[0].Message.Content != "" {
		return strings.TrimSpace(result.Choices[0].Message.Content), nil
	}

	return "", fmt.Errorf("AI returned no choices")
}

// ChatStream 流式补全，自由对话接口用。返回内容通道和错误通道
func (s *AIService) ChatStream(ctx context.Context, messages []ChatMessage, maxTokens int) (<-chan string, <-chan error) {
	out := make(chan string)
	errChan := make(chan error, 1)

	reqBody := map[string]interface{}{
		"model":      s.config.Model,
		"messages":   messages,
		"max_tokens": maxTokens,
		"stream":     true,
	}

	jsonData, _ := json.Marshal(reqBody)

	go func() {
		defer close(out)
		defer close(errChan)

		req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
		if err != nil {
			errChan <- err
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

		resp, err := s.client.Do(req)
		if err != nil {
			errChan <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			errChan <- fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					errChan <- err
				}
				break
			}

			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				break
			}

			var streamResp ChatCompletionResponse
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				continue
			}

			if len(streamResp.Choices) > 0 {
				content := streamResp.Choices[0].Delta.Content
				if content != "" {
					out <- content
				}
			}
		}
	}()

	return out, errChan
}
