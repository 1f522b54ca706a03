package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"jumpahead_backend/internal/config"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 多个知识源拼接时的分隔符，提示词里依赖该格式区分来源
const sourceSeparator = "\n\n--- SOURCE SEPARATOR ---\n\n"

const knowledgeCachePrefix = "knowledge:source:"

// KnowledgeService 抓取教师配置的知识源 URL 并拼接成注入提示词的文本。
// Redis 缓存单个源的抓取结果，redis 为 nil 时直接透传（测试场景）
type KnowledgeService struct {
	config config.KnowledgeConfig
	client *http.Client
	redis  *redis.Client
}

func NewKnowledgeService(cfg config.KnowledgeConfig, rdb *redis.Client) *KnowledgeService {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KnowledgeService{
		config: cfg,
		client: &http.Client{Timeout: timeout},
		redis:  rdb,
	}
}

// FetchAll 抓取全部知识源并拼接。失败的源不参与拼接，只计数告警；
// 全部失败时返回空串，调用方照常发起 AI 调用
func (s *KnowledgeService) FetchAll(ctx context.Context, urls []string) string {
	if len(urls) == 0 {
		return ""
	}

	var parts []string
	failed := 0
	for _, url := range urls {
		content, err := s.fetchOne(ctx, url)
		if err != nil {
			failed++
			zap.L().Warn("知识源抓取失败",
				zap.String("url", url),
				zap.Error(err))
			continue
		}
		parts = append(parts, content)
	}

	if failed > 0 {
		zap.L().Warn("部分知识源不可用，AI 上下文不完整",
			zap.Int("failed", failed),
			zap.Int("total", len(urls)))
	}

	return strings.Join(parts, sourceSeparator)
}

func (s *KnowledgeService) fetchOne(ctx context.Context, url string) (string, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, knowledgeCachePrefix+url).Result(); err == nil {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	content := string(body)
	// JSON 响应做缩进美化，便于模型阅读结构
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			content = buf.String()
		}
	}

	if s.redis != nil {
		ttl := s.config.CacheTTL
		if ttl <= 0 {
			ttl = 30 * time.Minute
		}
		s.redis.Set(ctx, knowledgeCachePrefix+url, content, ttl)
	}

	return content, nil
}
