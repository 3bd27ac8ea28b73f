// Package ai wraps the generative-model content detector. The engine only
// consumes the returned verdict; invocation mechanics stay here at the
// boundary.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/metrics"
	"github.com/trusthire/backend/internal/storage/models"
	"github.com/trusthire/backend/pkg/circuitbreaker"
	"github.com/trusthire/backend/pkg/retry"
)

const maxTextLength = 6000

// aiPhrases are boilerplate constructions heavily over-represented in
// generated resumes; the count feeds the rationale, not the score.
var aiPhrases = []string{
	"results-driven", "proven track record", "dynamic professional",
	"leveraged cutting-edge", "spearheaded initiatives", "passionate about",
	"seamlessly integrated", "fast-paced environment", "synergy",
}

const detectionSystemPrompt = `You are a writing forensics assistant. Analyze resume content and determine if it was likely AI-generated.

Consider these factors:
- Repetitiveness and generic phrasing
- Overuse of power verbs and buzzwords
- Unnatural consistency in tone
- Lack of concrete, specific details
- Generic job descriptions without specific achievements

Respond with ONLY a JSON object in this exact format:
{"ai_likelihood": 0.75, "rationale": "Brief explanation of your analysis"}

Where ai_likelihood is between 0 (definitely human-written) and 1 (definitely AI-generated).`

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Logger      *zap.Logger
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	logger      *zap.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	cb := circuitbreaker.NewCircuitBreaker("ai-detector", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           cfg.Logger,
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         cfg.Logger,
	}

	cfg.Logger.Info("AI detector initialized", zap.String("model", cfg.Model))

	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		cb:          cb,
		retryConfig: retryConfig,
		logger:      cfg.Logger,
	}
}

// Detect never fails the caller: when the model is unreachable or returns
// garbage, the verdict degrades to a neutral fallback that says so.
func (c *Client) Detect(ctx context.Context, text string) *models.AiDetection {
	if len(text) > maxTextLength {
		text = truncateRunes(text, maxTextLength)
		c.logger.Warn("detector input truncated", zap.Int("limit", maxTextLength))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var verdict *models.AiDetection
	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       c.model,
				Temperature: c.temperature,
				MaxTokens:   c.maxTokens,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: detectionSystemPrompt},
					{Role: openai.ChatMessageRoleUser, Content: text},
				},
			})
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}
			verdict, err = c.parseVerdict(resp.Choices[0].Message.Content)
			return err
		})
	})
	if err != nil {
		metrics.DetectorCalls.WithLabelValues("fallback").Inc()
		c.logger.Error("AI detection failed, using neutral fallback", zap.Error(err))
		return c.fallback()
	}

	if phrases := countAIPhrases(text); phrases > 0 {
		verdict.Rationale = fmt.Sprintf("%s (%d AI-typical phrases present)", verdict.Rationale, phrases)
	}

	metrics.DetectorCalls.WithLabelValues("ok").Inc()
	c.logger.Info("AI detection completed",
		zap.Bool("is_ai_generated", verdict.IsAIGenerated),
		zap.Int("confidence", verdict.Confidence),
	)
	return verdict
}

type detectionVerdict struct {
	AILikelihood float64 `json:"ai_likelihood"`
	Rationale    string  `json:"rationale"`
}

func (c *Client) parseVerdict(content string) (*models.AiDetection, error) {
	// Models occasionally wrap the JSON in prose or fences; take the
	// outermost object.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in detector response")
	}

	var v detectionVerdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("failed to parse detector response: %w", err)
	}
	if v.AILikelihood < 0 || v.AILikelihood > 1 {
		return nil, fmt.Errorf("detector likelihood %.2f out of range", v.AILikelihood)
	}

	confidence := int(v.AILikelihood * 100)
	isAI := v.AILikelihood >= 0.5
	if !isAI {
		confidence = 100 - confidence
	}
	return &models.AiDetection{
		IsAIGenerated: isAI,
		Confidence:    confidence,
		Model:         c.model,
		Rationale:     v.Rationale,
	}, nil
}

func (c *Client) fallback() *models.AiDetection {
	return &models.AiDetection{
		IsAIGenerated: false,
		Confidence:    50,
		Model:         c.model,
		Rationale:     "AI detection unavailable; neutral verdict applied",
	}
}

// truncateRunes cuts text to at most limit bytes without splitting a
// multi-byte rune, so the model never receives invalid UTF-8.
func truncateRunes(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

func countAIPhrases(text string) int {
	low := strings.ToLower(text)
	n := 0
	for _, phrase := range aiPhrases {
		if strings.Contains(low, phrase) {
			n++
		}
	}
	return n
}
