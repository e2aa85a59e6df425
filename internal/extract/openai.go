package extract

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Cache stores extraction results between requests.
type Cache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Options configure the OpenAI-backed extractor.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   float64
	Burst       int
	CacheTTL    time.Duration
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = openai.GPT3Dot5Turbo
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = 3 * time.Second
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 3
	}
	if o.Burst <= 0 {
		o.Burst = 5
	}
	return o
}

// OpenAIExtractor extracts criteria with a chat completion call.
type OpenAIExtractor struct {
	api     *openai.Client
	limiter *rate.Limiter
	cache   Cache
	opts    Options
}

var _ Extractor = (*OpenAIExtractor)(nil)

// NewOpenAI creates an extractor. cache may be nil.
func NewOpenAI(opts Options, cache Cache) *OpenAIExtractor {
	opts = opts.withDefaults()

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIExtractor{
		api:     openai.NewClientWithConfig(cfg),
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
		cache:   cache,
		opts:    opts,
	}
}

// Extract returns the criteria found in text. Cached results are reused for
// messages that normalize to the same key.
func (e *OpenAIExtractor) Extract(ctx context.Context, text string) (Result, error) {
	key := "extract:" + NormalizeMessage(text)

	if e.cache != nil {
		var cached Result
		found, err := e.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Printf("Error reading extraction cache: %v", err)
		} else if found {
			log.Printf("Using cached extraction for %q", key)
			return cached, nil
		}
	}

	content, err := e.complete(ctx, BuildPrompt(text))
	if err != nil {
		return Result{}, err
	}

	res, err := ParseResponse(content)
	if err != nil {
		log.Printf("Failed to parse model reply: %v", err)
		return Result{}, err
	}

	if e.cache != nil {
		if err := e.cache.SetJSON(ctx, key, res, e.opts.CacheTTL); err != nil {
			log.Printf("Error writing extraction cache: %v", err)
		}
	}
	return res, nil
}

func (e *OpenAIExtractor) complete(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()

	var resp openai.ChatCompletionResponse
	var err error

	for attempt := 1; attempt <= e.opts.MaxRetries; attempt++ {
		if err = e.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}

		attemptCtx, attemptCancel := context.WithTimeout(ctx, e.opts.Timeout)
		resp, err = e.api.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model: e.opts.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You extract a location, a service type and a preferred language from messages written by people looking for social services.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: e.opts.Temperature,
		})
		attemptCancel()

		if err == nil && len(resp.Choices) > 0 {
			break
		}
		if err == nil {
			err = ErrNoChoices
		}

		log.Printf("OpenAI API attempt %d failed: %v", attempt, err)

		if attempt < e.opts.MaxRetries {
			backoff := time.Duration(attempt) * e.opts.RetryDelay
			if e.opts.RetryDelay > 0 {
				backoff += time.Duration(rand.Int63n(int64(e.opts.RetryDelay)))
			}
			log.Printf("Retrying in %v...", backoff)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	if err != nil {
		return "", fmt.Errorf("OpenAI API error after %d attempts: %w", e.opts.MaxRetries, err)
	}

	log.Printf("Time taken to get response from OpenAI: %v", time.Since(startTime))
	return resp.Choices[0].Message.Content, nil
}
