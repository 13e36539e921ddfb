package threat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"crowsnest/pkg/llm"
	"crowsnest/pkg/logging"
)

const defaultAssessTimeout = 20 * time.Second

// Assessor produces a qualitative semantic read of a post. Implementations
// return (nil, err) when unavailable; callers treat a nil assessment as
// "assessor had nothing to say" and fall back to detector signals alone.
type Assessor interface {
	Assess(ctx context.Context, post Post, signals []Signal) (*Assessment, error)
}

const assessorSystemPrompt = `You are a security analyst protecting a public figure from online threats.
Given a social media post and preliminary detector scores, judge how threatening the post is toward the protected person.
Consider coded language, veiled threats, doxxing attempts, impersonation, and coordinated harassment patterns that keyword matching misses.
Respond with ONLY a JSON object, no prose:
{"severity": <0.0-1.0>, "confidence": <0.0-1.0>, "narrative": "<one or two sentences explaining your read>"}`

// LLMAssessor implements Assessor on top of a streaming llm.Provider.
type LLMAssessor struct {
	provider llm.Provider
	subject  string
	timeout  time.Duration
	logger   logging.Logger
}

type LLMAssessorConfig struct {
	Provider llm.Provider
	Subject  string
	Timeout  time.Duration
	Logger   logging.Logger
}

func NewLLMAssessor(cfg LLMAssessorConfig) *LLMAssessor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAssessTimeout
	}
	return &LLMAssessor{
		provider: cfg.Provider,
		subject:  cfg.Subject,
		timeout:  timeout,
		logger:   cfg.Logger,
	}
}

// Assess asks the model for a severity/confidence/narrative judgment of the
// post. The call is bounded by the configured timeout so a stuck provider
// cannot stall a scan cycle.
func (a *LLMAssessor) Assess(ctx context.Context, post Post, signals []Signal) (*Assessment, error) {
	if a.provider == nil {
		return nil, errors.New("LLM provider not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	stream, err := a.provider.Complete(ctx, []llm.Message{
		{Role: "system", Content: assessorSystemPrompt},
		{Role: "user", Content: a.buildPrompt(post, signals)},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("assessor completion: %w", err)
	}
	defer stream.Close()

	var content strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, fmt.Errorf("assessor stream: %w", recvErr)
		}
		content.WriteString(chunk.Content)
	}

	assessment, err := parseAssessment(content.String())
	if err != nil {
		return nil, fmt.Errorf("assessor response: %w", err)
	}
	return assessment, nil
}

func (a *LLMAssessor) buildPrompt(post Post, signals []Signal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Protected person: %s\n\n", a.subject)
	fmt.Fprintf(&b, "Platform: %s\n", post.Platform)
	fmt.Fprintf(&b, "Author: %s\n", post.Author)
	if post.AuthorMeta != nil {
		fmt.Fprintf(&b, "Author account: %d days old, %d followers, verified=%t\n",
			post.AuthorMeta.AccountAgeDays, post.AuthorMeta.FollowerCount, post.AuthorMeta.Verified)
	}
	fmt.Fprintf(&b, "Post content: %s\n\n", post.Content)

	if len(signals) > 0 {
		b.WriteString("Detector scores:\n")
		for _, sig := range signals {
			fmt.Fprintf(&b, "- %s: %.2f (%s)\n", sig.Kind, sig.Score, sig.Evidence)
		}
	}

	return b.String()
}

// parseAssessment extracts the JSON object from the model output, tolerating
// markdown fences and surrounding prose, and clamps numeric fields to [0,1].
func parseAssessment(raw string) (*Assessment, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty response")
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response: %q", truncate(raw, 120))
	}

	var parsed struct {
		Severity   float64 `json:"severity"`
		Confidence float64 `json:"confidence"`
		Narrative  string  `json:"narrative"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}

	return &Assessment{
		Severity:   clamp01(parsed.Severity),
		Confidence: clamp01(parsed.Confidence),
		Narrative:  strings.TrimSpace(parsed.Narrative),
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
