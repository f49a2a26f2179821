package sentiment

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"capturemoments/services/errs"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// Oracle scores review text with a polarity in [-1, 1].
type Oracle interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Neutral scores everything 0. Used when no model is configured.
type Neutral struct{}

func (Neutral) Score(context.Context, string) (float64, error) { return 0, nil }

const prompt = `Rate the sentiment of the following photography service review.
Reply with a single decimal number between -1 (very negative) and 1 (very positive) and nothing else.

Review:
%s`

type GeminiOracle struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	limiter *rate.Limiter
}

// NewGeminiOracle creates a Gemini-backed oracle allowing at most perMinute calls.
func NewGeminiOracle(ctx context.Context, apiKey, model string, perMinute int) (*GeminiOracle, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0)
	if perMinute <= 0 {
		perMinute = 60
	}
	return &GeminiOracle{
		client:  client,
		model:   m,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1),
	}, nil
}

func (g *GeminiOracle) Close() error {
	return g.client.Close()
}

func (g *GeminiOracle) Score(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return 0, errs.Unavailable("sentiment oracle", err)
	}
	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(prompt, text)))
	if err != nil {
		return 0, errs.Unavailable("sentiment oracle", fmt.Errorf("gemini generate error: %w", err))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return 0, errs.Unavailable("sentiment oracle", fmt.Errorf("gemini returned no candidates"))
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	score, err := ParseScore(sb.String())
	if err != nil {
		return 0, errs.Unavailable("sentiment oracle", err)
	}
	return score, nil
}

var number = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// ParseScore extracts the first number in a model reply and clamps it to [-1, 1].
func ParseScore(reply string) (float64, error) {
	m := number.FindString(reply)
	if m == "" {
		return 0, fmt.Errorf("no score in reply %q", reply)
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("bad score %q: %w", m, err)
	}
	return math.Max(-1, math.Min(1, v)), nil
}

// Degrading wraps an oracle so that failures score neutral instead of failing
// the caller.
type Degrading struct {
	Oracle Oracle
	Logger *zap.Logger
}

func (d Degrading) Score(ctx context.Context, text string) (float64, error) {
	score, err := d.Oracle.Score(ctx, text)
	if err != nil {
		if d.Logger != nil {
			d.Logger.Warn("sentiment: oracle unavailable, scoring neutral", zap.Error(err))
		}
		return 0, nil
	}
	return score, nil
}
