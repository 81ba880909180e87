package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/blockedby/jobpost/internal/logger"
	"github.com/blockedby/jobpost/internal/models"
)

// SourceLLM marks predictions produced by the model.
const SourceLLM = "llm"

// ErrBadPrediction is returned when the model answer is not a usable range.
var ErrBadPrediction = errors.New("unusable price prediction")

// CategoryNames resolves category ids for the prompt.
type CategoryNames interface {
	Get(ctx context.Context, id int) (models.Category, error)
}

// Predictor asks the model for a price range.
type Predictor struct {
	client     *Client
	prompt     PromptConfig
	limiter    *RateLimiter
	categories CategoryNames
	log        *logger.Logger
}

// NewPredictor creates a predictor. prompt nil uses DefaultPricePrompt;
// limiter nil uses DefaultRateLimiter; categories may be nil.
func NewPredictor(client *Client, prompt *PromptConfig, limiter *RateLimiter, categories CategoryNames, log *logger.Logger) *Predictor {
	p := DefaultPricePrompt
	if prompt != nil {
		p = *prompt
	}
	if limiter == nil {
		limiter = DefaultRateLimiter()
	}
	return &Predictor{
		client:     client,
		prompt:     p,
		limiter:    limiter,
		categories: categories,
		log:        logger.OrGlobal(log).Component("llm"),
	}
}

// Predict implements prediction.Predictor.
func (p *Predictor) Predict(ctx context.Context, req models.PredictionRequest) (*models.Prediction, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	content, err := p.client.CompleteJSON(ctx, p.prompt.System, p.prompt.BuildUserPrompt(p.vars(ctx, req)))
	if err != nil {
		if d, limited := retryAfter(err); limited {
			p.log.Warn().Dur("backoff", d).Msg("prediction backend rate limited")
			p.limiter.Backoff(d)
		}
		return nil, err
	}

	pred, err := ParsePrediction(content)
	if err != nil {
		p.log.Debug().Str("content", content).Msg("model returned an unusable prediction")
		return nil, err
	}
	return pred, nil
}

func (p *Predictor) vars(ctx context.Context, req models.PredictionRequest) map[string]string {
	category := strconv.Itoa(req.CategoryID)
	if p.categories != nil {
		if c, err := p.categories.Get(ctx, req.CategoryID); err == nil {
			category = c.Name
		}
	}
	return map[string]string{
		"CATEGORY":         category,
		"TITLE":            req.Title,
		"DESCRIPTION":      req.Description,
		"URGENCY":          string(req.Urgency),
		"SKILL_LEVEL":      string(req.SkillLevel),
		"JOB_SCOPE":        string(req.JobScope),
		"WORK_ENVIRONMENT": string(req.WorkEnvironment),
	}
}

type rawPrediction struct {
	MinPrice       *float64 `json:"min_price"`
	SuggestedPrice *float64 `json:"suggested_price"`
	MaxPrice       *float64 `json:"max_price"`
	Confidence     float64  `json:"confidence"`
}

// ParsePrediction decodes a model answer. Text around the JSON object, such
// as a markdown fence, is ignored.
func ParsePrediction(content string) (*models.Prediction, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no json object", ErrBadPrediction)
	}

	var raw rawPrediction
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPrediction, err)
	}
	if raw.MinPrice == nil || raw.SuggestedPrice == nil || raw.MaxPrice == nil {
		return nil, fmt.Errorf("%w: missing price", ErrBadPrediction)
	}

	lo, mid, hi := *raw.MinPrice, *raw.SuggestedPrice, *raw.MaxPrice
	if lo <= 0 || !(lo <= mid && mid <= hi) {
		return nil, fmt.Errorf("%w: range %.2f/%.2f/%.2f", ErrBadPrediction, lo, mid, hi)
	}

	return &models.Prediction{
		MinPrice:       lo,
		SuggestedPrice: mid,
		MaxPrice:       hi,
		Confidence:     math.Max(0, math.Min(1, raw.Confidence)),
		Source:         SourceLLM,
	}, nil
}
