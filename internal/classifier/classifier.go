package classifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/config"
	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

// Classifier maps event text to a category and confidence.
// Implementations never fail: they degrade to a best-effort result instead.
type Classifier interface {
	Classify(ctx context.Context, title string, description *string) domain.Classification
}

// New selects the external-service strategy when an API key is configured,
// and the keyword strategy otherwise
func New(cfg config.Classifier, log *zap.Logger) Classifier {
	if cfg.APIKey == "" {
		log.Info("Classifier API key not configured, using keyword classifier")
		return NewKeywordClassifier()
	}

	log.Info("Using LLM classifier",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))

	return NewLLMClassifier(cfg, log)
}
