package classifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

type keywordRule struct {
	category domain.Category
	pattern  *regexp.Regexp
}

// keywordRules are evaluated in order; the first match wins
var keywordRules = []keywordRule{
	{
		category: domain.CategoryWork,
		pattern:  regexp.MustCompile(`(meeting|standup|call|work|office|client|project|review|interview|conference|presentation)`),
	},
	{
		category: domain.CategoryExercise,
		pattern:  regexp.MustCompile(`(gym|workout|exercise|run|yoga|fitness|sport|training|cycling|swimming|basketball|football|soccer|tennis|baseball|volleyball|hockey)`),
	},
	{
		category: domain.CategorySocial,
		pattern:  regexp.MustCompile(`(dinner|lunch|coffee|party|social|friends|family|birthday|wedding|date)`),
	},
	{
		category: domain.CategoryRest,
		pattern:  regexp.MustCompile(`(break|rest|sleep|relax|vacation|holiday|personal|medical|doctor|appointment)`),
	},
}

// KeywordClassifier matches event text against fixed keyword sets
type KeywordClassifier struct{}

// NewKeywordClassifier creates a new keyword classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements Classifier
func (k *KeywordClassifier) Classify(_ context.Context, title string, description *string) domain.Classification {
	return classifyKeywords(title, description)
}

func classifyKeywords(title string, description *string) domain.Classification {
	text := strings.ToLower(eventText(title, description))

	for _, rule := range keywordRules {
		if rule.pattern.MatchString(text) {
			return domain.Classification{Category: rule.category, Confidence: domain.ConfidenceMedium}
		}
	}

	return domain.Classification{Category: domain.CategoryOther, Confidence: domain.ConfidenceLow}
}

func eventText(title string, description *string) string {
	if description == nil {
		return title + " "
	}
	return title + " " + *description
}
