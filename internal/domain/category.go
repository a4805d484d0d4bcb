package domain

// Category is the fixed set of labels an event can be classified into
type Category string

const (
	CategoryWork     Category = "work"
	CategoryExercise Category = "exercise"
	CategorySocial   Category = "social"
	CategoryRest     Category = "rest"
	CategoryOther    Category = "other"
)

// Categories lists every category in classification priority order
var Categories = []Category{
	CategoryWork,
	CategoryExercise,
	CategorySocial,
	CategoryRest,
	CategoryOther,
}

// ParseCategory maps a raw label onto the closed category set.
// Unknown or empty labels resolve to CategoryOther with ok=false.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryWork, CategoryExercise, CategorySocial, CategoryRest, CategoryOther:
		return c, true
	default:
		return CategoryOther, false
	}
}

// Color returns the chart colour associated with the category
func (c Category) Color() string {
	switch c {
	case CategoryWork:
		return "#3b82f6"
	case CategoryExercise:
		return "#10b981"
	case CategorySocial:
		return "#8b5cf6"
	case CategoryRest:
		return "#06b6d4"
	default:
		return "#f59e0b"
	}
}

// Confidence is the qualitative certainty attached to a classification
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence maps a raw label onto the closed confidence set
func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(s); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, true
	default:
		return "", false
	}
}

// Classification is the result of categorizing an event's text
type Classification struct {
	Category   Category   `json:"category" example:"work"`
	Confidence Confidence `json:"confidence" example:"medium"`
}
