package models

// Category is a specialization a job can require.
type Category struct {
	ID          int     `json:"id" yaml:"id" db:"id"`
	Name        string  `json:"name" yaml:"name" db:"name"`
	MinimumRate float64 `json:"minimum_rate" yaml:"minimum_rate" db:"minimum_rate"`
}

// WalletBalance is a client's wallet as reported by the wallet service.
type WalletBalance struct {
	Available float64 `json:"available"`
	Reserved  float64 `json:"reserved"`
}

// PredictionRequest asks the price prediction service for a price range.
type PredictionRequest struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	CategoryID      int             `json:"category_id"`
	Urgency         Urgency         `json:"urgency,omitempty"`
	SkillLevel      SkillLevel      `json:"skill_level,omitempty"`
	JobScope        JobScope        `json:"job_scope,omitempty"`
	WorkEnvironment WorkEnvironment `json:"work_environment,omitempty"`
}

// Prediction is the price prediction service's answer.
type Prediction struct {
	MinPrice       float64 `json:"min_price"`
	SuggestedPrice float64 `json:"suggested_price"`
	MaxPrice       float64 `json:"max_price"`
	Confidence     float64 `json:"confidence"`
	Source         string  `json:"source"`
}

// SuggestionField names a draft field that has suggestions.
type SuggestionField string

// SuggestionField constants.
const (
	SuggestionFieldTitle       SuggestionField = "title"
	SuggestionFieldDescription SuggestionField = "description"
	SuggestionFieldMaterials   SuggestionField = "materials"
	SuggestionFieldDuration    SuggestionField = "duration"
)

// SuggestionFields lists the suggestion fields in fetch order.
var SuggestionFields = []SuggestionField{
	SuggestionFieldTitle,
	SuggestionFieldDescription,
	SuggestionFieldMaterials,
	SuggestionFieldDuration,
}

// SuggestionRequest asks for suggestions for one field within a category.
type SuggestionRequest struct {
	CategoryID int             `json:"category_id"`
	Field      SuggestionField `json:"field"`
	Limit      int             `json:"limit"`
}

// Suggestion is one suggested value and how often it was used.
type Suggestion struct {
	Text      string `json:"text"`
	Frequency int    `json:"frequency"`
}

// SuggestionResult is the suggestion service's answer for one field.
type SuggestionResult struct {
	Field       SuggestionField `json:"field"`
	Suggestions []Suggestion    `json:"suggestions"`
}
