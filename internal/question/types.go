package question

import "context"

// Difficulty labels sent to the generator.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Source constants recorded on each question.
const (
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
	SourceCurated   = "curated"
	SourceManual    = "manual"
)

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// Question represents the normalized payload delivered to sessions.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  string   `json:"answer,omitempty"` // server-side until revealed
	Source  string   `json:"source"`
}

// Valid reports whether the record satisfies the core invariant:
// exactly four non-empty options with the answer among them.
func (q Question) Valid() bool {
	if q.Prompt == "" || q.Answer == "" || len(q.Options) != OptionCount {
		return false
	}
	found := false
	for _, opt := range q.Options {
		if opt == "" {
			return false
		}
		if opt == q.Answer {
			found = true
		}
	}
	return found
}

// DifficultyLabel maps the 1-100 slider value to a coarse bucket.
func DifficultyLabel(difficulty int) string {
	switch {
	case difficulty < 30:
		return DifficultyEasy
	case difficulty > 70:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// CacheKey composes the cache key for a category/difficulty pair.
func CacheKey(categoryID string, difficulty int) string {
	return categoryID + ":" + DifficultyLabel(difficulty)
}

// GenerateRequest describes one call to the remote text generator.
type GenerateRequest struct {
	CategoryName string
	Difficulty   string
	Count        int
}

// TextGenerator produces the raw delimited-text blob for a request.
// Implemented by ai.Client.
type TextGenerator interface {
	GenerateText(ctx context.Context, req GenerateRequest) (string, error)
}
