package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blockedby/jobpost/internal/models"
)

// ErrUnknownSuggestionField is returned for a field without a suggestion source.
var ErrUnknownSuggestionField = errors.New("unknown suggestion field")

// suggestion sources rank past values of a field within a category by how
// often they were used
var suggestionQueries = map[models.SuggestionField]string{
	models.SuggestionFieldTitle:       frequencyQuery("title"),
	models.SuggestionFieldDescription: frequencyQuery("description"),
	models.SuggestionFieldDuration:    frequencyQuery("expected_duration"),
	models.SuggestionFieldMaterials: `
		SELECT m.name AS text, COUNT(*) AS frequency
		FROM job_materials m
		JOIN jobs j ON j.id = m.job_id
		WHERE j.category_id = $1
		GROUP BY m.name
		ORDER BY frequency DESC, text ASC
		LIMIT $2`,
}

func frequencyQuery(column string) string {
	return fmt.Sprintf(`
		SELECT %[1]s AS text, COUNT(*) AS frequency
		FROM jobs
		WHERE category_id = $1 AND %[1]s <> ''
		GROUP BY %[1]s
		ORDER BY frequency DESC, text ASC
		LIMIT $2`, column)
}

func suggestionQuery(field models.SuggestionField) (string, error) {
	q, ok := suggestionQueries[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSuggestionField, field)
	}
	return q, nil
}

// SuggestionsRepository derives field suggestions from previously posted jobs.
type SuggestionsRepository struct {
	pool *pgxpool.Pool
}

// NewSuggestionsRepository creates a new suggestions repository
func NewSuggestionsRepository(pool *pgxpool.Pool) *SuggestionsRepository {
	return &SuggestionsRepository{pool: pool}
}

// FetchSuggestions returns the most used values of one field in a category
func (r *SuggestionsRepository) FetchSuggestions(ctx context.Context, req models.SuggestionRequest) (*models.SuggestionResult, error) {
	q, err := suggestionQuery(req.Field)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, q, req.CategoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s suggestions: %w", req.Field, err)
	}
	defer rows.Close()

	res := &models.SuggestionResult{Field: req.Field, Suggestions: []models.Suggestion{}}
	for rows.Next() {
		var s models.Suggestion
		if err := rows.Scan(&s.Text, &s.Frequency); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		res.Suggestions = append(res.Suggestions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}
	return res, nil
}
