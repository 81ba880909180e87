package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/jobpost/internal/logger"
	"github.com/blockedby/jobpost/internal/models"
)

type countingSource struct {
	list  []models.Category
	err   error
	calls int
}

func (s *countingSource) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

func TestCatalog_CachesWithinTTL(t *testing.T) {
	src := &countingSource{list: []models.Category{
		{ID: 3, Name: "Electrical", MinimumRate: 700},
		{ID: 1, Name: "Plumbing", MinimumRate: 500},
	}}
	c := New(src, time.Minute, logger.Nop())
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	list, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 3, list[1].ID)

	_, err = c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	now = now.Add(2 * time.Minute)
	_, err = c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCatalog_MinimumRate(t *testing.T) {
	c := New(StaticSource{{ID: 2, Name: "Carpentry", MinimumRate: 650}}, 0, logger.Nop())
	assert.Equal(t, 650.0, c.MinimumRate(2), "first lookup loads the list")
	assert.Equal(t, 0.0, c.MinimumRate(99))
}

func TestCatalog_MinimumRateReloadsStaleList(t *testing.T) {
	src := &countingSource{list: []models.Category{{ID: 1, Name: "Plumbing", MinimumRate: 500}}}
	c := New(src, time.Minute, logger.Nop())
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Warm(context.Background()))

	src.list = append(src.list, models.Category{ID: 2, Name: "Electrical", MinimumRate: 50000})
	assert.Equal(t, 0.0, c.MinimumRate(2), "still within ttl")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 50000.0, c.MinimumRate(2))
}

type itemSource struct {
	countingSource
	items map[int]models.Category
	err   error
	gets  int
}

func (s *itemSource) GetByID(ctx context.Context, id int) (*models.Category, error) {
	s.gets++
	if s.err != nil {
		return nil, s.err
	}
	cat, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &cat, nil
}

func TestCatalog_MissFallsBackToSource(t *testing.T) {
	src := &itemSource{
		countingSource: countingSource{list: []models.Category{{ID: 1, Name: "Plumbing", MinimumRate: 500}}},
		items:          map[int]models.Category{4: {ID: 4, Name: "Masonry", MinimumRate: 650}},
	}
	c := New(src, time.Hour, logger.Nop())
	require.NoError(t, c.Warm(context.Background()))

	assert.Equal(t, 650.0, c.MinimumRate(4))
	assert.Equal(t, 650.0, c.MinimumRate(4))
	assert.Equal(t, 1, src.gets, "second lookup is served from the cache")

	list, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 4, list[1].ID)

	_, err = c.Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)

	src.err = errors.New("connection refused")
	_, err = c.Get(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0.0, c.MinimumRate(7))
}

func TestCatalog_Get(t *testing.T) {
	c := New(StaticSource{{ID: 2, Name: "Carpentry"}}, 0, logger.Nop())

	cat, err := c.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Carpentry", cat.Name)

	_, err = c.Get(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_ServesStaleOnReloadFailure(t *testing.T) {
	src := &countingSource{list: []models.Category{{ID: 1, Name: "Plumbing"}}}
	c := New(src, time.Minute, logger.Nop())
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Warm(context.Background()))
	src.err = errors.New("connection refused")
	now = now.Add(time.Hour)

	list, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalog_FirstLoadFailure(t *testing.T) {
	c := New(&countingSource{err: errors.New("boom")}, 0, logger.Nop())
	_, err := c.ListCategories(context.Background())
	assert.ErrorContains(t, err, "load categories")
}

func TestParseYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{
			name: "valid",
			input: `categories:
  - id: 1
    name: Plumbing
    minimum_rate: 500
  - id: 2
    name: Carpentry
`,
			want: 2,
		},
		{name: "empty", input: "", want: 0},
		{name: "bad yaml", input: "categories: [", wantErr: "parse categories"},
		{name: "missing name", input: "categories:\n  - id: 1\n", wantErr: "name is required"},
		{name: "zero id", input: "categories:\n  - name: X\n", wantErr: "id must be positive"},
		{name: "negative rate", input: "categories:\n  - id: 1\n    name: X\n    minimum_rate: -1\n", wantErr: "must not be negative"},
		{name: "duplicate", input: "categories:\n  - id: 1\n    name: X\n  - id: 1\n    name: Y\n", wantErr: "duplicate category id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseYAML([]byte(tt.input))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - id: 7\n    name: Masonry\n    minimum_rate: 800\n"), 0o600))

	src, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, StaticSource{{ID: 7, Name: "Masonry", MinimumRate: 800}}, src)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadYAML_ShippedSeed(t *testing.T) {
	list, err := LoadYAML(filepath.Join("..", "..", "configs", "categories.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, "Plumbing", list[0].Name)
	assert.Equal(t, 500.0, list[0].MinimumRate)
}
