// Package catalog keeps the category list in memory for minimum rate lookups.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blockedby/jobpost/internal/logger"
	"github.com/blockedby/jobpost/internal/models"
)

// DefaultTTL is how long a loaded category list is trusted.
const DefaultTTL = 5 * time.Minute

var (
	ErrNotFound  = errors.New("category not found")
	ErrDuplicate = errors.New("duplicate category id")
)

// Source loads the full category list.
type Source interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// ItemSource is a Source that can also load one category. GetByID returns an
// error matching ErrNotFound for an unknown id.
type ItemSource interface {
	Source
	GetByID(ctx context.Context, id int) (*models.Category, error)
}

// Catalog caches categories from a Source.
type Catalog struct {
	source Source
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time

	mu       sync.RWMutex
	list     []models.Category
	byID     map[int]models.Category
	loadedAt time.Time
}

// New creates a catalog backed by source. ttl <= 0 uses DefaultTTL.
func New(source Source, ttl time.Duration, log *logger.Logger) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Catalog{
		source: source,
		ttl:    ttl,
		log:    logger.OrGlobal(log).Component("catalog"),
		now:    time.Now,
		byID:   make(map[int]models.Category),
	}
}

// Warm loads the category list, replacing whatever is cached.
func (c *Catalog) Warm(ctx context.Context) error {
	list, err := c.source.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	byID := make(map[int]models.Category, len(list))
	for _, cat := range list {
		byID[cat.ID] = cat
	}
	sorted := append([]models.Category(nil), list...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c.mu.Lock()
	c.list = sorted
	c.byID = byID
	c.loadedAt = c.now()
	c.mu.Unlock()

	c.log.Debug().Int("categories", len(sorted)).Msg("category catalog loaded")
	return nil
}

// ListCategories returns the cached list, reloading it once stale. A failed
// reload serves the previous list if there is one.
func (c *Catalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Category(nil), c.list...), nil
}

// Get returns one category. A cache miss asks the source directly, since the
// category may have been added after the last load.
func (c *Catalog) Get(ctx context.Context, id int) (models.Category, error) {
	if err := c.refresh(ctx); err != nil {
		return models.Category{}, err
	}
	if cat, ok := c.cached(id); ok {
		return cat, nil
	}

	items, ok := c.source.(ItemSource)
	if !ok {
		return models.Category{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	cat, err := items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Category{}, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return models.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}

	c.mu.Lock()
	if _, dup := c.byID[cat.ID]; !dup {
		c.byID[cat.ID] = *cat
		c.list = append(c.list, *cat)
		sort.Slice(c.list, func(i, j int) bool { return c.list[i].ID < c.list[j].ID })
	}
	c.mu.Unlock()
	return *cat, nil
}

// MinimumRate returns the minimum rate of a category, reloading a stale list
// first. It is 0 for an unknown category or when nothing could be loaded.
func (c *Catalog) MinimumRate(categoryID int) float64 {
	cat, err := c.Get(context.Background(), categoryID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn().Err(err).Int("category_id", categoryID).Msg("minimum rate lookup failed")
		}
		return 0
	}
	return cat.MinimumRate
}

func (c *Catalog) cached(id int) (models.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.byID[id]
	return cat, ok
}

func (c *Catalog) refresh(ctx context.Context) error {
	c.mu.RLock()
	fresh := !c.loadedAt.IsZero() && c.now().Sub(c.loadedAt) < c.ttl
	loaded := !c.loadedAt.IsZero()
	c.mu.RUnlock()
	if fresh {
		return nil
	}

	if err := c.Warm(ctx); err != nil {
		if loaded {
			c.log.Warn().Err(err).Msg("category reload failed, serving cached list")
			return nil
		}
		return err
	}
	return nil
}

// StaticSource serves a fixed list.
type StaticSource []models.Category

// ListCategories implements Source.
func (s StaticSource) ListCategories(ctx context.Context) ([]models.Category, error) {
	return append([]models.Category(nil), s...), nil
}

type file struct {
	Categories []models.Category `yaml:"categories"`
}

// ParseYAML decodes a category seed file:
//
//	categories:
//	  - id: 1
//	    name: Plumbing
//	    minimum_rate: 500
func ParseYAML(data []byte) ([]models.Category, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	if err := Check(f.Categories); err != nil {
		return nil, err
	}
	return f.Categories, nil
}

// LoadYAML reads and decodes a category seed file.
func LoadYAML(path string) (StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	list, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return StaticSource(list), nil
}

// Check reports the first invalid category.
func Check(list []models.Category) error {
	seen := make(map[int]bool, len(list))
	for i, cat := range list {
		if cat.ID <= 0 {
			return fmt.Errorf("category %d: id must be positive", i)
		}
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("category %d: name is required", cat.ID)
		}
		if cat.MinimumRate < 0 {
			return fmt.Errorf("category %d: minimum_rate must not be negative", cat.ID)
		}
		if seen[cat.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicate, cat.ID)
		}
		seen[cat.ID] = true
	}
	return nil
}
