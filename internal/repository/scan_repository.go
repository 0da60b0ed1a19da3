package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/anime-shed/frame-scanner-go/pkg/models"
)

// memoryScanRepository keeps the most recent scans in memory. Once the limit
// is reached the oldest scan is evicted.
type memoryScanRepository struct {
	mu    sync.RWMutex
	limit int
	order []string // oldest first
	scans map[string]*models.ScanResult
}

// NewMemoryScanRepository creates a repository retaining up to limit scans
func NewMemoryScanRepository(limit int) ScanRepository {
	if limit <= 0 {
		limit = 1
	}
	return &memoryScanRepository{
		limit: limit,
		scans: make(map[string]*models.ScanResult, limit),
	}
}

func (r *memoryScanRepository) Save(ctx context.Context, result *models.ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scans[result.ID]; !exists {
		r.order = append(r.order, result.ID)
	}
	r.scans[result.ID] = result

	for len(r.order) > r.limit {
		delete(r.scans, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *memoryScanRepository) Get(ctx context.Context, id string) (*models.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.scans[id]
	if !ok {
		return nil, ErrScanNotFound
	}
	return result, nil
}

func (r *memoryScanRepository) List(ctx context.Context, limit int) ([]*models.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.order)
	if limit > 0 && limit < n {
		n = limit
	}
	results := make([]*models.ScanResult, 0, n)
	for i := len(r.order) - 1; i >= 0 && len(results) < n; i-- {
		results = append(results, r.scans[r.order[i]])
	}
	return results, nil
}
