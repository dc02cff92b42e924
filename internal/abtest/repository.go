package abtest

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/store"
)

// Repository persists A/B tests in the local store
type Repository struct {
	tests *store.Collection[models.ABTest]
	now   func() time.Time
}

// NewRepository creates an A/B test repository on db
func NewRepository(db *store.DB) *Repository {
	return &Repository{
		tests: store.NewCollection[models.ABTest](db, store.KeyABTests),
		now:   time.Now,
	}
}

// Save upserts t by id. A missing id gets a time-ordered UUID and a missing
// date gets the current time.
func (r *Repository) Save(ctx context.Context, t models.ABTest) (models.ABTest, error) {
	if t.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return models.ABTest{}, fmt.Errorf("failed to generate id: %w", err)
		}
		t.ID = id.String()
	}
	if t.Date == "" {
		t.Date = r.now().UTC().Format(time.RFC3339)
	}

	err := r.tests.Modify(ctx, func(list []models.ABTest) ([]models.ABTest, error) {
		if i := indexOf(list, t.ID); i >= 0 {
			list[i] = t
			return list, nil
		}
		return append(list, t), nil
	})
	if err != nil {
		return models.ABTest{}, fmt.Errorf("failed to save A/B test: %w", err)
	}
	return t, nil
}

// Remove deletes the test with id and reports whether one was removed
func (r *Repository) Remove(ctx context.Context, id string) (bool, error) {
	removed := false
	err := r.tests.Modify(ctx, func(list []models.ABTest) ([]models.ABTest, error) {
		if i := indexOf(list, id); i >= 0 {
			removed = true
			return slices.Delete(list, i, i+1), nil
		}
		return list, nil
	})
	return removed, err
}

// GetByID returns the test with id, or nil when absent
func (r *Repository) GetByID(ctx context.Context, id string) (*models.ABTest, error) {
	list, err := r.tests.Load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(list, id); i >= 0 {
		return &list[i], nil
	}
	return nil, nil
}

// List returns every stored test
func (r *Repository) List(ctx context.Context) ([]models.ABTest, error) {
	return r.tests.Load(ctx)
}

func indexOf(list []models.ABTest, id string) int {
	return slices.IndexFunc(list, func(t models.ABTest) bool { return t.ID == id })
}
