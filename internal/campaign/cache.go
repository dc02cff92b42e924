package campaign

import (
	"context"
	"errors"
	"net/http"

	"github.com/foxzi/mailpanel/internal/metrics"
	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/store"
	"github.com/foxzi/mailpanel/internal/strapi"
)

// Cache keeps the last known campaign list of each user
type Cache interface {
	Put(ctx context.Context, userID int64, campaigns []models.Campaign) error
	Get(ctx context.Context, userID int64) ([]models.Campaign, error)
}

// StoreCache is a Cache on the local store, one key per user
type StoreCache struct {
	db *store.DB
}

// NewStoreCache creates a cache on db
func NewStoreCache(db *store.DB) *StoreCache {
	return &StoreCache{db: db}
}

// Put upserts campaigns by id into the user's cached list
func (c *StoreCache) Put(ctx context.Context, userID int64, campaigns []models.Campaign) error {
	col := store.NewCollection[models.Campaign](c.db, store.CampaignCacheKey(userID))
	return col.Modify(ctx, func(cached []models.Campaign) ([]models.Campaign, error) {
		index := make(map[int64]int, len(cached))
		for i, cc := range cached {
			index[cc.ID] = i
		}
		for _, cc := range campaigns {
			if i, ok := index[cc.ID]; ok {
				cached[i] = cc
				continue
			}
			index[cc.ID] = len(cached)
			cached = append(cached, cc)
		}
		return cached, nil
	})
}

// Get returns the user's cached list
func (c *StoreCache) Get(ctx context.Context, userID int64) ([]models.Campaign, error) {
	return store.NewCollection[models.Campaign](c.db, store.CampaignCacheKey(userID)).Load(ctx)
}

// ListWithFallback lists a page and caches it. When the content API is
// unreachable the cached list is paged locally and returned marked stale;
// without a cache the original error is returned.
func (r *Repository) ListWithFallback(ctx context.Context, userID int64, page, pageSize int) (*models.CampaignPage, error) {
	result, err := r.ListUserCampaigns(ctx, userID, page, pageSize)
	if err == nil {
		if r.cache != nil {
			if cerr := r.cache.Put(ctx, userID, result.Campaigns); cerr != nil {
				r.logger.Warn("failed to cache campaigns", "user_id", userID, "error", cerr)
			}
		}
		return result, nil
	}

	if r.cache == nil || !isUpstreamFailure(err) {
		return nil, err
	}
	cached, cerr := r.cache.Get(ctx, userID)
	if cerr != nil || len(cached) == 0 {
		return nil, err
	}

	metrics.IncCacheFallback("campaigns")
	r.logger.Warn("content API unavailable, serving cached campaigns",
		"user_id", userID, "cached", len(cached), "error", err)

	stale := paginate(cached, page, pageSize)
	stale.Stale = true
	return stale, nil
}

// isUpstreamFailure reports whether err means the content API could not
// serve the request, as opposed to rejecting it
func isUpstreamFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *strapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

func paginate(all []models.Campaign, page, pageSize int) *models.CampaignPage {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = strapi.DefaultPageSize
	}

	total := len(all)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return &models.CampaignPage{
		Campaigns: all[start:end],
		Pagination: models.Pagination{
			Page:      page,
			PageSize:  pageSize,
			PageCount: (total + pageSize - 1) / pageSize,
			Total:     total,
		},
	}
}

var _ Cache = (*StoreCache)(nil)
