// Package admin reconciles campaigns and users into the fleet-wide view.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/foxzi/mailpanel/internal/metrics"
	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/strapi"
)

// Drop reasons, also used as metric labels
const (
	dropSentinel  = "sentinel"
	dropOwnerless = "ownerless"
	dropNoID      = "no_id"
)

// API is the subset of the content API client used by the admin view
type API interface {
	ListAllCampaigns(ctx context.Context, q strapi.Query) ([]map[string]any, error)
	ListUsers(ctx context.Context) ([]map[string]any, error)
}

// Service builds the fleet view
type Service struct {
	api      API
	matchers []OwnerMatcher
	logger   *slog.Logger
}

// New creates an admin service using DefaultMatchers
func New(api API, logger *slog.Logger) *Service {
	return &Service{
		api:      api,
		matchers: DefaultMatchers,
		logger:   logger.With("component", "admin"),
	}
}

// LoadFleetView fetches every user and campaign concurrently and joins them
func (s *Service) LoadFleetView(ctx context.Context) (models.FleetView, error) {
	var rawCampaigns, rawUsers []map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rawCampaigns, err = s.api.ListAllCampaigns(gctx, strapi.Query{Populate: "*"})
		if err != nil {
			return fmt.Errorf("failed to fetch campaigns: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rawUsers, err = s.api.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.FleetView{}, err
	}

	return s.Reconcile(rawCampaigns, rawUsers), nil
}

// Reconcile joins raw campaigns with raw users. Sentinel and ownerless
// campaigns are dropped before the stats are computed.
func (s *Service) Reconcile(rawCampaigns, rawUsers []map[string]any) models.FleetView {
	users := make([]models.User, 0, len(rawUsers))
	userIndex := make(map[int64]int, len(rawUsers))
	for _, raw := range rawUsers {
		u := strapi.ParseUser(strapi.ExtractFlat(raw), true)
		if u.ID == 0 {
			continue
		}
		if _, dup := userIndex[u.ID]; dup {
			continue
		}
		userIndex[u.ID] = len(users)
		users = append(users, u)
	}

	campaigns := make([]models.AdminCampaign, 0, len(rawCampaigns))
	for _, raw := range rawCampaigns {
		c, err := strapi.ParseCampaign(strapi.ExtractFlat(raw))
		if err != nil {
			s.drop(dropNoID, raw)
			continue
		}
		if c.IsSentinel() {
			s.drop(dropSentinel, raw)
			continue
		}

		ownerRec, shape := resolveOwner(s.matchers, raw)
		if ownerRec == nil {
			s.drop(dropOwnerless, raw)
			continue
		}

		owner := strapi.ParseUser(ownerRec, true)
		if i, ok := userIndex[owner.ID]; ok {
			owner = users[i]
		} else {
			userIndex[owner.ID] = len(users)
			users = append(users, owner)
		}
		s.logger.Debug("campaign owner resolved", "campaign_id", c.ID, "owner_id", owner.ID, "shape", shape)

		c.Owner = nil
		campaigns = append(campaigns, models.AdminCampaign{
			Campaign: c,
			Owner:    owner,
			Metrics:  rollup(c.Interactions),
		})
	}

	return models.FleetView{
		Campaigns: campaigns,
		Users:     users,
		Stats:     fleetStats(campaigns),
	}
}

func (s *Service) drop(reason string, raw map[string]any) {
	metrics.IncReconcileDropped(reason)
	s.logger.Debug("campaign excluded from fleet view", "reason", reason, "campaign_id", strapi.RecordID(raw))
}

// rollup sums engagement across every recipient entry
func rollup(interactions map[string]*models.Interaction) models.CampaignMetrics {
	var m models.CampaignMetrics
	for _, in := range interactions {
		if in == nil {
			continue
		}
		m.Opens += in.Opens
		m.Clicks += in.Clicks
		m.Revenue += in.Spent
		if in.Registered {
			m.Registrations++
		}
	}
	return m
}

func fleetStats(campaigns []models.AdminCampaign) models.FleetStats {
	owners := make(map[int64]struct{})
	stats := models.FleetStats{TotalCampaigns: len(campaigns)}
	for _, c := range campaigns {
		owners[c.Owner.ID] = struct{}{}
		stats.TotalOpens += c.Metrics.Opens
		stats.TotalClicks += c.Metrics.Clicks
		stats.TotalRegistrations += c.Metrics.Registrations
		stats.TotalRevenue += c.Metrics.Revenue
	}
	stats.TotalUsers = len(owners)
	return stats
}
