// Package report aggregates per-user campaign statistics and renders PDF
// reports.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cast"

	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/strapi"
)

// API is the subset of the content API client used by the aggregator
type API interface {
	ListAllCampaigns(ctx context.Context, q strapi.Query) ([]map[string]any, error)
}

// Aggregator builds user reports from the content API
type Aggregator struct {
	api    API
	logger *slog.Logger
}

// NewAggregator creates a report aggregator
func NewAggregator(api API, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		api:    api,
		logger: logger.With("component", "report"),
	}
}

// GetUserCampaigns fetches every campaign of userID and aggregates status
// counts and embedded contact group sizes. Records are read as returned by
// the content API, without flattening, and the sentinel group record is
// skipped. Group sizes are summed by name across campaigns, so the same
// contact in two campaigns counts twice.
func (a *Aggregator) GetUserCampaigns(ctx context.Context, userID int64) (models.UserReport, error) {
	records, err := a.api.ListAllCampaigns(ctx, strapi.Query{OwnerID: userID, Populate: "*"})
	if err != nil {
		return models.UserReport{}, fmt.Errorf("failed to fetch campaigns: %w", err)
	}

	report := models.UserReport{
		Campaigns:     make([]models.Campaign, 0, len(records)),
		ContactGroups: []models.GroupCount{},
	}
	groupIndex := make(map[string]int)

	for _, rec := range records {
		c, err := strapi.ParseCampaign(rec)
		if err != nil {
			a.logger.Warn("skipping campaign without id", "user_id", userID, "error", err)
			continue
		}
		if c.IsSentinel() {
			continue
		}
		report.Campaigns = append(report.Campaigns, c)
		countStatus(&report.CampaignStats, cast.ToString(rec["estado"]))

		if c.Groups == nil {
			continue
		}
		for _, g := range c.Groups.Groups {
			n := len(g.Contacts)
			i, ok := groupIndex[g.Name]
			if !ok {
				i = len(report.ContactGroups)
				groupIndex[g.Name] = i
				report.ContactGroups = append(report.ContactGroups, models.GroupCount{Name: g.Name})
			}
			report.ContactGroups[i].ContactCount += n
			report.TotalContacts += n
		}
	}
	report.TotalCampaigns = len(report.Campaigns)

	a.logger.Debug("user report aggregated", "user_id", userID,
		"campaigns", report.TotalCampaigns, "contacts", report.TotalContacts)
	return report, nil
}

// countStatus increments the bucket for status; unknown states are ignored
func countStatus(stats *models.CampaignStats, status string) {
	switch status {
	case models.CampaignStatusDraft:
		stats.Draft++
	case models.CampaignStatusScheduled:
		stats.Scheduled++
	case models.CampaignStatusSent:
		stats.Sent++
	case models.CampaignStatusCancelled:
		stats.Cancelled++
	}
}
