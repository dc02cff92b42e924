// Package campaign provides user-scoped access to campaign records in the
// content API.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/strapi"
	"github.com/foxzi/mailpanel/internal/validation"
)

// populateAll asks the content API to embed every relation
const populateAll = "*"

var (
	// ErrNotFound is returned when a campaign does not exist
	ErrNotFound = errors.New("campaign not found")

	// ErrSendTimeInPast rejects a scheduled send time that already passed.
	// It also matches validation.ErrValidation.
	ErrSendTimeInPast = &validation.Error{Message: "send time is in the past"}
)

// API is the subset of the content API client used by the repository
type API interface {
	ListCampaigns(ctx context.Context, q strapi.Query) (*strapi.ListResponse, error)
	GetCampaign(ctx context.Context, id int64, populate string) (map[string]any, error)
	CreateCampaign(ctx context.Context, data any) (map[string]any, error)
	UpdateCampaign(ctx context.Context, id int64, data any) (map[string]any, error)
	DeleteCampaign(ctx context.Context, id int64) error
}

// Repository reads and writes campaigns
type Repository struct {
	api    API
	cache  Cache
	logger *slog.Logger
	now    func() time.Time
}

// New creates a campaign repository. cache may be nil to disable the
// offline fallback.
func New(api API, cache Cache, logger *slog.Logger) *Repository {
	return &Repository{
		api:    api,
		cache:  cache,
		logger: logger.With("component", "campaign"),
		now:    time.Now,
	}
}

// ListUserCampaigns returns one page of the campaigns owned by userID. The
// sentinel group record is left out; pagination is passed through as is.
func (r *Repository) ListUserCampaigns(ctx context.Context, userID int64, page, pageSize int) (*models.CampaignPage, error) {
	resp, err := r.api.ListCampaigns(ctx, strapi.Query{
		OwnerID:  userID,
		Page:     page,
		PageSize: pageSize,
		Populate: populateAll,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	return &models.CampaignPage{
		Campaigns:  r.parseAll(resp.Data),
		Pagination: resp.Meta.Pagination,
	}, nil
}

// GetCampaign returns a campaign by id
func (r *Repository) GetCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	rec, err := r.api.GetCampaign(ctx, id, populateAll)
	if err != nil {
		return nil, wrapNotFound(err, "failed to get campaign")
	}
	return r.parseOne(rec)
}

// CreateCampaign validates in and creates the campaign
func (r *Repository) CreateCampaign(ctx context.Context, in models.CampaignInput) (*models.Campaign, error) {
	payload, err := r.payload(in)
	if err != nil {
		return nil, err
	}

	rec, err := r.api.CreateCampaign(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	c, err := r.parseOne(rec)
	if err != nil {
		return nil, err
	}
	r.logger.Info("campaign created", "id", c.ID, "status", c.Status)
	return c, nil
}

// UpdateCampaign replaces the editable fields of campaign id
func (r *Repository) UpdateCampaign(ctx context.Context, id int64, in models.CampaignInput) (*models.Campaign, error) {
	payload, err := r.payload(in)
	if err != nil {
		return nil, err
	}

	rec, err := r.api.UpdateCampaign(ctx, id, payload)
	if err != nil {
		return nil, wrapNotFound(err, "failed to update campaign")
	}
	return r.parseOne(rec)
}

// DeleteCampaign deletes campaign id
func (r *Repository) DeleteCampaign(ctx context.Context, id int64) error {
	if err := r.api.DeleteCampaign(ctx, id); err != nil {
		return wrapNotFound(err, "failed to delete campaign")
	}
	r.logger.Info("campaign deleted", "id", id)
	return nil
}

// payload validates in and builds the write body. A future send time
// schedules the campaign; no send time keeps it a draft.
func (r *Repository) payload(in models.CampaignInput) (map[string]any, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	status := models.CampaignStatusDraft
	if in.SendAt != "" {
		at, err := time.Parse(time.RFC3339, in.SendAt)
		if err != nil {
			return nil, validation.Errorf("Fechas must be an RFC 3339 timestamp")
		}
		if !at.After(r.now()) {
			return nil, ErrSendTimeInPast
		}
		status = models.CampaignStatusScheduled
	}

	data := map[string]any{
		"nombre":        in.Name,
		"asunto":        in.Subject,
		"contenidoHTML": in.HTML,
		"estado":        status,
		"contactos":     joinEmails(in),
		"usuario":       in.OwnerID,
		"gruposdecontactosJSON": models.ContactGroups{
			Groups: nonNil(in.Groups),
		},
	}
	if in.SendAt != "" {
		data["Fechas"] = in.SendAt
	}
	return data, nil
}

// joinEmails merges explicit recipients with the emails of every embedded
// group, first occurrence wins
func joinEmails(in models.CampaignInput) string {
	var emails []string
	add := func(e string) {
		e = strings.TrimSpace(e)
		if e != "" && !slices.Contains(emails, e) {
			emails = append(emails, e)
		}
	}
	for _, e := range in.Contacts {
		add(e)
	}
	for _, g := range in.Groups {
		for _, c := range g.Contacts {
			add(c.Email)
		}
	}
	return strings.Join(emails, ",")
}

func nonNil(groups []models.CampaignGroup) []models.CampaignGroup {
	if groups == nil {
		return []models.CampaignGroup{}
	}
	return groups
}

func (r *Repository) parseAll(records []map[string]any) []models.Campaign {
	out := make([]models.Campaign, 0, len(records))
	for _, rec := range records {
		c, err := strapi.ParseCampaign(strapi.ExtractFlat(rec))
		if err != nil {
			r.logger.Warn("skipping campaign record", "error", err)
			continue
		}
		if c.IsSentinel() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *Repository) parseOne(rec map[string]any) (*models.Campaign, error) {
	if rec == nil {
		return nil, ErrNotFound
	}
	c, err := strapi.ParseCampaign(strapi.ExtractFlat(rec))
	if err != nil {
		return nil, fmt.Errorf("invalid campaign record: %w", err)
	}
	return &c, nil
}

func wrapNotFound(err error, msg string) error {
	var apiErr *strapi.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
