package campaign

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/store"
	"github.com/foxzi/mailpanel/internal/strapi"
	"github.com/foxzi/mailpanel/internal/validation"
)

type fakeAPI struct {
	pages   map[int][]map[string]any
	listErr error
	created any
	updated any
	records map[int64]map[string]any
	deleted []int64
	calls   int
}

func (f *fakeAPI) ListCampaigns(_ context.Context, q strapi.Query) (*strapi.ListResponse, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	resp := &strapi.ListResponse{Data: f.pages[q.Page]}
	resp.Meta.Pagination = models.Pagination{Page: q.Page, PageSize: q.PageSize, PageCount: len(f.pages)}
	return resp, nil
}

func (f *fakeAPI) GetCampaign(_ context.Context, id int64, _ string) (map[string]any, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, &strapi.APIError{Status: http.StatusNotFound, Message: "Not Found"}
	}
	return rec, nil
}

func (f *fakeAPI) CreateCampaign(_ context.Context, data any) (map[string]any, error) {
	f.created = data
	flat := data.(map[string]any)
	return map[string]any{"id": 100, "attributes": flat}, nil
}

func (f *fakeAPI) UpdateCampaign(_ context.Context, id int64, data any) (map[string]any, error) {
	if _, ok := f.records[id]; !ok {
		return nil, &strapi.APIError{Status: http.StatusNotFound}
	}
	f.updated = data
	return map[string]any{"id": id, "attributes": data}, nil
}

func (f *fakeAPI) DeleteCampaign(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(t *testing.T, api *fakeAPI) *Repository {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "campaigns.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r := New(api, NewStoreCache(db), testLogger())
	r.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func validInput() models.CampaignInput {
	return models.CampaignInput{
		Name:     "Summer",
		Subject:  "Hot deals",
		Contacts: []string{"a@example.com"},
		OwnerID:  5,
	}
}

func TestListUserCampaignsSkipsUnusableRecords(t *testing.T) {
	api := &fakeAPI{pages: map[int][]map[string]any{
		1: {
			{"id": 1, "attributes": map[string]any{"nombre": "Wrapped", "estado": "enviado"}},
			{"id": 2, "nombre": "Flat"},
			{"attributes": map[string]any{"nombre": "No id"}},
			{"id": 9, "attributes": map[string]any{"nombre": models.SentinelCampaignName}},
		},
	}}
	r := newTestRepo(t, api)

	page, err := r.ListUserCampaigns(context.Background(), 5, 1, 25)
	if err != nil {
		t.Fatalf("ListUserCampaigns() error = %v", err)
	}
	if len(page.Campaigns) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(page.Campaigns))
	}
	if page.Campaigns[0].Status != models.CampaignStatusSent || page.Campaigns[1].Status != models.CampaignStatusDraft {
		t.Errorf("unexpected statuses: %q, %q", page.Campaigns[0].Status, page.Campaigns[1].Status)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	r := newTestRepo(t, &fakeAPI{})

	_, err := r.GetCampaign(context.Background(), 9)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCampaignStatus(t *testing.T) {
	tests := []struct {
		name       string
		sendAt     string
		wantStatus string
	}{
		{"no send time", "", models.CampaignStatusDraft},
		{"future send time", "2025-07-01T09:00:00Z", models.CampaignStatusScheduled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			r := newTestRepo(t, api)
			in := validInput()
			in.SendAt = tt.sendAt

			c, err := r.CreateCampaign(context.Background(), in)
			if err != nil {
				t.Fatalf("CreateCampaign() error = %v", err)
			}
			if c.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", c.Status, tt.wantStatus)
			}
			if c.ID != 100 {
				t.Errorf("ID = %d, want 100", c.ID)
			}
		})
	}
}

func TestCreateCampaignRejectsPastSendTime(t *testing.T) {
	api := &fakeAPI{}
	r := newTestRepo(t, api)
	in := validInput()
	in.SendAt = "2025-05-01T09:00:00Z"

	_, err := r.CreateCampaign(context.Background(), in)
	if !errors.Is(err, ErrSendTimeInPast) {
		t.Fatalf("expected ErrSendTimeInPast, got %v", err)
	}
	if !errors.Is(err, validation.ErrValidation) {
		t.Error("expected past send time to be a validation error")
	}
	if api.created != nil {
		t.Error("expected no API call")
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.CampaignInput)
	}{
		{"missing name", func(in *models.CampaignInput) { in.Name = "" }},
		{"missing subject", func(in *models.CampaignInput) { in.Subject = "" }},
		{"no recipients", func(in *models.CampaignInput) { in.Contacts = nil }},
		{"bad email", func(in *models.CampaignInput) { in.Contacts = []string{"nope"} }},
		{"bad send time", func(in *models.CampaignInput) { in.SendAt = "tomorrow" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			r := newTestRepo(t, api)
			in := validInput()
			tt.mutate(&in)

			if _, err := r.CreateCampaign(context.Background(), in); !errors.Is(err, validation.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if api.created != nil {
				t.Error("expected no API call")
			}
		})
	}
}

func TestCreateCampaignMergesGroupEmails(t *testing.T) {
	api := &fakeAPI{}
	r := newTestRepo(t, api)
	in := validInput()
	in.Groups = []models.CampaignGroup{{
		Name: "VIP",
		Contacts: []models.GroupContact{
			{Email: "a@example.com"},
			{Email: "b@example.com"},
		},
	}}

	if _, err := r.CreateCampaign(context.Background(), in); err != nil {
		t.Fatalf("CreateCampaign() error = %v", err)
	}
	payload := api.created.(map[string]any)
	if got := payload["contactos"]; got != "a@example.com,b@example.com" {
		t.Errorf("contactos = %v", got)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	api := &fakeAPI{records: map[int64]map[string]any{3: {"id": 3, "nombre": "Old"}}}
	r := newTestRepo(t, api)
	ctx := context.Background()

	in := validInput()
	in.Name = "New"
	c, err := r.UpdateCampaign(ctx, 3, in)
	if err != nil {
		t.Fatalf("UpdateCampaign() error = %v", err)
	}
	if c.Name != "New" {
		t.Errorf("Name = %q", c.Name)
	}
	if _, err := r.UpdateCampaign(ctx, 4, in); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateCampaign(missing) error = %v, want ErrNotFound", err)
	}

	if err := r.DeleteCampaign(ctx, 3); err != nil {
		t.Fatalf("DeleteCampaign() error = %v", err)
	}
	if len(api.deleted) != 1 || api.deleted[0] != 3 {
		t.Errorf("unexpected deletes: %v", api.deleted)
	}
}

func TestListWithFallback(t *testing.T) {
	api := &fakeAPI{pages: map[int][]map[string]any{
		1: {{"id": 1, "nombre": "One"}, {"id": 2, "nombre": "Two"}},
	}}
	r := newTestRepo(t, api)
	ctx := context.Background()

	fresh, err := r.ListWithFallback(ctx, 5, 1, 25)
	if err != nil {
		t.Fatalf("ListWithFallback() error = %v", err)
	}
	if fresh.Stale || len(fresh.Campaigns) != 2 {
		t.Fatalf("unexpected fresh page: %+v", fresh)
	}

	api.listErr = strapi.ErrUnavailable
	stale, err := r.ListWithFallback(ctx, 5, 1, 1)
	if err != nil {
		t.Fatalf("ListWithFallback() with cache error = %v", err)
	}
	if !stale.Stale {
		t.Error("expected stale page")
	}
	if len(stale.Campaigns) != 1 || stale.Pagination.Total != 2 || stale.Pagination.PageCount != 2 {
		t.Errorf("unexpected stale page: %+v", stale)
	}

	if _, err := r.ListWithFallback(ctx, 6, 1, 25); !errors.Is(err, strapi.ErrUnavailable) {
		t.Errorf("expected original error without cache, got %v", err)
	}
}

func TestListWithFallbackPropagatesClientErrors(t *testing.T) {
	api := &fakeAPI{pages: map[int][]map[string]any{1: {{"id": 1}}}}
	r := newTestRepo(t, api)
	ctx := context.Background()

	if _, err := r.ListWithFallback(ctx, 5, 1, 25); err != nil {
		t.Fatal(err)
	}

	api.listErr = &strapi.APIError{Status: http.StatusUnauthorized}
	_, err := r.ListWithFallback(ctx, 5, 1, 25)
	var apiErr *strapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401 to propagate, got %v", err)
	}
}

func TestPaginate(t *testing.T) {
	all := make([]models.Campaign, 5)
	tests := []struct {
		page, size int
		wantLen    int
		wantCount  int
	}{
		{1, 2, 2, 3},
		{3, 2, 1, 3},
		{4, 2, 0, 3},
		{0, 0, 5, 1},
	}
	for _, tt := range tests {
		p := paginate(all, tt.page, tt.size)
		if len(p.Campaigns) != tt.wantLen || p.Pagination.PageCount != tt.wantCount {
			t.Errorf("paginate(page=%d, size=%d) = %d items, %d pages; want %d, %d",
				tt.page, tt.size, len(p.Campaigns), p.Pagination.PageCount, tt.wantLen, tt.wantCount)
		}
	}
}
