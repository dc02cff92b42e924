package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/strapi"
)

type fakeAPI struct {
	records []map[string]any
	err     error
	query   strapi.Query
}

func (f *fakeAPI) ListAllCampaigns(_ context.Context, q strapi.Query) ([]map[string]any, error) {
	f.query = q
	return f.records, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func vipGroup(n int) map[string]any {
	contacts := make([]any, n)
	for i := range contacts {
		contacts[i] = map[string]any{"nombre": "c", "email": "c@example.com"}
	}
	return map[string]any{"grupos": []any{map[string]any{"id": 1, "nombre": "VIP", "contactos": contacts}}}
}

func TestGetUserCampaigns(t *testing.T) {
	api := &fakeAPI{records: []map[string]any{
		{"id": 1, "nombre": "Draft", "estado": "borrador", "gruposdecontactosJSON": vipGroup(3)},
		{"id": 2, "nombre": "Sent", "estado": "enviado", "gruposdecontactosJSON": vipGroup(3)},
	}}
	agg := NewAggregator(api, testLogger())

	report, err := agg.GetUserCampaigns(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetUserCampaigns() error = %v", err)
	}

	if api.query.OwnerID != 5 {
		t.Errorf("OwnerID = %d, want 5", api.query.OwnerID)
	}
	if diff := cmp.Diff(models.CampaignStats{Draft: 1, Sent: 1}, report.CampaignStats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if report.TotalContacts != 6 {
		t.Errorf("TotalContacts = %d, want 6", report.TotalContacts)
	}
	if diff := cmp.Diff([]models.GroupCount{{Name: "VIP", ContactCount: 6}}, report.ContactGroups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if report.TotalCampaigns != 2 {
		t.Errorf("TotalCampaigns = %d, want 2", report.TotalCampaigns)
	}
}

func TestGetUserCampaignsEdgeCases(t *testing.T) {
	api := &fakeAPI{records: []map[string]any{
		{"nombre": "no id", "estado": "enviado", "gruposdecontactosJSON": vipGroup(10)},
		{"id": 1, "estado": "archivado"},
		{"id": 2, "estado": "programado", "gruposdecontactosJSON": `{"grupos":[{"nombre":"Leads","contactos":[{},{}]},{"nombre":"VIP","contactos":[{}]}]}`},
		{"id": 3, "estado": "cancelado", "gruposdecontactosJSON": vipGroup(2)},
		{"id": 4, "nombre": models.SentinelCampaignName, "estado": "borrador", "gruposdecontactosJSON": vipGroup(50)},
	}}
	agg := NewAggregator(api, testLogger())

	report, err := agg.GetUserCampaigns(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetUserCampaigns() error = %v", err)
	}

	if diff := cmp.Diff(models.CampaignStats{Scheduled: 1, Cancelled: 1}, report.CampaignStats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	want := []models.GroupCount{{Name: "Leads", ContactCount: 2}, {Name: "VIP", ContactCount: 3}}
	if diff := cmp.Diff(want, report.ContactGroups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if report.TotalContacts != 5 || report.TotalCampaigns != 3 {
		t.Errorf("totals = %d contacts, %d campaigns", report.TotalContacts, report.TotalCampaigns)
	}
}

func TestGetUserCampaignsError(t *testing.T) {
	upstream := errors.New("boom")
	agg := NewAggregator(&fakeAPI{err: upstream}, testLogger())

	if _, err := agg.GetUserCampaigns(context.Background(), 1); !errors.Is(err, upstream) {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
}
