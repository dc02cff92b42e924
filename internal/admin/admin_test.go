package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/foxzi/mailpanel/internal/metrics"
	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/strapi"
)

type fakeAPI struct {
	campaigns   []map[string]any
	users       []map[string]any
	campaignErr error
	usersErr    error
}

func (f *fakeAPI) ListAllCampaigns(ctx context.Context, _ strapi.Query) ([]map[string]any, error) {
	return f.campaigns, f.campaignErr
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]map[string]any, error) {
	return f.users, f.usersErr
}

func newTestService(api API) *Service {
	return New(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveOwnerShapes(t *testing.T) {
	tests := []struct {
		name      string
		record    map[string]any
		wantID    int64
		wantShape string
	}{
		{
			name:      "top level",
			record:    map[string]any{"id": 1, "usuario": map[string]any{"id": 10, "username": "a"}},
			wantID:    10,
			wantShape: "top_level",
		},
		{
			name:      "attributes direct",
			record:    map[string]any{"id": 1, "attributes": map[string]any{"usuario": map[string]any{"id": 11}}},
			wantID:    11,
			wantShape: "attributes_direct",
		},
		{
			name: "attributes data wrapped",
			record: map[string]any{"id": 1, "attributes": map[string]any{
				"usuario": map[string]any{"data": map[string]any{"id": 12, "attributes": map[string]any{"username": "c"}}},
			}},
			wantID:    12,
			wantShape: "attributes_data",
		},
		{
			name: "attributes data flat",
			record: map[string]any{"id": 1, "attributes": map[string]any{
				"usuario": map[string]any{"data": map[string]any{"id": 13, "username": "d"}},
			}},
			wantID:    13,
			wantShape: "attributes_data",
		},
		{
			name:   "zero id falls through",
			record: map[string]any{"id": 1, "usuario": map[string]any{"id": 0}},
		},
		{
			name:   "null relation",
			record: map[string]any{"id": 1, "attributes": map[string]any{"usuario": map[string]any{"data": nil}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, shape := resolveOwner(DefaultMatchers, tt.record)
			if got := strapi.RecordID(owner); got != tt.wantID {
				t.Errorf("owner id = %d, want %d", got, tt.wantID)
			}
			if shape != tt.wantShape {
				t.Errorf("shape = %q, want %q", shape, tt.wantShape)
			}
		})
	}
}

func TestReconcileTopLevelOwnerWins(t *testing.T) {
	raw := map[string]any{
		"id":      1,
		"usuario": map[string]any{"id": 7, "username": "direct"},
		"attributes": map[string]any{
			"nombre":  "Conflicting",
			"usuario": map[string]any{"data": map[string]any{"id": 8, "attributes": map[string]any{"username": "wrapped"}}},
		},
	}

	view := newTestService(&fakeAPI{}).Reconcile([]map[string]any{raw}, nil)

	if len(view.Campaigns) != 1 {
		t.Fatalf("expected 1 campaign, got %d", len(view.Campaigns))
	}
	if got := view.Campaigns[0].Owner; got.ID != 7 || got.Username != "direct" {
		t.Errorf("owner = %+v, want id 7 from top level", got)
	}
}

func TestReconcileFlattensWrappedOwners(t *testing.T) {
	wrapped := func(id int, username string) map[string]any {
		return map[string]any{"id": id, "attributes": map[string]any{"username": username, "email": username + "@example.com"}}
	}
	campaigns := []map[string]any{
		{"id": 1, "nombre": "Top", "usuario": wrapped(20, "top")},
		{"id": 2, "attributes": map[string]any{"nombre": "Direct", "usuario": wrapped(21, "direct")}},
	}

	view := newTestService(&fakeAPI{}).Reconcile(campaigns, nil)

	if len(view.Campaigns) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(view.Campaigns))
	}
	want := map[string]int64{"top": 20, "direct": 21}
	for _, c := range view.Campaigns {
		id, ok := want[c.Owner.Username]
		if !ok || c.Owner.ID != id {
			t.Errorf("campaign %q owner = %+v", c.Name, c.Owner)
			continue
		}
		if c.Owner.Email != c.Owner.Username+"@example.com" {
			t.Errorf("campaign %q owner email = %q", c.Name, c.Owner.Email)
		}
	}
}

func TestReconcileFiltersSentinelAndOwnerless(t *testing.T) {
	m := metrics.New()
	metrics.SetGlobal(m)
	t.Cleanup(func() { metrics.SetGlobal(nil) })

	campaigns := []map[string]any{
		{"id": 1, "attributes": map[string]any{
			"nombre":  models.SentinelCampaignName,
			"usuario": map[string]any{"id": 3},
		}},
		{"id": 2, "attributes": map[string]any{"nombre": "Orphan"}},
		{"id": 3, "attributes": map[string]any{
			"nombre":  "Real",
			"usuario": map[string]any{"data": map[string]any{"id": 3, "attributes": map[string]any{"username": "ana"}}},
		}},
	}

	view := newTestService(&fakeAPI{}).Reconcile(campaigns, nil)

	if len(view.Campaigns) != 1 || view.Campaigns[0].Name != "Real" {
		t.Fatalf("unexpected campaigns: %+v", view.Campaigns)
	}
	if view.Stats.TotalCampaigns != 1 {
		t.Errorf("TotalCampaigns = %d, want 1", view.Stats.TotalCampaigns)
	}
	for _, reason := range []string{"sentinel", "ownerless"} {
		var metric dto.Metric
		if err := m.ReconcileDroppedTotal.WithLabelValues(reason).Write(&metric); err != nil {
			t.Fatal(err)
		}
		if got := metric.GetCounter().GetValue(); got != 1 {
			t.Errorf("%s drops = %v, want 1", reason, got)
		}
	}
}

func TestReconcileOwnerDefaults(t *testing.T) {
	before := time.Now()
	view := newTestService(&fakeAPI{}).Reconcile([]map[string]any{
		{"id": 1, "nombre": "A", "usuario": map[string]any{"id": 4}},
	}, nil)

	owner := view.Campaigns[0].Owner
	if owner.Provider != "local" || !owner.Confirmed || owner.Blocked || owner.Role != models.RoleAuthenticated {
		t.Errorf("unexpected defaults: %+v", owner)
	}
	if owner.CreatedAt.Before(before) || owner.UpdatedAt.Before(before) {
		t.Errorf("expected timestamps to default to now: %+v", owner)
	}
}

func TestReconcileUsersAndStats(t *testing.T) {
	users := []map[string]any{
		{"id": 1, "username": "ana", "email": "ana@example.com", "role": map[string]any{"type": "authenticated"}},
		{"id": 2, "username": "luis"},
	}
	campaigns := []map[string]any{
		{"id": 10, "nombre": "A", "usuario": map[string]any{"id": 1}, "interaccion_destinatario": map[string]any{
			"ana@example,com":  map[string]any{"opens": 3, "clicks": 1, "dinero_gastado": "10.5", "se_registro_en_pagina": true},
			"luis@example,com": map[string]any{"opens": 1, "clicks": 0, "dinero_gastado": 0, "se_registro_en_pagina": false},
		}},
		{"id": 11, "nombre": "B", "usuario": map[string]any{"id": 1}, "interaccion_destinatario": map[string]any{
			"x@example,com": map[string]any{"opens": 2, "clicks": 2, "dinero_gastado": 4.5, "se_registro_en_pagina": true},
		}},
		{"id": 12, "nombre": "C", "usuario": map[string]any{"id": 9, "username": "inline"}},
	}

	view := newTestService(&fakeAPI{}).Reconcile(campaigns, users)

	want := models.FleetStats{
		TotalCampaigns:     3,
		TotalUsers:         2,
		TotalOpens:         6,
		TotalClicks:        3,
		TotalRegistrations: 2,
		TotalRevenue:       15,
	}
	if view.Stats != want {
		t.Errorf("Stats = %+v, want %+v", view.Stats, want)
	}

	m := view.Campaigns[0].Metrics
	if m.Opens != 4 || m.Clicks != 1 || m.Registrations != 1 || m.Revenue != 10.5 {
		t.Errorf("unexpected campaign metrics: %+v", m)
	}
	if view.Campaigns[0].Owner.Email != "ana@example.com" {
		t.Errorf("expected owner enriched from users list, got %+v", view.Campaigns[0].Owner)
	}

	if len(view.Users) != 3 {
		t.Fatalf("expected inline owner appended to users, got %d users", len(view.Users))
	}
	if view.Users[2].ID != 9 || view.Users[2].Username != "inline" {
		t.Errorf("unexpected appended user: %+v", view.Users[2])
	}
}

func TestLoadFleetView(t *testing.T) {
	api := &fakeAPI{
		campaigns: []map[string]any{{"id": 1, "nombre": "A", "usuario": map[string]any{"id": 1}}},
		users:     []map[string]any{{"id": 1, "username": "ana"}},
	}

	view, err := newTestService(api).LoadFleetView(context.Background())
	if err != nil {
		t.Fatalf("LoadFleetView() error = %v", err)
	}
	if len(view.Campaigns) != 1 || len(view.Users) != 1 {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestLoadFleetViewError(t *testing.T) {
	upstream := errors.New("users down")
	api := &fakeAPI{usersErr: upstream}

	if _, err := newTestService(api).LoadFleetView(context.Background()); !errors.Is(err, upstream) {
		t.Errorf("expected users error, got %v", err)
	}
}
