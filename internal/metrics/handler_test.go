package metrics

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewEndpointAllowedIPs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New()

	tests := []struct {
		name       string
		allowedIPs []string
		wantCount  int
	}{
		{"empty list", nil, 0},
		{"single IP", []string{"192.168.1.1"}, 1},
		{"CIDR notation", []string{"192.168.0.0/16", "10.0.0.0/8"}, 2},
		{"with invalid", []string{"192.168.1.1", "invalid", "10.0.0.1"}, 2},
		{"IPv6", []string{"::1", "fe80::/10"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEndpoint(m, tt.allowedIPs, logger)
			if len(e.allowedIPs) != tt.wantCount {
				t.Errorf("expected %d allowed networks, got %d", tt.wantCount, len(e.allowedIPs))
			}
		})
	}
}

func TestEndpointFiltering(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New()
	m.ABTestsSimulatedTotal.Inc()

	e := NewEndpoint(m, []string{"10.0.0.0/8", "::1"}, logger)

	tests := []struct {
		remoteAddr string
		wantStatus int
	}{
		{"10.1.2.3:5555", http.StatusOK},
		{"[::1]:5555", http.StatusOK},
		{"192.168.1.1:5555", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/metrics", nil)
			req.RemoteAddr = tt.remoteAddr
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(rec.Body.String(), "mailpanel_abtests_simulated_total") {
				t.Error("expected metrics output to contain mailpanel_abtests_simulated_total")
			}
		})
	}
}

func TestEndpointNoFilter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewEndpoint(New(), nil, logger)

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
