package metrics

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Endpoint serves the registry over HTTP, optionally restricted to a set of
// networks. It expects RemoteAddr to already carry the real client address.
type Endpoint struct {
	handler    http.Handler
	logger     *slog.Logger
	allowedIPs []*net.IPNet
}

// NewEndpoint creates the metrics endpoint. Invalid entries in allowedIPs are
// logged and skipped; an empty list allows everyone.
func NewEndpoint(m *Metrics, allowedIPs []string, logger *slog.Logger) *Endpoint {
	e := &Endpoint{
		handler: promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{EnableOpenMetrics: true}),
		logger:  logger,
	}

	for _, entry := range allowedIPs {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if ipNet := parseNetwork(entry); ipNet != nil {
			e.allowedIPs = append(e.allowedIPs, ipNet)
			continue
		}
		logger.Warn("invalid entry in metrics allowed_ips", "entry", entry)
	}

	return e
}

func parseNetwork(s string) *net.IPNet {
	if strings.Contains(s, "/") {
		_, ipNet, err := net.ParseCIDR(s)
		if err != nil {
			return nil
		}
		return ipNet
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil
	}
	bits := 128
	if ip.To4() != nil {
		bits = 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}
}

func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(e.allowedIPs) > 0 && !e.allowed(clientIP(r)) {
		e.logger.Warn("metrics access denied", "remote_addr", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	e.handler.ServeHTTP(w, r)
}

func (e *Endpoint) allowed(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range e.allowedIPs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return net.ParseIP(r.RemoteAddr)
	}
	return net.ParseIP(host)
}
