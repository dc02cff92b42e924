package abtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxzi/mailpanel/internal/metrics"
	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/validation"
)

// ErrNotFound is returned when an A/B test does not exist
var ErrNotFound = errors.New("A/B test not found")

// GroupCounter resolves audience sizes from the contact store
type GroupCounter interface {
	CountInGroup(ctx context.Context, name string) (int, error)
}

// Request describes a new A/B test
type Request struct {
	Name         string `json:"name" validate:"required,max=200"`
	CampaignID   int64  `json:"campaignId"`
	CampaignName string `json:"campaignName"`
	GroupA       string `json:"groupA" validate:"required"`
	GroupB       string `json:"groupB" validate:"required"`
	Subject      string `json:"subject"`
	HTMLA        string `json:"emailHtmlA"`
	HTMLB        string `json:"emailHtmlB"`
}

// Service creates A/B tests from contact groups
type Service struct {
	repo    *Repository
	counter GroupCounter
	rng     Rand
	logger  *slog.Logger
}

// NewService creates an A/B test service. rng is shared across callers
// and may be a non-thread-safe source.
func NewService(repo *Repository, counter GroupCounter, rng Rand, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		counter: counter,
		rng:     &lockedRand{rng: rng},
		logger:  logger.With("component", "abtest"),
	}
}

// Repository returns the underlying repository
func (s *Service) Repository() *Repository {
	return s.repo
}

// Simulate draws results for explicit audience sizes without persisting
func (s *Service) Simulate(sentA, sentB int) models.ABTestResults {
	metrics.IncABTestsSimulated()
	return Simulate(s.rng, sentA, sentB)
}

// Create sizes both variants from their contact groups, simulates the
// funnel and persists the test
func (s *Service) Create(ctx context.Context, req Request) (models.ABTest, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return models.ABTest{}, err
	}

	results, err := s.simulateGroups(ctx, req.GroupA, req.GroupB)
	if err != nil {
		return models.ABTest{}, err
	}

	t, err := s.repo.Save(ctx, models.ABTest{
		Name:         req.Name,
		CampaignID:   req.CampaignID,
		CampaignName: req.CampaignName,
		GroupA:       req.GroupA,
		GroupB:       req.GroupB,
		Subject:      req.Subject,
		HTMLA:        req.HTMLA,
		HTMLB:        req.HTMLB,
		Results:      &results,
	})
	if err != nil {
		return models.ABTest{}, err
	}

	s.logger.Info("A/B test created", "id", t.ID, "name", t.Name,
		"sent_a", results.GroupA.Sent, "sent_b", results.GroupB.Sent)
	return t, nil
}

// Rerun redraws the results of test id in place from the current group sizes
func (s *Service) Rerun(ctx context.Context, id string) (models.ABTest, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.ABTest{}, err
	}
	if t == nil {
		return models.ABTest{}, ErrNotFound
	}

	results, err := s.simulateGroups(ctx, t.GroupA, t.GroupB)
	if err != nil {
		return models.ABTest{}, err
	}
	t.Results = &results

	return s.repo.Save(ctx, *t)
}

func (s *Service) simulateGroups(ctx context.Context, groupA, groupB string) (models.ABTestResults, error) {
	sentA, err := s.counter.CountInGroup(ctx, groupA)
	if err != nil {
		return models.ABTestResults{}, fmt.Errorf("failed to count group %q: %w", groupA, err)
	}
	sentB, err := s.counter.CountInGroup(ctx, groupB)
	if err != nil {
		return models.ABTestResults{}, fmt.Errorf("failed to count group %q: %w", groupB, err)
	}
	return s.Simulate(sentA, sentB), nil
}
