package site

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/ratelimit"
	"github.com/lead-makers/mapleads/internal/store"
)

type stubLeadStore struct {
	store.LeadStore
	candidates []store.Candidate
}

func (s *stubLeadStore) EnrichmentCandidates(context.Context, string) ([]store.Candidate, error) {
	return s.candidates, nil
}

type stubProgressStore struct {
	completed map[string]bool
	started   []string
	marked    []string
}

func key(city string, phase store.Phase) string { return city + "/" + string(phase) }

func (s *stubProgressStore) MarkStarted(_ context.Context, city string, phase store.Phase) error {
	s.started = append(s.started, key(city, phase))
	return nil
}

func (s *stubProgressStore) MarkCompleted(_ context.Context, city string, phase store.Phase) error {
	s.marked = append(s.marked, key(city, phase))
	return nil
}

func (s *stubProgressStore) IsCompleted(_ context.Context, city string, phase store.Phase) (bool, error) {
	return s.completed[key(city, phase)], nil
}

func (s *stubProgressStore) Snapshot(context.Context) ([]store.ProgressRecord, error) {
	return nil, nil
}

func TestPhase2_SkipsCompletedCityWithoutBrowser(t *testing.T) {
	progress := &stubProgressStore{completed: map[string]bool{
		key("Topeka", store.PhaseEnrichment): true,
	}}
	p := NewPhase2(&config.Config{}, &stubLeadStore{}, progress, ratelimit.NewDomainLimiter(1, 1))

	n, err := p.Run(context.Background(), nil, "Topeka")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, progress.started)
}

// Zero candidates is a legitimate completion: the city has no websites worth
// visiting, so the phase finishes without a browser.
func TestPhase2_NoCandidatesCompletesImmediately(t *testing.T) {
	progress := &stubProgressStore{completed: map[string]bool{}}
	p := NewPhase2(&config.Config{}, &stubLeadStore{}, progress, ratelimit.NewDomainLimiter(1, 1))

	n, err := p.Run(context.Background(), nil, "Reno")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{key("Reno", store.PhaseEnrichment)}, progress.marked)
}
