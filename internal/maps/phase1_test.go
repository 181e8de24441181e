package maps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/store"
)

// fakeLeadStore records calls without a database. insertErr fails inserts of
// specific business names to simulate persistence trouble mid-city.
type fakeLeadStore struct {
	leads     map[store.LeadKey]store.Lead
	perCity   map[string]int
	inserted  int
	insertErr map[string]error
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{
		leads:     make(map[store.LeadKey]store.Lead),
		perCity:   make(map[string]int),
		insertErr: make(map[string]error),
	}
}

func (f *fakeLeadStore) Insert(_ context.Context, lead store.Lead) (bool, error) {
	if err := f.insertErr[lead.Name]; err != nil {
		return false, err
	}
	key := lead.Key()
	if _, ok := f.leads[key]; ok {
		return false, nil
	}
	f.leads[key] = lead
	f.perCity[lead.City]++
	f.inserted++
	return true, nil
}

func (f *fakeLeadStore) UpdateEnrichment(context.Context, string, string, store.Enrichment) (bool, error) {
	return false, nil
}

func (f *fakeLeadStore) EnrichmentCandidates(context.Context, string) ([]store.Candidate, error) {
	return nil, nil
}

func (f *fakeLeadStore) ExistingKeys(context.Context) (map[store.LeadKey]struct{}, error) {
	keys := make(map[store.LeadKey]struct{}, len(f.leads))
	for k := range f.leads {
		keys[k] = struct{}{}
	}
	return keys, nil
}

func (f *fakeLeadStore) CountForCity(_ context.Context, city string) (int, error) {
	return f.perCity[city], nil
}

func (f *fakeLeadStore) List(context.Context) ([]store.Lead, error) { return nil, nil }

func (f *fakeLeadStore) Stats(context.Context) (*store.Stats, error) { return &store.Stats{}, nil }

// fakeProgressStore is an in-memory resumption ledger.
type fakeProgressStore struct {
	started   map[string]bool
	completed map[string]bool
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{started: make(map[string]bool), completed: make(map[string]bool)}
}

func progressKey(city string, phase store.Phase) string { return city + "/" + string(phase) }

func (f *fakeProgressStore) MarkStarted(_ context.Context, city string, phase store.Phase) error {
	f.started[progressKey(city, phase)] = true
	return nil
}

func (f *fakeProgressStore) MarkCompleted(_ context.Context, city string, phase store.Phase) error {
	f.completed[progressKey(city, phase)] = true
	return nil
}

func (f *fakeProgressStore) IsCompleted(_ context.Context, city string, phase store.Phase) (bool, error) {
	return f.completed[progressKey(city, phase)], nil
}

func (f *fakeProgressStore) Snapshot(context.Context) ([]store.ProgressRecord, error) {
	return nil, nil
}

// A completed city must be skipped before any browser interaction, so a nil
// session is safe here.
func TestPhase1_SkipsCompletedCityWithoutBrowser(t *testing.T) {
	leads := newFakeLeadStore()
	progress := newFakeProgressStore()
	require.NoError(t, progress.MarkCompleted(context.Background(), "Topeka", store.PhaseListing))

	p := NewPhase1(&config.Config{MaxLeadsPerCity: 200}, leads, progress)
	n, err := p.Run(context.Background(), nil, "Topeka")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, leads.inserted)
	assert.False(t, progress.started[progressKey("Topeka", store.PhaseListing)])
}

// A city already at its lead cap is marked completed without touching the
// browser.
func TestPhase1_AtCapMarksCompletedWithoutBrowser(t *testing.T) {
	leads := newFakeLeadStore()
	progress := newFakeProgressStore()
	leads.perCity["Reno"] = 2

	p := NewPhase1(&config.Config{MaxLeadsPerCity: 2}, leads, progress)
	n, err := p.Run(context.Background(), nil, "Reno")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, progress.completed[progressKey("Reno", store.PhaseListing)])
}

func TestJitterWithinBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := jitter(800e6, 2000e6)
		assert.GreaterOrEqual(t, int64(d), int64(800e6))
		assert.Less(t, int64(d), int64(2000e6))
	}
	assert.Equal(t, int64(5), int64(jitter(5, 5)))
}
