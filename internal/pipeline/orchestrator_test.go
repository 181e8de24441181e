package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/store"
)

type fakeSession struct {
	alive  bool
	closed bool
}

func (f *fakeSession) IsAlive() bool { return f.alive }
func (f *fakeSession) Close()        { f.closed = true }

func testConfig() *config.Config {
	return &config.Config{CityBatchSize: 2, PhaseAttempts: 3}
}

func noSleep(o *Orchestrator) *Orchestrator {
	o.sleep = func(time.Duration) {}
	return o
}

func recordingPhase(label string, calls *[]string) PhaseFunc {
	return func(_ context.Context, _ Session, city string) (int, error) {
		*calls = append(*calls, label+":"+city)
		return 1, nil
	}
}

func TestRun_BatchOrdering(t *testing.T) {
	var calls []string
	factory := func() (Session, error) { return &fakeSession{alive: true}, nil }
	o := noSleep(New(testConfig(), factory,
		recordingPhase("p1", &calls), recordingPhase("p2", &calls)))

	require.NoError(t, o.Run(context.Background(), []string{"A", "B", "C"}))

	// Listing runs for the whole batch before enrichment starts, and the
	// short final batch still gets both phases.
	assert.Equal(t, []string{
		"p1:A", "p1:B", "p2:A", "p2:B",
		"p1:C", "p2:C",
	}, calls)
}

func TestRun_RetriesThenGivesUpOnCity(t *testing.T) {
	var calls []string
	factory := func() (Session, error) { return &fakeSession{alive: true}, nil }

	boom := errors.New("scroll wedged")
	phase1 := func(_ context.Context, _ Session, city string) (int, error) {
		calls = append(calls, "p1:"+city)
		if city == "A" {
			return 0, boom
		}
		return 1, nil
	}
	o := noSleep(New(testConfig(), factory, phase1, recordingPhase("p2", &calls)))

	require.NoError(t, o.Run(context.Background(), []string{"A", "B"}))

	// A burns all three attempts, then the run moves on to B and phase 2.
	assert.Equal(t, []string{
		"p1:A", "p1:A", "p1:A", "p1:B",
		"p2:A", "p2:B",
	}, calls)
}

func TestRun_ReplacesDeadSession(t *testing.T) {
	dead := &fakeSession{alive: false}
	live := &fakeSession{alive: true}
	sessions := []Session{dead, live}
	launched := 0
	factory := func() (Session, error) {
		s := sessions[launched]
		launched++
		return s, nil
	}

	var used []Session
	phase := func(_ context.Context, s Session, _ string) (int, error) {
		used = append(used, s)
		return 1, nil
	}
	o := noSleep(New(testConfig(), factory, phase, phase))

	require.NoError(t, o.Run(context.Background(), []string{"A"}))

	assert.Equal(t, 2, launched)
	assert.True(t, dead.closed)
	for _, s := range used {
		assert.Same(t, live, s)
	}
}

func TestRun_PhaseErrorReplacesSession(t *testing.T) {
	launched := 0
	factory := func() (Session, error) {
		launched++
		return &fakeSession{alive: true}, nil
	}

	failures := 0
	phase1 := func(context.Context, Session, string) (int, error) {
		if failures < 1 {
			failures++
			return 0, errors.New("browser crashed mid-city")
		}
		return 1, nil
	}
	var calls []string
	o := noSleep(New(testConfig(), factory, phase1, recordingPhase("p2", &calls)))

	require.NoError(t, o.Run(context.Background(), []string{"A"}))
	assert.Equal(t, 2, launched)
}

// A dead browser that cannot be replaced burns the city's full attempt
// budget without ever invoking a phase, then the run moves on.
func TestRun_ReplacementFailureExhaustsBudget(t *testing.T) {
	launched := 0
	factory := func() (Session, error) {
		launched++
		if launched == 1 {
			return &fakeSession{alive: false}, nil
		}
		return nil, errors.New("chrome spawn failed")
	}

	var calls []string
	o := noSleep(New(testConfig(), factory,
		recordingPhase("p1", &calls), recordingPhase("p2", &calls)))

	require.NoError(t, o.Run(context.Background(), []string{"A"}))

	assert.Empty(t, calls)
	// Initial launch plus one relaunch try per attempt per phase.
	assert.Equal(t, 1+2*3, launched)
}

func TestRun_ContextCancelStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	factory := func() (Session, error) { return &fakeSession{alive: true}, nil }
	phase := func(context.Context, Session, string) (int, error) {
		cancel()
		return 1, nil
	}
	o := noSleep(New(testConfig(), factory, phase, phase))

	err := o.Run(ctx, []string{"A", "B", "C", "D"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_OnCityDoneHook(t *testing.T) {
	var done []string
	factory := func() (Session, error) { return &fakeSession{alive: true}, nil }
	var calls []string
	o := noSleep(New(testConfig(), factory,
		recordingPhase("p1", &calls), recordingPhase("p2", &calls)))
	o.OnCityDone = func(city string, phase store.Phase) {
		done = append(done, city+"/"+string(phase))
	}

	require.NoError(t, o.Run(context.Background(), []string{"A"}))
	assert.Equal(t, []string{"A/phase1", "A/phase2"}, done)
}

func TestBatches(t *testing.T) {
	got := Batches([]string{"a", "b", "c", "d", "e"}, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, got)

	assert.Nil(t, Batches(nil, 2))
	assert.Equal(t, [][]string{{"a"}}, Batches([]string{"a"}, 0))
}
