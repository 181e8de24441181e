package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-makers/mapleads/internal/store"
)

type fakeLeadStore struct {
	store.LeadStore
	leads []store.Lead
	stats store.Stats
}

func (f *fakeLeadStore) List(context.Context) ([]store.Lead, error) { return f.leads, nil }
func (f *fakeLeadStore) Stats(context.Context) (*store.Stats, error) {
	return &f.stats, nil
}

type fakeProgressStore struct {
	store.ProgressStore
	records []store.ProgressRecord
}

func (f *fakeProgressStore) Snapshot(context.Context) ([]store.ProgressRecord, error) {
	return f.records, nil
}

type fakeController struct {
	running  bool
	startErr error
	stopErr  error
	started  [][]string
}

func (f *fakeController) Start(bin string, args ...string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	f.started = append(f.started, append([]string{bin}, args...))
	return nil
}

func (f *fakeController) Stop() error {
	if f.stopErr != nil {
		return f.stopErr
	}
	f.running = false
	return nil
}

func (f *fakeController) Status() (bool, int, time.Time) {
	if !f.running {
		return false, 0, time.Time{}
	}
	return true, 4242, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T, leads *fakeLeadStore, ctl *fakeController) *httptest.Server {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "mapleads.log")
	srv := NewServer(leads, &fakeProgressStore{
		records: []store.ProgressRecord{{City: "Reno", Phase: store.PhaseListing, Status: store.StatusCompleted}},
	}, ctl, "mapleads", []string{"run"}, logFile)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestHandleLeads(t *testing.T) {
	leads := &fakeLeadStore{leads: []store.Lead{
		{City: "Reno", Name: "Desert Detail", Website: "https://desertdetail.com"},
	}}
	ts := newTestServer(t, leads, &fakeController{})

	resp, err := http.Get(ts.URL + "/leads")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got []store.Lead
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Desert Detail", got[0].Name)
}

func TestHandleLeads_EmptyIsArrayNotNull(t *testing.T) {
	ts := newTestServer(t, &fakeLeadStore{}, &fakeController{})

	resp, err := http.Get(ts.URL + "/leads")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []store.Lead
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHandleStats(t *testing.T) {
	ts := newTestServer(t, &fakeLeadStore{stats: store.Stats{TotalLeads: 7, Cities: 2}}, &fakeController{})

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got store.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 7, got.TotalLeads)
	assert.Equal(t, 2, got.Cities)
}

func TestHandleProgress(t *testing.T) {
	ts := newTestServer(t, &fakeLeadStore{}, &fakeController{})

	resp, err := http.Get(ts.URL + "/progress")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []store.ProgressRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Reno", got[0].City)
}

func TestScraperStart(t *testing.T) {
	ctl := &fakeController{}
	ts := newTestServer(t, &fakeLeadStore{}, ctl)

	resp, err := http.Post(ts.URL+"/scraper/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, ctl.started, 1)
	assert.Equal(t, []string{"mapleads", "run"}, ctl.started[0])
}

func TestScraperStart_ConflictWhenRunning(t *testing.T) {
	ctl := &fakeController{startErr: ErrAlreadyRunning}
	ts := newTestServer(t, &fakeLeadStore{}, ctl)

	resp, err := http.Post(ts.URL+"/scraper/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestScraperStop_ConflictWhenIdle(t *testing.T) {
	ctl := &fakeController{stopErr: ErrNotRunning}
	ts := newTestServer(t, &fakeLeadStore{}, ctl)

	resp, err := http.Post(ts.URL+"/scraper/stop", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestScraperStatus(t *testing.T) {
	ctl := &fakeController{running: true}
	ts := newTestServer(t, &fakeLeadStore{}, ctl)

	resp, err := http.Get(ts.URL + "/scraper/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, true, got["running"])
	assert.Equal(t, float64(4242), got["pid"])
}

func TestHandleLogs_OffsetTail(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "mapleads.log")
	require.NoError(t, os.WriteFile(logFile, []byte("first line\nsecond line\n"), 0o644))

	srv := NewServer(&fakeLeadStore{}, &fakeProgressStore{}, &fakeController{}, "mapleads", nil, logFile)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/logs?offset=11")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "second line\n", string(body))
	assert.Equal(t, "23", resp.Header.Get("X-Next-Offset"))
}

func TestHandleLogs_MissingFileIsEmpty(t *testing.T) {
	ts := newTestServer(t, &fakeLeadStore{}, &fakeController{})

	resp, err := http.Get(ts.URL + "/logs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-Next-Offset"))
}

func TestHandleLogs_BadOffset(t *testing.T) {
	ts := newTestServer(t, &fakeLeadStore{}, &fakeController{})

	resp, err := http.Get(ts.URL + "/logs?offset=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
