// Package api serves the lead database and controls the scraper process over
// HTTP.
package api

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyRunning = eris.New("scraper is already running")
	ErrNotRunning     = eris.New("scraper is not running")
)

// stopGrace is how long a stopped scraper gets to shut down cleanly before
// it is killed. Progress tracking makes a hard kill safe, just wasteful.
const stopGrace = 8 * time.Second

// Runner manages the scraper as a child process. At most one scraper runs at
// a time; the browser profile and the progress ledger both assume a single
// writer.
type Runner struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	started time.Time
	done    chan struct{}
}

func NewRunner() *Runner {
	return &Runner{}
}

// Start launches the scraper binary with the given arguments. Returns
// ErrAlreadyRunning while a previous scraper is still up.
func (r *Runner) Start(bin string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running() {
		return ErrAlreadyRunning
	}

	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return eris.Wrapf(err, "starting scraper %q", bin)
	}

	r.cmd = cmd
	r.started = time.Now()
	r.done = make(chan struct{})

	done := r.done
	go func() {
		err := cmd.Wait()
		close(done)
		if err != nil {
			log.Warn().Err(err).Int("pid", cmd.Process.Pid).Msg("Scraper exited with error")
		} else {
			log.Info().Int("pid", cmd.Process.Pid).Msg("Scraper exited")
		}
	}()

	log.Info().Int("pid", cmd.Process.Pid).Strs("args", args).Msg("Scraper started")
	return nil
}

// Stop asks the scraper to terminate and kills it after the grace period.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running() {
		return ErrNotRunning
	}

	pid := r.cmd.Process.Pid
	if err := r.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return eris.Wrap(err, "signalling scraper")
	}

	select {
	case <-r.done:
		log.Info().Int("pid", pid).Msg("Scraper stopped")
	case <-time.After(stopGrace):
		log.Warn().Int("pid", pid).Msg("Scraper did not stop in time, killing")
		if err := r.cmd.Process.Kill(); err != nil {
			return eris.Wrap(err, "killing scraper")
		}
		<-r.done
	}
	return nil
}

// Status reports whether a scraper is running and since when.
func (r *Runner) Status() (running bool, pid int, since time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running() {
		return false, 0, time.Time{}
	}
	return true, r.cmd.Process.Pid, r.started
}

// running must be called with the mutex held.
func (r *Runner) running() bool {
	if r.cmd == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}
