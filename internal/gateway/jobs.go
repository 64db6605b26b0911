package gateway

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/flemzord/every/internal/history"
	"github.com/flemzord/every/internal/schedule"
	"github.com/go-chi/chi/v5"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// JobStatus is a serializable snapshot of a registered job.
type JobStatus struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Interval int        `json:"interval"`
	Unit     string     `json:"unit"`
	Period   string     `json:"period"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	NextRun  time.Time  `json:"next_run"`
}

// StatusOf snapshots j. The caller must hold whatever lock guards j's
// scheduler.
func StatusOf(j *schedule.Job) JobStatus {
	st := JobStatus{
		ID:       j.ID(),
		Name:     j.Name(),
		Interval: j.Interval(),
		Unit:     j.Unit().String(),
		Period:   j.Period().String(),
		NextRun:  j.NextRun(),
	}
	if last := j.LastRun(); !last.IsZero() {
		st.LastRun = &last
	}
	return st
}

func (g *Gateway) handleListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		jobs := g.jobs.Snapshot()
		if jobs == nil {
			jobs = []JobStatus{}
		}
		slices.SortStableFunc(jobs, func(a, b JobStatus) int {
			return a.NextRun.Compare(b.NextRun)
		})
		writeJSON(w, http.StatusOK, jobs)
	}
}

func (g *Gateway) handleRemoveJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !g.jobs.Remove(id) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		g.logger.Info("gateway: job removed", "id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleRunAll runs every job immediately, regardless of its schedule.
func (g *Gateway) handleRunAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := g.jobs.RunAll(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, g.jobs.Snapshot())
	}
}

func (g *Gateway) handleJobHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxHistoryLimit {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
				return
			}
			limit = n
		}

		runs, err := g.history.Recent(r.Context(), chi.URLParam(r, "name"), limit)
		if err != nil {
			g.logger.Error("gateway: history query failed", "error", err)
			writeError(w, http.StatusInternalServerError, "history unavailable")
			return
		}
		if runs == nil {
			runs = []history.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	}
}
