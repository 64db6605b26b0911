package gateway

import (
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status  string     `json:"status"`
	Uptime  float64    `json:"uptime_seconds"`
	Jobs    int        `json:"jobs"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

// handleHealth reports liveness with the registered job count and the
// earliest upcoming run.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Uptime: time.Since(g.startedAt).Truncate(time.Second).Seconds(),
		}
		if g.jobs != nil {
			jobs := g.jobs.Snapshot()
			resp.Jobs = len(jobs)
			for i := range jobs {
				if resp.NextRun == nil || jobs[i].NextRun.Before(*resp.NextRun) {
					next := jobs[i].NextRun
					resp.NextRun = &next
				}
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
