// handlers/health.go
package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"activity-points/models"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// Health reports store reachability and process resource usage. It answers
// 503 when the store cannot be reached.
func Health(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := models.SystemHealth{
			Status:     "ok",
			Store:      env.Store.Driver,
			Goroutines: runtime.NumGoroutine(),
			Uptime:     time.Since(env.StartedAt).Round(time.Second).String(),
		}
		if env.Hub != nil {
			health.WSConnections = env.Hub.Clients()
		}

		if proc, err := process.NewProcessWithContext(r.Context(), int32(os.Getpid())); err == nil {
			if pct, err := proc.MemoryPercentWithContext(r.Context()); err == nil {
				health.MemoryUsage = float64(pct)
			}
			if mem, err := proc.MemoryInfoWithContext(r.Context()); err == nil {
				health.ProcessRSS = mem.RSS
			}
		} else {
			log.Debug().Err(err).Msg("process stats unavailable")
		}

		status := http.StatusOK
		if err := env.Store.Ping(r.Context()); err != nil {
			health.Status = "degraded"
			health.StoreError = err.Error()
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, status, health)
	}
}
