package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/foliobooks/bookstore-backend/api/responses"
	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/db"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bookstore-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each backing dependency and reports per-dependency status.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bookstore-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checks["db"] = pingStatus(ctx, logg, "db", dbP)
		checks["redis"] = pingStatus(ctx, logg, "redis", redisP)
		for _, status := range checks {
			if status != "ok" {
				healthy = false
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": readyLabel(healthy),
			"checks": checks,
		})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingStatus(ctx context.Context, logg *logger.Logger, name string, p pinger) string {
	if p == nil {
		return "skipped"
	}
	if err := p.Ping(ctx); err != nil {
		if logg != nil {
			logg.Error(ctx, "health."+name+".unreachable", err)
		}
		return "unreachable"
	}
	return "ok"
}

func readyLabel(healthy bool) string {
	if healthy {
		return "ready"
	}
	return "degraded"
}
