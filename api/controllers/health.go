package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/feastline/dispatch-backend/api/responses"
	"github.com/feastline/dispatch-backend/pkg/config"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Feastline-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores before reporting ready. A nil
// dependency is skipped so the probe works in partial deployments.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache, warehouse pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Feastline-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := []struct {
			name string
			dep  pinger
		}{
			{name: "postgres", dep: database},
			{name: "redis", dep: cache},
			{name: "bigquery", dep: warehouse},
		}

		failed := make([]string, 0, len(checks))
		for _, check := range checks {
			if check.dep == nil {
				continue
			}
			if err := check.dep.Ping(ctx); err != nil {
				failed = append(failed, check.name)
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", check.name), "health.ready.failed", err)
				}
			}
		}

		if len(failed) > 0 {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"failed": failed})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
