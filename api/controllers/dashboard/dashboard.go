package dashboard

import (
	"net/http"

	"github.com/stroytech/stroycrm-backend/api/responses"
	internaldashboard "github.com/stroytech/stroycrm-backend/internal/dashboard"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
)

// Stats returns the aggregate counters shown on the landing screen.
func Stats(svc internaldashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
