package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/govkit/records-sdk/pkg/composables"
	"github.com/govkit/records-sdk/pkg/httpapi"
)

// WithPool attaches the database pool to every request context.
func WithPool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

// WithRequestContext resolves the acting tenant and subject from request
// headers and attaches a request-scoped logger.
func WithRequestContext(logger *logrus.Logger, tenantHeader, subjectHeader, requestIDHeader string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			tenantID, err := uuid.Parse(r.Header.Get(tenantHeader))
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusBadRequest, "TENANT_REQUIRED", "missing or invalid tenant header", nil)
				return
			}
			ctx = composables.WithTenantID(ctx, tenantID)

			if raw := r.Header.Get(subjectHeader); raw != "" {
				subjectID, err := uuid.Parse(raw)
				if err != nil {
					_ = httpapi.WriteError(w, http.StatusBadRequest, "SUBJECT_INVALID", "invalid subject header", nil)
					return
				}
				ctx = composables.WithUserID(ctx, subjectID)
			}

			entry := logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"tenant_id":  tenantID.String(),
				"path":       r.URL.Path,
			})
			ctx = composables.WithLogger(ctx, entry)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
