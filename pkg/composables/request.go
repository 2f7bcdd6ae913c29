package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/govkit/records-sdk/pkg/constants"
)

var (
	ErrNoTenantID = errors.New("tenant id not found in context")
	ErrNoUserID   = errors.New("user id not found in context")
)

// WithTenantID returns a new context carrying the acting tenant.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

// UseTenantID returns the acting tenant from the context.
func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrNoTenantID
	}
	return tenantID, nil
}

// WithUserID returns a new context carrying the acting subject.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.UserIDKey, userID)
}

// UseUserID returns the acting subject from the context.
func UseUserID(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(constants.UserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, ErrNoUserID
	}
	return userID, nil
}

// WithLogger returns a new context carrying a request-scoped log entry.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request-scoped log entry, falling back to the
// standard logger when none is attached.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger
}
