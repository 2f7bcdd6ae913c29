package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/govkit/records-sdk/modules/access/services"
	"github.com/govkit/records-sdk/pkg/composables"
	"github.com/govkit/records-sdk/pkg/httpapi"
	"github.com/govkit/records-sdk/pkg/serrors"
)

// decodeJSON reads the body strictly: unknown fields and trailing garbage
// are rejected so a misspelled field never silently widens a grant.
func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		meta := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			meta[fe.Field()] = fe.Tag()
		}
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_BODY", "validation failed", meta)
		return
	}
	_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_BODY", err.Error(), nil)
}

// writeServiceError maps service-layer errors onto HTTP statuses.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var coded *serrors.Base
	switch {
	case services.IsNotFound(err):
		_ = httpapi.WriteError(w, http.StatusNotFound, "ACCESS_NOT_FOUND", err.Error(), nil)
	case errors.As(err, &coded):
		_ = httpapi.WriteCoded(w, http.StatusBadRequest, coded)
	case errors.Is(err, services.ErrOrgUnitHasChildren),
		errors.Is(err, services.ErrOrgUnitHasSubjects):
		_ = httpapi.WriteError(w, http.StatusConflict, "ACCESS_CONFLICT", err.Error(), nil)
	default:
		composables.UseLogger(ctx).WithError(err).Error("unhandled service error")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "ACCESS_INTERNAL", "internal error", nil)
	}
}
