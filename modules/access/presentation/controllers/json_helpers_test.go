package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/govkit/records-sdk/modules/access/services"
	"github.com/govkit/records-sdk/pkg/httpapi"
	"github.com/govkit/records-sdk/pkg/serrors"
)

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	err := decodeJSON(strings.NewReader(`{"name":"x","extra":true}`), &dst)
	require.Error(t, err)
}

func TestDecodeJSON_RejectsTrailingData(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	err := decodeJSON(strings.NewReader(`{"name":"x"}{"name":"y"}`), &dst)
	require.Error(t, err)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httpapi.ErrorEnvelope {
	t.Helper()
	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWriteServiceError_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(context.Background(), rec, services.NewNotFoundError("subject", uuid.New()))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "ACCESS_NOT_FOUND", decodeEnvelope(t, rec).Code)
}

func TestWriteServiceError_CodedGuardError(t *testing.T) {
	rec := httptest.NewRecorder()
	guard := serrors.NewError("ACCESS_INVALID_DELEGATION", "delegation validity window is empty", "")
	writeServiceError(context.Background(), rec, errors.Wrap(guard, "create delegation"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "ACCESS_INVALID_DELEGATION", env.Code)
	require.Equal(t, "delegation validity window is empty", env.Message)
}

func TestWriteServiceError_Conflict(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(context.Background(), rec, services.ErrOrgUnitHasChildren)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "ACCESS_CONFLICT", decodeEnvelope(t, rec).Code)
}

func TestWriteServiceError_Internal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(context.Background(), rec, errors.New("pool exhausted"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "ACCESS_INTERNAL", env.Code)
	// Backend detail never leaks into the envelope.
	require.NotContains(t, env.Message, "pool")
}
