package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", NewNotFoundError("Data source", "x"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", NewValidationError("name", "required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"build error", NewBuildError(KindUnknownField, "foo", "not in schema"), http.StatusBadRequest, "UNKNOWN_FIELD"},
		{"wrapped build error", fmt.Errorf("execute: %w", NewBuildError(KindSchemaMismatch, "", "x")), http.StatusBadRequest, "SCHEMA_MISMATCH"},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"timeout", NewTimeoutError("dashboard query", 0), http.StatusGatewayTimeout, "TIMEOUT"},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
		})
	}
}

func TestBuildError(t *testing.T) {
	err := NewBuildError(KindFieldNotAggregable, "region", "field cannot be aggregated")
	assert.Equal(t, "invalid dashboard configuration: field 'region': field cannot be aggregated", err.Error())
	assert.True(t, IsBuildError(err, KindFieldNotAggregable))
	assert.True(t, IsBuildError(err, ""))
	assert.False(t, IsBuildError(err, KindUnknownField))
	assert.False(t, IsBuildError(NewValidationError("x", "y"), ""))

	resp := ToResponse(err)
	assert.Equal(t, "FIELD_NOT_AGGREGABLE", resp.Code)
	assert.Equal(t, map[string]string{"field": "region"}, resp.Details)
}
