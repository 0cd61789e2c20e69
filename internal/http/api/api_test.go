package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lumina-Screens/lumina/internal/core"
)

func TestFromErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", core.Invalidf("bad input"), http.StatusBadRequest},
		{"not found", core.NotFoundf("missing"), http.StatusNotFound},
		{"conflict", core.Conflictf("stale edit"), http.StatusConflict},
		{"invariant", core.Violationf("would break"), http.StatusUnprocessableEntity},
		{"untyped", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := FromError(tc.err)
			assert.Equal(t, tc.code, apiErr.Code)
		})
	}
}

func TestFromErrorHidesInternalDetail(t *testing.T) {
	apiErr := FromError(errors.New("pq: connection refused"))
	assert.Equal(t, "internal error", apiErr.Message)
}

func TestFromErrorCarriesDetails(t *testing.T) {
	err := core.Violationf("screens exhausted").With("used_screens", 3).With("max_screens", 3)
	apiErr := FromError(err)
	assert.Equal(t, "screens exhausted", apiErr.Message)
	assert.Equal(t, 3, apiErr.Details["used_screens"])
	assert.Equal(t, 3, apiErr.Details["max_screens"])
}
