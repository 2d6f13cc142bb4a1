package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: name required", ErrValidation), http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("product: %w", ErrNotFound), http.StatusNotFound},
		{"duplicate", ErrDuplicate, http.StatusConflict},
		{"conflict", ErrConflict, http.StatusConflict},
		{"insufficient stock", ErrInsufficientStock, http.StatusConflict},
		{"unknown", errors.New("sqlite blew up"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			require.Equal(t, tc.status, rec.Code)

			var env Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			require.False(t, env.OK)
			require.NotEmpty(t, env.Error)
		})
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("near \"SELEC\": syntax error"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "internal error", env.Error)
	require.NotContains(t, env.Error, "syntax")
}

func TestOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"total": 3})

	require.Equal(t, http.StatusOK, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.OK)
	require.Empty(t, env.Error)
}
