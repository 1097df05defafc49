package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jacobbrewer1/triage/pkg/dataaccess"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func TestApp_Routes(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	a := NewApp(l, mux.NewRouter(), &Config{Backend: dataaccess.BackendMemory})

	down := pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	})
	a.setupRoutes(down, down)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "store down",
			method:     http.MethodGet,
			path:       PathHealth,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "metrics",
			method:     http.MethodGet,
			path:       PathMetrics,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			path:       "/tickets",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrong method",
			method:     http.MethodPost,
			path:       PathHealth,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			a.r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
