package request

import (
	"log/slog"
	"net/http"
)

// NotFoundHandler answers requests for paths the monitoring server does not serve.
func NotFoundHandler(l *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l.Debug("No route", slog.String("path", r.URL.Path))
		WriteJSON(l, w, http.StatusNotFound, NewMessage("Not found: %s", r.URL.Path))
	}
}

// MethodNotAllowedHandler answers requests using a method the route does not accept.
func MethodNotAllowedHandler(l *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(l, w, http.StatusMethodNotAllowed, NewMessage("Method %s not allowed on %s", r.Method, r.URL.Path))
	}
}
