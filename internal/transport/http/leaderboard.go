package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"roboclic/internal/app"
)

func handleLeaderboard(ledger *app.Ledger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if name := r.URL.Query().Get("name"); name != "" {
			display, score, err := ledger.Lookup(r.Context(), name)
			if err != nil {
				logger.ErrorContext(r.Context(), "leaderboard lookup failed", "err", err)
				writeError(w, http.StatusInternalServerError, "ledger unavailable")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"displayName": display, "score": score})
			return
		}

		lb, err := ledger.Snapshot(r.Context())
		if err != nil {
			logger.ErrorContext(r.Context(), "leaderboard snapshot failed", "err", err)
			writeError(w, http.StatusInternalServerError, "ledger unavailable")
			return
		}
		writeJSON(w, http.StatusOK, lb)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
