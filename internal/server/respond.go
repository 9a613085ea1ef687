package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ziadkadry99/tradebook/internal/backend"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to a JSON error, keeping the backend's status when
// the error came from the backend.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]string{"error": err.Error()}
	var be *backend.Error
	if errors.As(err, &be) {
		if be.Status >= 400 {
			status = be.Status
		}
		if be.Code != "" {
			body["code"] = be.Code
		}
	}
	writeJSON(w, status, body)
}

const maxBodySize = 4 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
}
