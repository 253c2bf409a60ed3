package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxRequestBytes caps gameplay request bodies. The largest legitimate
// payload is a 500-character response plus field framing.
const maxRequestBytes = 4 << 10

type errorBody struct {
	Error string `json:"error"`
}

// decodeRequest reads exactly one JSON document from the request body,
// rejecting unknown fields, oversized bodies, and trailing data.
func decodeRequest(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after json body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
