package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/omiam/omiam-backend/pkg/errors"
)

// Payload holds the fields merged into a response envelope next to
// "success" and "timestamp".
type Payload map[string]any

// Now is the clock used for envelope timestamps
var Now = time.Now

// JSON sends a flat envelope: {"success": ..., <payload fields>, "timestamp": ...}
func JSON(w http.ResponseWriter, statusCode int, payload Payload) {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = statusCode >= 200 && statusCode < 300
	body["timestamp"] = Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// OK sends a 200 envelope
func OK(w http.ResponseWriter, payload Payload) {
	JSON(w, http.StatusOK, payload)
}

// Created sends a 201 envelope
func Created(w http.ResponseWriter, payload Payload) {
	JSON(w, http.StatusCreated, payload)
}

// Error sends a failure envelope. AppErrors keep their status, code and
// details; anything else becomes a generic 500 so internal detail never
// reaches the client.
func Error(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		payload := Payload{
			"error": appErr.Message,
			"code":  appErr.Code,
		}
		if len(appErr.Details) > 0 {
			payload["details"] = appErr.Details
		}
		JSON(w, appErr.StatusCode, payload)
		return
	}

	JSON(w, http.StatusInternalServerError, Payload{
		"error": "an unexpected error occurred",
		"code":  "INTERNAL_ERROR",
	})
}

// MaxBodyBytes bounds the request bodies DecodeJSON reads
const MaxBodyBytes int64 = 1 << 20

// DecodeJSON decodes the request body into the provided struct. Bodies over
// MaxBodyBytes are rejected with 413.
func DecodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("PAYLOAD_TOO_LARGE",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				http.StatusRequestEntityTooLarge)
		}
		return errors.BadRequest("invalid JSON body")
	}
	return nil
}
