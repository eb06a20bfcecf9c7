// Package respond writes JSON bodies and maps errors onto status codes.
package respond

import (
	"encoding/json"
	"io"
	"net/http"

	"careerhub-backend/errors"
	"careerhub-backend/logger"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error string   `json:"error"`
	Hints []string `json:"hints,omitempty"`
}

// List wraps a page of rows with the total matching count.
type List struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Logger.Warnw("encode response", logger.FieldError, err)
	}
}

// Error writes err as {"error": ..., "hints": [...]}. Server-side failures
// are logged with the request fields and answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	body := ErrorBody{Error: err.Error(), Hints: errors.GetAllHints(err)}
	if status >= http.StatusInternalServerError {
		log := logger.FromContext(r.Context(), nil)
		log.Errorw("request failed",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, status,
			logger.FieldError, err)
		if status == http.StatusInternalServerError {
			body = ErrorBody{Error: "internal server error"}
		}
	}
	JSON(w, status, body)
}

// Decode reads a JSON body into v. Malformed input is an invalid request.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.Invalidf("request body is empty")
		}
		return errors.Wrap(errors.ErrInvalidRequest, err.Error())
	}
	return nil
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}
