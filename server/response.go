package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"PracticeLog/core/errs"
	"PracticeLog/logger"
)

const maxBodyBytes = 1 << 20

// errorBody 普通错误 {"detail": "..."}
type errorBody struct {
	Detail string `json:"detail"`
}

// validationBody 校验错误 {"detail": [{"field": ..., "message": ...}]}
type validationBody struct {
	Detail []errs.FieldError `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("[HTTP] encode response failed", logger.ErrorField(err))
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps the error taxonomy onto a status code. notFound is the detail used for a 404.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody{Detail: ve.Fields})
	case errors.Is(err, errs.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, errs.ErrNotFound):
		writeDetail(w, http.StatusNotFound, notFound)
	default:
		logger.Error("[HTTP] store failure",
			logger.String("request_id", requestID(r.Context())),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON object body into dst. Malformed bodies become validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if dec.More() {
		return errs.Invalid("body", "unexpected data after JSON object")
	}
	return nil
}

func bodyError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return errs.Invalid("body", "field required")
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &syntaxErr):
		return errs.Invalid("body", "invalid JSON")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return errs.Invalid(field, "must be of type "+jsonType(typeErr.Type.Kind().String()))
	case errors.As(err, &sizeErr):
		return errs.Invalid("body", "request body too large")
	default:
		return errs.Invalid("body", err.Error())
	}
}

func jsonType(kind string) string {
	switch kind {
	case "int", "int64", "int32":
		return "integer"
	case "struct", "map":
		return "object"
	case "slice":
		return "array"
	}
	return kind
}
