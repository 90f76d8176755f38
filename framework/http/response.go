package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/km-arc/go-autoproxy/framework/http/validation"
)

// Response writes JSON replies in two envelopes: {"data": ...} for results
// and {"message": ...} for errors. Validation failures use the validator's
// error bag as is.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

type dataEnvelope struct {
	Data any `json:"data"`
}

type messageEnvelope struct {
	Message string `json:"message"`
}

// JSON writes v with status. Admin replies are never cached. A value that
// cannot be encoded is logged and answered with a plain 500.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("encoding JSON response")
		http.Error(res.w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := res.w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	res.w.WriteHeader(status)
	_, _ = res.w.Write(append(body, '\n'))
}

// Success sends 200 with {"data": v}.
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, dataEnvelope{Data: v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends {"message": message} with status.
//
//	res.Error(http.StatusBadRequest, "invalid body")
func (res *Response) Error(status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	res.JSON(status, messageEnvelope{Message: message})
}

// NotFound sends 404 with an optional message.
func (res *Response) NotFound(message ...string) {
	res.Error(http.StatusNotFound, optional(message, "Not found."))
}

// ServerError sends 500 with an optional message.
func (res *Response) ServerError(message ...string) {
	res.Error(http.StatusInternalServerError, optional(message, "Server Error."))
}

// ValidationError sends 422 with the Laravel error bag.
//
//	res.ValidationError(v.Errors())
func (res *Response) ValidationError(errs *validation.Errors) {
	res.JSON(http.StatusUnprocessableEntity, errs)
}

func optional(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
