package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

// maxBodyBytes caps a bound request body; a pattern list is never near it.
const maxBodyBytes = 1 << 20

var (
	ErrEmptyBody         = errors.New("http: empty request body")
	ErrUnsupportedMedia  = errors.New("http: unsupported content type")
	ErrMalformedJSONBody = errors.New("http: malformed JSON body")
)

// Request wraps *http.Request with the input helpers the admin API uses.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// Bind decodes a JSON body into v, rejecting unknown fields. A missing
// Content-Type is read as JSON.
//
//	var body struct{ ObjectNames []string `json:"objectNames"` }
//	if err := req.Bind(&body); errors.Is(err, gohttp.ErrUnsupportedMedia) { ... }
func (req *Request) Bind(v any) error {
	if ct := req.raw.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: %s", ErrUnsupportedMedia, ct)
		}
	}

	defer req.raw.Body.Close()
	body, err := io.ReadAll(io.LimitReader(req.raw.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSONBody, err)
	}
	return nil
}

// Query returns a query-string value, or the first fallback when it is empty.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// QueryBool parses a query-string flag; absent or unparsable values yield fallback.
func (req *Request) QueryBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(req.raw.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return b
}

// All returns the query string as a flat map (first value per key), the
// shape validation.Make takes.
func (req *Request) All() map[string]string {
	q := req.raw.URL.Query()
	out := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
