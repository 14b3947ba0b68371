package validators

import (
	"io"
	"net/http"
)

// Request is the borrowed view of one HTTP request that validators and
// handlers operate on: method, path, headers, and the fully-read body.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// FromHTTP reads the request body and captures the fields the pipelines
// need. The body is consumed.
func FromHTTP(r *http.Request) (*Request, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header,
		Body:   body,
	}, nil
}
