// Package validators implements the ordered request-validation pipelines of
// the management (VWS) and query (VWQ) APIs. Each endpoint runs a fixed
// chain; the first validator that fails wins and its response is emitted
// verbatim. The ordering is part of the external contract.
package validators

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/konstin/vws-python-mock/pkg/wire"
)

// Failure is a domain failure raised by a validator or handler: a fixed
// status code, body and header set. Failures are expected outputs and are
// never logged as errors.
type Failure struct {
	StatusCode  int
	Body        []byte
	ContentType string
	// ExtraHeader holds headers beyond the common set, e.g. Connection: close.
	ExtraHeader http.Header
}

// Error implements error so failures can travel through error returns.
func (f *Failure) Error() string {
	return fmt.Sprintf("request failed with status %d", f.StatusCode)
}

// Write renders the failure as an HTTP response.
func (f *Failure) Write(w http.ResponseWriter) {
	for key, values := range f.ExtraHeader {
		for _, v := range values {
			w.Header().Set(key, v)
		}
	}
	wire.WriteRaw(w, f.StatusCode, f.ContentType, f.Body)
}

// JSONFailure returns a failure with the standard JSON envelope body. The
// field order (transaction_id first) matches the real services.
func JSONFailure(status int, code wire.ResultCode) *Failure {
	body, _ := json.Marshal(wire.NewEnvelope(code))
	return &Failure{
		StatusCode:  status,
		Body:        body,
		ContentType: "application/json",
	}
}

// textFailure returns a plain-text failure in the charset the query API
// uses for its non-JSON errors.
func textFailure(status int, body string) *Failure {
	return &Failure{
		StatusCode:  status,
		Body:        []byte(body),
		ContentType: "text/plain;charset=iso-8859-1",
	}
}

// emptyFailure returns a failure with no body and no Content-Type header.
func emptyFailure(status int) *Failure {
	return &Failure{StatusCode: status}
}
