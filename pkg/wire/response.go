package wire

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random 32-character lowercase hex identifier (a UUIDv4
// without dashes), the shape Vuforia uses for target, transaction and
// query IDs.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Envelope is the common body trailer of every JSON response.
type Envelope struct {
	TransactionID string     `json:"transaction_id"`
	ResultCode    ResultCode `json:"result_code"`
}

// NewEnvelope returns an envelope with a fresh transaction ID.
func NewEnvelope(code ResultCode) Envelope {
	return Envelope{TransactionID: NewID(), ResultCode: code}
}

// stampCommonHeaders sets the header set shared by every response the real
// services emit. The Date header is refreshed per response. An already-set
// Connection header is left alone; some failures close the connection.
func stampCommonHeaders(h http.Header) {
	if h.Get("Connection") == "" {
		h.Set("Connection", "keep-alive")
	}
	h.Set("Server", "nginx")
	h.Set("Date", time.Now().UTC().Format(http.TimeFormat))
}

// WriteJSON marshals body and writes it with the common header set and
// Content-Type: application/json.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		// Marshalling a response body is under our control; failure here is
		// a programming error.
		WriteInternalError(w)
		return
	}
	WriteRaw(w, status, "application/json", data)
}

// WriteRaw writes body verbatim with the common header set. An empty
// contentType omits the Content-Type header entirely.
func WriteRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	h := w.Header()
	stampCommonHeaders(h)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteMatchProcessing writes the canned 500 response the query API returns
// when a matching target is still processing or is inside the
// delete-processing window.
func WriteMatchProcessing(w http.ResponseWriter) {
	h := w.Header()
	stampCommonHeaders(h)
	h.Set("Cache-Control", "must-revalidate,no-cache,no-store")
	h.Set("Content-Type", "text/html; charset=ISO-8859-1")
	h.Set("Content-Length", strconv.Itoa(len(MatchProcessingHTML)))
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(MatchProcessingHTML))
}

// WriteInternalError writes the canned HTML body used for programming
// failures (invariant violations, panics).
func WriteInternalError(w http.ResponseWriter) {
	WriteRaw(w, http.StatusInternalServerError, "text/html; charset=UTF-8", []byte(InternalErrorHTML))
}
