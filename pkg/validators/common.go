package validators

import (
	"net/http"
	"strconv"
	"time"
)

const (
	// maxContentLength caps declared request sizes on both services.
	maxContentLength = 10 * 1024 * 1024

	// maxDateSkew is how far a request Date header may differ from the
	// server clock before the request is rejected as skewed.
	maxDateSkew = 5 * time.Minute
)

// checkContentLength runs the shared Content-Length validators: the header
// must parse as an integer when present, must not exceed the service cap,
// and the body must not be longer than declared. A body shorter than
// declared is processed at its actual length (the real service truncates).
func checkContentLength(req *Request) *Failure {
	header := req.Header.Get("Content-Length")
	if header == "" {
		return nil
	}
	declared, err := strconv.Atoi(header)
	if err != nil {
		f := emptyFailure(http.StatusBadRequest)
		f.ExtraHeader = http.Header{"Connection": []string{"close"}}
		return f
	}
	if declared > maxContentLength {
		return emptyFailure(http.StatusRequestEntityTooLarge)
	}
	if len(req.Body) > declared {
		return emptyFailure(http.StatusRequestEntityTooLarge)
	}
	return nil
}

// parseDateHeader parses the request Date header. RFC 1123 with either a
// zone name or a numeric offset is accepted.
func parseDateHeader(req *Request) (time.Time, bool, bool) {
	value := req.Header.Get("Date")
	if value == "" {
		return time.Time{}, false, false
	}
	for _, layout := range []string{time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true, true
		}
	}
	return time.Time{}, true, false
}

// dateSkewed reports whether the request date is outside the allowed skew.
func dateSkewed(date, now time.Time) bool {
	diff := now.Sub(date)
	if diff < 0 {
		diff = -diff
	}
	return diff > maxDateSkew
}
