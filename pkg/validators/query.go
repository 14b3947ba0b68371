package validators

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/konstin/vws-python-mock/pkg/auth"
	"github.com/konstin/vws-python-mock/pkg/database"
	"github.com/konstin/vws-python-mock/pkg/imageutil"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

// Query limits.
const (
	maxQueryImageBytes     = 2097152
	maxQueryImageDimension = 30000
	minMaxNumResults       = 1
	maxMaxNumResults       = 50
)

// QueryForm is the validated multipart body of a query request.
type QueryForm struct {
	Image             []byte
	MaxNumResults     int
	IncludeTargetData string
}

// RunQuery runs the query-API chain against one request. On success it
// returns the parsed form; on failure the failure to emit verbatim.
func RunQuery(req *Request, databases []*database.Database, now time.Time) (*QueryForm, *Failure) {
	if f := checkContentLength(req); f != nil {
		return nil, f
	}

	date, given, valid := parseDateHeader(req)
	if !given {
		return nil, textFailure(http.StatusBadRequest, "Date header required.")
	}
	if !valid {
		return nil, textFailure(http.StatusBadRequest, "Malformed date header.")
	}
	if dateSkewed(date, now) {
		return nil, JSONFailure(http.StatusForbidden, wire.ResultRequestTimeTooSkewed)
	}

	db, err := auth.MatchClientKeys(req.Method, req.Path, req.Body, req.Header, databases)
	if err != nil {
		return nil, clientAuthFailure(err)
	}

	if db.State != wire.StateWorking {
		return nil, JSONFailure(http.StatusForbidden, wire.ResultInactiveProject)
	}

	form, f := ParseQueryForm(req)
	if f != nil {
		return nil, f
	}

	if accept := req.Header.Get("Accept"); accept != "" {
		mediaType, _, _ := strings.Cut(accept, ";")
		switch strings.TrimSpace(mediaType) {
		case "application/json", "*/*":
		default:
			return nil, emptyFailure(http.StatusNotAcceptable)
		}
	}

	if f := validateQueryImage(form.Image); f != nil {
		return nil, f
	}

	return form, nil
}

// clientAuthFailure maps a credential-matching error onto the query API's
// failure shapes.
func clientAuthFailure(err error) *Failure {
	switch {
	case errors.Is(err, auth.ErrHeaderMissing):
		return textFailure(http.StatusUnauthorized, "Authorization header missing.")
	case errors.Is(err, auth.ErrHeaderMalformed):
		return textFailure(http.StatusUnauthorized, "Malformed authorization header.")
	default:
		return JSONFailure(http.StatusUnauthorized, wire.ResultAuthenticationFailure)
	}
}

// ParseQueryForm validates the multipart envelope and extracts the image
// and options, applying the query API's defaults.
func ParseQueryForm(req *Request) (*QueryForm, *Failure) {
	contentType := req.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		// Documented intent: the 415 carries no Content-Type header.
		return nil, emptyFailure(http.StatusUnsupportedMediaType)
	}

	_, params, err := mime.ParseMediaType(contentType)
	boundary := params["boundary"]
	if err != nil || boundary == "" {
		return nil, textFailure(http.StatusBadRequest, "No boundary found in multipart request.")
	}

	if !bytes.Contains(req.Body, []byte("--"+boundary)) {
		return nil, textFailure(http.StatusBadRequest, "Boundary not found in request body.")
	}

	reader := multipart.NewReader(bytes.NewReader(req.Body), boundary)
	var (
		images [][]byte
		values = map[string][]string{}
	)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, textFailure(http.StatusBadRequest, "Malformed multipart body.")
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, textFailure(http.StatusBadRequest, "Malformed multipart body.")
		}
		if part.FormName() == "image" {
			images = append(images, data)
			continue
		}
		values[part.FormName()] = append(values[part.FormName()], string(data))
	}

	for field := range values {
		switch field {
		case "max_num_results", "include_target_data":
		default:
			return nil, textFailure(http.StatusBadRequest, "Unknown parameters in the request.")
		}
	}

	if len(images) == 0 {
		return nil, textFailure(http.StatusBadRequest, "No image.")
	}
	if len(images) > 1 {
		return nil, textFailure(http.StatusBadRequest, "Unknown parameters in the request.")
	}

	form := &QueryForm{
		Image:             images[0],
		MaxNumResults:     1,
		IncludeTargetData: "top",
	}

	if given, ok := values["max_num_results"]; ok {
		raw := given[len(given)-1]
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, textFailure(http.StatusBadRequest, fmt.Sprintf(
				"Invalid value '%s' in form data part 'max_result'. "+
					"Expecting integer value in range from 1 to 50 (inclusive).", raw))
		}
		if n < minMaxNumResults || n > maxMaxNumResults {
			return nil, textFailure(http.StatusBadRequest, fmt.Sprintf(
				"Integer out of range (%d) in form data part 'max_result'. "+
					"Accepted range is from 1 to 50 (inclusive).", n))
		}
		form.MaxNumResults = n
	}

	if given, ok := values["include_target_data"]; ok {
		value := strings.ToLower(given[len(given)-1])
		switch value {
		case "top", "all", "none":
			form.IncludeTargetData = value
		default:
			return nil, textFailure(http.StatusBadRequest, fmt.Sprintf(
				"Invalid value '%s' in form data part 'include_target_data'. "+
					"Expecting one of the (unquoted) values 'top', 'all', 'none'.", given[len(given)-1]))
		}
	}

	return form, nil
}

// validateQueryImage applies the query-side image rules.
func validateQueryImage(image []byte) *Failure {
	decoded, _, err := imageutil.Decode(image)
	if err != nil {
		return JSONFailure(http.StatusUnprocessableEntity, wire.ResultBadImage)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() > maxQueryImageDimension || bounds.Dy() > maxQueryImageDimension ||
		len(image) > maxQueryImageBytes {
		return textFailure(http.StatusBadRequest, "Image size out of bounds.")
	}
	return nil
}
