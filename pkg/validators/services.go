package validators

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/konstin/vws-python-mock/pkg/auth"
	"github.com/konstin/vws-python-mock/pkg/database"
	"github.com/konstin/vws-python-mock/pkg/imageutil"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

// Service limits enforced on target bodies.
const (
	maxImageBytes     = 2359293
	maxMetadataBytes  = 1024 * 1024
	maxImageDimension = 30000
	maxNameLength     = 64
)

// TargetUpsert is the validated body of a create or update request. Pointer
// fields are nil when the request omitted them.
type TargetUpsert struct {
	Name                *string
	Width               *float64
	Image               []byte
	HasImage            bool
	ActiveFlag          *bool
	ApplicationMetadata *string
}

// RunServices runs the management-API chain against one request. On
// success it returns the validated body for POST and PUT requests (nil
// otherwise); on failure it returns the failure to emit verbatim.
func RunServices(req *Request, databases []*database.Database, now time.Time) (*TargetUpsert, *Failure) {
	if f := checkContentLength(req); f != nil {
		return nil, f
	}

	date, given, valid := parseDateHeader(req)
	if !given {
		return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
	}
	if !valid {
		return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
	}
	if dateSkewed(date, now) {
		return nil, JSONFailure(http.StatusForbidden, wire.ResultRequestTimeTooSkewed)
	}

	db, err := auth.MatchServerKeys(req.Method, req.Path, req.Body, req.Header, databases)
	if err != nil {
		return nil, serverAuthFailure(err)
	}

	if db.State != wire.StateWorking {
		return nil, JSONFailure(http.StatusForbidden, wire.ResultProjectInactive)
	}

	switch req.Method {
	case http.MethodPost, http.MethodPut:
		return validateTargetBody(req)
	default:
		if len(req.Body) > 0 {
			return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
		}
		return nil, nil
	}
}

// serverAuthFailure maps a credential-matching error onto the management
// API's failure shapes.
func serverAuthFailure(err error) *Failure {
	switch {
	case errors.Is(err, auth.ErrHeaderMissing):
		return JSONFailure(http.StatusUnauthorized, wire.ResultAuthenticationFailure)
	case errors.Is(err, auth.ErrHeaderMalformed):
		return JSONFailure(http.StatusBadRequest, wire.ResultFail)
	default:
		return JSONFailure(http.StatusUnauthorized, wire.ResultAuthenticationFailure)
	}
}

// knownTargetFields are the accepted top-level keys of target bodies.
var knownTargetFields = map[string]struct{}{
	"name":                 {},
	"width":                {},
	"image":                {},
	"active_flag":          {},
	"application_metadata": {},
}

func validateTargetBody(req *Request) (*TargetUpsert, *Failure) {
	isCreate := req.Method == http.MethodPost

	var fields map[string]any
	if err := unmarshalWithNumbers(req.Body, &fields); err != nil {
		return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
	}

	if isCreate {
		for _, required := range []string{"name", "width", "image"} {
			if _, ok := fields[required]; !ok {
				return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
			}
		}
	}

	upsert := &TargetUpsert{}

	if raw, ok := fields["name"]; ok {
		name, ok := raw.(string)
		if !ok {
			return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
		}
		if !validTargetName(name) {
			return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
		}
		upsert.Name = &name
	}

	if raw, ok := fields["width"]; ok {
		number, ok := raw.(json.Number)
		if !ok {
			return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
		}
		width, err := number.Float64()
		if err != nil || width <= 0 {
			return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
		}
		upsert.Width = &width
	}

	if raw, ok := fields["image"]; ok {
		encoded, ok := raw.(string)
		if !ok {
			return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
		}
		image, f := validateImage(encoded)
		if f != nil {
			return nil, f
		}
		upsert.Image = image
		upsert.HasImage = true
	}

	if raw, ok := fields["active_flag"]; ok {
		switch value := raw.(type) {
		case bool:
			upsert.ActiveFlag = &value
		case nil:
			// Omitting the flag and sending null are equivalent on create;
			// null on update is rejected.
			if !isCreate {
				return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
			}
		default:
			return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
		}
	}

	if raw, ok := fields["application_metadata"]; ok {
		switch value := raw.(type) {
		case string:
			decoded, err := base64.StdEncoding.DecodeString(value)
			if err != nil {
				return nil, JSONFailure(http.StatusUnprocessableEntity, wire.ResultFail)
			}
			if len(decoded) > maxMetadataBytes {
				return nil, JSONFailure(http.StatusUnprocessableEntity, wire.ResultMetadataTooLarge)
			}
			upsert.ApplicationMetadata = &value
		case nil:
			if !isCreate {
				return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
			}
		default:
			return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
		}
	}

	for key := range fields {
		if _, ok := knownTargetFields[key]; !ok {
			return nil, JSONFailure(http.StatusBadRequest, wire.ResultFail)
		}
	}

	return upsert, nil
}

// validateImage decodes and bounds-checks a base64 target image per the
// management-API rules.
func validateImage(encoded string) ([]byte, *Failure) {
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, JSONFailure(http.StatusUnprocessableEntity, wire.ResultFail)
	}
	decoded, _, err := imageutil.Decode(image)
	if err != nil {
		return nil, JSONFailure(http.StatusUnprocessableEntity, wire.ResultBadImage)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension {
		return nil, JSONFailure(http.StatusUnprocessableEntity, wire.ResultBadImage)
	}
	if len(image) > maxImageBytes {
		return nil, JSONFailure(http.StatusUnprocessableEntity, wire.ResultImageTooLarge)
	}
	return image, nil
}

// validTargetName reports whether a name is 1-64 printable ASCII characters.
func validTargetName(name string) bool {
	if len(name) == 0 || len(name) > maxNameLength {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

// unmarshalWithNumbers decodes JSON keeping numbers distinguishable from
// other scalar types.
func unmarshalWithNumbers(data []byte, into *map[string]any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(into)
}
