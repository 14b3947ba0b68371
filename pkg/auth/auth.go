// Package auth implements the VWS request signature scheme and resolves
// requests to the database owning their credentials.
//
// The Authorization header has the shape "VWS <access_key>:<signature>"
// where the signature is the base64 HMAC-SHA1 of
//
//	METHOD\n hex(md5(body))\n content-type\n date-header\n path
//
// under the matching secret key.
package auth

import (
	"crypto/hmac"
	"crypto/md5"  // #nosec G501 -- the wire protocol mandates MD5.
	"crypto/sha1" // #nosec G505 -- the wire protocol mandates SHA1.
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/konstin/vws-python-mock/pkg/database"
)

// Failure modes, in the order the validators check them.
var (
	ErrHeaderMissing   = errors.New("authorization header missing")
	ErrHeaderMalformed = errors.New("authorization header malformed")
	// ErrAuthenticationFailure covers both an unknown access key and a
	// signature mismatch; the services do not distinguish them.
	ErrAuthenticationFailure = errors.New("authentication failure")
)

// SignatureString returns the canonical string a request signs.
func SignatureString(method string, body []byte, contentType, date, path string) string {
	bodyDigest := md5.Sum(body) // #nosec G401
	return strings.Join([]string{
		method,
		hex.EncodeToString(bodyDigest[:]),
		contentType,
		date,
		path,
	}, "\n")
}

// Sign computes the base64 HMAC-SHA1 signature for a request under the
// given secret key.
func Sign(secretKey, method string, body []byte, contentType, date, path string) string {
	mac := hmac.New(sha1.New, []byte(secretKey)) // #nosec G401
	mac.Write([]byte(SignatureString(method, body, contentType, date, path)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Header returns a complete Authorization header value.
func Header(accessKey, secretKey, method string, body []byte, contentType, date, path string) string {
	return "VWS " + accessKey + ":" + Sign(secretKey, method, body, contentType, date, path)
}

// parseHeader splits an Authorization header into access key and signature.
func parseHeader(header string) (accessKey, signature string, err error) {
	if header == "" {
		return "", "", ErrHeaderMissing
	}
	prefix, rest, found := strings.Cut(header, " ")
	if !found || prefix != "VWS" {
		return "", "", ErrHeaderMalformed
	}
	accessKey, signature, found = strings.Cut(rest, ":")
	if !found || accessKey == "" || signature == "" {
		return "", "", ErrHeaderMalformed
	}
	return accessKey, signature, nil
}

// signingContentType is the Content-Type value bound by the signature: the
// media type without parameters.
func signingContentType(header http.Header) string {
	ct := header.Get("Content-Type")
	mediaType, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(mediaType)
}

type credential struct {
	accessKey string
	secretKey string
}

func match(
	method, path string,
	body []byte,
	header http.Header,
	databases []*database.Database,
	credentials func(*database.Database) []credential,
) (*database.Database, error) {
	accessKey, signature, err := parseHeader(header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	contentType := signingContentType(header)
	date := header.Get("Date")

	for _, db := range databases {
		for _, cred := range credentials(db) {
			if cred.accessKey != accessKey {
				continue
			}
			expected := Sign(cred.secretKey, method, body, contentType, date, path)
			if hmac.Equal([]byte(expected), []byte(signature)) {
				return db, nil
			}
			return nil, ErrAuthenticationFailure
		}
	}
	return nil, ErrAuthenticationFailure
}

// MatchServerKeys resolves a management request to its database. Only
// server keys are accepted.
func MatchServerKeys(
	method, path string,
	body []byte,
	header http.Header,
	databases []*database.Database,
) (*database.Database, error) {
	return match(method, path, body, header, databases, func(db *database.Database) []credential {
		return []credential{{db.ServerAccessKey, db.ServerSecretKey}}
	})
}

// MatchClientKeys resolves a query request to its database. Client keys
// and server keys are both accepted.
func MatchClientKeys(
	method, path string,
	body []byte,
	header http.Header,
	databases []*database.Database,
) (*database.Database, error) {
	return match(method, path, body, header, databases, func(db *database.Database) []credential {
		return []credential{
			{db.ClientAccessKey, db.ClientSecretKey},
			{db.ServerAccessKey, db.ServerSecretKey},
		}
	})
}
