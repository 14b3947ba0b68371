// Package testkit provides fixtures shared by the service tests: small
// deterministic images, signed request builders and multipart query
// bodies.
package testkit

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/konstin/vws-python-mock/pkg/auth"
	"github.com/konstin/vws-python-mock/pkg/database"
)

// HighContrastPNG returns a PNG whose channel deviation is far above the
// success threshold, so a target built from it finishes as "success". The
// seed makes distinct images for distinct tests.
func HighContrastPNG(seed int64) []byte {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- fixture data.
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SolidPNG returns a uniform PNG with zero channel deviation, so a target
// built from it finishes as "failed".
func SolidPNG(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// HighContrastJPEG is HighContrastPNG in JPEG form.
func HighContrastJPEG(seed int64) []byte {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- fixture data.
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Keys selects which credential pair signs a request.
type Keys int

const (
	// ServerKeys signs with the database's server credentials.
	ServerKeys Keys = iota
	// ClientKeys signs with the database's client credentials.
	ClientKeys
)

// NewSignedRequest builds an http.Request with a valid Date header and
// Authorization signature for the given database.
func NewSignedRequest(
	db *database.Database,
	keys Keys,
	method, url, path, contentType string,
	body []byte,
) (*http.Request, error) {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	date := time.Now().UTC().Format(http.TimeFormat)
	req.Header.Set("Date", date)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	accessKey, secretKey := db.ServerAccessKey, db.ServerSecretKey
	if keys == ClientKeys {
		accessKey, secretKey = db.ClientAccessKey, db.ClientSecretKey
	}
	signingType, _, _ := cutMediaType(contentType)
	req.Header.Set("Authorization", auth.Header(accessKey, secretKey, method, body, signingType, date, path))
	return req, nil
}

func cutMediaType(contentType string) (mediaType, params string, found bool) {
	for i := 0; i < len(contentType); i++ {
		if contentType[i] == ';' {
			return contentType[:i], contentType[i+1:], true
		}
	}
	return contentType, "", false
}

// QueryBody builds a multipart/form-data body for the query endpoint.
// extraFields are appended verbatim after the image part; pass
// "max_num_results" or "include_target_data" there.
func QueryBody(image []byte, extraFields map[string]string) (body []byte, contentType string, err error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	for name, value := range extraFields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// TargetBody renders the JSON body of an add/update target request from a
// field map, preserving only the fields the caller supplies.
func TargetBody(fields map[string]any) []byte {
	body, err := json.Marshal(fields)
	if err != nil {
		panic(err)
	}
	return body
}
