package goelastic

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
)

func TestAWSSigV4RoundTripper(t *testing.T) {
	var signed *http.Request
	var signedBody string
	next := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		signed = req
		b, _ := io.ReadAll(req.Body)
		signedBody = string(b)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	cfg := &Config{AWSRegion: "us-east-1", AWSService: "es"}
	provider := credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", "")
	rt := newAWSSigV4RoundTripper(next, provider, cfg)
	rt.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	body := `{"query":"SELECT 1"}`
	req, err := http.NewRequest(http.MethodPost, "https://search-domain.us-east-1.es.amazonaws.com/_sql?format=json", strings.NewReader(body))
	assertNilF(t, err)
	req.Header.Set(headerAuthorizationKey, "Basic dXNlcjpwYXNz")
	req.Header.Set(headerContentType, headerContentTypeApplicationJSON)

	_, err = rt.RoundTrip(req)
	assertNilF(t, err)
	assertNotNilF(t, signed)

	hash := sha256.Sum256([]byte(body))
	assertEqualE(t, signed.Header.Get(headerAmzContentSha256), hex.EncodeToString(hash[:]))
	assertEqualE(t, signed.Header.Get("X-Amz-Date"), "20240102T030405Z")
	authorization := signed.Header.Get(headerAuthorizationKey)
	assertTrueE(t, strings.HasPrefix(authorization, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20240102/us-east-1/es/aws4_request"), authorization)
	assertStringContainsE(t, authorization, "Signature=")
	assertEqualE(t, signedBody, body, "the signed request still carries the body")
	assertEqualE(t, req.Header.Get(headerAuthorizationKey), "Basic dXNlcjpwYXNz", "the original request is not modified")
}

func TestAWSSigV4EmptyBody(t *testing.T) {
	var signed *http.Request
	next := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		signed = req
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	cfg := &Config{AWSRegion: "eu-west-1", AWSService: "aoss"}
	rt := newAWSSigV4RoundTripper(next, credentials.NewStaticCredentialsProvider("AKID", "SECRET", "TOKEN"), cfg)
	req, _ := http.NewRequest(http.MethodGet, "https://collection.eu-west-1.aoss.amazonaws.com/", nil)
	_, err := rt.RoundTrip(req)
	assertNilF(t, err)

	empty := sha256.Sum256(nil)
	assertEqualE(t, signed.Header.Get(headerAmzContentSha256), hex.EncodeToString(empty[:]))
	assertEqualE(t, signed.Header.Get("X-Amz-Security-Token"), "TOKEN")
	assertStringContainsE(t, signed.Header.Get(headerAuthorizationKey), "/eu-west-1/aoss/aws4_request")
}
