package goelastic

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const headerAmzContentSha256 = "X-Amz-Content-Sha256"

// awsSigV4RoundTripper signs every request for Amazon OpenSearch Service
// (service "es") or OpenSearch Serverless (service "aoss").
type awsSigV4RoundTripper struct {
	next        http.RoundTripper
	signer      *v4.Signer
	credentials aws.CredentialsProvider
	region      string
	service     string
	now         func() time.Time
}

func newAWSCredentialsProvider(ctx context.Context, cfg *Config) (aws.CredentialsProvider, error) {
	if cfg.AWSAccessKeyID != "" {
		return credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSSessionToken), nil
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, err
	}
	return awsCfg.Credentials, nil
}

func newAWSSigV4RoundTripper(next http.RoundTripper, provider aws.CredentialsProvider, cfg *Config) *awsSigV4RoundTripper {
	return &awsSigV4RoundTripper{
		next:        next,
		signer:      v4.NewSigner(),
		credentials: aws.NewCredentialsCache(provider),
		region:      cfg.AWSRegion,
		service:     cfg.AWSService,
		now:         time.Now,
	}
}

func (rt *awsSigV4RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	creds, err := rt.credentials.Retrieve(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := readRequestBody(req)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(payload)
	payloadHash := hex.EncodeToString(hash[:])

	signed := req.Clone(ctx)
	if req.Body != nil {
		signed.Body = io.NopCloser(bytes.NewReader(payload))
	}
	signed.Header.Set(headerAmzContentSha256, payloadHash)
	// the SigV4 canonical request must not include the Authorization header of another scheme
	signed.Header.Del(headerAuthorizationKey)
	if err = rt.signer.SignHTTP(ctx, creds, signed, payloadHash, rt.service, rt.region, rt.now()); err != nil {
		return nil, err
	}
	return rt.next.RoundTrip(signed)
}

func readRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return []byte{}, nil
	}
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		defer body.Close()
		return io.ReadAll(body)
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}
