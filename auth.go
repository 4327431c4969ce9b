package goelastic

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// AuthType indicates the type of authentication against the cluster.
type AuthType int

const (
	// AuthTypeUnset lets the driver choose basic or no authentication from the config.
	AuthTypeUnset AuthType = iota
	// AuthTypeNone sends no credentials.
	AuthTypeNone
	// AuthTypeBasic is the username/password authentication.
	AuthTypeBasic
	// AuthTypeAPIKey sends an Elasticsearch API key.
	AuthTypeAPIKey
	// AuthTypeBearer sends an OAuth2 access token or a service account token.
	AuthTypeBearer
	// AuthTypeJWT signs a JWT with the configured private key for a JWT realm.
	AuthTypeJWT
	// AuthTypeAWSSigV4 signs every request for Amazon OpenSearch Service.
	AuthTypeAWSSigV4
)

func (authType AuthType) String() string {
	switch authType {
	case AuthTypeNone:
		return "NONE"
	case AuthTypeBasic:
		return "BASIC"
	case AuthTypeAPIKey:
		return "APIKEY"
	case AuthTypeBearer:
		return "BEARER"
	case AuthTypeJWT:
		return "JWT"
	case AuthTypeAWSSigV4:
		return "AWS_SIGV4"
	}
	return "UNSET"
}

func determineAuthenticatorType(cfg *Config, value string) error {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "":
		cfg.Authenticator = AuthTypeUnset
	case AuthTypeNone.String():
		cfg.Authenticator = AuthTypeNone
	case AuthTypeBasic.String():
		cfg.Authenticator = AuthTypeBasic
	case AuthTypeAPIKey.String(), "API_KEY":
		cfg.Authenticator = AuthTypeAPIKey
	case AuthTypeBearer.String(), "OAUTH", "TOKEN":
		cfg.Authenticator = AuthTypeBearer
	case AuthTypeJWT.String():
		cfg.Authenticator = AuthTypeJWT
	case AuthTypeAWSSigV4.String(), "SIGV4", "AWS":
		cfg.Authenticator = AuthTypeAWSSigV4
	default:
		return errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, "unknown authenticator "+value)
	}
	return nil
}

func validateAuthenticator(cfg *Config) error {
	switch cfg.Authenticator {
	case AuthTypeBasic:
		if cfg.User == "" {
			return errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, "basic authentication requires a user")
		}
	case AuthTypeBearer:
		if cfg.Token == "" {
			return errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, "bearer authentication requires a token")
		}
	case AuthTypeJWT:
		if cfg.PrivateKey == nil {
			return errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, "jwt authentication requires private_key_file")
		}
	case AuthTypeAWSSigV4:
		if cfg.AWSRegion == "" {
			return errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, "aws_sigv4 authentication requires aws_region")
		}
	}
	return nil
}

// loadPrivateKeyFile reads a PEM encoded PKCS8 or PKCS1 RSA private key.
func loadPrivateKeyFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ElasticError{
			Number:      ErrCodePrivateKeyParseError,
			Kind:        KindProgramming,
			Message:     "failed to read the private key file: %v",
			MessageArgs: []interface{}{path},
			Err:         err,
		}
	}
	key, err := parsePrivateKeyPEM(data)
	if err != nil {
		return nil, &ElasticError{
			Number:      ErrCodePrivateKeyParseError,
			Kind:        KindProgramming,
			Message:     "failed to parse the private key file %v: %v",
			MessageArgs: []interface{}{path, err},
			Err:         err,
		}
	}
	return key, nil
}

func parsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "PKCS8 parse failed")
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.Errorf("private key is %T, expected an RSA key", parsed)
	}
	return key, nil
}

// prepareJWTToken signs a short lived JWT for the configured user.
func prepareJWTToken(cfg *Config, now time.Time) (string, error) {
	if cfg.PrivateKey == nil {
		return "", errors.New("trying to use jwt authentication, but PrivateKey was not provided in the driver config")
	}
	logger.Debug("preparing JWT for jwt authentication")
	pubBytes, err := x509.MarshalPKIXPublicKey(cfg.PrivateKey.Public())
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal the public key")
	}
	hash := sha256.Sum256(pubBytes)

	issuer := cfg.JWTIssuer
	if issuer == "" {
		issuer = cfg.User
	}
	issueAtTime := now.UTC()
	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": cfg.User,
		"iat": issueAtTime.Unix(),
		"nbf": issueAtTime.Add(-time.Minute).Unix(),
		"exp": issueAtTime.Add(cfg.JWTExpireTimeout).Unix(),
	}
	if cfg.JWTAudience != "" {
		claims["aud"] = cfg.JWTAudience
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "SHA256:" + base64.StdEncoding.EncodeToString(hash[:])
	signed, err := token.SignedString(cfg.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign the JWT")
	}
	return signed, nil
}

// authenticator decorates outgoing requests with the configured credentials.
type authenticator struct {
	cfg *Config

	mu        sync.Mutex
	jwtToken  string
	jwtExpiry time.Time
	now       func() time.Time
}

func newAuthenticator(cfg *Config) *authenticator {
	return &authenticator{cfg: cfg, now: time.Now}
}

func (a *authenticator) authorize(req *http.Request) error {
	switch a.cfg.Authenticator {
	case AuthTypeBasic:
		req.SetBasicAuth(a.cfg.User, a.cfg.Password)
	case AuthTypeAPIKey:
		req.Header.Set(headerAuthorizationKey, "ApiKey "+a.cfg.APIKey)
	case AuthTypeBearer:
		req.Header.Set(headerAuthorizationKey, "Bearer "+a.cfg.Token)
	case AuthTypeJWT:
		token, err := a.currentJWT()
		if err != nil {
			return err
		}
		req.Header.Set(headerAuthorizationKey, "Bearer "+token)
		if a.cfg.ClientAuthenticationSecret != "" {
			req.Header.Set(headerClientAuthentication, "SharedSecret "+a.cfg.ClientAuthenticationSecret)
		}
	}
	// AuthTypeAWSSigV4 signs in the transport, after the body is final
	return nil
}

// currentJWT returns a cached token until a tenth of its lifetime is left.
func (a *authenticator) currentJWT() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	if a.jwtToken != "" && now.Add(a.cfg.JWTExpireTimeout/10).Before(a.jwtExpiry) {
		return a.jwtToken, nil
	}
	token, err := prepareJWTToken(a.cfg, now)
	if err != nil {
		return "", &ElasticError{
			Number:      ErrCodeAuthentication,
			Kind:        KindOperational,
			Message:     errMsgAuthentication,
			MessageArgs: []interface{}{a.cfg.BaseURL(), err},
			Endpoint:    a.cfg.BaseURL(),
			Err:         err,
		}
	}
	a.jwtToken = token
	a.jwtExpiry = now.Add(a.cfg.JWTExpireTimeout)
	return token, nil
}

// resolveCredentials fills secrets that are not part of the DSN.
func resolveCredentials(cfg *Config, store secureStorageManager) {
	lookupEnvDefaults(cfg)
	if !cfg.UseKeyring {
		return
	}
	switch cfg.Authenticator {
	case AuthTypeBasic:
		if cfg.Password == "" {
			cfg.Password = store.getCredential(newPasswordSpec(cfg.Host, cfg.User))
		}
	case AuthTypeAPIKey:
		if cfg.APIKey == "" {
			cfg.APIKey = store.getCredential(newAPIKeySpec(cfg.Host, cfg.User))
		}
	}
	if cfg.Password == "" && cfg.APIKey == "" {
		logger.Debug(fmt.Sprintf("no credential found in the keyring for %v", cfg.Host))
	}
}
