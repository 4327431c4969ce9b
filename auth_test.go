package goelastic

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assertNilF(t, err)
	return key
}

func TestDetermineAuthenticatorType(t *testing.T) {
	testcases := []struct {
		value    string
		expected AuthType
	}{
		{"", AuthTypeUnset},
		{"none", AuthTypeNone},
		{"Basic", AuthTypeBasic},
		{"apikey", AuthTypeAPIKey},
		{"api_key", AuthTypeAPIKey},
		{"bearer", AuthTypeBearer},
		{"oauth", AuthTypeBearer},
		{"jwt", AuthTypeJWT},
		{"aws_sigv4", AuthTypeAWSSigV4},
		{" sigv4 ", AuthTypeAWSSigV4},
	}
	for _, tc := range testcases {
		t.Run(tc.value, func(t *testing.T) {
			cfg := &Config{}
			assertNilF(t, determineAuthenticatorType(cfg, tc.value))
			assertEqualE(t, cfg.Authenticator, tc.expected)
		})
	}
	assertErrIsE(t, determineAuthenticatorType(&Config{}, "kerberos"), ErrProgramming)
}

func TestValidateAuthenticator(t *testing.T) {
	for _, cfg := range []*Config{
		{Authenticator: AuthTypeBasic},
		{Authenticator: AuthTypeBearer},
		{Authenticator: AuthTypeJWT},
		{Authenticator: AuthTypeAWSSigV4},
	} {
		t.Run(cfg.Authenticator.String(), func(t *testing.T) {
			assertErrIsE(t, validateAuthenticator(cfg), ErrProgramming)
		})
	}
	assertNilE(t, validateAuthenticator(&Config{Authenticator: AuthTypeAPIKey, APIKey: "k"}))
}

func TestAuthorizeHeaders(t *testing.T) {
	testcases := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{"none", Config{Authenticator: AuthTypeNone}, ""},
		{"basic", Config{Authenticator: AuthTypeBasic, User: "elastic", Password: "changeme"}, "Basic ZWxhc3RpYzpjaGFuZ2VtZQ=="},
		{"api key", Config{Authenticator: AuthTypeAPIKey, APIKey: "aWQ6a2V5"}, "ApiKey aWQ6a2V5"},
		{"bearer", Config{Authenticator: AuthTypeBearer, Token: "tok"}, "Bearer tok"},
		{"sigv4 signs in the transport", Config{Authenticator: AuthTypeAWSSigV4}, ""},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://localhost:9200/", nil)
			assertNilF(t, newAuthenticator(&tc.cfg).authorize(req))
			assertEqualE(t, req.Header.Get(headerAuthorizationKey), tc.expected)
		})
	}
}

func TestJWTAuthorization(t *testing.T) {
	key := generateTestKey(t)
	cfg := &Config{
		Authenticator:              AuthTypeJWT,
		User:                       "svc",
		PrivateKey:                 key,
		JWTAudience:                "es-realm",
		JWTExpireTimeout:           time.Minute,
		ClientAuthenticationSecret: "shared",
		Host:                       "localhost",
		Port:                       9200,
		Protocol:                   "http",
	}
	auth := newAuthenticator(cfg)
	now := time.Now()
	auth.now = func() time.Time { return now }

	req, _ := http.NewRequest(http.MethodGet, "http://localhost:9200/", nil)
	assertNilF(t, auth.authorize(req))
	header := req.Header.Get(headerAuthorizationKey)
	assertTrueF(t, len(header) > len("Bearer "))
	assertEqualE(t, req.Header.Get(headerClientAuthentication), "SharedSecret shared")

	token, err := jwt.Parse(header[len("Bearer "):], func(token *jwt.Token) (interface{}, error) {
		return key.Public(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithAudience("es-realm"))
	assertNilF(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assertEqualE(t, claims["sub"], "svc")
	assertEqualE(t, claims["iss"], "svc")
	kid, _ := token.Header["kid"].(string)
	assertTrueE(t, len(kid) > len("SHA256:"))

	first := auth.jwtToken
	now = now.Add(30 * time.Second)
	assertNilF(t, auth.authorize(req))
	assertEqualE(t, auth.jwtToken, first, "the token is reused while it is fresh")

	now = now.Add(25 * time.Second)
	assertNilF(t, auth.authorize(req))
	assertTrueE(t, auth.jwtToken != first, "the token is renewed near expiry")
}

func TestJWTWithoutKey(t *testing.T) {
	cfg := &Config{Authenticator: AuthTypeJWT, Host: "localhost", Port: 9200, Protocol: "http", JWTExpireTimeout: time.Minute}
	req, _ := http.NewRequest(http.MethodGet, "http://localhost:9200/", nil)
	err := newAuthenticator(cfg).authorize(req)
	assertErrIsE(t, err, ErrOperational)
}

func TestLoadPrivateKeyFile(t *testing.T) {
	key := generateTestKey(t)
	dir := t.TempDir()

	pkcs1 := filepath.Join(dir, "pkcs1.pem")
	assertNilF(t, os.WriteFile(pkcs1, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0600))
	loaded, err := loadPrivateKeyFile(pkcs1)
	assertNilF(t, err)
	assertTrueE(t, loaded.Equal(key))

	der, err := x509.MarshalPKCS8PrivateKey(key)
	assertNilF(t, err)
	pkcs8 := filepath.Join(dir, "pkcs8.pem")
	assertNilF(t, os.WriteFile(pkcs8, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0600))
	loaded, err = loadPrivateKeyFile(pkcs8)
	assertNilF(t, err)
	assertTrueE(t, loaded.Equal(key))

	garbage := filepath.Join(dir, "garbage.pem")
	assertNilF(t, os.WriteFile(garbage, []byte("not a key"), 0600))
	_, err = loadPrivateKeyFile(garbage)
	var ee *ElasticError
	assertErrorsAsF(t, err, &ee)
	assertEqualE(t, ee.Number, ErrCodePrivateKeyParseError)

	_, err = loadPrivateKeyFile(filepath.Join(dir, "missing.pem"))
	assertErrIsE(t, err, ErrProgramming)
}

type mapStorage map[string]string

func (m mapStorage) setCredential(spec *secureTokenSpec, value string) error {
	m[spec.buildKey()] = value
	return nil
}

func (m mapStorage) getCredential(spec *secureTokenSpec) string {
	return m[spec.buildKey()]
}

func (m mapStorage) deleteCredential(spec *secureTokenSpec) error {
	delete(m, spec.buildKey())
	return nil
}

func TestResolveCredentials(t *testing.T) {
	store := mapStorage{}
	assertNilF(t, store.setCredential(newPasswordSpec("es.local", "alice"), "s3cret"))
	assertNilF(t, store.setCredential(newAPIKeySpec("es.local", "alice"), "a2V5"))

	cfg := &Config{Host: "es.local", User: "alice", Authenticator: AuthTypeBasic, UseKeyring: true}
	resolveCredentials(cfg, store)
	assertEqualE(t, cfg.Password, "s3cret")

	cfg = &Config{Host: "es.local", User: "alice", Authenticator: AuthTypeAPIKey, UseKeyring: true, APIKey: "explicit"}
	resolveCredentials(cfg, store)
	assertEqualE(t, cfg.APIKey, "explicit", "configured secrets win")

	cfg = &Config{Host: "es.local", User: "alice", Authenticator: AuthTypeBasic, Password: "given"}
	resolveCredentials(cfg, mapStorage{})
	assertEqualE(t, cfg.Password, "given")
}

func TestResolveCredentialsFromEnv(t *testing.T) {
	t.Setenv("ELASTIC_PASSWORD", "from-env")
	t.Setenv("ELASTIC_API_KEY", "env-key")
	cfg := &Config{User: "bob", Authenticator: AuthTypeBasic}
	resolveCredentials(cfg, mapStorage{})
	assertEqualE(t, cfg.Password, "from-env")

	cfg = &Config{Authenticator: AuthTypeAPIKey}
	resolveCredentials(cfg, mapStorage{})
	assertEqualE(t, cfg.APIKey, "env-key")
}
