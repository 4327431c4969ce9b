package goelastic

import (
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHost             = "localhost"
	defaultPort             = 9200
	defaultProtocol         = "http"
	defaultSQLPath          = "_sql"
	defaultRequestTimeout   = 60 * time.Second
	defaultConnectTimeout   = 30 * time.Second
	defaultJWTExpireTimeout = 60 * time.Second
	defaultMaxRetryCount    = 3
	defaultAWSService       = "es"

	dsnScheme = "elasticsearch"
)

// Config is a set of configuration parameters used to connect to a cluster.
type Config struct {
	Host     string // hostname (optional)
	Port     int    // port (optional)
	Path     string // url path prefix of the cluster, e.g. behind a reverse proxy
	Protocol string // http or https (optional)

	User     string // Username
	Password string // Password (requires User)

	SQLPath                 string // SQL endpoint path relative to Path, default _sql
	FetchSize               int    // rows per response, 0 leaves the cluster default
	TimeZone                string // time zone of the SQL session
	FieldMultiValueLeniency bool   // let the cluster return multi-valued fields instead of failing

	Authenticator AuthType // authenticator type
	APIKey        string   // base64 encoded id:api_key for AuthTypeAPIKey
	Token         string   // bearer token for AuthTypeBearer

	tokenFilePath string // connections.toml only, read when Token is empty

	PrivateKey                 *rsa.PrivateKey // private key used to sign JWTs for AuthTypeJWT
	JWTIssuer                  string
	JWTAudience                string
	JWTExpireTimeout           time.Duration
	ClientAuthenticationSecret string // shared secret of the JWT realm, optional

	AWSRegion          string // region of an Amazon OpenSearch Service domain
	AWSService         string // es or aoss
	AWSAccessKeyID     string // static credentials, the default AWS chain is used when empty
	AWSSecretAccessKey string
	AWSSessionToken    string

	UseKeyring bool // look up a missing Password or APIKey in the OS keyring

	InsecureMode          bool          // skip TLS certificate verification
	TLSConfigName         string        // name of a tls.Config registered with RegisterTLSConfig
	RequestTimeout        time.Duration // timeout of a single HTTP request
	ConnectTimeout        time.Duration // dial timeout
	MaxRetryCount         int           // transport retries for idempotent requests
	DisableCircuitBreaker bool

	Transporter http.RoundTripper // replaces the default transport, the auth and breaker layers still apply

	ClientConfigFile string // path of the JSON client config that sets the log level and log path
}

// fillMissingConfigParameters fills the default values and validates the config.
func fillMissingConfigParameters(cfg *Config) error {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = defaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Protocol == "" {
		cfg.Protocol = defaultProtocol
	}
	cfg.Protocol = strings.ToLower(cfg.Protocol)
	if cfg.Protocol != "http" && cfg.Protocol != "https" {
		return errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, "scheme must be http or https: "+cfg.Protocol)
	}
	cfg.Path = strings.Trim(cfg.Path, "/")
	if cfg.SQLPath == "" {
		cfg.SQLPath = defaultSQLPath
	}
	cfg.SQLPath = strings.Trim(cfg.SQLPath, "/")
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.JWTExpireTimeout == 0 {
		cfg.JWTExpireTimeout = defaultJWTExpireTimeout
	}
	if cfg.MaxRetryCount == 0 {
		cfg.MaxRetryCount = defaultMaxRetryCount
	}
	if cfg.AWSService == "" {
		cfg.AWSService = defaultAWSService
	}
	if cfg.Authenticator == AuthTypeUnset {
		if cfg.User != "" {
			cfg.Authenticator = AuthTypeBasic
		} else {
			cfg.Authenticator = AuthTypeNone
		}
	}
	return validateAuthenticator(cfg)
}

// BaseURL returns the cluster root, including the path prefix.
func (cfg *Config) BaseURL() string {
	u := url.URL{
		Scheme: cfg.Protocol,
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
	}
	if cfg.Path != "" {
		u.Path = "/" + cfg.Path
	}
	return u.String()
}

// ParseDSN parses the DSN string to a Config.
//
//	elasticsearch://[user[:password]@]host[:port][/path][?param1=value1&paramN=valueN]
//
// The scheme may also be http or https, which sets Protocol.
func ParseDSN(dsn string) (*Config, error) {
	if !strings.Contains(dsn, "://") {
		dsn = dsnScheme + "://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, err)
	}
	cfg := &Config{}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		cfg.Protocol = strings.ToLower(u.Scheme)
	case dsnScheme, "es", "elasticsearch+http", "opensearch":
	case "elasticsearch+https":
		cfg.Protocol = "https"
	default:
		return nil, errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, "unknown scheme "+u.Scheme)
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	cfg.Host = u.Hostname()
	if p := u.Port(); p != "" {
		if cfg.Port, err = strconv.Atoi(p); err != nil {
			return nil, errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, "failed to parse a port number: "+p)
		}
	}
	cfg.Path = u.Path
	if err = parseDSNParams(cfg, u.Query()); err != nil {
		return nil, err
	}
	if err = fillMissingConfigParameters(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDSNParams parses the DSN "query string".
func parseDSNParams(cfg *Config, params url.Values) (err error) {
	logger.Infof("Query String: %v", maskSecrets(params.Encode()))
	for key, values := range params {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		switch strings.ToLower(key) {
		case "scheme", "protocol":
			cfg.Protocol = value
		case "sql_path":
			cfg.SQLPath = value
		case "fetch_size":
			if cfg.FetchSize, err = strconv.Atoi(value); err != nil {
				return invalidDSNParam(key, value)
			}
		case "time_zone":
			cfg.TimeZone = value
		case "field_multi_value_leniency":
			if cfg.FieldMultiValueLeniency, err = strconv.ParseBool(value); err != nil {
				return invalidDSNParam(key, value)
			}
		case "authenticator":
			if err = determineAuthenticatorType(cfg, value); err != nil {
				return err
			}
		case "api_key":
			cfg.APIKey = value
		case "token":
			cfg.Token = value
		case "private_key_file":
			if cfg.PrivateKey, err = loadPrivateKeyFile(value); err != nil {
				return err
			}
		case "jwt_issuer":
			cfg.JWTIssuer = value
		case "jwt_audience":
			cfg.JWTAudience = value
		case "jwt_timeout":
			if cfg.JWTExpireTimeout, err = parseSeconds(value); err != nil {
				return invalidDSNParam(key, value)
			}
		case "client_authentication_secret":
			cfg.ClientAuthenticationSecret = value
		case "aws_region":
			cfg.AWSRegion = value
		case "aws_service":
			cfg.AWSService = value
		case "aws_access_key_id":
			cfg.AWSAccessKeyID = value
		case "aws_secret_access_key":
			cfg.AWSSecretAccessKey = value
		case "aws_session_token":
			cfg.AWSSessionToken = value
		case "use_keyring":
			if cfg.UseKeyring, err = strconv.ParseBool(value); err != nil {
				return invalidDSNParam(key, value)
			}
		case "insecure_mode", "verify_certs":
			var b bool
			if b, err = strconv.ParseBool(value); err != nil {
				return invalidDSNParam(key, value)
			}
			// verify_certs is the inverse of insecure_mode
			cfg.InsecureMode = b == (strings.ToLower(key) == "insecure_mode")
		case "tls_config_name":
			cfg.TLSConfigName = value
		case "client_config_file":
			cfg.ClientConfigFile = value
		case "request_timeout":
			if cfg.RequestTimeout, err = parseSeconds(value); err != nil {
				return invalidDSNParam(key, value)
			}
		case "connect_timeout":
			if cfg.ConnectTimeout, err = parseSeconds(value); err != nil {
				return invalidDSNParam(key, value)
			}
		case "max_retry_count":
			if cfg.MaxRetryCount, err = strconv.Atoi(value); err != nil {
				return invalidDSNParam(key, value)
			}
		case "disable_circuit_breaker":
			if cfg.DisableCircuitBreaker, err = strconv.ParseBool(value); err != nil {
				return invalidDSNParam(key, value)
			}
		default:
			logger.Warnf("unknown DSN parameter %q ignored", key)
		}
	}
	return nil
}

// DSN constructs a DSN for the cluster from a Config.
func DSN(cfg *Config) (string, error) {
	if err := fillMissingConfigParameters(cfg); err != nil {
		return "", err
	}
	u := url.URL{
		Scheme: dsnScheme,
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Path,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	params := url.Values{}
	params.Set("scheme", cfg.Protocol)
	if cfg.SQLPath != defaultSQLPath {
		params.Set("sql_path", cfg.SQLPath)
	}
	if cfg.FetchSize != 0 {
		params.Set("fetch_size", strconv.Itoa(cfg.FetchSize))
	}
	if cfg.TimeZone != "" {
		params.Set("time_zone", cfg.TimeZone)
	}
	if cfg.FieldMultiValueLeniency {
		params.Set("field_multi_value_leniency", "true")
	}
	if cfg.Authenticator != AuthTypeNone && cfg.Authenticator != AuthTypeBasic {
		params.Set("authenticator", cfg.Authenticator.String())
	}
	if cfg.APIKey != "" {
		params.Set("api_key", cfg.APIKey)
	}
	if cfg.Token != "" {
		params.Set("token", cfg.Token)
	}
	if cfg.JWTIssuer != "" {
		params.Set("jwt_issuer", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "" {
		params.Set("jwt_audience", cfg.JWTAudience)
	}
	if cfg.JWTExpireTimeout != defaultJWTExpireTimeout {
		params.Set("jwt_timeout", strconv.FormatInt(int64(cfg.JWTExpireTimeout/time.Second), 10))
	}
	if cfg.AWSRegion != "" {
		params.Set("aws_region", cfg.AWSRegion)
	}
	if cfg.AWSService != defaultAWSService {
		params.Set("aws_service", cfg.AWSService)
	}
	if cfg.UseKeyring {
		params.Set("use_keyring", "true")
	}
	if cfg.InsecureMode {
		params.Set("insecure_mode", "true")
	}
	if cfg.TLSConfigName != "" {
		params.Set("tls_config_name", cfg.TLSConfigName)
	}
	if cfg.ClientConfigFile != "" {
		params.Set("client_config_file", cfg.ClientConfigFile)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		params.Set("request_timeout", strconv.FormatInt(int64(cfg.RequestTimeout/time.Second), 10))
	}
	if cfg.ConnectTimeout != defaultConnectTimeout {
		params.Set("connect_timeout", strconv.FormatInt(int64(cfg.ConnectTimeout/time.Second), 10))
	}
	if cfg.MaxRetryCount != defaultMaxRetryCount {
		params.Set("max_retry_count", strconv.Itoa(cfg.MaxRetryCount))
	}
	if cfg.DisableCircuitBreaker {
		params.Set("disable_circuit_breaker", "true")
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func parseSeconds(value string) (time.Duration, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func invalidDSNParam(key, value string) error {
	return errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, fmt.Sprintf("invalid value for %v: %v", key, value))
}

// lookupEnvDefaults fills credentials that are commonly provided through the environment.
func lookupEnvDefaults(cfg *Config) {
	if cfg.APIKey == "" && cfg.Authenticator == AuthTypeAPIKey {
		cfg.APIKey = os.Getenv("ELASTIC_API_KEY")
	}
	if cfg.Password == "" && cfg.User != "" && !cfg.UseKeyring {
		cfg.Password = os.Getenv("ELASTIC_PASSWORD")
	}
}
