package goelastic

import (
	"os"
	path "path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	toml "github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const (
	elasticHomeEnv              = "ELASTIC_HOME"
	elasticConnectionNameEnv    = "ELASTIC_DEFAULT_CONNECTION_NAME"
	defaultConnectionName       = "default"
	defaultElasticConfigDirName = ".elastic"
	connectionsFileName         = "connections.toml"
	defaultTokenPath            = "./session/token"
)

// LoadConnectionConfig returns the connection config loaded from the toml file.
// By default, ELASTIC_HOME(toml file path) is os.home/.elastic and
// ELASTIC_DEFAULT_CONNECTION_NAME(section) is 'default'.
func LoadConnectionConfig() (*Config, error) {
	cfg := &Config{}
	connectionName := getConnectionName(os.Getenv(elasticConnectionNameEnv))
	configDir, err := getTomlFilePath(os.Getenv(elasticHomeEnv))
	if err != nil {
		return nil, err
	}
	tomlFilePath := path.Join(configDir, connectionsFileName)
	if err = validateFilePermission(tomlFilePath); err != nil {
		return nil, err
	}
	tomlInfo := make(map[string]interface{})
	if _, err = toml.DecodeFile(tomlFilePath, &tomlInfo); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %v", tomlFilePath)
	}
	section, exist := tomlInfo[connectionName]
	if !exist {
		return nil, &ElasticError{
			Number:  ErrCodeFailedToFindDSNInToml,
			Kind:    KindProgramming,
			Message: errMsgFailedToFindDSN,
		}
	}
	connectionConfig, ok := section.(map[string]interface{})
	if !ok {
		return nil, tomlParsingError(connectionName, section)
	}
	if err = parseToml(cfg, connectionConfig); err != nil {
		return nil, err
	}
	if shouldReadTokenFromFile(cfg) {
		if cfg.Token, err = readToken(cfg.tokenFilePath, configDir); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func tomlParsingError(key string, value interface{}) error {
	return &ElasticError{
		Number:      ErrCodeTomlFileParsingFailed,
		Kind:        KindProgramming,
		Message:     errMsgFailedToParseToml,
		MessageArgs: []interface{}{key, maskSecrets(strings.TrimSpace(strconv.Quote(toString(value))))},
	}
}

func parseToml(cfg *Config, connection map[string]interface{}) error {
	var err error
	for key, value := range connection {
		switch strings.ToLower(key) {
		case "host":
			cfg.Host, err = parseString(value)
		case "port":
			cfg.Port, err = parseInt(value)
		case "path":
			cfg.Path, err = parseString(value)
		case "protocol", "scheme":
			cfg.Protocol, err = parseString(value)
		case "user", "username":
			cfg.User, err = parseString(value)
		case "password":
			cfg.Password, err = parseString(value)
		case "sql_path":
			cfg.SQLPath, err = parseString(value)
		case "fetch_size":
			cfg.FetchSize, err = parseInt(value)
		case "time_zone":
			cfg.TimeZone, err = parseString(value)
		case "field_multi_value_leniency":
			cfg.FieldMultiValueLeniency, err = parseBool(value)
		case "authenticator":
			var v string
			if v, err = parseString(value); err == nil {
				err = determineAuthenticatorType(cfg, v)
			}
		case "api_key":
			cfg.APIKey, err = parseString(value)
		case "token":
			cfg.Token, err = parseString(value)
		case "token_file_path":
			cfg.tokenFilePath, err = parseString(value)
		case "private_key_file":
			var v string
			if v, err = parseString(value); err == nil {
				if cfg.PrivateKey, err = loadPrivateKeyFile(v); err != nil {
					return err
				}
			}
		case "jwt_issuer":
			cfg.JWTIssuer, err = parseString(value)
		case "jwt_audience":
			cfg.JWTAudience, err = parseString(value)
		case "jwt_timeout":
			cfg.JWTExpireTimeout, err = parseDuration(value)
		case "client_authentication_secret":
			cfg.ClientAuthenticationSecret, err = parseString(value)
		case "aws_region":
			cfg.AWSRegion, err = parseString(value)
		case "aws_service":
			cfg.AWSService, err = parseString(value)
		case "aws_access_key_id":
			cfg.AWSAccessKeyID, err = parseString(value)
		case "aws_secret_access_key":
			cfg.AWSSecretAccessKey, err = parseString(value)
		case "aws_session_token":
			cfg.AWSSessionToken, err = parseString(value)
		case "use_keyring":
			cfg.UseKeyring, err = parseBool(value)
		case "insecure_mode":
			cfg.InsecureMode, err = parseBool(value)
		case "verify_certs":
			var verify bool
			if verify, err = parseBool(value); err == nil {
				cfg.InsecureMode = !verify
			}
		case "tls_config_name":
			cfg.TLSConfigName, err = parseString(value)
		case "client_config_file":
			cfg.ClientConfigFile, err = parseString(value)
		case "request_timeout":
			cfg.RequestTimeout, err = parseDuration(value)
		case "connect_timeout":
			cfg.ConnectTimeout, err = parseDuration(value)
		case "max_retry_count":
			cfg.MaxRetryCount, err = parseInt(value)
		case "disable_circuit_breaker":
			cfg.DisableCircuitBreaker, err = parseBool(value)
		default:
			logger.Warnf("unknown key %q in %v ignored", key, connectionsFileName)
		}
		if err != nil {
			if _, isElastic := err.(*ElasticError); isElastic {
				return err
			}
			return tomlParsingError(key, value)
		}
	}
	return nil
}

func toString(i interface{}) string {
	switch v := i.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// toml decodes integers as int64
func parseInt(i interface{}) (int, error) {
	switch v := i.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		return strconv.Atoi(v)
	}
	return 0, errors.New("failed to parse the value to integer")
}

func parseBool(i interface{}) (bool, error) {
	switch v := i.(type) {
	case bool:
		return v, nil
	case string:
		vv, err := strconv.ParseBool(v)
		if err != nil {
			return false, errors.New("failed to parse the value to boolean")
		}
		return vv, nil
	}
	return false, errors.New("failed to parse the value to boolean")
}

// durations are given in seconds
func parseDuration(i interface{}) (time.Duration, error) {
	num, err := parseInt(i)
	if err != nil {
		return time.Duration(0), err
	}
	return time.Duration(num) * time.Second, nil
}

func parseString(i interface{}) (string, error) {
	v, ok := i.(string)
	if !ok {
		return "", errors.New("failed to convert the value to string")
	}
	return v, nil
}

func readToken(tokenPath, configDir string) (string, error) {
	if tokenPath == "" {
		tokenPath = defaultTokenPath
	}
	if !path.IsAbs(tokenPath) {
		tokenPath = path.Join(configDir, tokenPath)
	}
	if err := validateFilePermission(tokenPath); err != nil {
		return "", err
	}
	token, err := os.ReadFile(tokenPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to read the token file")
	}
	return strings.TrimSpace(string(token)), nil
}

func getTomlFilePath(filePath string) (string, error) {
	if len(filePath) != 0 {
		if path.IsAbs(filePath) {
			return filePath, nil
		}
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		filePath = path.Join(homeDir, defaultElasticConfigDirName)
	}
	return path.Abs(filePath)
}

func getConnectionName(name string) string {
	if len(name) != 0 {
		return name
	}
	return defaultConnectionName
}

func validateFilePermission(filePath string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return err
	}
	if permission := fileInfo.Mode().Perm(); permission != os.FileMode(0600) {
		return errors.Errorf("file %v has permissions %v, only the owner may read or write it (0600)", filePath, permission)
	}
	return nil
}

func shouldReadTokenFromFile(cfg *Config) bool {
	return cfg != nil && cfg.Authenticator == AuthTypeBearer && len(cfg.Token) == 0
}
