package goelastic

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// log levels accepted in the client config file
const (
	Off   string = "OFF"   // log level for logging switched off
	Error string = "ERROR" // error log level
	Warn  string = "WARN"  // warn log level
	Info  string = "INFO"  // info log level
	Debug string = "DEBUG" // debug log level
	Trace string = "TRACE" // trace log level
)

const (
	defaultClientConfigName = "es_client_config.json"
	clientConfigEnvName     = "ELASTIC_CLIENT_CONFIG_FILE"
	logFileName             = "goelastic.log"
)

// ClientConfig is the root of the client config file.
type ClientConfig struct {
	Common *ClientConfigCommonProps `json:"common"`
}

// ClientConfigCommonProps properties from "common" section
type ClientConfigCommonProps struct {
	LogLevel string `json:"log_level,omitempty"`
	LogPath  string `json:"log_path,omitempty"`
}

// clientLogging remembers which config file configured the logger, so that a
// pool opening many connections reconfigures it once.
type clientLogging struct {
	mu         sync.Mutex
	configured bool
	configFile string
	logFile    *os.File
}

var clientLoggingState = &clientLogging{}

// initClientLogging applies the log level and log path of the first client
// config found: the explicit path, then $ELASTIC_CLIENT_CONFIG_FILE, then
// es_client_config.json in the working, home and temp directories.
func initClientLogging(explicitPath string) error {
	return clientLoggingState.init(explicitPath)
}

func (cl *clientLogging) init(explicitPath string) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.configured {
		if explicitPath != "" && explicitPath != cl.configFile {
			logger.Warnf("client config %v ignored, logging was already configured by %v", explicitPath, cl.configFile)
		}
		return nil
	}
	filePath, err := findClientConfigFilePath(explicitPath, clientConfigPredefinedDirs())
	if err != nil {
		return clientConfigError(err)
	}
	if filePath == "" {
		return nil
	}
	config, err := parseClientConfiguration(filePath)
	if err != nil {
		return clientConfigError(err)
	}
	level, err := toLogLevel(config.Common.LogLevel)
	if err != nil {
		return clientConfigError(err)
	}
	logPath, err := logDirectory(config.Common.LogPath)
	if err != nil {
		return clientConfigError(err)
	}
	if err = cl.reconfigure(level, logPath); err != nil {
		return clientConfigError(err)
	}
	cl.configured = true
	cl.configFile = filePath
	logger.Infof("logging configured by %v: level %v, path %v", filePath, level, logPath)
	return nil
}

func (cl *clientLogging) reconfigure(level string, logPath string) error {
	// logrus has no off level, panic is the closest
	logrusLevel := strings.ToLower(level)
	if level == Off {
		logrusLevel = "panic"
	}
	if err := logger.SetLogLevel(logrusLevel); err != nil {
		return err
	}
	output, file, err := createLogWriter(logPath)
	if err != nil {
		return err
	}
	logger.SetOutput(output)
	if cl.logFile != nil {
		cl.logFile.Close()
	}
	cl.logFile = file
	return nil
}

func (cl *clientLogging) reset() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.logFile != nil {
		cl.logFile.Close()
	}
	cl.configured = false
	cl.configFile = ""
	cl.logFile = nil
}

func clientConfigError(err error) error {
	return &ElasticError{
		Number:      ErrCodeClientConfigFailed,
		Kind:        KindProgramming,
		Message:     errMsgClientConfigFailed,
		MessageArgs: []interface{}{err},
		Err:         err,
	}
}

func parseClientConfiguration(filePath string) (*ClientConfig, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "parsing client config failed")
	}
	var clientConfig ClientConfig
	if err = jsonAPI.Unmarshal(contents, &clientConfig); err != nil {
		return nil, errors.Wrapf(err, "parsing client config %v failed", filePath)
	}
	if clientConfig.Common == nil {
		return nil, errors.Errorf("common section in client config %v not found", filePath)
	}
	return &clientConfig, nil
}

// toLogLevel normalizes a configured level. An empty level switches logging off.
func toLogLevel(level string) (string, error) {
	if level == "" {
		logger.Warn("log_level in client config not found, using OFF")
		return Off, nil
	}
	upper := strings.ToUpper(level)
	switch upper {
	case Off, Error, Warn, Info, Debug, Trace:
		return upper, nil
	}
	return "", errors.Errorf("unknown log level: %v", level)
}

// logDirectory returns <logPath>/go, creating it when missing. STDOUT is kept
// as is.
func logDirectory(logPath string) (string, error) {
	if strings.EqualFold(logPath, "STDOUT") {
		return logPath, nil
	}
	if logPath == "" {
		logPath = os.TempDir()
		logger.Warnf("log_path in client config not found, using %v", logPath)
	}
	dir := filepath.Join(logPath, "go")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create log directory %v", dir)
	}
	return dir, nil
}

func createLogWriter(logPath string) (io.Writer, *os.File, error) {
	if strings.EqualFold(logPath, "STDOUT") {
		return os.Stdout, nil, nil
	}
	file, err := os.OpenFile(filepath.Join(logPath, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open the log file")
	}
	return io.MultiWriter(file, os.Stdout), file, nil
}

func findClientConfigFilePath(explicitPath string, predefinedDirs []string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}
	if envPath := os.Getenv(clientConfigEnvName); envPath != "" {
		return envPath, nil
	}
	for _, dir := range predefinedDirs {
		filePath := filepath.Join(dir, defaultClientConfigName)
		_, err := os.Stat(filePath)
		if err == nil {
			return filePath, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", errors.Wrapf(err, "failed to look up %v", filePath)
		}
	}
	return "", nil
}

func clientConfigPredefinedDirs() []string {
	dirs := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, homeDir)
	}
	return append(dirs, os.TempDir())
}
