package goelastic

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeConnectionsFile(t *testing.T, dir, content string, perm os.FileMode) {
	path := filepath.Join(dir, connectionsFileName)
	assertNilF(t, os.WriteFile(path, []byte(content), perm))
	assertNilF(t, os.Chmod(path, perm))
}

func TestLoadConnectionConfig(t *testing.T) {
	dir := t.TempDir()
	writeConnectionsFile(t, dir, `
[default]
host = "es.example.com"
port = 9243
protocol = "https"
user = "elastic"
password = "changeme"
fetch_size = 250
field_multi_value_leniency = true
request_timeout = 15

[reporting]
host = "reporting.local"
authenticator = "apikey"
api_key = "aWQ6a2V5"
sql_path = "_plugins/_sql"
verify_certs = false
`, 0600)
	t.Setenv(elasticHomeEnv, dir)

	cfg, err := LoadConnectionConfig()
	assertNilF(t, err)
	assertEqualE(t, cfg.Host, "es.example.com")
	assertEqualE(t, cfg.Port, 9243)
	assertEqualE(t, cfg.Protocol, "https")
	assertEqualE(t, cfg.User, "elastic")
	assertEqualE(t, cfg.Password, "changeme")
	assertEqualE(t, cfg.FetchSize, 250)
	assertTrueE(t, cfg.FieldMultiValueLeniency)
	assertEqualE(t, cfg.RequestTimeout, 15*time.Second)

	t.Setenv(elasticConnectionNameEnv, "reporting")
	cfg, err = LoadConnectionConfig()
	assertNilF(t, err)
	assertEqualE(t, cfg.Host, "reporting.local")
	assertEqualE(t, cfg.Authenticator, AuthTypeAPIKey)
	assertEqualE(t, cfg.APIKey, "aWQ6a2V5")
	assertEqualE(t, cfg.SQLPath, "_plugins/_sql")
	assertTrueE(t, cfg.InsecureMode)
}

func TestLoadConnectionConfigMissingSection(t *testing.T) {
	dir := t.TempDir()
	writeConnectionsFile(t, dir, "[default]\nhost = \"localhost\"\n", 0600)
	t.Setenv(elasticHomeEnv, dir)
	t.Setenv(elasticConnectionNameEnv, "nope")

	_, err := LoadConnectionConfig()
	var ee *ElasticError
	assertErrorsAsF(t, err, &ee)
	assertEqualE(t, ee.Number, ErrCodeFailedToFindDSNInToml)
}

func TestLoadConnectionConfigWrongType(t *testing.T) {
	dir := t.TempDir()
	writeConnectionsFile(t, dir, "[default]\nport = \"ninety\"\npassword = \"supersecretvalue\"\n", 0600)
	t.Setenv(elasticHomeEnv, dir)

	_, err := LoadConnectionConfig()
	var ee *ElasticError
	assertErrorsAsF(t, err, &ee)
	assertEqualE(t, ee.Number, ErrCodeTomlFileParsingFailed)
}

func TestLoadConnectionConfigPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file permissions are not checked on windows")
	}
	dir := t.TempDir()
	writeConnectionsFile(t, dir, "[default]\nhost = \"localhost\"\n", 0644)
	t.Setenv(elasticHomeEnv, dir)

	_, err := LoadConnectionConfig()
	assertNotNilF(t, err)
	assertStringContainsE(t, err.Error(), "0600")
}

func TestLoadConnectionConfigTokenFile(t *testing.T) {
	dir := t.TempDir()
	writeConnectionsFile(t, dir, "[default]\nhost = \"localhost\"\nauthenticator = \"bearer\"\ntoken_file_path = \"token\"\n", 0600)
	assertNilF(t, os.WriteFile(filepath.Join(dir, "token"), []byte("service-token\n"), 0600))
	t.Setenv(elasticHomeEnv, dir)

	cfg, err := LoadConnectionConfig()
	assertNilF(t, err)
	assertEqualE(t, cfg.Token, "service-token")
}

func TestParseTomlValues(t *testing.T) {
	n, err := parseInt(int64(5))
	assertNilF(t, err)
	assertEqualE(t, n, 5)
	n, err = parseInt("7")
	assertNilF(t, err)
	assertEqualE(t, n, 7)
	_, err = parseInt(1.5)
	assertNotNilE(t, err)

	b, err := parseBool("true")
	assertNilF(t, err)
	assertTrueE(t, b)
	_, err = parseBool("yes please")
	assertNotNilE(t, err)

	d, err := parseDuration(int64(3))
	assertNilF(t, err)
	assertEqualE(t, d, 3*time.Second)

	_, err = parseString(int64(1))
	assertNotNilE(t, err)
}

func TestGetTomlFilePath(t *testing.T) {
	home, err := os.UserHomeDir()
	assertNilF(t, err)
	path, err := getTomlFilePath("")
	assertNilF(t, err)
	assertEqualE(t, path, filepath.Join(home, defaultElasticConfigDirName))

	path, err = getTomlFilePath("/etc/elastic")
	assertNilF(t, err)
	assertEqualE(t, path, "/etc/elastic")

	assertEqualE(t, getConnectionName(""), defaultConnectionName)
	assertEqualE(t, getConnectionName("prod"), "prod")
}
