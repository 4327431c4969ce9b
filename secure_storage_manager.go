package goelastic

import (
	"strings"

	"github.com/99designs/keyring"
)

type tokenType string

const (
	passwordToken tokenType = "PASSWORD"
	apiKeyToken   tokenType = "APIKEY"
)

const (
	driverName         = "GOELASTIC"
	keyringServiceName = "goelastic"
)

type secureTokenSpec struct {
	host, user string
	tokenType  tokenType
}

func (t *secureTokenSpec) buildKey() string {
	return buildCredentialsKey(t.host, t.user, t.tokenType)
}

func newPasswordSpec(host, user string) *secureTokenSpec {
	return &secureTokenSpec{
		host,
		user,
		passwordToken,
	}
}

func newAPIKeySpec(host, user string) *secureTokenSpec {
	return &secureTokenSpec{
		host,
		user,
		apiKeyToken,
	}
}

type secureStorageManager interface {
	setCredential(tokenSpec *secureTokenSpec, value string) error
	getCredential(tokenSpec *secureTokenSpec) string
	deleteCredential(tokenSpec *secureTokenSpec) error
}

var credentialsStorage secureStorageManager = newKeyringBasedSecureStorageManager(func() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName: keyringServiceName,
	})
})

type keyringSecureStorageManager struct {
	open func() (keyring.Keyring, error)
}

func newKeyringBasedSecureStorageManager(open func() (keyring.Keyring, error)) *keyringSecureStorageManager {
	return &keyringSecureStorageManager{open: open}
}

func (ssm *keyringSecureStorageManager) setCredential(tokenSpec *secureTokenSpec, value string) error {
	if value == "" {
		logger.Debug("no credential provided")
		return nil
	}
	ring, err := ssm.open()
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{
		Key:   tokenSpec.buildKey(),
		Data:  []byte(value),
		Label: keyringServiceName + " " + strings.ToLower(string(tokenSpec.tokenType)),
	})
}

func (ssm *keyringSecureStorageManager) getCredential(tokenSpec *secureTokenSpec) string {
	ring, err := ssm.open()
	if err != nil {
		logger.Debugf("Failed to open the keyring. Err: %v", err)
		return ""
	}
	item, err := ring.Get(tokenSpec.buildKey())
	if err != nil {
		logger.Debugf("Failed to find the item in the keyring or item does not exist. Error: %v", err)
		return ""
	}
	return string(item.Data)
}

func (ssm *keyringSecureStorageManager) deleteCredential(tokenSpec *secureTokenSpec) error {
	ring, err := ssm.open()
	if err != nil {
		return err
	}
	if err = ring.Remove(tokenSpec.buildKey()); err != nil && err != keyring.ErrKeyNotFound {
		return err
	}
	return nil
}

func buildCredentialsKey(host, user string, credType tokenType) string {
	host = strings.ToUpper(host)
	user = strings.ToUpper(user)
	credTypeStr := strings.ToUpper(string(credType))
	return host + ":" + user + ":" + driverName + ":" + credTypeStr
}

// StorePassword saves the password of user on host in the OS keyring so that a
// DSN with use_keyring=true can omit it.
func StorePassword(host, user, password string) error {
	return credentialsStorage.setCredential(newPasswordSpec(host, user), password)
}

// StoreAPIKey saves an API key in the OS keyring.
func StoreAPIKey(host, user, apiKey string) error {
	return credentialsStorage.setCredential(newAPIKeySpec(host, user), apiKey)
}

// DeleteStoredCredentials removes every credential kept for user on host.
func DeleteStoredCredentials(host, user string) error {
	if err := credentialsStorage.deleteCredential(newPasswordSpec(host, user)); err != nil {
		return err
	}
	return credentialsStorage.deleteCredential(newAPIKeySpec(host, user))
}
