package goelastic

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// transportConfig holds the configuration for creating HTTP transports
type transportConfig struct {
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	DialTimeout     time.Duration
	KeepAlive       time.Duration
}

// defaultTransportConfig returns the standard transport configuration
func defaultTransportConfig(cfg *Config) *transportConfig {
	return &transportConfig{
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Minute,
		DialTimeout:     cfg.ConnectTimeout,
		KeepAlive:       30 * time.Second,
	}
}

// transportFactory builds the round tripper stack of a connection:
// base transport, then SigV4 signing, then the circuit breaker.
type transportFactory struct {
	config *Config
}

func newTransportFactory(config *Config) *transportFactory {
	return &transportFactory{config: config}
}

func (tf *transportFactory) createBaseTransport(transportConfig *transportConfig, tlsConfig *tls.Config) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   transportConfig.DialTimeout,
		KeepAlive: transportConfig.KeepAlive,
	}

	return &http.Transport{
		TLSClientConfig: tlsConfig,
		MaxIdleConns:    transportConfig.MaxIdleConns,
		IdleConnTimeout: transportConfig.IdleConnTimeout,
		Proxy:           http.ProxyFromEnvironment,
		DialContext:     dialer.DialContext,
	}
}

func (tf *transportFactory) tlsConfig() (*tls.Config, error) {
	if tf.config.Protocol != "https" {
		return nil, nil
	}
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if name := tf.config.TLSConfigName; name != "" {
		registered, ok := getTLSConfigClone(name)
		if !ok {
			return nil, errProgramming(ErrCodeUnknownTLSConfig, errMsgUnknownTLSConfig, name)
		}
		tlsConfig = registered
	}
	if tf.config.InsecureMode {
		logger.Warn("TLS certificate verification is disabled")
		tlsConfig.InsecureSkipVerify = true
	}
	return tlsConfig, nil
}

// createTransport is the main entry point for creating transports
func (tf *transportFactory) createTransport(ctx context.Context) (http.RoundTripper, error) {
	var rt http.RoundTripper
	if tf.config.Transporter != nil {
		rt = tf.config.Transporter
	} else {
		tlsConfig, err := tf.tlsConfig()
		if err != nil {
			return nil, err
		}
		rt = tf.createBaseTransport(defaultTransportConfig(tf.config), tlsConfig)
	}
	if tf.config.Authenticator == AuthTypeAWSSigV4 {
		provider, err := newAWSCredentialsProvider(ctx, tf.config)
		if err != nil {
			return nil, &ElasticError{
				Number:      ErrCodeAuthentication,
				Kind:        KindInitialization,
				Message:     errMsgAuthentication,
				MessageArgs: []interface{}{tf.config.BaseURL(), err},
				Endpoint:    tf.config.BaseURL(),
				Err:         err,
			}
		}
		rt = newAWSSigV4RoundTripper(rt, provider, tf.config)
	}
	if !tf.config.DisableCircuitBreaker {
		rt = newBreakerRoundTripper(rt, tf.config.BaseURL())
	}
	return rt, nil
}

func (tf *transportFactory) createClient(ctx context.Context) (*http.Client, error) {
	rt, err := tf.createTransport(ctx)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Timeout:   tf.config.RequestTimeout,
		Transport: rt,
	}, nil
}
