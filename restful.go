package goelastic

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/mkelastic/goelastic/internal/query"
)

const (
	headerAuthorizationKey     = "Authorization"
	headerClientAuthentication = "ES-Client-Authentication"
	headerOpaqueID             = "X-Opaque-Id"
	headerContentType          = "Content-Type"
	headerAccept               = "Accept"

	headerContentTypeApplicationJSON = "application/json"
	headerUserAgent                  = "User-Agent"
	userAgent                        = "goelastic/" + DriverVersion

	indexNotFoundException = "index_not_found_exception"
)

// json decoding keeps numbers as json.Number so longs survive unchanged
var jsonAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// clusterAPI is everything the cursor needs from the cluster.
type clusterAPI interface {
	submitQuery(ctx context.Context, req *query.SQLRequest) (*query.SQLResponse, error)
	fetchIndexMapping(ctx context.Context, index string) (map[string]map[string]interface{}, error)
	fetchSample(ctx context.Context, index string, size int) (*query.SearchResponse, error)
	fetchClusterVersion(ctx context.Context) (string, error)
	fetchIndexStats(ctx context.Context) ([]query.IndexStat, error)
	endpoint() string
}

type elasticRestful struct {
	cfg     *Config
	client  clientInterface
	auth    *authenticator
	baseURL *url.URL
	metrics *Metrics
}

func newElasticRestful(cfg *Config, client clientInterface) (*elasticRestful, error) {
	base, err := url.Parse(cfg.BaseURL())
	if err != nil {
		return nil, errProgramming(ErrCodeInvalidDSN, errMsgInvalidDSN, err)
	}
	return &elasticRestful{
		cfg:     cfg,
		client:  client,
		auth:    newAuthenticator(cfg),
		baseURL: base,
		metrics: driverMetrics,
	}, nil
}

func (sr *elasticRestful) endpoint() string {
	return sr.baseURL.String()
}

func (sr *elasticRestful) getFullURL(path string, params url.Values) *url.URL {
	u := *sr.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if params != nil {
		u.RawQuery = params.Encode()
	}
	return &u
}

func (sr *elasticRestful) headers(ctx context.Context) map[string]string {
	requestID, ok := ctx.Value(ESRequestIDKey).(string)
	if !ok || requestID == "" {
		requestID = uuid.NewString()
	}
	return map[string]string{
		headerContentType: headerContentTypeApplicationJSON,
		headerAccept:      headerContentTypeApplicationJSON,
		headerUserAgent:   userAgent,
		headerOpaqueID:    requestID,
	}
}

// do runs one logical request and decodes a 2xx body into out.
func (sr *elasticRestful) do(ctx context.Context, name, method string, fullURL *url.URL, body []byte, out interface{}) error {
	r := newRetryHTTP(ctx, sr.client, http.NewRequestWithContext, fullURL, sr.headers(ctx), sr.cfg.MaxRetryCount).
		withDecorator(sr.auth.authorize)
	if method == http.MethodPost {
		r = r.doPost().setBody(body)
	}
	logger.WithContext(ctx).Debugf("%v %v", method, fullURL)
	res, err := r.execute()
	if err != nil {
		sr.metrics.httpRequests.WithLabelValues(name, "error").Inc()
		return sr.transportError(fullURL, err)
	}
	defer res.Body.Close()
	sr.metrics.httpRequests.WithLabelValues(name, strconv.Itoa(res.StatusCode)).Inc()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return errConnectivity(fullURL.String(), err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return sr.statusError(fullURL, res.StatusCode, data)
	}
	if err = jsonAPI.Unmarshal(data, out); err != nil {
		return errData(ErrCodeMalformedResponse, errMsgMalformedResponse, fullURL, err)
	}
	return nil
}

func (sr *elasticRestful) transportError(fullURL *url.URL, err error) error {
	if isBreakerOpen(err) {
		return &ElasticError{
			Number:      ErrCodeCircuitOpen,
			Kind:        KindOperational,
			Message:     errMsgCircuitOpen,
			MessageArgs: []interface{}{sr.endpoint(), err},
			Endpoint:    sr.endpoint(),
			Err:         err,
		}
	}
	if ee, ok := err.(*ElasticError); ok {
		return ee
	}
	return errConnectivity(sr.endpoint(), err)
}

// statusError maps a non-2xx response into the error taxonomy.
func (sr *elasticRestful) statusError(fullURL *url.URL, status int, body []byte) error {
	var envelope query.ErrorResponse
	var cause query.ErrorCause
	if err := jsonAPI.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		cause = envelope.Cause()
	} else {
		cause = query.ErrorCause{Type: http.StatusText(status), Reason: strings.TrimSpace(string(body))}
	}
	logger.Infof("cluster answered %v for %v: %v", status, fullURL.Path, cause.Detail())

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ElasticError{
			Number:      ErrCodeAuthentication,
			Kind:        KindOperational,
			Message:     errMsgAuthentication,
			MessageArgs: []interface{}{sr.endpoint(), cause.Detail()},
			Endpoint:    sr.endpoint(),
		}
	case status == http.StatusNotFound && cause.Type == indexNotFoundException:
		return &ElasticError{
			Number:      ErrCodeIndexNotFound,
			Kind:        KindProgramming,
			Message:     errMsgClusterError,
			MessageArgs: []interface{}{cause.Type, cause.Detail()},
			Endpoint:    fullURL.String(),
		}
	case status >= http.StatusInternalServerError:
		return &ElasticError{
			Number:      ErrCodeClusterUnavailable,
			Kind:        KindOperational,
			Message:     errMsgClusterUnavailable,
			MessageArgs: []interface{}{sr.endpoint(), status, cause.Detail()},
			Endpoint:    sr.endpoint(),
		}
	}
	return &ElasticError{
		Number:      ErrCodeBadRequest,
		Kind:        KindProgramming,
		Message:     errMsgClusterError,
		MessageArgs: []interface{}{cause.Type, cause.Detail()},
		Endpoint:    fullURL.String(),
	}
}

func (sr *elasticRestful) submitQuery(ctx context.Context, req *query.SQLRequest) (*query.SQLResponse, error) {
	body, err := jsonAPI.Marshal(req)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("format", "json")
	var resp query.SQLResponse
	if err = sr.do(ctx, "sql", http.MethodPost, sr.getFullURL(sr.cfg.SQLPath, params), body, &resp); err != nil {
		return nil, err
	}
	if cause, failed := resp.ErrorCause(); failed {
		return nil, errProgramming(ErrCodeBadRequest, errMsgClusterError, cause.Type, cause.Detail())
	}
	return &resp, nil
}

// fetchIndexMapping returns the top level properties of index. When index is an
// alias the response is keyed by the concrete index name.
func (sr *elasticRestful) fetchIndexMapping(ctx context.Context, index string) (map[string]map[string]interface{}, error) {
	var resp map[string]query.IndexMapping
	if err := sr.do(ctx, "mapping", http.MethodGet, sr.getFullURL(index+"/_mapping", nil), nil, &resp); err != nil {
		return nil, err
	}
	if m, ok := resp[index]; ok {
		return m.Mappings.Properties, nil
	}
	if len(resp) == 1 {
		for _, m := range resp {
			return m.Mappings.Properties, nil
		}
	}
	return map[string]map[string]interface{}{}, nil
}

func (sr *elasticRestful) fetchSample(ctx context.Context, index string, size int) (*query.SearchResponse, error) {
	params := url.Values{}
	params.Set("size", strconv.Itoa(size))
	var resp query.SearchResponse
	if err := sr.do(ctx, "search", http.MethodGet, sr.getFullURL(index+"/_search", params), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (sr *elasticRestful) fetchClusterVersion(ctx context.Context) (string, error) {
	var info query.ClusterInfo
	if err := sr.do(ctx, "info", http.MethodGet, sr.getFullURL("", nil), nil, &info); err != nil {
		return "", err
	}
	return info.Version.Number, nil
}

func (sr *elasticRestful) fetchIndexStats(ctx context.Context) ([]query.IndexStat, error) {
	params := url.Values{}
	params.Set("format", "json")
	var stats []query.IndexStat
	if err := sr.do(ctx, "cat_indices", http.MethodGet, sr.getFullURL("_cat/indices", params), nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
