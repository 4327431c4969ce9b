package goelastic

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

var random *rand.Rand

func init() {
	random = rand.New(rand.NewSource(time.Now().UnixNano()))
}

type waitAlgo struct {
	mutex *sync.Mutex   // required for random.Int63n
	base  time.Duration // base wait time
	cap   time.Duration // maximum wait time
}

func randMilliDuration(n time.Duration) time.Duration {
	ms := int64(n / time.Millisecond)
	if ms <= 0 {
		return 0
	}
	return time.Duration(random.Int63n(ms)) * time.Millisecond
}

// decorrelated jitter backoff
func (w *waitAlgo) decorr(attempt int, sleep time.Duration) time.Duration {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	t := 3*sleep - w.base
	switch {
	case t > 0:
		return durationMin(w.cap, randMilliDuration(t)+w.base)
	case t < 0:
		return durationMin(w.cap, randMilliDuration(-t)+3*sleep)
	}
	return w.base
}

func durationMin(d1, d2 time.Duration) time.Duration {
	if d1 < d2 {
		return d1
	}
	return d2
}

var defaultWaitAlgo = &waitAlgo{
	mutex: &sync.Mutex{},
	base:  500 * time.Millisecond,
	cap:   16 * time.Second,
}

type requestFunc func(ctx context.Context, method, urlStr string, body io.Reader) (*http.Request, error)

type clientInterface interface {
	Do(req *http.Request) (*http.Response, error)
}

// retryHTTP sends a request and retries it on transport errors and on the
// status codes the cluster uses for transient overload.
type retryHTTP struct {
	ctx        context.Context
	client     clientInterface
	req        requestFunc
	method     string
	fullURL    *url.URL
	headers    map[string]string
	body       []byte
	maxRetries int
	decorate   func(*http.Request) error
	wait       *waitAlgo
}

func newRetryHTTP(ctx context.Context,
	client clientInterface,
	req requestFunc,
	fullURL *url.URL,
	headers map[string]string,
	maxRetries int) *retryHTTP {
	instance := retryHTTP{}
	instance.ctx = ctx
	instance.client = client
	instance.req = req
	instance.method = http.MethodGet
	instance.fullURL = fullURL
	instance.headers = headers
	instance.body = nil
	instance.maxRetries = maxRetries
	instance.wait = defaultWaitAlgo
	return &instance
}

func (r *retryHTTP) doPost() *retryHTTP {
	r.method = http.MethodPost
	return r
}

func (r *retryHTTP) setBody(body []byte) *retryHTTP {
	r.body = body
	return r
}

// withDecorator sets a hook that runs on every attempt, after the headers are set.
func (r *retryHTTP) withDecorator(decorate func(*http.Request) error) *retryHTTP {
	r.decorate = decorate
	return r
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (r *retryHTTP) execute() (res *http.Response, err error) {
	retryCounter := 0
	sleepTime := time.Duration(0)

	for {
		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}
		req, reqErr := r.req(r.ctx, r.method, r.fullURL.String(), body)
		if reqErr != nil {
			return nil, reqErr
		}
		for k, v := range r.headers {
			req.Header.Set(k, v)
		}
		if retryCounter > 0 {
			// every attempt gets its own opaque id so slow logs can be told apart
			req.Header.Set(headerOpaqueID, r.headers[headerOpaqueID]+"-"+uuid.NewString()[:8])
		}
		if r.decorate != nil {
			if decorateErr := r.decorate(req); decorateErr != nil {
				return nil, decorateErr
			}
		}
		res, err = r.client.Do(req)
		if err == nil && !isRetryableStatus(res.StatusCode) {
			break
		}

		// context cancel or timeout
		if err != nil {
			if r.ctx.Err() != nil {
				return nil, r.ctx.Err()
			}
			if urlError, isURLError := err.(*url.Error); isURLError &&
				(urlError.Err == context.DeadlineExceeded || urlError.Err == context.Canceled) {
				return nil, urlError.Err
			}
			// an open breaker is not retried
			if isBreakerOpen(err) {
				return nil, err
			}
		}
		if retryCounter >= r.maxRetries {
			break
		}

		if err != nil {
			logger.WithContext(r.ctx).Infof(
				"failed http connection. no response is returned. err: %v. retrying...", err)
		} else {
			logger.WithContext(r.ctx).Infof(
				"failed http connection. HTTP Status: %v. retrying...", res.StatusCode)
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
		}
		// uses decorrelated jitter backoff
		sleepTime = r.wait.decorr(retryCounter, sleepTime)
		retryCounter++
		logger.WithContext(r.ctx).Debugf("sleeping %v. retry %v of %v", sleepTime, retryCounter, r.maxRetries)

		await := time.NewTimer(sleepTime)
		select {
		case <-await.C:
			// retry the request
		case <-r.ctx.Done():
			await.Stop()
			return nil, r.ctx.Err()
		}
	}
	return res, err
}
