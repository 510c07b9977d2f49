// Package censusapi is the shared HTTP client for the Census REST API
package censusapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/censusoverlay/internal/constants"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/ratelimiting"
	"github.com/Amund211/censusoverlay/internal/reporting"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const getMinOperationTime = 100 * time.Millisecond

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type RequestLimiter interface {
	Limit(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context)) bool
}

// ServiceID adds the s: prefix Census expects in front of a registered service id
func ServiceID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "s:") {
		return trimmed
	}
	return "s:" + trimmed
}

type Client struct {
	httpClient HttpClient
	limiter    RequestLimiter
	serviceID  string

	requestCount metric.Int64Counter
	tracer       trace.Tracer
}

func NewClient(httpClient HttpClient, serviceID string, nowFunc func() time.Time, afterFunc func(time.Duration) <-chan time.Time) (*Client, error) {
	const name = "census-overlay/censusapi/client"

	meter := otel.Meter(name)
	tracer := otel.Tracer(name)

	requestCount, err := meter.Int64Counter("censusapi/client/request_count")
	if err != nil {
		return nil, fmt.Errorf("failed to create request count metric: %w", err)
	}

	// Census does not publish a limit for registered service ids
	limiter := ratelimiting.NewWindowLimitRequestLimiter(300, 1*time.Minute, nowFunc, afterFunc)

	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		serviceID:  ServiceID(serviceID),

		requestCount: requestCount,
		tracer:       tracer,
	}, nil
}

// URL returns the ps2:v2 query url for collection.
// The query is used verbatim, Census expects the c: modifiers unescaped.
func (c *Client) URL(collection string, query string) string {
	return fmt.Sprintf("%s/%s/get/ps2:v2/%s?%s", constants.CENSUS_REST_BASE_URL, c.serviceID, collection, query)
}

// Get runs the query and returns the parsed body.
// Census reports some failures with a 200 status and an error field, these are returned as errors.
func (c *Client) Get(ctx context.Context, collection string, query string) (gjson.Result, error) {
	ctx, span := c.tracer.Start(ctx, "Census.Get")
	defer span.End()

	if c.serviceID == "" {
		return gjson.Result{}, fmt.Errorf("%w: no census service id configured", domain.ErrTemporarilyUnavailable)
	}

	url := c.URL(collection, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return gjson.Result{}, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)

	var resp *http.Response
	var data []byte
	ran := c.limiter.Limit(ctx, getMinOperationTime, func(ctx context.Context) {
		ctx, span := c.tracer.Start(ctx, "Census.httpget")
		defer span.End()

		resp, err = c.httpClient.Do(req)
		if err != nil {
			err = fmt.Errorf("failed to send request: %w", err)
			reporting.Report(ctx, err, map[string]string{"collection": collection})
			return
		}

		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			err = fmt.Errorf("failed to read response body: %w", err)
			reporting.Report(ctx, err, map[string]string{"collection": collection})
			return
		}
	})
	if !ran {
		logging.FromContext(ctx).WarnContext(ctx, "Did not run Census.Get due to rate limiting", "collection", collection, "ctx_error", ctx.Err())
		return gjson.Result{}, fmt.Errorf("%w: too many requests to census API", domain.ErrTemporarilyUnavailable)
	}

	if err != nil {
		return gjson.Result{}, err
	}

	c.requestCount.Add(
		ctx,
		1,
		metric.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("status_code", strconv.Itoa(resp.StatusCode)),
		),
	)

	root, err := parseResponse(resp.StatusCode, data)
	if err != nil {
		err := fmt.Errorf("failed to parse census %s response: %w", collection, err)
		extra := map[string]string{
			"data":       string(data),
			"status":     strconv.Itoa(resp.StatusCode),
			"collection": collection,
		}
		for header, values := range resp.Header {
			switch len(values) {
			case 0:
				extra["header_"+header] = "<empty slice>"
			case 1:
				extra["header_"+header] = values[0]
			default:
				extra["header_"+header] = fmt.Sprintf("list: %v", values)
			}
		}
		reporting.Report(ctx, err, extra)
		return gjson.Result{}, err
	}

	return root, nil
}

func parseResponse(statusCode int, data []byte) (gjson.Result, error) {
	if statusCode != http.StatusOK {
		if statusCode >= 500 || statusCode == http.StatusTooManyRequests {
			return gjson.Result{}, fmt.Errorf("%w: census API returned status code %d", domain.ErrTemporarilyUnavailable, statusCode)
		}
		return gjson.Result{}, fmt.Errorf("census API returned status code %d", statusCode)
	}

	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("census API returned invalid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return gjson.Result{}, fmt.Errorf("census API returned a non-object response")
	}

	if message := root.Get("error"); message.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: census API returned error: %s", domain.ErrTemporarilyUnavailable, message.String())
	}
	if code := root.Get("errorCode"); code.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: census API returned error code %s: %s", domain.ErrTemporarilyUnavailable, code.String(), root.Get("errorMessage").String())
	}

	return root, nil
}
