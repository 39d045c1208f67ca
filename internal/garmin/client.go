// ABOUTME: HTTP provider gateway: one endpoint per category, one circuit breaker per category.
// ABOUTME: Returns raw payload bytes; shape handling belongs to the normalizers.
package garmin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"github.com/harperreed/wellness/internal/models"
)

// DefaultBaseURL is the provider's connect API.
const DefaultBaseURL = "https://connectapi.garmin.com"

// DefaultTimeout bounds one category fetch.
const DefaultTimeout = 8 * time.Second

// maxPayloadBytes caps a single response body.
const maxPayloadBytes = 8 << 20

// Gateway fetches one category's raw payload for one date.
type Gateway interface {
	FetchCategory(ctx context.Context, category models.Category, date time.Time) ([]byte, error)
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	Category models.Category
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: provider returned %d", e.Category, e.Code)
}

// endpoint builds the request path and query for a date. displayName is resolved lazily.
type endpoint func(day, displayName string) (string, url.Values)

var endpoints = map[models.Category]endpoint{
	models.CategoryActivity: func(day, name string) (string, url.Values) {
		return "/usersummary-service/usersummary/daily/" + url.PathEscape(name), url.Values{"calendarDate": {day}}
	},
	models.CategorySleep: func(day, name string) (string, url.Values) {
		return "/wellness-service/wellness/dailySleepData/" + url.PathEscape(name), url.Values{"date": {day}, "nonSleepBufferMinutes": {"60"}}
	},
	models.CategoryStress: func(day, _ string) (string, url.Values) {
		return "/wellness-service/wellness/dailyStress/" + day, nil
	},
	models.CategoryBodyBattery: func(day, _ string) (string, url.Values) {
		return "/wellness-service/wellness/bodyBattery/reports/daily", url.Values{"startDate": {day}, "endDate": {day}}
	},
	models.CategoryBodyComposition: func(day, _ string) (string, url.Values) {
		return "/weight-service/weight/dateRange", url.Values{"startDate": {day}, "endDate": {day}}
	},
	models.CategoryHRV: func(day, _ string) (string, url.Values) {
		return "/hrv-service/hrv/" + day, nil
	},
	models.CategoryTrainingReadiness: func(day, _ string) (string, url.Values) {
		return "/metrics-service/metrics/trainingreadiness/" + day, nil
	},
	models.CategoryTrainingStatus: func(day, _ string) (string, url.Values) {
		return "/metrics-service/metrics/trainingstatus/aggregated/" + day, nil
	},
	models.CategoryRespiration: func(day, _ string) (string, url.Values) {
		return "/wellness-service/wellness/daily/respiration/" + day, nil
	},
	models.CategorySpO2: func(day, _ string) (string, url.Values) {
		return "/wellness-service/wellness/daily/spo2/" + day, nil
	},
	models.CategorySkinTemperature: func(day, _ string) (string, url.Values) {
		return "/metrics-service/metrics/skinTemp/daily/" + day, nil
	},
}

const profilePath = "/userprofile-service/socialProfile"

// Options configures a Client.
type Options struct {
	BaseURL     string
	DisplayName string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	breakers map[models.Category]*gobreaker.CircuitBreaker

	mu          sync.Mutex
	displayName string
}

// Compile-time check that Client implements Gateway.
var _ Gateway = (*Client)(nil)

// NewClient creates a gateway bound to session. A nil session is ErrNoSession.
func NewClient(session *Session, opts Options) (*Client, error) {
	if session == nil {
		return nil, ErrNoSession
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		timeout:     opts.Timeout,
		http:        session.HTTPClient(context.Background(), opts.HTTPClient),
		breakers:    make(map[models.Category]*gobreaker.CircuitBreaker, len(endpoints)),
		displayName: opts.DisplayName,
	}
	for _, cat := range models.AllCategories {
		c.breakers[cat] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        string(cat),
			MaxRequests: 1,
			Interval:    10 * time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				// Cancellation and session errors say nothing about provider health.
				return err == nil || errors.Is(err, context.Canceled) ||
					errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNoSession)
			},
		})
	}
	return c, nil
}

// FetchCategory returns the raw payload for category on date's calendar day.
func (c *Client) FetchCategory(ctx context.Context, category models.Category, date time.Time) ([]byte, error) {
	ep, ok := endpoints[category]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	breaker := c.breakers[category]

	result, err := breaker.Execute(func() (interface{}, error) {
		name := ""
		if category == models.CategoryActivity || category == models.CategorySleep {
			var err error
			if name, err = c.resolveDisplayName(ctx); err != nil {
				return nil, err
			}
		}
		path, query := ep(date.Format(models.DateLayout), name)
		return c.get(ctx, category, path, query)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", category, err)
	}
	return result.([]byte), nil
}

// BreakerState reports a category breaker's state name.
func (c *Client) BreakerState(category models.Category) string {
	if b, ok := c.breakers[category]; ok {
		return b.State().String()
	}
	return ""
}

func (c *Client) resolveDisplayName(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.displayName != "" {
		return c.displayName, nil
	}

	body, err := c.get(ctx, "profile", profilePath, nil)
	if err != nil {
		return "", fmt.Errorf("resolve display name: %w", err)
	}
	name := gjson.GetBytes(body, "displayName").String()
	if name == "" {
		return "", errors.New("resolve display name: profile has no displayName")
	}
	c.displayName = name
	return name, nil
}

func (c *Client) get(ctx context.Context, category models.Category, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("NK", "NT")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	// 204 means the provider has no data for that day.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Category: category, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
