// Package api is the read-only client for the remote setlist source: a
// Songfish-style JSON API exposing a full show list and per-show setlists.
// Every outbound call flows through a single gateway that enforces rate
// limiting, a circuit breaker, retries, and structured request logging.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmagar/rarity-cli/internal/model"
)

const (
	UserAgent = "rarity-cli/1.0 (+https://github.com/jmagar/rarity-cli)"

	// Courtesy limit on outbound calls: 5 req/s with a burst of 10 keeps
	// bulk setlist fetching from hammering the server while interactive
	// use still feels instant.
	requestsPerSecond = 5
	requestBurst      = 10

	circuitThreshold    = 5
	circuitResetTimeout = 60 * time.Second
)

// Client talks to one remote Songfish-style API base.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	breaker *circuitBreaker
}

// NewClient builds a client for the given API base URL (for example
// "https://elgoose.net/api/v3"). A trailing slash is tolerated.
func NewClient(base string) *Client {
	return &Client{
		base:    strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		breaker: newCircuitBreaker(circuitThreshold, circuitResetTimeout),
	}
}

// envelope is the wire format both endpoints share: a data payload or an
// error flag with a message.
type envelope struct {
	Error        bool            `json:"error"`
	ErrorMessage string          `json:"error_message"`
	Data         json.RawMessage `json:"data"`
}

// GetShows retrieves the full remote show list.
func (c *Client) GetShows(ctx context.Context) ([]model.Show, error) {
	var shows []model.Show
	if err := c.getJSON(ctx, "shows", c.base+"/shows.json", &shows); err != nil {
		return nil, err
	}
	return shows, nil
}

// GetSetlist retrieves the setlist entries for one show.
func (c *Client) GetSetlist(ctx context.Context, showID int) ([]model.SetlistEntry, error) {
	var entries []model.SetlistEntry
	url := fmt.Sprintf("%s/setlists/showid/%d.json", c.base, showID)
	if err := c.getJSON(ctx, "setlists", url, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// getJSON fetches a URL through the retry gateway, unwraps the error
// envelope, and decodes the data payload into out.
func (c *Client) getJSON(ctx context.Context, label, url string, out any) error {
	resp, err := c.retryDo(ctx, label, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API %s failed: %s", label, resp.Status)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("API %s returned unparsable JSON: %w", label, err)
	}
	if env.Error {
		msg := env.ErrorMessage
		if msg == "" {
			msg = "unspecified error"
		}
		return fmt.Errorf("API %s error: %s", label, msg)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("API %s returned no data payload", label)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("API %s data payload malformed: %w", label, err)
	}
	return nil
}

// retryDo is the single gateway for every outbound call.
//
// It enforces, in order:
//  1. Rate limiting  — token-bucket, 5 req/s, burst 10
//  2. Circuit breaker — rejects immediately when open; logs state transitions
//  3. HTTP execution  — with context cancellation
//  4. Retry on 429 / 5xx — exponential backoff (500ms → 30s), Retry-After respected
//
// label is a short endpoint name used in log entries ("shows", "setlists").
// Caller is responsible for closing the returned response body.
func (c *Client) retryDo(ctx context.Context, label, url string) (*http.Response, error) {
	const maxRetries = 4
	backoff := 500 * time.Millisecond

	for attempt := 0; ; attempt++ {
		limitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter cancelled for %s: %w", label, err)
		}
		if waited := time.Since(limitStart); waited > time.Millisecond {
			LogRateLimitWait(label, waited)
		}

		cbState, allowed := c.breaker.Allow()
		if !allowed {
			LogCircuitRejected(label)
			return nil, fmt.Errorf("%w (label: %s)", ErrCircuitOpen, label)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", UserAgent)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.http.Do(req)
		duration := time.Since(start)

		if err != nil {
			// Network-level error: log but do not trip the circuit breaker.
			// Network hiccups are distinct from the API being overloaded.
			LogRequest(label, 0, duration, attempt, cbState.String(), err)
			return nil, err
		}

		isAPIError := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if !isAPIError {
			prev := c.breaker.RecordSuccess()
			if prev != circuitClosed {
				LogCircuitStateChange("circuit_closed", label, prev.String(), circuitClosed.String())
			}
			LogRequest(label, resp.StatusCode, duration, attempt, circuitClosed.String(), nil)
			return resp, nil
		}

		resp.Body.Close()
		newState := c.breaker.RecordFailure()
		if newState == circuitOpen && cbState != circuitOpen {
			LogCircuitStateChange("circuit_opened", label, cbState.String(), newState.String())
		}
		apiErr := fmt.Errorf("HTTP %s", resp.Status)
		LogRequest(label, resp.StatusCode, duration, attempt, newState.String(), apiErr)

		if attempt >= maxRetries {
			return nil, fmt.Errorf("API %s failed after %d attempts: %w", label, attempt+1, apiErr)
		}

		wait := backoff
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, e := strconv.Atoi(ra); e == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		backoff = min(backoff*2, 30*time.Second)
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open and has not
// yet reached the half-open recovery window.
var ErrCircuitOpen = errors.New("circuit breaker open: remote API is unavailable, backing off")
