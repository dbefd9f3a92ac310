// Package calendar is a Google Calendar API client using service account
// authentication. Event start/end values are kept as the raw wire strings
// (RFC3339 dateTime, or YYYY-MM-DD for all-day events) because the
// assistant's prompts and reference resolution operate on those strings.
package calendar

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	baseURL     = "https://www.googleapis.com/calendar/v3"
	tokenURL    = "https://oauth2.googleapis.com/token"
	tokenExpiry = 55 * time.Minute // Refresh before 1 hour expiry

	// DefaultMaxResults caps how many events a listing returns
	DefaultMaxResults = 10

	// DefaultEventDuration is applied when only a start time is known
	DefaultEventDuration = time.Hour
)

// Client is a Google Calendar API client
type Client struct {
	httpClient  *http.Client
	baseURL     string
	calendarID  string
	credentials *serviceAccountCredentials
	location    *time.Location

	// Token caching
	mu           sync.RWMutex
	accessToken  string
	tokenRefresh time.Time
}

// serviceAccountCredentials holds the service account JSON key
type serviceAccountCredentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	AuthURI      string `json:"auth_uri"`
	TokenURI     string `json:"token_uri"`
}

// Config holds calendar client configuration
type Config struct {
	CredentialsFile string         // Path to service account JSON file
	CalendarID      string         // Calendar ID to access (usually an email address)
	Location        *time.Location // Timezone for interpreting event date/time strings
}

// NewClient creates a new Google Calendar client
func NewClient(cfg Config) (*Client, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var creds serviceAccountCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	if creds.Type != "service_account" {
		return nil, fmt.Errorf("credentials file must be a service account key (got %s)", creds.Type)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     baseURL,
		calendarID:  cfg.CalendarID,
		credentials: &creds,
		location:    loc,
	}, nil
}

// getAccessToken returns a valid access token, refreshing if needed
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.accessToken != "" && time.Now().Before(c.tokenRefresh) {
		token := c.accessToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.accessToken != "" && time.Now().Before(c.tokenRefresh) {
		return c.accessToken, nil
	}

	now := time.Now()
	claims := map[string]interface{}{
		"iss":   c.credentials.ClientEmail,
		"scope": "https://www.googleapis.com/auth/calendar https://www.googleapis.com/auth/calendar.events",
		"aud":   tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	jwt, err := c.signJWT(claims)
	if err != nil {
		return "", fmt.Errorf("sign JWT: %w", err)
	}

	// Exchange JWT for access token
	data := url.Values{}
	data.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	data.Set("assertion", jwt)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenRefresh = now.Add(tokenExpiry)

	return c.accessToken, nil
}

// signJWT creates a signed JWT assertion
func (c *Client) signJWT(claims map[string]interface{}) (string, error) {
	block, _ := pem.Decode([]byte(c.credentials.PrivateKey))
	if block == nil {
		return "", fmt.Errorf("failed to parse PEM block")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return "", fmt.Errorf("private key is not RSA")
	}

	header := map[string]string{
		"alg": "RS256",
		"typ": "JWT",
	}

	headerJSON, _ := json.Marshal(header)
	claimsJSON, _ := json.Marshal(claims)

	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimsJSON)

	signingInput := headerB64 + "." + claimsB64

	hash := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(nil, rsaKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	signatureB64 := base64.RawURLEncoding.EncodeToString(signature)

	return signingInput + "." + signatureB64, nil
}

// request makes an authenticated request to the Calendar API
func (c *Client) request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("calendar API error (%d): %s", errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("calendar API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Event represents a calendar event
type Event struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Start       string `json:"start"`         // RFC3339 dateTime, or YYYY-MM-DD for all-day
	End         string `json:"end,omitempty"` // same format as Start
	AllDay      bool   `json:"all_day"`
	Status      string `json:"status,omitempty"` // confirmed, tentative, cancelled
	HtmlLink    string `json:"html_link,omitempty"`
}

// googleEvent represents the Google Calendar API event format
type googleEvent struct {
	ID          string          `json:"id"`
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location,omitempty"`
	Status      string          `json:"status,omitempty"`
	HtmlLink    string          `json:"htmlLink,omitempty"`
	Start       *googleDateTime `json:"start,omitempty"`
	End         *googleDateTime `json:"end,omitempty"`
}

type googleDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventsResponse struct {
	Items []googleEvent `json:"items"`
}

// ListEvents retrieves upcoming events, soonest first
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	queryParams := url.Values{}
	queryParams.Set("timeMin", time.Now().In(c.location).Format(time.RFC3339))
	queryParams.Set("maxResults", fmt.Sprintf("%d", DefaultMaxResults))
	queryParams.Set("singleEvents", "true")
	queryParams.Set("orderBy", "startTime")

	path := fmt.Sprintf("/calendars/%s/events?%s", url.PathEscape(c.calendarID), queryParams.Encode())
	data, err := c.request(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var resp eventsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse events response: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, convertEvent(&item))
	}

	return events, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(c.calendarID), url.PathEscape(eventID))
	data, err := c.request(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var item googleEvent
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}

	event := convertEvent(&item)
	return &event, nil
}

// CreateEvent creates a one-hour event starting at the given local date
// (YYYY-MM-DD) and time (24-hour HH:mm). The model never specifies an end
// time, so the end is derived as start plus one hour.
func (c *Client) CreateEvent(ctx context.Context, summary, date, hhmm string) (*Event, error) {
	start, err := c.parseLocal(date, hhmm)
	if err != nil {
		return nil, err
	}
	end := start.Add(DefaultEventDuration)

	body := map[string]interface{}{
		"summary": summary,
		"start": map[string]string{
			"dateTime": start.Format(time.RFC3339),
			"timeZone": c.location.String(),
		},
		"end": map[string]string{
			"dateTime": end.Format(time.RFC3339),
			"timeZone": c.location.String(),
		},
	}

	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(c.calendarID))
	data, err := c.request(ctx, "POST", path, body)
	if err != nil {
		return nil, err
	}

	var item googleEvent
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parse created event: %w", err)
	}

	event := convertEvent(&item)
	return &event, nil
}

// UpdateEvent replaces an event's summary and start, keeping the derived
// one-hour duration
func (c *Client) UpdateEvent(ctx context.Context, eventID, summary, date, hhmm string) (*Event, error) {
	start, err := c.parseLocal(date, hhmm)
	if err != nil {
		return nil, err
	}
	end := start.Add(DefaultEventDuration)

	body := map[string]interface{}{
		"summary": summary,
		"start": map[string]string{
			"dateTime": start.Format(time.RFC3339),
			"timeZone": c.location.String(),
		},
		"end": map[string]string{
			"dateTime": end.Format(time.RFC3339),
			"timeZone": c.location.String(),
		},
	}

	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(c.calendarID), url.PathEscape(eventID))
	data, err := c.request(ctx, "PUT", path, body)
	if err != nil {
		return nil, err
	}

	var item googleEvent
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parse updated event: %w", err)
	}

	event := convertEvent(&item)
	return &event, nil
}

// DeleteEvent removes an event by ID
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(c.calendarID), url.PathEscape(eventID))
	_, err := c.request(ctx, "DELETE", path, nil)
	return err
}

// CalendarID returns the configured calendar ID
func (c *Client) CalendarID() string {
	return c.calendarID
}

// parseLocal interprets date + time strings in the client's timezone
func (c *Client) parseLocal(date, hhmm string) (time.Time, error) {
	if hhmm == "" {
		hhmm = "09:00"
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, c.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse event date/time %q %q: %w", date, hhmm, err)
	}
	return t, nil
}

// convertEvent converts a Google Calendar event to our Event type.
// Start/End prefer the timed dateTime and fall back to the all-day date.
func convertEvent(item *googleEvent) Event {
	event := Event{
		ID:          item.ID,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		HtmlLink:    item.HtmlLink,
	}
	if event.Summary == "" {
		event.Summary = "Untitled event"
	}

	if item.Start != nil {
		if item.Start.DateTime != "" {
			event.Start = item.Start.DateTime
		} else if item.Start.Date != "" {
			event.Start = item.Start.Date
			event.AllDay = true
		}
	}

	if item.End != nil {
		if item.End.DateTime != "" {
			event.End = item.End.DateTime
		} else if item.End.Date != "" {
			event.End = item.End.Date
		}
	}

	return event
}

// ToJSON returns the event as a JSON string, for execution logs
func (e *Event) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}
