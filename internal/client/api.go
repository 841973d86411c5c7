package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"blackjack/internal/protocol"
)

// ActionHit is the only action the game server accepts from clients.
const ActionHit = "hit"

const maxSnapshotBytes = 1 << 20

// API talks to the game server's request/response endpoints.
type API struct {
	base *url.URL
	hc   *http.Client
}

// NewAPI creates an API client for baseURL. A base without a scheme is
// treated as plain http. hc may be nil.
func NewAPI(baseURL string, hc *http.Client) (*API, error) {
	raw := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if raw == "" {
		return nil, fmt.Errorf("empty server url")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url scheme %q not supported", u.Scheme)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &API{base: u, hc: hc}, nil
}

// StreamURL derives the event stream endpoint: http becomes ws and https
// becomes wss.
func (a *API) StreamURL() string {
	u := *a.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawPath = ""
	return u.String()
}

// endpoint appends unescaped path segments to the base URL.
func (a *API) endpoint(segments ...string) string {
	u := *a.base
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(a.base.EscapedPath(), "/")
	for _, s := range segments {
		u.Path += "/" + s
		u.RawPath += "/" + url.PathEscape(s)
	}
	return u.String()
}

// Snapshot fetches the table state for userID.
func (a *API) Snapshot(ctx context.Context, userID string) (protocol.Snapshot, error) {
	u := a.endpoint("cards", userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := a.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: req.Method, URL: u, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return protocol.DecodeSnapshot(body)
}

type actionRequest struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Act submits an action for userID. The response body is not interpreted;
// resulting state arrives on the event stream.
func (a *API) Act(ctx context.Context, kind, userID string) error {
	body, err := json.Marshal(actionRequest{Type: kind, UserID: userID})
	if err != nil {
		return err
	}
	u := a.endpoint("game-action")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxSnapshotBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: req.Method, URL: u, Code: resp.StatusCode}
	}
	return nil
}
