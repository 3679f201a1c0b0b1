package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lebensmittel/cli/internal/session"
)

// Client issues authenticated REST calls against the backend. Every
// outbound request gets a bearer token and, when known, the active-group
// header. A 401 response triggers exactly one forced refresh and retry;
// the retry is built from scratch so the original request is never mutated
// in place.
type Client struct {
	base    string
	http    *http.Client
	session *session.Manager
}

// New creates an API client sharing the given session. A nil httpClient
// falls back to a default with a 30 second timeout.
func New(sess *session.Manager, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		base:    sess.BaseURL(),
		http:    httpClient,
		session: sess,
	}
}

// Do sends method+path with the given JSON body. On 401 it forces a token
// refresh and resends once; a second 401 is returned to the caller, and a
// failed refresh propagates unchanged. The caller owns the response body.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	resp, err := c.attempt(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	log.Debug().Str("method", method).Str("path", path).Msg("got 401, refreshing and retrying once")

	if _, err := c.session.Refresh(ctx); err != nil {
		return nil, err
	}
	return c.attempt(ctx, method, path, body)
}

// attempt builds a fresh request for each try so retries reapply headers
// rather than reusing a consumed body or stale token.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Best effort: an unattainable token still sends the request, the
	// server answers 401 and the retry path takes over.
	if token, err := c.session.AccessToken(ctx); err == nil {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		log.Debug().Err(err).Msg("sending request without access token")
	}

	if groupID, err := c.session.ActiveGroupID(ctx); err == nil && groupID != "" {
		req.Header.Set("X-Group-ID", groupID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &session.NetworkError{Message: err.Error()}
	}
	return resp, nil
}

// doJSON is the convenience path used by the typed resources: marshal the
// request body, send, check the status, decode the reply.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}

	resp, err := c.Do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &session.NetworkError{Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return session.ErrInvalidResponse
		}
	}
	return nil
}

func errorFromResponse(status int, body []byte) error {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return fmt.Errorf("server returned %d: %s", status, resp.Error)
	}
	return session.ErrInvalidResponse
}
