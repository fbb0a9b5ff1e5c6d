package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/staffdesk/staffdesk-go/internal/session"
)

// Login authenticates with the backend and stores the resulting credential,
// tokens and serialized profile together, then re-arms the terminator so a
// later expiry of this new session escalates normally.
func (c *Client) Login(ctx context.Context, email, password string) error {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+session.LoginPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		httpErr := &session.HTTPError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodPost,
			Path:       session.LoginPath,
		}
		var env session.Envelope
		if json.Unmarshal(body, &env) == nil {
			httpErr.Code = env.Code
			httpErr.Message = env.Message
			httpErr.RequestID = env.RequestID
		}
		return httpErr
	}

	cred, err := c.strategy.ParseLogin(body)
	if err != nil {
		return err
	}
	if err := c.store.Set(cred); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	c.terminator.Arm()
	c.logger.Info().Str("email", email).Msg("logged in")
	return nil
}

// Logout tells the server to invalidate the session, best effort, then
// terminates locally. The local termination happens regardless of what the
// logout endpoint answered.
func (c *Client) Logout(ctx context.Context) error {
	cred, err := c.store.Get()
	if err == nil && cred != nil {
		req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+session.LogoutPath, nil)
		if rerr == nil {
			req.Header.Set("X-Request-ID", uuid.NewString())
			c.strategy.Attach(req, cred)
			resp, derr := c.httpClient.Do(req)
			if derr != nil {
				c.logger.Warn().Err(derr).Msg("logout call failed, terminating locally anyway")
			} else {
				io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
				resp.Body.Close()
			}
		}
	}
	c.terminator.Terminate(fmt.Errorf("user logged out"))
	return nil
}
