package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	config "github.com/maheshrc27/mission-control/configs"
)

var ErrGatewayNotConfigured = errors.New("gateway URL is not configured")

// GatewayError carries a non-2xx gateway reply so handlers can pass it on.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Status, truncate(e.Body, 200))
}

// GatewayService talks to the agent orchestrator's HTTP API.
type GatewayService interface {
	SendMessage(ctx context.Context, sessionKey, message string) (json.RawMessage, error)
	CronAction(ctx context.Context, jobID, action string) (json.RawMessage, error)
	SessionUsage(ctx context.Context, query url.Values) (json.RawMessage, error)
}

type gatewayService struct {
	cfg    config.Config
	client *http.Client
}

func NewGatewayService(cfg config.Config, client *http.Client) GatewayService {
	if client == nil {
		client = http.DefaultClient
	}
	return &gatewayService{cfg: cfg, client: client}
}

func (g *gatewayService) SendMessage(ctx context.Context, sessionKey, message string) (json.RawMessage, error) {
	return g.do(ctx, http.MethodPost, "/api/sessions/send", nil, map[string]string{
		"sessionKey": sessionKey,
		"message":    message,
	})
}

func (g *gatewayService) CronAction(ctx context.Context, jobID, action string) (json.RawMessage, error) {
	return g.do(ctx, http.MethodPost, "/api/cron", nil, map[string]string{
		"jobId":  jobID,
		"action": action,
	})
}

func (g *gatewayService) SessionUsage(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return g.do(ctx, http.MethodGet, "/api/sessions/usage", query, nil)
}

func (g *gatewayService) do(ctx context.Context, method, path string, query url.Values, payload any) (json.RawMessage, error) {
	if g.cfg.Gateway.URL == "" {
		return nil, ErrGatewayNotConfigured
	}

	endpoint := g.cfg.Gateway.URL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.cfg.Gateway.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Gateway.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Info("gateway request failed", "path", path, "status", resp.StatusCode)
		return nil, &GatewayError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if len(bytes.TrimSpace(respBody)) == 0 || !json.Valid(respBody) {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(respBody), nil
}
