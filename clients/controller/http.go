package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"voice-command-detection/recognizer"
)

const defaultTimeout = 2 * time.Second

type clientImpl struct {
	apiHost    string
	httpClient *http.Client
}

type Config struct {
	ApiHost string

	// Timeout bounds each request. Zero means two seconds.
	Timeout time.Duration
}

func NewClient(cfg *Config) (ControllerAPI, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.ApiHost == "" {
		return nil, errors.New("missing parameter: cfg.ApiHost")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &clientImpl{
		apiHost:    cfg.ApiHost,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (client *clientImpl) SendCommand(ctx context.Context, ev recognizer.Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.apiHost+"/command", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	q := req.URL.Query()
	q.Add("name", string(ev.Command))
	q.Add("frames", strconv.Itoa(ev.FrameCount))
	req.URL.RawQuery = q.Encode()

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("controller returned %s: %s", resp.Status, body)
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
