package biometric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the biometric bridge, the local daemon that owns the
// sensor on the attendance device.
type Client struct {
	BaseURL      string
	HTTP         *http.Client
	QueryTimeout time.Duration
}

var _ Device = (*Client)(nil)

// New creates a bridge client. Challenges wait on the user, so only the
// capability queries get QueryTimeout; challenges are bounded by ctx.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:      baseURL,
		HTTP:         &http.Client{},
		QueryTimeout: 5 * time.Second,
	}
}

func (c *Client) HasHardware(ctx context.Context) (bool, error) {
	var out struct {
		Available bool `json:"available"`
	}
	if err := c.query(ctx, "/v1/hardware", &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

func (c *Client) IsEnrolled(ctx context.Context) (bool, error) {
	var out struct {
		Enrolled bool `json:"enrolled"`
	}
	if err := c.query(ctx, "/v1/enrollment", &out); err != nil {
		return false, err
	}
	return out.Enrolled, nil
}

// SupportedTypes drops type names the bridge reports but we do not know.
func (c *Client) SupportedTypes(ctx context.Context) ([]Modality, error) {
	var out struct {
		Types []string `json:"types"`
	}
	if err := c.query(ctx, "/v1/types", &out); err != nil {
		return nil, err
	}
	types := make([]Modality, 0, len(out.Types))
	for _, name := range out.Types {
		if m := ParseModality(name); m != ModalityUnknown {
			types = append(types, m)
		}
	}
	return types, nil
}

func (c *Client) SecurityLevel(ctx context.Context) (SecurityLevel, error) {
	var out struct {
		Level string `json:"level"`
	}
	if err := c.query(ctx, "/v1/security-level", &out); err != nil {
		return SecurityUnknown, err
	}
	return ParseSecurityLevel(out.Level), nil
}

// Challenge asks the bridge to prompt the user and blocks until it answers.
func (c *Client) Challenge(ctx context.Context, creq ChallengeRequest) (ChallengeResponse, error) {
	body, err := json.Marshal(creq)
	if err != nil {
		return ChallengeResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/challenge", bytes.NewReader(body))
	if err != nil {
		return ChallengeResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return ChallengeResponse{}, fmt.Errorf("biometric bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return ChallengeResponse{}, fmt.Errorf("biometric bridge error %s: %s", resp.Status, string(bodyBytes))
	}

	var out ChallengeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ChallengeResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// Health checks if the bridge is reachable.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.QueryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("biometric bridge unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("biometric bridge unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) query(ctx context.Context, path string, out any) error {
	if c.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.QueryTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("biometric bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("biometric bridge error %s: %s", resp.Status, string(bodyBytes))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
