// Package callcontrol places telephony actions with Exotel.
package callcontrol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

const defaultSubdomain = "api.exotel.com"

var tracer = otel.Tracer("emi.internal.callcontrol")

// Config controls how the Exotel client behaves.
type Config struct {
	AccountSID  string
	APIKey      string
	APIToken    string
	Subdomain   string
	CallerID    string
	AgentNumber string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *logging.Logger
	// BaseURL overrides https://{Subdomain}; used by tests.
	BaseURL string
}

// ExotelClient bridges customers to a human agent.
type ExotelClient struct {
	sid         string
	user        string
	token       string
	baseURL     string
	callerID    string
	agentNumber string
	httpClient  *http.Client
	logger      *logging.Logger
}

// NewExotelClient validates credentials and applies defaults.
func NewExotelClient(cfg Config) (*ExotelClient, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.APIToken) == "" {
		return nil, errors.New("callcontrol: exotel sid and token are required")
	}
	if strings.TrimSpace(cfg.AgentNumber) == "" {
		return nil, errors.New("callcontrol: agent number is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		sub := strings.TrimSpace(cfg.Subdomain)
		if sub == "" {
			sub = defaultSubdomain
		}
		baseURL = "https://" + sub
	}
	user := strings.TrimSpace(cfg.APIKey)
	if user == "" {
		user = cfg.AccountSID
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &ExotelClient{
		sid:         cfg.AccountSID,
		user:        user,
		token:       cfg.APIToken,
		baseURL:     baseURL,
		callerID:    cfg.CallerID,
		agentNumber: cfg.AgentNumber,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// TransferResult describes the bridge call Exotel created.
type TransferResult struct {
	CallSID string
	Status  string
}

type connectResponse struct {
	Call struct {
		Sid    string `json:"Sid"`
		Status string `json:"Status"`
	} `json:"Call"`
}

// TransferToAgent asks Exotel to connect the customer to the configured
// agent number. It is attempted once: a retried connect could ring the
// customer twice.
func (c *ExotelClient) TransferToAgent(ctx context.Context, customerNumber string) (TransferResult, error) {
	ctx, span := tracer.Start(ctx, "callcontrol.transfer_to_agent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if strings.TrimSpace(customerNumber) == "" {
		return TransferResult{}, errors.New("callcontrol: customer number is required")
	}
	form := url.Values{}
	form.Set("From", customerNumber)
	form.Set("To", c.agentNumber)
	if c.callerID != "" {
		form.Set("CallerId", c.callerID)
	}
	form.Set("CallType", "trans")

	endpoint := fmt.Sprintf("%s/v1/Accounts/%s/Calls/connect.json", c.baseURL, url.PathEscape(c.sid))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return TransferResult{}, fmt.Errorf("callcontrol: build request: %w", err)
	}
	req.SetBasicAuth(c.user, c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return TransferResult{}, fmt.Errorf("callcontrol: connect request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TransferResult{}, fmt.Errorf("callcontrol: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		span.RecordError(apiErr)
		return TransferResult{}, apiErr
	}

	var parsed connectResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return TransferResult{}, fmt.Errorf("callcontrol: decode response: %w", err)
	}
	span.SetAttributes(attribute.String("emi.transfer_call_sid", parsed.Call.Sid))
	c.logger.Info("agent transfer requested",
		"customer", maskPhone(customerNumber),
		"agent", maskPhone(c.agentNumber),
		"transfer_call_sid", parsed.Call.Sid,
		"status", parsed.Call.Status,
	)
	return TransferResult{CallSID: parsed.Call.Sid, Status: parsed.Call.Status}, nil
}

// APIError is a non-2xx Exotel response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("callcontrol: exotel status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("callcontrol: exotel status %d", e.StatusCode)
}

func maskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
