package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	agenterrors "copilot/internal/errors"
	"copilot/internal/logging"
)

// Known downstream service names. Lookups are case-insensitive.
const (
	ServiceHR         = "hrservice"
	ServiceInventory  = "inventoryservice"
	ServiceAccounting = "accountingservice"
	ServiceWorkflow   = "workflowservice"
)

// DefaultProbeTimeout bounds a single availability probe.
const DefaultProbeTimeout = 5 * time.Second

// endpoints maps each service to its operation table. All four services
// share one calling convention, so adding an operation is a table edit.
var endpoints = map[string]map[string]string{
	ServiceHR: {
		"getleavebalance":      "/api/hr/leave-balance",
		"getemployeeinfo":      "/api/hr/employee",
		"createemployee":       "/api/hr/employee",
		"getorganizationchart": "/api/hr/organization",
	},
	ServiceInventory: {
		"getstock":    "/api/inventory/stock",
		"updatestock": "/api/inventory/stock",
		"getproducts": "/api/inventory/products",
		"getlowstock": "/api/inventory/low-stock",
	},
	ServiceAccounting: {
		"getfinancialreport": "/api/accounting/reports",
		"getaccounts":        "/api/accounting/accounts",
		"gettransactions":    "/api/accounting/transactions",
		"getbalancesheet":    "/api/accounting/balance-sheet",
	},
	ServiceWorkflow: {
		"getworkflows":      "/api/workflow/workflows",
		"startworkflow":     "/api/workflow/start",
		"getworkflowstatus": "/api/workflow/status",
		"gettasks":          "/api/workflow/tasks",
	},
}

// displayNames render service identifiers for error payloads and logs.
var displayNames = map[string]string{
	ServiceHR:         "HR Service",
	ServiceInventory:  "Inventory Service",
	ServiceAccounting: "Accounting Service",
	ServiceWorkflow:   "Workflow Service",
}

// DefaultBaseURLs returns the local development addresses of the four
// downstream services.
func DefaultBaseURLs() map[string]string {
	return map[string]string{
		ServiceHR:         "http://localhost:5001",
		ServiceInventory:  "http://localhost:5002",
		ServiceAccounting: "http://localhost:5003",
		ServiceWorkflow:   "http://localhost:5004",
	}
}

// Services lists the known service names, sorted.
func Services() []string {
	out := make([]string, 0, len(endpoints))
	for name := range endpoints {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Operations lists the operations a service supports, sorted. Unknown
// services yield an UnknownService error.
func Operations(service string) ([]string, error) {
	table, ok := endpoints[strings.ToLower(service)]
	if !ok {
		return nil, agenterrors.New(agenterrors.KindUnknownService, "unknown service: %s", service)
	}
	out := make([]string, 0, len(table))
	for op := range table {
		out = append(out, op)
	}
	sort.Strings(out)
	return out, nil
}

// IsKnownService reports whether name is one of the routable services.
func IsKnownService(name string) bool {
	_, ok := endpoints[strings.ToLower(name)]
	return ok
}

// SupportsOperation reports whether service exposes operation.
func SupportsOperation(service, operation string) bool {
	table, ok := endpoints[strings.ToLower(service)]
	if !ok {
		return false
	}
	_, ok = table[strings.ToLower(operation)]
	return ok
}

// Client calls downstream ERP services over HTTP with retry on transient
// failures. One client serves all services; routing is table driven.
type Client struct {
	httpClient   *http.Client
	baseURLs     map[string]string
	retry        agenterrors.RetryConfig
	probeTimeout time.Duration
	probes       singleflight.Group
	logger       logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger overrides the component logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(logger) }
}

// WithProbeTimeout overrides the availability probe timeout.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.probeTimeout = timeout
		}
	}
}

// NewClient creates a Client over the given base URLs. Missing entries fall
// back to the local development defaults.
func NewClient(baseURLs map[string]string, retry agenterrors.RetryConfig, opts ...Option) *Client {
	urls := DefaultBaseURLs()
	for name, url := range baseURLs {
		urls[strings.ToLower(name)] = strings.TrimSuffix(url, "/")
	}
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURLs:     urls,
		retry:        retry,
		probeTimeout: DefaultProbeTimeout,
		logger:       logging.NewComponentLogger("ExternalClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs operation against service, appending parameters as a raw
// query string when non-empty, and returns the response body. Transient
// failures are retried; exhaustion surfaces as UpstreamUnavailable and a
// cancelled context as Cancelled. Unknown services and operations fail fast
// without touching the network.
func (c *Client) Call(ctx context.Context, service, operation, parameters string) (string, error) {
	service = strings.ToLower(service)
	operation = strings.ToLower(operation)

	base, ok := c.baseURLs[service]
	if !ok {
		return "", agenterrors.New(agenterrors.KindUnknownService, "unknown service: %s", service)
	}
	table, ok := endpoints[service]
	if !ok {
		return "", agenterrors.New(agenterrors.KindUnknownService, "unknown service: %s", service)
	}
	endpoint, ok := table[operation]
	if !ok {
		return "", agenterrors.New(agenterrors.KindUnsupportedOperation,
			"service %s does not support operation %s", service, operation)
	}

	requestURL := base + endpoint
	if parameters != "" {
		requestURL += "?" + parameters
	}

	c.logger.Info("Calling %s operation %s", DisplayName(service), operation)
	body, err := agenterrors.RetryWithResult(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.fetch(ctx, requestURL)
	}, c.logger)
	if err != nil {
		c.logger.Error("Call to %s operation %s failed: %v", DisplayName(service), operation, err)
		if agenterrors.IsCancelled(err) {
			return "", err
		}
		// Conversational callers relay the payload; programmatic callers
		// branch on the error kind.
		return ErrorResponse(service, operation, err), err
	}

	c.logger.Info("Call to %s operation %s completed", DisplayName(service), operation)
	return body, nil
}

func (c *Client) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", agenterrors.Wrap(agenterrors.KindInvalidArgument, err, "build request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", agenterrors.NewHTTPStatusError(resp.StatusCode, resp.Status, string(data))
	}
	return string(data), nil
}

// IsAvailable probes the service health endpoint with a short timeout and no
// retry. Any failure means unavailable; only an unknown service name is an
// error. Concurrent probes for the same service share one request.
func (c *Client) IsAvailable(ctx context.Context, service string) (bool, error) {
	service = strings.ToLower(service)
	base, ok := c.baseURLs[service]
	if !ok {
		return false, agenterrors.New(agenterrors.KindUnknownService, "unknown service: %s", service)
	}
	if _, ok := endpoints[service]; !ok {
		return false, agenterrors.New(agenterrors.KindUnknownService, "unknown service: %s", service)
	}

	result, err, _ := c.probes.Do(service, func() (any, error) {
		probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, base+"/health", nil)
		if err != nil {
			return false, nil
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Service %s is not available: %v", service, err)
			return false, nil
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)

		available := resp.StatusCode >= 200 && resp.StatusCode < 300
		c.logger.Debug("Service %s availability: %v", service, available)
		return available, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// DisplayName renders a service identifier for payloads and logs, falling
// back to the raw name for unknown services.
func DisplayName(service string) string {
	if name, ok := displayNames[strings.ToLower(service)]; ok {
		return name
	}
	return service
}

// ErrorPayload is the structured body handed back to conversational callers
// when a downstream call fails.
type ErrorPayload struct {
	Error     bool      `json:"error"`
	Service   string    `json:"service"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse serializes an ErrorPayload for the failed call. The result
// is always valid JSON.
func ErrorResponse(service, operation string, callErr error) string {
	payload := ErrorPayload{
		Error:     true,
		Service:   DisplayName(service),
		Operation: operation,
		Message:   callErr.Error(),
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":true,"service":%q,"operation":%q}`, DisplayName(service), operation)
	}
	return string(data)
}
