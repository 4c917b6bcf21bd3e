// Package client is the typed REST client for the InsureFlow API. Every
// failure is normalized to *APIError; the bearer token is read from the
// session store at request time, so login and logout take effect on the very
// next request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/joel-danjuma/insureflow/internal/cli/session"
	"github.com/joel-danjuma/insureflow/internal/models"
)

// TokenSource supplies the current bearer token, or "" when logged out.
type TokenSource func() string

// Client represents an HTTP client for the InsureFlow API
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource TokenSource
}

// New creates a new API client. tokenSource may be nil for a client that only
// calls public endpoints.
func New(baseURL string, tokenSource TokenSource) *Client {
	if tokenSource == nil {
		tokenSource = func() string { return "" }
	}
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		tokenSource: tokenSource,
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// do issues one request and decodes the response into out (when non-nil).
// Any failure comes back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, expect int) error {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: fmt.Sprintf("failed to marshal request: %v", err)}
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Token is read per request, never captured at construction
	if token := c.tokenSource(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return normalizeTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expect {
		return normalizeResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{Message: fmt.Sprintf("failed to decode response: %v", err)}
		}
	}

	return nil
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginResponse represents the login/registration response
type LoginResponse struct {
	Token string        `json:"token"`
	User  *session.User `json:"user"`
}

// Login authenticates the user and returns a bearer token with the user record
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a customer account and returns a ready-to-use session
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", RegisterRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	}, &resp, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser fetches the authenticated user for the current token
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// Policy represents an insurance policy as returned by the API
type Policy struct {
	ID             string    `json:"id"`
	PolicyNumber   string    `json:"policy_number"`
	CustomerID     string    `json:"customer_id"`
	BrokerID       string    `json:"broker_id"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	CoverageAmount float64   `json:"coverage_amount"`
	PremiumAmount  float64   `json:"premium_amount"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Premiums       []Premium `json:"premiums,omitempty"`
}

// Premium represents a premium installment as returned by the API
type Premium struct {
	ID         string     `json:"id"`
	PolicyID   string     `json:"policy_id"`
	Amount     float64    `json:"amount"`
	DueDate    time.Time  `json:"due_date"`
	Status     string     `json:"status"`
	PaidAt     *time.Time `json:"paid_at"`
	PaymentRef string     `json:"payment_ref"`
}

// Payment represents a simulated gateway transaction
type Payment struct {
	ID        string  `json:"id"`
	PremiumID string  `json:"premium_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
}

// PayPremiumResponse is returned by PayPremium
type PayPremiumResponse struct {
	Premium *Premium `json:"premium"`
	Payment *Payment `json:"payment"`
}

// ListPolicies returns the policies visible to the current user
func (c *Client) ListPolicies(ctx context.Context) ([]Policy, error) {
	var policies []Policy
	if err := c.do(ctx, http.MethodGet, "/api/policies", nil, &policies, http.StatusOK); err != nil {
		return nil, err
	}
	return policies, nil
}

// CreatePolicyRequest represents a request to issue a new policy
type CreatePolicyRequest struct {
	CustomerID     string    `json:"customer_id"`
	Type           string    `json:"type"`
	CoverageAmount float64   `json:"coverage_amount"`
	PremiumAmount  float64   `json:"premium_amount"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Installments   int       `json:"installments,omitempty"`
}

// CreatePolicy issues a new policy with its premium schedule
func (c *Client) CreatePolicy(ctx context.Context, req CreatePolicyRequest) (*Policy, error) {
	var policy Policy
	if err := c.do(ctx, http.MethodPost, "/api/policies", req, &policy, http.StatusCreated); err != nil {
		return nil, err
	}
	return &policy, nil
}

// GetPolicy returns one policy with its premium schedule
func (c *Client) GetPolicy(ctx context.Context, policyID string) (*Policy, error) {
	var policy Policy
	if err := c.do(ctx, http.MethodGet, "/api/policies/"+policyID, nil, &policy, http.StatusOK); err != nil {
		return nil, err
	}
	return &policy, nil
}

// ListPremiums returns premium installments, optionally filtered by status
func (c *Client) ListPremiums(ctx context.Context, status string) ([]Premium, error) {
	path := "/api/premiums"
	if status != "" {
		path += "?status=" + status
	}
	var premiums []Premium
	if err := c.do(ctx, http.MethodGet, path, nil, &premiums, http.StatusOK); err != nil {
		return nil, err
	}
	return premiums, nil
}

// PayPremium pays a premium through the simulated gateway
func (c *Client) PayPremium(ctx context.Context, premiumID, method string) (*PayPremiumResponse, error) {
	var resp PayPremiumResponse
	err := c.do(ctx, http.MethodPost, "/api/premiums/"+premiumID+"/pay", map[string]string{
		"method": method,
	}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Commission represents a broker commission as returned by the API
type Commission struct {
	ID        string  `json:"id"`
	BrokerID  string  `json:"broker_id"`
	PolicyID  string  `json:"policy_id"`
	PremiumID string  `json:"premium_id"`
	Amount    float64 `json:"amount"`
	Rate      float64 `json:"rate"`
	Status    string  `json:"status"`
}

// ListCommissions returns commissions visible to the current user
func (c *Client) ListCommissions(ctx context.Context) ([]Commission, error) {
	var commissions []Commission
	if err := c.do(ctx, http.MethodGet, "/api/commissions", nil, &commissions, http.StatusOK); err != nil {
		return nil, err
	}
	return commissions, nil
}

// Broker represents a broker profile as returned by the API
type Broker struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	FirmName       string        `json:"firm_name"`
	LicenseNumber  string        `json:"license_number"`
	CommissionRate float64       `json:"commission_rate"`
	User           *session.User `json:"user,omitempty"`
}

// BrokerClient represents a customer in a broker's book
type BrokerClient struct {
	ID       string        `json:"id"`
	BrokerID string        `json:"broker_id"`
	UserID   string        `json:"user_id"`
	User     *session.User `json:"user,omitempty"`
}

// ListBrokers returns all broker profiles
func (c *Client) ListBrokers(ctx context.Context) ([]Broker, error) {
	var brokers []Broker
	if err := c.do(ctx, http.MethodGet, "/api/brokers", nil, &brokers, http.StatusOK); err != nil {
		return nil, err
	}
	return brokers, nil
}

// ListBrokerClients returns the client book of one broker
func (c *Client) ListBrokerClients(ctx context.Context, brokerID string) ([]BrokerClient, error) {
	var clients []BrokerClient
	if err := c.do(ctx, http.MethodGet, "/api/brokers/"+brokerID+"/clients", nil, &clients, http.StatusOK); err != nil {
		return nil, err
	}
	return clients, nil
}

// Ticket represents a support ticket as returned by the API
type Ticket struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// ListTickets returns the support tickets visible to the current user
func (c *Client) ListTickets(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket
	if err := c.do(ctx, http.MethodGet, "/api/support/tickets", nil, &tickets, http.StatusOK); err != nil {
		return nil, err
	}
	return tickets, nil
}

// CreateTicket opens a new support ticket
func (c *Client) CreateTicket(ctx context.Context, subject, body, priority string) (*Ticket, error) {
	payload := map[string]string{
		"subject": subject,
		"body":    body,
	}
	if priority != "" {
		payload["priority"] = priority
	}
	var ticket Ticket
	if err := c.do(ctx, http.MethodPost, "/api/support/tickets", payload, &ticket, http.StatusCreated); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// TicketReply represents one message on a ticket thread
type TicketReply struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ReplyTicket adds a reply to a ticket thread
func (c *Client) ReplyTicket(ctx context.Context, ticketID, body string) (*TicketReply, error) {
	var reply TicketReply
	if err := c.do(ctx, http.MethodPost, "/api/support/tickets/"+ticketID+"/replies", map[string]string{
		"body": body,
	}, &reply, http.StatusCreated); err != nil {
		return nil, err
	}
	return &reply, nil
}

// DashboardSummary is the role-scoped landing page payload
type DashboardSummary struct {
	Role               models.Role `json:"role"`
	ActivePolicies     int64       `json:"active_policies,omitempty"`
	PendingPremiums    int64       `json:"pending_premiums,omitempty"`
	NextPremiumDue     *time.Time  `json:"next_premium_due,omitempty"`
	Clients            int64       `json:"clients,omitempty"`
	PendingCommissions float64     `json:"pending_commissions,omitempty"`
	Brokers            int64       `json:"brokers,omitempty"`
	Users              int64       `json:"users,omitempty"`
	PremiumsCollected  float64     `json:"premiums_collected,omitempty"`
	OpenTickets        int64       `json:"open_tickets,omitempty"`
}

// Dashboard returns the role-scoped dashboard summary
func (c *Client) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	var summary DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &summary, http.StatusOK); err != nil {
		return nil, err
	}
	return &summary, nil
}
