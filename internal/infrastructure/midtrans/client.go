package midtrans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taxdesk-backend/internal/domain"
)

type Config struct {
	ServerKey    string
	MerchantName string
	SnapURL      string
	APIURL       string
	Timeout      time.Duration
	HTTP         *http.Client
}

// Client talks to the Snap transaction API and the core status API.
type Client struct {
	serverKey    string
	merchantName string
	snapURL      string
	apiURL       string
	http         *http.Client
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ServerKey) == "" {
		return nil, fmt.Errorf("midtrans: server key required")
	}
	if strings.TrimSpace(cfg.SnapURL) == "" || strings.TrimSpace(cfg.APIURL) == "" {
		return nil, fmt.Errorf("midtrans: snap and api base urls required")
	}
	hc := cfg.HTTP
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		serverKey:    cfg.ServerKey,
		merchantName: cfg.MerchantName,
		snapURL:      strings.TrimRight(cfg.SnapURL, "/"),
		apiURL:       strings.TrimRight(cfg.APIURL, "/"),
		http:         hc,
	}, nil
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type creditCard struct {
	Secure bool `json:"secure"`
}

type customerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type callbacks struct {
	Finish  string `json:"finish"`
	Error   string `json:"error"`
	Pending string `json:"pending"`
}

type itemDetail struct {
	ID           string `json:"id"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
	Name         string `json:"name"`
	MerchantName string `json:"merchant_name,omitempty"`
}

type snapRequest struct {
	TransactionDetails transactionDetails `json:"transaction_details"`
	CreditCard         creditCard         `json:"credit_card"`
	CustomerDetails    customerDetails    `json:"customer_details"`
	Callbacks          callbacks          `json:"callbacks"`
	ItemDetails        []itemDetail       `json:"item_details"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

// CreateSession requests a Snap token for the order.
func (c *Client) CreateSession(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentSession, error) {
	body := snapRequest{
		TransactionDetails: transactionDetails{OrderID: req.OrderID, GrossAmount: req.Amount},
		CreditCard:         creditCard{Secure: true},
		CustomerDetails: customerDetails{
			FirstName: req.Customer.FirstName,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
		},
		Callbacks: callbacks{
			Finish:  req.Callbacks.Finish,
			Error:   req.Callbacks.Error,
			Pending: req.Callbacks.Pending,
		},
		ItemDetails: []itemDetail{{
			ID:           req.Item.ID,
			Price:        req.Item.Price,
			Quantity:     1,
			Name:         truncate(req.Item.Name, 50),
			MerchantName: c.merchantName,
		}},
	}
	var out snapResponse
	status, err := c.do(ctx, http.MethodPost, c.snapURL+"/snap/v1/transactions", body, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Messages: out.ErrorMessages}
	}
	if out.Token == "" {
		return nil, &APIError{StatusCode: status, Messages: []string{"empty snap token"}}
	}
	return &domain.PaymentSession{OrderID: req.OrderID, Token: out.Token, RedirectURL: out.RedirectURL}, nil
}

// TransactionStatus queries the gateway for the current state of an order.
func (c *Client) TransactionStatus(ctx context.Context, orderID string) (*domain.GatewayNotification, error) {
	var out struct {
		domain.GatewayNotification
		StatusMessage string `json:"status_message"`
	}
	status, err := c.do(ctx, http.MethodGet, c.apiURL+"/v2/"+url.PathEscape(orderID)+"/status", nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || (out.StatusCode != "" && !strings.HasPrefix(out.StatusCode, "2")) {
		msgs := []string{}
		if out.StatusMessage != "" {
			msgs = append(msgs, out.StatusMessage)
		}
		code := status
		if n, err := strconv.Atoi(out.StatusCode); err == nil {
			code = n
		}
		return nil, &APIError{StatusCode: code, Messages: msgs}
	}
	n := out.GatewayNotification
	return &n, nil
}

// VerifyNotification checks the webhook signature against the server key.
func (c *Client) VerifyNotification(n domain.GatewayNotification) bool {
	return VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, c.serverKey, n.SignatureKey)
}

func (c *Client) do(ctx context.Context, method, endpoint string, in any, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.serverKey, "")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("midtrans %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil && resp.StatusCode < 300 {
			return resp.StatusCode, fmt.Errorf("midtrans: decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("midtrans: status %d", e.StatusCode)
	}
	return fmt.Sprintf("midtrans: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
