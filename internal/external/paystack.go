package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
)

// PaystackClient talks to a Paystack-style payment provider. The engine
// only initializes transactions and verifies references; the provider's own
// transaction lifecycle is not modeled here.
type PaystackClient struct {
	baseURL     string
	secretKey   string
	callbackURL string
	httpClient  *http.Client
}

type PaystackConfig struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Timeout     time.Duration
}

type initializeRequest struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    models.PaymentMetadata `json:"metadata"`
}

type initializeResponse struct {
	Status bool   `json:"status"`
	Message string `json:"message"`
	Data   struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status bool   `json:"status"`
	Message string `json:"message"`
	Data   struct {
		Status    string                 `json:"status"`
		Reference string                 `json:"reference"`
		Amount    int64                  `json:"amount"`
		Metadata  models.PaymentMetadata `json:"metadata"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

func NewPaystackClient(cfg PaystackConfig) *PaystackClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaystackClient{
		baseURL:     cfg.BaseURL,
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Initialize starts a provider transaction and returns the authorization
// URL the buyer is redirected to. Amounts are sent in minor units.
func (pc *PaystackClient) Initialize(ctx context.Context, email string, amount decimal.Decimal, meta models.PaymentMetadata) (string, error) {
	payload := initializeRequest{
		Email:       email,
		Amount:      amount.Mul(decimal.NewFromInt(100)).IntPart(),
		CallbackURL: pc.callbackURL,
		Metadata:    meta,
	}

	var resp initializeResponse
	if err := pc.post(ctx, "/transaction/initialize", payload, &resp); err != nil {
		return "", err
	}
	if !resp.Status {
		return "", fmt.Errorf("payment initialization failed: %s", resp.Message)
	}

	return resp.Data.AuthorizationURL, nil
}

// Verify resolves a reference into the verified-payment fact. A reference
// the provider does not consider successful yields an error and nothing in
// the engine changes.
func (pc *PaystackClient) Verify(ctx context.Context, reference string) (*models.PaymentConfirmation, error) {
	var resp verifyResponse
	if err := pc.get(ctx, "/transaction/verify/"+reference, &resp); err != nil {
		return nil, err
	}
	if !resp.Status || resp.Data.Status != "success" {
		return nil, fmt.Errorf("%w: payment %s not verified", apperrors.ErrInvalidRequest, reference)
	}

	meta := resp.Data.Metadata
	holder := models.Holder{
		ID:    meta.HolderID,
		Name:  meta.HolderName,
		Email: meta.HolderEmail,
	}
	if resp.Data.Customer.Email != "" {
		holder.Email = resp.Data.Customer.Email
	}

	return &models.PaymentConfirmation{
		Reference: resp.Data.Reference,
		EventID:   meta.EventID,
		SectionID: meta.SectionID,
		Quantity:  meta.Quantity,
		Seats:     meta.Seats,
		Holder:    holder,
		Amount:    decimal.NewFromInt(resp.Data.Amount).Div(decimal.NewFromInt(100)),
	}, nil
}

func (pc *PaystackClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+pc.secretKey)
	req.Header.Set("Content-Type", "application/json")

	return pc.do(req, out)
}

func (pc *PaystackClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+pc.secretKey)

	return pc.do(req, out)
}

func (pc *PaystackClient) do(req *http.Request, out interface{}) error {
	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
