package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/kinda-storefront/internal/obs"
	"github.com/noah-isme/kinda-storefront/internal/resilience"
)

const defaultVersion = "2024-07-17"

// Doer is satisfied by resilience.Guard.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the Square REST v2 API.
type Client struct {
	BaseURL     string
	AccessToken string
	Version     string
	HTTP        Doer
}

// NewClient builds a client whose calls go through the given breaker and are never retried.
func NewClient(baseURL, token, version string, httpClient *http.Client, breaker *resilience.Breaker, timeout time.Duration) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken: token,
		Version:     version,
		HTTP: resilience.Guard{
			Client:  httpClient,
			Breaker: breaker,
			Timeout: timeout,
		},
	}
}

// CalculateOrder previews an order without creating it.
func (c *Client) CalculateOrder(ctx context.Context, order Order) (*Order, error) {
	var out struct {
		Order *Order `json:"order"`
	}
	if err := c.call(ctx, "calculate_order", http.MethodPost, "/v2/orders/calculate", map[string]any{"order": order}, &out); err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, errors.New("square: calculate order returned no order")
	}
	return out.Order, nil
}

// CreateOrder submits the order for creation.
func (c *Client) CreateOrder(ctx context.Context, idempotencyKey string, order Order) (*Order, error) {
	var out struct {
		Order *Order `json:"order"`
	}
	body := map[string]any{"idempotency_key": idempotencyKey, "order": order}
	if err := c.call(ctx, "create_order", http.MethodPost, "/v2/orders", body, &out); err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, errors.New("square: create order returned no order")
	}
	return out.Order, nil
}

// SearchCustomerByEmail returns the first customer whose email matches exactly, or nil.
func (c *Client) SearchCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	body := map[string]any{
		"query": map[string]any{
			"filter": map[string]any{
				"email_address": map[string]string{"exact": strings.TrimSpace(email)},
			},
		},
	}
	var out struct {
		Customers []Customer `json:"customers"`
	}
	if err := c.call(ctx, "search_customers", http.MethodPost, "/v2/customers/search", body, &out); err != nil {
		return nil, err
	}
	if len(out.Customers) == 0 {
		return nil, nil
	}
	return &out.Customers[0], nil
}

// CreateCustomer adds a directory entry.
func (c *Client) CreateCustomer(ctx context.Context, idempotencyKey string, customer Customer) (*Customer, error) {
	body := struct {
		IdempotencyKey string `json:"idempotency_key,omitempty"`
		Customer
	}{IdempotencyKey: idempotencyKey, Customer: customer}
	var out struct {
		Customer *Customer `json:"customer"`
	}
	if err := c.call(ctx, "create_customer", http.MethodPost, "/v2/customers", body, &out); err != nil {
		return nil, err
	}
	if out.Customer == nil || out.Customer.ID == "" {
		return nil, errors.New("square: create customer returned no id")
	}
	return out.Customer, nil
}

// CreatePayment charges the source and, with autocomplete, captures immediately.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error) {
	var out struct {
		Payment *Payment `json:"payment"`
	}
	if err := c.call(ctx, "create_payment", http.MethodPost, "/v2/payments", req, &out); err != nil {
		return nil, err
	}
	if out.Payment == nil {
		return nil, errors.New("square: create payment returned no payment")
	}
	return out.Payment, nil
}

// RetrieveCatalogObject fetches a catalog object including its current version.
func (c *Client) RetrieveCatalogObject(ctx context.Context, id string) (*CatalogObject, error) {
	var out struct {
		Object *CatalogObject `json:"object"`
	}
	path := "/v2/catalog/object/" + url.PathEscape(id)
	if err := c.call(ctx, "retrieve_catalog_object", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Object == nil {
		return nil, fmt.Errorf("square: catalog object %s not found", id)
	}
	return out.Object, nil
}

// UpsertCatalogObject creates or updates a catalog object.
func (c *Client) UpsertCatalogObject(ctx context.Context, idempotencyKey string, object CatalogObject) (*CatalogObject, error) {
	var out struct {
		CatalogObject *CatalogObject `json:"catalog_object"`
	}
	body := map[string]any{"idempotency_key": idempotencyKey, "object": object}
	if err := c.call(ctx, "upsert_catalog_object", http.MethodPost, "/v2/catalog/object", body, &out); err != nil {
		return nil, err
	}
	return out.CatalogObject, nil
}

func (c *Client) call(ctx context.Context, operation, method, path string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.Inc(obs.SquareRequestTotal, operation, result)
		obs.ObserveSince(obs.SquareRequestLatency, start, operation)
	}()

	if c.HTTP == nil {
		return errors.New("square: http client not configured")
	}
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("square: encode %s: %w", operation, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")
	version := c.Version
	if version == "" {
		version = defaultVersion
	}
	req.Header.Set("Square-Version", version)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("square: %s: %w", operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("square: read %s: %w", operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Errors []Error `json:"errors"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Errors = envelope.Errors
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("square: decode %s: %w", operation, err)
	}
	return nil
}
