// Package gateway implements the MercadoPago client used by the payment
// orchestrator: creating checkout preferences and fetching payment
// records.  The gateway operates in major currency units while the rest
// of the application stores cents; the conversion happens here at the
// boundary.
package gateway

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "time"
)

// ErrGateway wraps any failure to reach the gateway or any non-success
// response.  Handlers translate it into HTTP 502.
var ErrGateway = errors.New("payment gateway error")

// BackURLs carries the redirect targets the gateway sends the payer to
// after checkout.
type BackURLs struct {
    Success string `json:"success"`
    Failure string `json:"failure"`
    Pending string `json:"pending"`
}

// PreferenceItem is one line of a checkout preference.  UnitPrice is in
// major units.
type PreferenceItem struct {
    Title      string  `json:"title"`
    Quantity   int     `json:"quantity"`
    UnitPrice  float64 `json:"unit_price"`
    CurrencyID string  `json:"currency_id"`
}

// PreferenceRequest is the payload for creating a checkout preference.
type PreferenceRequest struct {
    Items             []PreferenceItem `json:"items"`
    ExternalReference string           `json:"external_reference"`
    NotificationURL   string           `json:"notification_url,omitempty"`
    BackURLs          BackURLs         `json:"back_urls"`
    AutoReturn        string           `json:"auto_return,omitempty"`
}

// Preference is the relevant subset of the gateway's preference response.
type Preference struct {
    ID               string `json:"id"`
    InitPoint        string `json:"init_point"`
    SandboxInitPoint string `json:"sandbox_init_point"`
}

// PaymentInfo is the relevant subset of the gateway's payment record.
// Status carries the raw gateway value; mapping into local states is the
// orchestrator's job.
type PaymentInfo struct {
    ID                json.Number `json:"id"`
    Status            string      `json:"status"`
    StatusDetail      string      `json:"status_detail"`
    ExternalReference string      `json:"external_reference"`
    TransactionAmount float64     `json:"transaction_amount"`
    CurrencyID        string      `json:"currency_id"`
}

// Client talks to the MercadoPago REST API.  BaseURL is configurable so
// tests can point it at a local httptest server.
type Client struct {
    BaseURL     string
    AccessToken string
    HTTP        *http.Client
}

// NewClient builds a Client with a bounded request timeout.  No retry
// policy is applied; a gateway failure surfaces immediately to the
// caller.
func NewClient(baseURL, accessToken string) *Client {
    return &Client{
        BaseURL:     baseURL,
        AccessToken: accessToken,
        HTTP:        &http.Client{Timeout: 10 * time.Second},
    }
}

// CreatePreference opens a checkout session.  Anything but HTTP 201 is a
// gateway error.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
    body, err := json.Marshal(req)
    if err != nil {
        return nil, err
    }
    httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
        c.BaseURL+"/checkout/preferences", bytes.NewReader(body))
    if err != nil {
        return nil, err
    }
    httpReq.Header.Set("Authorization", "Bearer "+c.AccessToken)
    httpReq.Header.Set("Content-Type", "application/json")

    resp, err := c.HTTP.Do(httpReq)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrGateway, err)
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusCreated {
        snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
        return nil, fmt.Errorf("%w: create preference returned %d: %s", ErrGateway, resp.StatusCode, snippet)
    }
    var pref Preference
    if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
        return nil, fmt.Errorf("%w: decoding preference: %v", ErrGateway, err)
    }
    return &pref, nil
}

// GetPayment fetches a payment record by its gateway id.  Anything but
// HTTP 200 is a gateway error.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error) {
    httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
        c.BaseURL+"/v1/payments/"+paymentID, nil)
    if err != nil {
        return nil, err
    }
    httpReq.Header.Set("Authorization", "Bearer "+c.AccessToken)

    resp, err := c.HTTP.Do(httpReq)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrGateway, err)
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
        return nil, fmt.Errorf("%w: get payment returned %d: %s", ErrGateway, resp.StatusCode, snippet)
    }
    var info PaymentInfo
    if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
        return nil, fmt.Errorf("%w: decoding payment: %v", ErrGateway, err)
    }
    return &info, nil
}

// MajorUnits converts an amount in cents into the major units the
// gateway expects.
func MajorUnits(cents int64) float64 {
    return float64(cents) / 100
}
