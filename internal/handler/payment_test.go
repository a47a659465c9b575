package handler

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/arriendoya/booking-api/internal/gateway"
    "github.com/arriendoya/booking-api/internal/service"
)

// countingGateway fails every call; the webhook tests only care whether
// the gateway was contacted at all.
type countingGateway struct {
    calls int
}

func (g *countingGateway) CreatePreference(context.Context, gateway.PreferenceRequest) (*gateway.Preference, error) {
    g.calls++
    return nil, gateway.ErrGateway
}

func (g *countingGateway) GetPayment(context.Context, string) (*gateway.PaymentInfo, error) {
    g.calls++
    return nil, gateway.ErrGateway
}

func webhookRequest(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/pagos/webhook", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func TestWebhookIgnoresNonPaymentEvents(t *testing.T) {
    gw := &countingGateway{}
    h := NewPaymentHandler(service.NewPaymentService(nil, nil, nil, nil, nil, gw, nil, service.PaymentConfig{}), nil)

    cases := []struct {
        name string
        body string
    }{
        {"merchant_order event", `{"type":"merchant_order","data":{"id":"123"}}`},
        {"test event", `{"type":"test","data":{"id":"1"}}`},
        {"payment without id", `{"type":"payment","data":{}}`},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            c, rec := webhookRequest(t, tc.body)
            if err := h.Webhook(c); err != nil {
                t.Fatalf("Webhook: %v", err)
            }
            // Always 200 so the gateway stops redelivering.
            if rec.Code != http.StatusOK {
                t.Errorf("status = %d, want 200", rec.Code)
            }
            if gw.calls != 0 {
                t.Errorf("gateway contacted for an ignored event")
            }
        })
    }
}

func TestWebhookGatewayFailureIsRetryable(t *testing.T) {
    gw := &countingGateway{}
    h := NewPaymentHandler(service.NewPaymentService(nil, nil, nil, nil, nil, gw, nil, service.PaymentConfig{}), nil)

    c, rec := webhookRequest(t, `{"type":"payment","data":{"id":"555"}}`)
    if err := h.Webhook(c); err != nil {
        t.Fatalf("Webhook: %v", err)
    }
    // A processing failure answers non-2xx so the gateway redelivers.
    if rec.Code != http.StatusInternalServerError {
        t.Errorf("status = %d, want 500", rec.Code)
    }
    if gw.calls != 1 {
        t.Errorf("gateway calls = %d, want 1", gw.calls)
    }
}
