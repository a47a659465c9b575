package gateway

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
)

func TestCreatePreference(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
            t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
        }
        if got := r.Header.Get("Authorization"); got != "Bearer tok" {
            t.Errorf("Authorization = %q", got)
        }
        var req PreferenceRequest
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            t.Fatalf("decoding request: %v", err)
        }
        if req.ExternalReference != "17" {
            t.Errorf("external_reference = %q, want 17", req.ExternalReference)
        }
        if len(req.Items) != 1 || req.Items[0].UnitPrice != 1000 {
            t.Errorf("unexpected items: %+v", req.Items)
        }
        w.WriteHeader(http.StatusCreated)
        _ = json.NewEncoder(w).Encode(Preference{
            ID:               "pref-1",
            InitPoint:        "https://mp.example/init",
            SandboxInitPoint: "https://mp.example/sandbox",
        })
    }))
    defer srv.Close()

    c := NewClient(srv.URL, "tok")
    pref, err := c.CreatePreference(context.Background(), PreferenceRequest{
        Items:             []PreferenceItem{{Title: "Reserva", Quantity: 1, UnitPrice: 1000, CurrencyID: "CLP"}},
        ExternalReference: "17",
    })
    if err != nil {
        t.Fatalf("CreatePreference: %v", err)
    }
    if pref.ID != "pref-1" || pref.InitPoint == "" {
        t.Fatalf("unexpected preference: %+v", pref)
    }
}

func TestCreatePreferenceGatewayError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusUnauthorized)
        _, _ = w.Write([]byte(`{"message":"invalid token"}`))
    }))
    defer srv.Close()

    c := NewClient(srv.URL, "bad")
    _, err := c.CreatePreference(context.Background(), PreferenceRequest{})
    if !errors.Is(err, ErrGateway) {
        t.Fatalf("err = %v, want ErrGateway", err)
    }
}

func TestGetPayment(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet || r.URL.Path != "/v1/payments/555" {
            t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
        }
        _ = json.NewEncoder(w).Encode(map[string]interface{}{
            "id":                 555,
            "status":             "approved",
            "status_detail":      "accredited",
            "external_reference": "17",
            "transaction_amount": 1000.0,
            "currency_id":        "CLP",
        })
    }))
    defer srv.Close()

    c := NewClient(srv.URL, "tok")
    info, err := c.GetPayment(context.Background(), "555")
    if err != nil {
        t.Fatalf("GetPayment: %v", err)
    }
    if info.ID.String() != "555" || info.Status != "approved" || info.ExternalReference != "17" {
        t.Fatalf("unexpected payment info: %+v", info)
    }
}

func TestGetPaymentNotFound(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusNotFound)
    }))
    defer srv.Close()

    c := NewClient(srv.URL, "tok")
    if _, err := c.GetPayment(context.Background(), "999"); !errors.Is(err, ErrGateway) {
        t.Fatalf("err = %v, want ErrGateway", err)
    }
}

func TestMajorUnits(t *testing.T) {
    if got := MajorUnits(100000); got != 1000 {
        t.Fatalf("MajorUnits(100000) = %v, want 1000", got)
    }
    if got := MajorUnits(99); got != 0.99 {
        t.Fatalf("MajorUnits(99) = %v, want 0.99", got)
    }
}
