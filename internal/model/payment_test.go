package model

import "testing"

func TestSplitAmount(t *testing.T) {
    cases := []struct {
        name       string
        total      int64
        owner      int64
        commission int64
    }{
        {"round total", 100000, 95000, 5000},
        {"remainder goes to owner", 99999, 95000, 4999},
        {"tiny amount", 19, 19, 0},
        {"zero", 0, 0, 0},
        {"one peso in cents", 100, 95, 5},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            owner, commission := SplitAmount(tc.total)
            if owner != tc.owner || commission != tc.commission {
                t.Fatalf("SplitAmount(%d) = (%d, %d), want (%d, %d)",
                    tc.total, owner, commission, tc.owner, tc.commission)
            }
            if owner+commission != tc.total {
                t.Fatalf("split of %d does not add back: %d + %d", tc.total, owner, commission)
            }
        })
    }
}

func TestMapGatewayStatus(t *testing.T) {
    cases := []struct {
        gateway string
        local   string
        ok      bool
    }{
        {"approved", PaymentApproved, true},
        {"rejected", PaymentRejected, true},
        {"cancelled", PaymentCancelled, true},
        {"pending", "", false},
        {"in_process", "", false},
        {"refunded", "", false},
        {"", "", false},
    }
    for _, tc := range cases {
        got, ok := MapGatewayStatus(tc.gateway)
        if got != tc.local || ok != tc.ok {
            t.Errorf("MapGatewayStatus(%q) = (%q, %v), want (%q, %v)",
                tc.gateway, got, ok, tc.local, tc.ok)
        }
    }
}

func TestCheckPaymentTransition(t *testing.T) {
    valid := [][2]string{
        {PaymentPending, PaymentApproved},
        {PaymentPending, PaymentRejected},
        {PaymentPending, PaymentCancelled},
        {PaymentApproved, PaymentApproved}, // same-status no-op
    }
    for _, v := range valid {
        if err := CheckPaymentTransition(v[0], v[1]); err != nil {
            t.Errorf("CheckPaymentTransition(%q, %q) = %v, want nil", v[0], v[1], err)
        }
    }

    invalid := [][2]string{
        {PaymentApproved, PaymentPending},
        {PaymentApproved, PaymentRejected},
        {PaymentRejected, PaymentApproved},
        {PaymentCancelled, PaymentPending},
    }
    for _, v := range invalid {
        if err := CheckPaymentTransition(v[0], v[1]); err == nil {
            t.Errorf("CheckPaymentTransition(%q, %q) = nil, want error", v[0], v[1])
        }
    }
}
