package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "go.uber.org/zap"

    "github.com/arriendoya/booking-api/internal/gateway"
    "github.com/arriendoya/booking-api/internal/logger"
    "github.com/arriendoya/booking-api/internal/metrics"
    "github.com/arriendoya/booking-api/internal/model"
    "github.com/arriendoya/booking-api/internal/queue"
    "github.com/arriendoya/booking-api/internal/repository"
)

// Store interfaces narrow the concrete repositories to exactly what the
// payment flow touches, which keeps tests to small hand written fakes.

// PaymentStore is the pago persistence surface the orchestrator needs.
type PaymentStore interface {
    CreateIntent(ctx context.Context, p *model.Payment) error
    SetPreference(ctx context.Context, paymentID uint64, preferenceID string) error
    GetByID(ctx context.Context, id uint64) (*model.Payment, error)
    FindByExternalReference(ctx context.Context, ref string) (*model.Payment, error)
    RecordGatewayResult(ctx context.Context, paymentID uint64, gatewayPaymentID, gatewayStatus, newStatus string, processedAt time.Time) (bool, error)
}

// ReservationStore covers the reservation reads and the completion write.
type ReservationStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
    MarkCompleted(ctx context.Context, id uint64, paid int64) error
}

// PropertyStore resolves the property and its primary owner.
type PropertyStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Property, error)
    PrimaryOwnerID(ctx context.Context, propertyID uint64) (uint64, error)
}

// CommissionStore covers commission creation and its idempotency check.
type CommissionStore interface {
    Create(ctx context.Context, c *model.Commission) error
    ExistsForPayment(ctx context.Context, paymentID uint64) (bool, error)
}

// InvoiceStore issues the boleta for a completed reservation.
type InvoiceStore interface {
    CreateIfMissing(ctx context.Context, reservationID uint64, total int64) error
}

// Gateway is the outbound payment API surface.
type Gateway interface {
    CreatePreference(ctx context.Context, req gateway.PreferenceRequest) (*gateway.Preference, error)
    GetPayment(ctx context.Context, paymentID string) (*gateway.PaymentInfo, error)
}

// EventPublisher emits domain events to the broker.  Failures are logged
// and swallowed; payment confirmation never depends on the broker.
type EventPublisher func(ctx context.Context, event queue.PaymentApprovedEvent) error

// PaymentConfig carries the checkout wiring the orchestrator passes to
// the gateway on every preference.
type PaymentConfig struct {
    Currency   string
    WebhookURL string
    SuccessURL string
    FailureURL string
    PendingURL string
}

// ErrReservationNotPayable is returned when an intent is requested for a
// reservation that is not pendiente.
var ErrReservationNotPayable = errors.New("reservation is not payable")

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// PaymentService orchestrates the payment lifecycle: intent creation,
// checkout session setup, webhook confirmation and the side effects of
// an approval (commission, invoice, reservation completion, event).
type PaymentService struct {
    payments     PaymentStore
    reservations ReservationStore
    properties   PropertyStore
    commissions  CommissionStore
    invoices     InvoiceStore
    gw           Gateway
    publish      EventPublisher
    cfg          PaymentConfig
}

// NewPaymentService wires the orchestrator.  publish may be nil when no
// broker is configured.
func NewPaymentService(payments PaymentStore, reservations ReservationStore, properties PropertyStore,
    commissions CommissionStore, invoices InvoiceStore, gw Gateway, publish EventPublisher, cfg PaymentConfig) *PaymentService {
    if cfg.Currency == "" {
        cfg.Currency = "CLP"
    }
    return &PaymentService{
        payments:     payments,
        reservations: reservations,
        properties:   properties,
        commissions:  commissions,
        invoices:     invoices,
        gw:           gw,
        publish:      publish,
        cfg:          cfg,
    }
}

// IntentResult is what a successful intent creation hands back to the
// client: the stored payment plus the checkout redirect URLs.
type IntentResult struct {
    Payment          *model.Payment
    PreferenceID     string
    InitPoint        string
    SandboxInitPoint string
}

// CreateIntent opens a payment for a reservation.  The caller must be
// the reservation's client unless isAdmin is set.  The amount split is
// computed here and frozen into the row; the gateway preference carries
// the payment id as external reference so webhook notifications can be
// correlated back.
func (s *PaymentService) CreateIntent(ctx context.Context, reservationID, actorID uint64, isAdmin bool) (*IntentResult, error) {
    res, err := s.reservations.GetByID(ctx, reservationID)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if !isAdmin && res.ClientID != actorID {
        return nil, repository.ErrForbidden
    }
    if res.Status != model.ReservationPending {
        return nil, ErrReservationNotPayable
    }

    prop, err := s.properties.GetByID(ctx, res.PropertyID)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }

    owner, commission := model.SplitAmount(res.TotalCost)
    p := &model.Payment{
        ReservationID:    res.ID,
        TotalAmount:      res.TotalCost,
        OwnerAmount:      owner,
        CommissionAmount: commission,
        Currency:         s.cfg.Currency,
    }
    if err := s.payments.CreateIntent(ctx, p); err != nil {
        return nil, err
    }

    title := "Reserva de propiedad"
    if prop.Name != nil && *prop.Name != "" {
        title = "Reserva: " + *prop.Name
    }
    pref, err := s.gw.CreatePreference(ctx, gateway.PreferenceRequest{
        Items: []gateway.PreferenceItem{{
            Title:      title,
            Quantity:   1,
            UnitPrice:  gateway.MajorUnits(p.TotalAmount),
            CurrencyID: p.Currency,
        }},
        ExternalReference: p.ExternalReference,
        NotificationURL:   s.cfg.WebhookURL,
        BackURLs: gateway.BackURLs{
            Success: s.cfg.SuccessURL,
            Failure: s.cfg.FailureURL,
            Pending: s.cfg.PendingURL,
        },
        AutoReturn: "approved",
    })
    if err != nil {
        // The row stays pendiente; the client may retry and the open
        // intent check will route them back here only after this row is
        // resolved. Surface the gateway failure as-is.
        logger.L().Error("create preference failed",
            zap.Uint64("payment_id", p.ID), zap.Error(err))
        return nil, err
    }
    if err := s.payments.SetPreference(ctx, p.ID, pref.ID); err != nil {
        return nil, err
    }
    v := pref.ID
    p.PreferenceID = &v

    return &IntentResult{
        Payment:          p,
        PreferenceID:     pref.ID,
        InitPoint:        pref.InitPoint,
        SandboxInitPoint: pref.SandboxInitPoint,
    }, nil
}

// Callback outcomes reported by ProcessCallback, exposed for logging and
// webhook metrics.
const (
    CallbackProcessed = "processed" // transition applied here
    CallbackDuplicate = "duplicate" // row already terminal, side effects re-verified
    CallbackPending   = "pending"   // gateway status has no local mapping yet
)

// ProcessCallback handles a gateway payment notification.  The local
// state is never trusted from the webhook body: the payment record is
// re-fetched from the gateway and the status derived from that read.
// The whole path is idempotent; redelivered notifications re-verify the
// approval side effects instead of repeating them.
func (s *PaymentService) ProcessCallback(ctx context.Context, gatewayPaymentID string) (string, error) {
    info, err := s.gw.GetPayment(ctx, gatewayPaymentID)
    if err != nil {
        return "", err
    }
    if info.ExternalReference == "" {
        return "", fmt.Errorf("gateway payment %s has no external reference", gatewayPaymentID)
    }
    p, err := s.payments.FindByExternalReference(ctx, info.ExternalReference)
    if errors.Is(err, sql.ErrNoRows) {
        return "", fmt.Errorf("no payment matches external reference %q: %w", info.ExternalReference, ErrNotFound)
    }
    if err != nil {
        return "", err
    }

    newStatus, mapped := model.MapGatewayStatus(info.Status)
    if !mapped {
        // Statuses like in_process or pending are recorded raw and the
        // local row stays pendiente until a terminal status arrives.
        if _, err := s.payments.RecordGatewayResult(ctx, p.ID, info.ID.String(), info.Status, "", time.Now().UTC()); err != nil {
            return "", err
        }
        logger.L().Info("gateway status not terminal, payment left pending",
            zap.Uint64("payment_id", p.ID), zap.String("mp_status", info.Status))
        return CallbackPending, nil
    }

    transitioned, err := s.payments.RecordGatewayResult(ctx, p.ID, info.ID.String(), info.Status, newStatus, time.Now().UTC())
    if err != nil {
        return "", err
    }

    if newStatus == model.PaymentApproved {
        if transitioned {
            metrics.PaymentsApprovedTotal.Inc()
        }
        // Runs on duplicates too: if an earlier delivery crashed between
        // the status flip and these side effects, the retry finishes the
        // job. Every step is individually idempotent.
        if err := s.settleApproved(ctx, p, info.ID.String()); err != nil {
            return "", err
        }
    }

    if transitioned {
        logger.L().Info("payment transitioned",
            zap.Uint64("payment_id", p.ID),
            zap.String("estado", newStatus),
            zap.String("mp_status", info.Status))
        return CallbackProcessed, nil
    }
    return CallbackDuplicate, nil
}

// settleApproved applies the side effects of an approved payment:
// commission attribution, invoice issuance and reservation completion,
// then a best effort broker event.  Each step tolerates having already
// run.
func (s *PaymentService) settleApproved(ctx context.Context, p *model.Payment, gatewayPaymentID string) error {
    res, err := s.reservations.GetByID(ctx, p.ReservationID)
    if err != nil {
        return err
    }

    ownerID, ownerErr := s.properties.PrimaryOwnerID(ctx, res.PropertyID)
    switch {
    case errors.Is(ownerErr, repository.ErrNoOwner):
        // Money was collected but nobody to attribute the commission to.
        // Loud log and counter; the webhook is still acknowledged so the
        // gateway stops retrying, and an operator reconciles by hand.
        metrics.CommissionAttributionFailures.Inc()
        logger.L().Error("approved payment has no attributable owner",
            zap.Uint64("payment_id", p.ID),
            zap.Uint64("property_id", res.PropertyID))
    case ownerErr != nil:
        return ownerErr
    default:
        exists, err := s.commissions.ExistsForPayment(ctx, p.ID)
        if err != nil {
            return err
        }
        if !exists {
            desc := fmt.Sprintf("Comisión %d%% sobre pago %d", model.CommissionRate, p.ID)
            c := &model.Commission{
                PaymentID:   p.ID,
                OwnerID:     ownerID,
                Amount:      p.OwnerAmount,
                Percentage:  model.CommissionRate,
                Description: &desc,
            }
            if err := s.commissions.Create(ctx, c); err != nil {
                return err
            }
        }
    }

    if err := s.invoices.CreateIfMissing(ctx, res.ID, p.TotalAmount); err != nil {
        return err
    }

    // No-op when the reservation already left pendiente.
    if err := s.reservations.MarkCompleted(ctx, res.ID, p.TotalAmount); err != nil {
        return err
    }

    if s.publish != nil {
        ev := queue.PaymentApprovedEvent{
            PaymentID:        p.ID,
            ReservationID:    res.ID,
            PropertyID:       res.PropertyID,
            OwnerID:          ownerID,
            TotalAmount:      p.TotalAmount,
            OwnerAmount:      p.OwnerAmount,
            CommissionAmount: p.CommissionAmount,
            Currency:         p.Currency,
            GatewayPaymentID: gatewayPaymentID,
            ApprovedAt:       time.Now().UTC().Format(time.RFC3339),
        }
        if err := s.publish(ctx, ev); err != nil {
            logger.L().Warn("payment event publish failed",
                zap.Uint64("payment_id", p.ID), zap.Error(err))
        }
    }
    return nil
}

// GetStatus returns a payment, refreshing the informational gateway
// columns first when the row is still pendiente and already has a
// gateway id.  A gateway failure during the refresh is logged and the
// stored row is returned as-is.
func (s *PaymentService) GetStatus(ctx context.Context, paymentID uint64) (*model.Payment, error) {
    p, err := s.payments.GetByID(ctx, paymentID)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if p.Status != model.PaymentPending || p.GatewayPaymentID == nil {
        return p, nil
    }

    info, err := s.gw.GetPayment(ctx, *p.GatewayPaymentID)
    if err != nil {
        logger.L().Warn("gateway status refresh failed",
            zap.Uint64("payment_id", p.ID), zap.Error(err))
        return p, nil
    }
    newStatus, mapped := model.MapGatewayStatus(info.Status)
    if !mapped {
        newStatus = ""
    }
    transitioned, err := s.payments.RecordGatewayResult(ctx, p.ID, info.ID.String(), info.Status, newStatus, time.Now().UTC())
    if err != nil {
        return nil, err
    }
    if transitioned && newStatus == model.PaymentApproved {
        metrics.PaymentsApprovedTotal.Inc()
        if err := s.settleApproved(ctx, p, info.ID.String()); err != nil {
            return nil, err
        }
    }
    return s.payments.GetByID(ctx, paymentID)
}
