package service

import (
    "context"
    "database/sql"
    "errors"
    "strconv"
    "testing"
    "time"

    "github.com/arriendoya/booking-api/internal/gateway"
    "github.com/arriendoya/booking-api/internal/model"
    "github.com/arriendoya/booking-api/internal/queue"
    "github.com/arriendoya/booking-api/internal/repository"
)

// ----- fakes -----

type fakePayments struct {
    nextID   uint64
    rows     map[uint64]*model.Payment
    prefs    map[uint64]string
    openErr  error
    intentCt int
}

func newFakePayments() *fakePayments {
    return &fakePayments{nextID: 1, rows: map[uint64]*model.Payment{}, prefs: map[uint64]string{}}
}

func (f *fakePayments) CreateIntent(_ context.Context, p *model.Payment) error {
    if f.openErr != nil {
        return f.openErr
    }
    f.intentCt++
    p.ID = f.nextID
    f.nextID++
    p.Status = model.PaymentPending
    p.ExternalReference = strconv.FormatUint(p.ID, 10)
    p.CreatedAt = time.Now().UTC()
    cp := *p
    f.rows[p.ID] = &cp
    return nil
}

func (f *fakePayments) SetPreference(_ context.Context, id uint64, pref string) error {
    f.prefs[id] = pref
    return nil
}

func (f *fakePayments) GetByID(_ context.Context, id uint64) (*model.Payment, error) {
    p, ok := f.rows[id]
    if !ok {
        return nil, sql.ErrNoRows
    }
    cp := *p
    return &cp, nil
}

func (f *fakePayments) FindByExternalReference(_ context.Context, ref string) (*model.Payment, error) {
    for _, p := range f.rows {
        if p.ExternalReference == ref {
            cp := *p
            return &cp, nil
        }
    }
    return nil, sql.ErrNoRows
}

func (f *fakePayments) RecordGatewayResult(_ context.Context, id uint64, gatewayID, gatewayStatus, newStatus string, processedAt time.Time) (bool, error) {
    p, ok := f.rows[id]
    if !ok {
        return false, sql.ErrNoRows
    }
    p.GatewayPaymentID = &gatewayID
    p.GatewayStatus = &gatewayStatus
    if newStatus == "" {
        p.ProcessedAt = &processedAt
        return false, nil
    }
    if p.Status != model.PaymentPending {
        return false, nil
    }
    p.Status = newStatus
    p.ProcessedAt = &processedAt
    return true, nil
}

type fakeReservations struct {
    rows      map[uint64]*model.Reservation
    completed map[uint64]int64
}

func newFakeReservations(rs ...*model.Reservation) *fakeReservations {
    f := &fakeReservations{rows: map[uint64]*model.Reservation{}, completed: map[uint64]int64{}}
    for _, r := range rs {
        f.rows[r.ID] = r
    }
    return f
}

func (f *fakeReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
    r, ok := f.rows[id]
    if !ok {
        return nil, sql.ErrNoRows
    }
    cp := *r
    return &cp, nil
}

func (f *fakeReservations) MarkCompleted(_ context.Context, id uint64, paid int64) error {
    r, ok := f.rows[id]
    if !ok {
        return sql.ErrNoRows
    }
    if r.Status == model.ReservationPending {
        r.Status = model.ReservationCompleted
        r.PaidCost = paid
        f.completed[id] = paid
    }
    return nil
}

type fakeProperties struct {
    rows    map[uint64]*model.Property
    ownerOf map[uint64]uint64
}

func (f *fakeProperties) GetByID(_ context.Context, id uint64) (*model.Property, error) {
    p, ok := f.rows[id]
    if !ok {
        return nil, sql.ErrNoRows
    }
    return p, nil
}

func (f *fakeProperties) PrimaryOwnerID(_ context.Context, propertyID uint64) (uint64, error) {
    owner, ok := f.ownerOf[propertyID]
    if !ok {
        return 0, repository.ErrNoOwner
    }
    return owner, nil
}

type fakeCommissions struct {
    created []model.Commission
}

func (f *fakeCommissions) Create(_ context.Context, c *model.Commission) error {
    c.ID = uint64(len(f.created) + 1)
    f.created = append(f.created, *c)
    return nil
}

func (f *fakeCommissions) ExistsForPayment(_ context.Context, paymentID uint64) (bool, error) {
    for _, c := range f.created {
        if c.PaymentID == paymentID {
            return true, nil
        }
    }
    return false, nil
}

type fakeInvoices struct {
    issued map[uint64]int64
}

func (f *fakeInvoices) CreateIfMissing(_ context.Context, reservationID uint64, total int64) error {
    if f.issued == nil {
        f.issued = map[uint64]int64{}
    }
    if _, ok := f.issued[reservationID]; !ok {
        f.issued[reservationID] = total
    }
    return nil
}

type fakeGateway struct {
    prefCalls int
    payments  map[string]*gateway.PaymentInfo
    prefErr   error
}

func (f *fakeGateway) CreatePreference(_ context.Context, req gateway.PreferenceRequest) (*gateway.Preference, error) {
    f.prefCalls++
    if f.prefErr != nil {
        return nil, f.prefErr
    }
    return &gateway.Preference{
        ID:               "pref-" + req.ExternalReference,
        InitPoint:        "https://mp.example/init",
        SandboxInitPoint: "https://mp.example/sandbox",
    }, nil
}

func (f *fakeGateway) GetPayment(_ context.Context, id string) (*gateway.PaymentInfo, error) {
    p, ok := f.payments[id]
    if !ok {
        return nil, gateway.ErrGateway
    }
    return p, nil
}

// ----- fixtures -----

func testService(t *testing.T) (*PaymentService, *fakePayments, *fakeReservations, *fakeCommissions, *fakeInvoices, *fakeGateway, *[]queue.PaymentApprovedEvent) {
    t.Helper()
    name := "Depto Centro"
    res := &model.Reservation{
        ID:         10,
        ClientID:   5,
        PropertyID: 3,
        Hours:      4,
        TotalCost:  100000,
        Status:     model.ReservationPending,
    }
    payments := newFakePayments()
    reservations := newFakeReservations(res)
    properties := &fakeProperties{
        rows: map[uint64]*model.Property{
            3: {ID: 3, Name: &name, PricePerHour: 25000, Active: true},
        },
        ownerOf: map[uint64]uint64{3: 9},
    }
    commissions := &fakeCommissions{}
    invoices := &fakeInvoices{}
    gw := &fakeGateway{payments: map[string]*gateway.PaymentInfo{}}
    var events []queue.PaymentApprovedEvent
    publish := func(_ context.Context, ev queue.PaymentApprovedEvent) error {
        events = append(events, ev)
        return nil
    }
    svc := NewPaymentService(payments, reservations, properties, commissions, invoices, gw, publish, PaymentConfig{
        WebhookURL: "https://api.example/v1/pagos/webhook",
        SuccessURL: "https://app.example/ok",
        FailureURL: "https://app.example/fail",
        PendingURL: "https://app.example/pending",
    })
    return svc, payments, reservations, commissions, invoices, gw, &events
}

func approvedInfo(ref string) *gateway.PaymentInfo {
    return &gateway.PaymentInfo{
        ID:                "555",
        Status:            "approved",
        StatusDetail:      "accredited",
        ExternalReference: ref,
    }
}

// ----- tests -----

func TestCreateIntentSplitsAmount(t *testing.T) {
    svc, payments, _, _, _, _, _ := testService(t)

    out, err := svc.CreateIntent(context.Background(), 10, 5, false)
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    p := out.Payment
    if p.TotalAmount != 100000 || p.OwnerAmount != 95000 || p.CommissionAmount != 5000 {
        t.Fatalf("split = total %d owner %d commission %d", p.TotalAmount, p.OwnerAmount, p.CommissionAmount)
    }
    if p.Currency != "CLP" {
        t.Errorf("currency = %q, want CLP", p.Currency)
    }
    if p.ExternalReference != strconv.FormatUint(p.ID, 10) {
        t.Errorf("external reference %q does not match payment id %d", p.ExternalReference, p.ID)
    }
    if out.InitPoint == "" || out.PreferenceID == "" {
        t.Errorf("missing checkout data: %+v", out)
    }
    if payments.prefs[p.ID] != out.PreferenceID {
        t.Errorf("preference id not persisted")
    }
}

func TestCreateIntentChecksActor(t *testing.T) {
    svc, _, _, _, _, _, _ := testService(t)

    if _, err := svc.CreateIntent(context.Background(), 10, 999, false); !errors.Is(err, repository.ErrForbidden) {
        t.Fatalf("stranger: err = %v, want ErrForbidden", err)
    }
    // Admin bypasses the ownership check.
    if _, err := svc.CreateIntent(context.Background(), 10, 999, true); err != nil {
        t.Fatalf("admin: %v", err)
    }
}

func TestCreateIntentRejectsSettledReservation(t *testing.T) {
    svc, _, reservations, _, _, _, _ := testService(t)
    reservations.rows[10].Status = model.ReservationCompleted

    if _, err := svc.CreateIntent(context.Background(), 10, 5, false); !errors.Is(err, ErrReservationNotPayable) {
        t.Fatalf("err = %v, want ErrReservationNotPayable", err)
    }
}

func TestProcessCallbackApproved(t *testing.T) {
    svc, payments, reservations, commissions, invoices, gw, events := testService(t)

    out, err := svc.CreateIntent(context.Background(), 10, 5, false)
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    gw.payments["555"] = approvedInfo(out.Payment.ExternalReference)

    outcome, err := svc.ProcessCallback(context.Background(), "555")
    if err != nil {
        t.Fatalf("ProcessCallback: %v", err)
    }
    if outcome != CallbackProcessed {
        t.Fatalf("outcome = %q, want processed", outcome)
    }

    p, _ := payments.GetByID(context.Background(), out.Payment.ID)
    if p.Status != model.PaymentApproved {
        t.Errorf("payment status = %q, want aprobado", p.Status)
    }
    if len(commissions.created) != 1 {
        t.Fatalf("commissions created = %d, want 1", len(commissions.created))
    }
    c := commissions.created[0]
    if c.OwnerID != 9 || c.PaymentID != p.ID {
        t.Errorf("unexpected commission: %+v", c)
    }
    // The commission row carries the owner's payout, not the platform cut.
    if c.Amount != 95000 {
        t.Errorf("commission monto = %d, want 95000 (owner share of 100000)", c.Amount)
    }
    if invoices.issued[10] != 100000 {
        t.Errorf("invoice total = %d, want 100000", invoices.issued[10])
    }
    if reservations.completed[10] != 100000 {
        t.Errorf("reservation not completed with paid amount")
    }
    if len(*events) != 1 || (*events)[0].PaymentID != p.ID {
        t.Errorf("expected one published event, got %+v", *events)
    }
}

func TestProcessCallbackIdempotent(t *testing.T) {
    svc, _, _, commissions, invoices, gw, _ := testService(t)

    out, err := svc.CreateIntent(context.Background(), 10, 5, false)
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    gw.payments["555"] = approvedInfo(out.Payment.ExternalReference)

    if _, err := svc.ProcessCallback(context.Background(), "555"); err != nil {
        t.Fatalf("first delivery: %v", err)
    }
    outcome, err := svc.ProcessCallback(context.Background(), "555")
    if err != nil {
        t.Fatalf("second delivery: %v", err)
    }
    if outcome != CallbackDuplicate {
        t.Fatalf("outcome = %q, want duplicate", outcome)
    }
    // The load-bearing property: a redelivered webhook never accrues a
    // second commission or invoice.
    if len(commissions.created) != 1 {
        t.Fatalf("commissions created = %d, want exactly 1", len(commissions.created))
    }
    if len(invoices.issued) != 1 {
        t.Fatalf("invoices issued = %d, want exactly 1", len(invoices.issued))
    }
}

func TestProcessCallbackUnmappedStatusLeavesPending(t *testing.T) {
    svc, payments, _, commissions, _, gw, _ := testService(t)

    out, err := svc.CreateIntent(context.Background(), 10, 5, false)
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    gw.payments["555"] = &gateway.PaymentInfo{
        ID:                "555",
        Status:            "in_process",
        ExternalReference: out.Payment.ExternalReference,
    }

    outcome, err := svc.ProcessCallback(context.Background(), "555")
    if err != nil {
        t.Fatalf("ProcessCallback: %v", err)
    }
    if outcome != CallbackPending {
        t.Fatalf("outcome = %q, want pending", outcome)
    }
    p, _ := payments.GetByID(context.Background(), out.Payment.ID)
    if p.Status != model.PaymentPending {
        t.Errorf("status = %q, want pendiente", p.Status)
    }
    if p.GatewayStatus == nil || *p.GatewayStatus != "in_process" {
        t.Errorf("raw gateway status not recorded")
    }
    if len(commissions.created) != 0 {
        t.Errorf("commission created for non-terminal status")
    }
}

func TestProcessCallbackRejected(t *testing.T) {
    svc, payments, reservations, commissions, _, gw, _ := testService(t)

    out, err := svc.CreateIntent(context.Background(), 10, 5, false)
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    gw.payments["555"] = &gateway.PaymentInfo{
        ID:                "555",
        Status:            "rejected",
        ExternalReference: out.Payment.ExternalReference,
    }

    if _, err := svc.ProcessCallback(context.Background(), "555"); err != nil {
        t.Fatalf("ProcessCallback: %v", err)
    }
    p, _ := payments.GetByID(context.Background(), out.Payment.ID)
    if p.Status != model.PaymentRejected {
        t.Errorf("status = %q, want rechazado", p.Status)
    }
    if len(commissions.created) != 0 {
        t.Errorf("commission created for rejected payment")
    }
    if reservations.rows[10].Status != model.ReservationPending {
        t.Errorf("reservation left pending state on rejection")
    }
}

func TestProcessCallbackNoOwnerStillSettles(t *testing.T) {
    svc, payments, reservations, commissions, invoices, gw, _ := testService(t)

    out, err := svc.CreateIntent(context.Background(), 10, 5, false)
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    // Drop the ownership link before the webhook lands.
    props := svc.properties.(*fakeProperties)
    delete(props.ownerOf, 3)
    gw.payments["555"] = approvedInfo(out.Payment.ExternalReference)

    outcome, err := svc.ProcessCallback(context.Background(), "555")
    if err != nil {
        t.Fatalf("ProcessCallback should not fail on missing owner: %v", err)
    }
    if outcome != CallbackProcessed {
        t.Fatalf("outcome = %q, want processed", outcome)
    }
    if len(commissions.created) != 0 {
        t.Errorf("commission created without an owner")
    }
    // The client still gets their reservation and boleta.
    p, _ := payments.GetByID(context.Background(), out.Payment.ID)
    if p.Status != model.PaymentApproved {
        t.Errorf("payment status = %q, want aprobado", p.Status)
    }
    if invoices.issued[10] != 100000 {
        t.Errorf("invoice not issued")
    }
    if reservations.completed[10] != 100000 {
        t.Errorf("reservation not completed")
    }
}

func TestGetStatusRefreshesPending(t *testing.T) {
    svc, payments, _, commissions, _, gw, _ := testService(t)

    out, err := svc.CreateIntent(context.Background(), 10, 5, false)
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    // Simulate a lost webhook: the gateway approved but the row is stale.
    id := "555"
    payments.rows[out.Payment.ID].GatewayPaymentID = &id
    gw.payments[id] = approvedInfo(out.Payment.ExternalReference)

    p, err := svc.GetStatus(context.Background(), out.Payment.ID)
    if err != nil {
        t.Fatalf("GetStatus: %v", err)
    }
    if p.Status != model.PaymentApproved {
        t.Fatalf("status = %q, want aprobado after refresh", p.Status)
    }
    if len(commissions.created) != 1 {
        t.Fatalf("refresh settlement did not create the commission")
    }
}

func TestGetStatusToleratesGatewayOutage(t *testing.T) {
    svc, payments, _, _, _, _, _ := testService(t)

    out, err := svc.CreateIntent(context.Background(), 10, 5, false)
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    id := "unreachable"
    payments.rows[out.Payment.ID].GatewayPaymentID = &id

    p, err := svc.GetStatus(context.Background(), out.Payment.ID)
    if err != nil {
        t.Fatalf("GetStatus should fall back to stored row: %v", err)
    }
    if p.Status != model.PaymentPending {
        t.Fatalf("status = %q, want pendiente", p.Status)
    }
}
