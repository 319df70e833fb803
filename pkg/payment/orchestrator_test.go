package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/celebstyle/celebstyle-cli/pkg/checkout"
	"github.com/celebstyle/celebstyle-cli/pkg/checkout/checkouttest"
	"github.com/celebstyle/celebstyle-cli/pkg/events"
	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
	"github.com/celebstyle/celebstyle-cli/pkg/plans"
)

// orderBackend records the order of payment calls and their bodies.
type orderBackend struct {
	mu     sync.Mutex
	calls  []string
	bodies map[string]map[string]interface{}

	createStatus int
	createBody   string
	verifyStatus int
	verifyBody   string
}

func newOrderBackend() *orderBackend {
	return &orderBackend{
		bodies:       map[string]map[string]interface{}{},
		createStatus: http.StatusOK,
		createBody:   `{"success":true,"keyId":"rzp_test_key","order":{"id":"order_1","amount":19900,"currency":"INR"}}`,
		verifyStatus: http.StatusOK,
		verifyBody:   `{"success":true,"message":"Plan upgraded successfully"}`,
	}
}

func (b *orderBackend) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer session" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"Unauthorized"}`))
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)

		name := strings.TrimPrefix(r.URL.Path, basePath+"/")
		b.mu.Lock()
		b.calls = append(b.calls, name)
		b.bodies[name] = body
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch name {
		case "create-order":
			w.WriteHeader(b.createStatus)
			w.Write([]byte(b.createBody))
		case "verify":
			w.WriteHeader(b.verifyStatus)
			w.Write([]byte(b.verifyBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (b *orderBackend) callOrder() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *orderBackend) body(name string) map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[name]
}

type harness struct {
	backend  *orderBackend
	provider *checkouttest.Provider
	events   *events.Recorder
	orch     *Orchestrator
	server   *httptest.Server
}

func newHarness(t *testing.T, result checkout.Result) *harness {
	t.Helper()
	backend := newOrderBackend()
	server := httptest.NewServer(backend.handler(t))

	base := httpclient.NewBaseClient(server.URL, 5*time.Second)
	base.SetTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "session"}))

	provider := checkouttest.NewProvider(result)
	rec := &events.Recorder{}
	orch := NewOrchestrator(NewClient(base), provider, Config{
		KeyID:        "rzp_config_key",
		MerchantName: "CelebStyle",
		ThemeColor:   "#111827",
		Prefill:      checkout.Prefill{Email: "asha@example.com"},
	}, nil)
	orch.SetPublisher(rec)

	return &harness{backend: backend, provider: provider, events: rec, orch: orch, server: server}
}

func (h *harness) close() { h.server.Close() }

func completion() checkout.Result {
	return checkout.Completed(checkout.Completion{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig_1"})
}

func TestUpgrade_StarterFromFree(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()

	receipt, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if receipt.Plan.ID != plans.Starter || receipt.Plan.PriceINR != 199 {
		t.Errorf("unexpected plan in receipt: %+v", receipt.Plan)
	}
	if receipt.Message != "Plan upgraded successfully" {
		t.Errorf("unexpected message %q", receipt.Message)
	}

	if got := h.backend.body("create-order")["planId"]; got != "starter" {
		t.Errorf("expected create-order planId starter, got %v", got)
	}

	opens := h.provider.Widget.Opens()
	if len(opens) != 1 {
		t.Fatalf("expected widget opened once, got %d", len(opens))
	}
	opts := opens[0]
	if opts.Key != "rzp_test_key" || opts.OrderID != "order_1" || opts.Amount != 19900 || opts.Currency != "INR" {
		t.Errorf("unexpected checkout options: %+v", opts)
	}
	if opts.Prefill.Email != "asha@example.com" || opts.Theme.Color != "#111827" {
		t.Errorf("prefill/theme not forwarded: %+v", opts)
	}

	verify := h.backend.body("verify")
	if verify["razorpayOrderId"] != "order_1" || verify["razorpayPaymentId"] != "pay_1" || verify["razorpaySignature"] != "sig_1" {
		t.Errorf("verify body not forwarded verbatim: %v", verify)
	}

	evs := h.events.Events()
	if len(evs) != 1 || evs[0].Kind != events.KindUpgraded || evs[0].PaymentID != "pay_1" {
		t.Errorf("unexpected events: %+v", evs)
	}
	if h.orch.Pending() != "" {
		t.Errorf("pending should reset, got %q", h.orch.Pending())
	}
}

func TestUpgrade_HandshakeOrdering(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()

	var callsAtOpen []string
	h.provider.Widget.OnOpen = func(checkout.Options) {
		callsAtOpen = h.backend.callOrder()
	}

	if _, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Pro); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if len(callsAtOpen) != 1 || callsAtOpen[0] != "create-order" {
		t.Errorf("widget must open after create-order only, saw %v", callsAtOpen)
	}
	if got := h.backend.callOrder(); len(got) != 2 || got[0] != "create-order" || got[1] != "verify" {
		t.Errorf("unexpected call order %v", got)
	}
}

func TestUpgrade_CreateOrderFailureShortCircuits(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()
	h.backend.createStatus = http.StatusOK
	h.backend.createBody = `{"success":false,"message":"insufficient info"}`

	var pendingDuring plans.ID
	h.provider.Widget.OnOpen = func(checkout.Options) { pendingDuring = "opened" }

	_, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := httpclient.MessageOf(err, ""); got != "insufficient info" {
		t.Errorf("expected message %q, got %q", "insufficient info", got)
	}
	if pendingDuring != "" || len(h.provider.Widget.Opens()) != 0 {
		t.Error("checkout widget must never be opened after a failed create-order")
	}
	if h.orch.Pending() != "" {
		t.Errorf("pending should reset, got %q", h.orch.Pending())
	}
	for _, c := range h.backend.callOrder() {
		if c == "verify" {
			t.Error("verify must not be called")
		}
	}
	if len(h.events.Events()) != 0 {
		t.Error("no checkout event expected before the widget opens")
	}
}

func TestUpgrade_IneligibleMakesNoCalls(t *testing.T) {
	tests := []struct {
		name    string
		current plans.ID
		target  plans.ID
		want    error
	}{
		{"same plan", plans.Pro, plans.Pro, ErrCurrentPlan},
		{"downgrade", plans.Ultra, plans.Starter, ErrDowngrade},
		{"to free", plans.Starter, plans.Free, ErrDowngrade},
		{"unknown", plans.Free, plans.ID("platinum"), ErrUnknownPlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, completion())
			defer h.close()

			_, err := h.orch.Upgrade(context.Background(), tt.current, tt.target)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if calls := h.backend.callOrder(); len(calls) != 0 {
				t.Errorf("expected no network calls, got %v", calls)
			}
			if h.provider.EnsureCalls() != 0 {
				t.Error("checkout must not be acquired for an ineligible plan")
			}
		})
	}
}

func TestUpgrade_Dismissed(t *testing.T) {
	h := newHarness(t, checkout.Dismissed())
	defer h.close()

	_, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
	if !errors.Is(err, ErrCheckoutCancelled) {
		t.Fatalf("expected ErrCheckoutCancelled, got %v", err)
	}
	if got := h.backend.callOrder(); len(got) != 1 {
		t.Errorf("verify must not run after dismiss, calls %v", got)
	}
	if evs := h.events.Events(); len(evs) != 1 || evs[0].Kind != events.KindCancelled {
		t.Errorf("unexpected events: %+v", evs)
	}
	if h.orch.Pending() != "" {
		t.Error("pending should reset after dismiss")
	}
}

func TestUpgrade_PaymentFailed(t *testing.T) {
	h := newHarness(t, checkout.Failed(checkout.Failure{Code: "BAD_REQUEST_ERROR", Description: "Card declined by bank"}))
	defer h.close()

	_, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Ultra)
	var pf *PaymentFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PaymentFailedError, got %v", err)
	}
	if pf.Failure.Description != "Card declined by bank" {
		t.Errorf("provider description lost: %+v", pf.Failure)
	}
	if !strings.Contains(err.Error(), "Card declined by bank") {
		t.Errorf("error text should carry the description: %q", err.Error())
	}
	if evs := h.events.Events(); len(evs) != 1 || evs[0].Kind != events.KindFailed {
		t.Errorf("unexpected events: %+v", evs)
	}
}

func TestUpgrade_VerifyFailure(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()
	h.backend.verifyStatus = http.StatusBadRequest
	h.backend.verifyBody = `{"success":false,"message":"Invalid signature"}`

	_, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
	if !errors.Is(err, ErrVerifyFailed) {
		t.Fatalf("expected ErrVerifyFailed, got %v", err)
	}
	var ve *VerifyError
	if !errors.As(err, &ve) || ve.OrderID != "order_1" || ve.PaymentID != "pay_1" {
		t.Fatalf("expected VerifyError with ids, got %v", err)
	}
	if !strings.Contains(err.Error(), "contact support") || !strings.Contains(err.Error(), "Invalid signature") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if evs := h.events.Events(); len(evs) != 1 || evs[0].Kind != events.KindVerifyFailed || evs[0].OrderID != "order_1" {
		t.Errorf("unexpected events: %+v", evs)
	}
}

func TestUpgrade_CheckoutUnavailable(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()
	h.provider.EnsureErr = checkout.ErrScriptUnavailable

	_, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
	if !errors.Is(err, ErrCheckoutUnavailable) {
		t.Fatalf("expected ErrCheckoutUnavailable, got %v", err)
	}
	if calls := h.backend.callOrder(); len(calls) != 0 {
		t.Errorf("no order should be created without a checkout, got %v", calls)
	}
	if h.orch.Pending() != "" {
		t.Error("pending should reset")
	}
}

func TestUpgrade_KeyFallsBackToConfig(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()
	h.backend.createBody = `{"success":true,"order":{"id":"order_1","amount":49900,"currency":"INR"}}`

	if _, err := h.orch.Upgrade(context.Background(), plans.Starter, plans.Pro); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if got := h.provider.Widget.Opens()[0].Key; got != "rzp_config_key" {
		t.Errorf("expected configured key, got %q", got)
	}
}

func TestUpgrade_RejectsConcurrentUpgrade(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()

	entered := make(chan struct{})
	release := make(chan struct{})
	h.provider.Widget.OnOpen = func(checkout.Options) {
		close(entered)
		<-release
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
		done <- err
	}()

	<-entered
	if got := h.orch.Pending(); got != plans.Starter {
		t.Errorf("expected pending starter, got %q", got)
	}
	if _, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Pro); !errors.Is(err, ErrUpgradeInProgress) {
		t.Errorf("expected ErrUpgradeInProgress, got %v", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("first upgrade: %v", err)
	}
	if h.orch.Pending() != "" {
		t.Error("pending should reset")
	}
}

func TestUpgrade_PublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()
	h.events.Err = errors.New("nats down")

	if _, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter); err != nil {
		t.Fatalf("publish failure must not fail the upgrade: %v", err)
	}
}

func TestUpgrade_NetworkFailure(t *testing.T) {
	h := newHarness(t, completion())
	h.close()

	_, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
	if !errors.Is(err, httpclient.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if len(h.provider.Widget.Opens()) != 0 {
		t.Error("widget must not open")
	}
}

func TestUpgrade_VerifiesPaymentReportedAtWaitDeadline(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()
	h.orch.cfg.CheckoutWait = 100 * time.Millisecond
	h.provider.Widget.ReplyAtDeadline = true

	receipt, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
	if err != nil {
		t.Fatalf("payment reported at the deadline must still be verified: %v", err)
	}
	if receipt.PaymentID != "pay_1" {
		t.Errorf("unexpected receipt %+v", receipt)
	}
	if got := h.backend.callOrder(); len(got) != 2 || got[1] != "verify" {
		t.Errorf("expected verify to reach the backend, calls %v", got)
	}
}

func TestUpgrade_VerifiesAfterCallerCancels(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Interrupted while the verify spinner runs
	h.provider.Widget.OnOpen = func(checkout.Options) { cancel() }

	if _, err := h.orch.Upgrade(ctx, plans.Free, plans.Starter); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if got := h.backend.callOrder(); len(got) != 2 || got[1] != "verify" {
		t.Errorf("expected verify to reach the backend, calls %v", got)
	}
}

func TestUpgrade_VerifyFailureAtDeadlineKeepsSupportDetails(t *testing.T) {
	h := newHarness(t, completion())
	defer h.close()
	h.orch.cfg.CheckoutWait = 100 * time.Millisecond
	h.provider.Widget.ReplyAtDeadline = true
	h.backend.verifyStatus = http.StatusBadRequest
	h.backend.verifyBody = `{"success":false,"message":"Invalid signature"}`

	_, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
	var ve *VerifyError
	if !errors.As(err, &ve) || ve.PaymentID != "pay_1" {
		t.Fatalf("expected VerifyError, got %v", err)
	}
	if errors.Is(err, ErrCheckoutTimeout) || errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("verify failure must not look like a checkout timeout: %v", err)
	}
}

func TestUpgrade_CheckoutWaitTimesOut(t *testing.T) {
	h := newHarness(t, checkout.Dismissed())
	defer h.close()
	h.orch.cfg.CheckoutWait = 50 * time.Millisecond
	h.provider.Widget.Err = context.DeadlineExceeded
	h.provider.Widget.ReplyAtDeadline = true

	_, err := h.orch.Upgrade(context.Background(), plans.Free, plans.Starter)
	if !errors.Is(err, ErrCheckoutTimeout) {
		t.Fatalf("expected ErrCheckoutTimeout, got %v", err)
	}
	if got := h.backend.callOrder(); len(got) != 1 {
		t.Errorf("verify must not run without a payment, calls %v", got)
	}
	if h.orch.Pending() != "" {
		t.Error("pending should reset")
	}
}
