package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/celebstyle/celebstyle-cli/pkg/checkout"
	"github.com/celebstyle/celebstyle-cli/pkg/events"
	"github.com/celebstyle/celebstyle-cli/pkg/plans"
)

// OrderService is the backend half of the handshake.
type OrderService interface {
	CreateOrder(ctx context.Context, planID plans.ID) (*CreateOrderResponse, error)
	Verify(ctx context.Context, req VerifyRequest) (string, error)
}

// Config holds the merchant-side checkout settings.
type Config struct {
	// KeyID is the gateway public key used when create-order omits one.
	KeyID        string
	MerchantName string
	ThemeColor   string
	Prefill      checkout.Prefill
	// UserID tags published events.
	UserID string

	// CheckoutWait bounds how long the payment sheet may stay open.
	// Zero waits until the caller's context ends.
	CheckoutWait time.Duration

	// VerifyTimeout bounds the verify request, which is not tied to the
	// caller's context once the gateway has reported a payment.
	VerifyTimeout time.Duration
}

// DefaultVerifyTimeout is used when Config.VerifyTimeout is zero.
const DefaultVerifyTimeout = 30 * time.Second

// Receipt describes a completed upgrade.
type Receipt struct {
	Plan      plans.Plan
	OrderID   string
	PaymentID string
	Message   string
}

// Orchestrator runs one upgrade at a time through
// create-order, checkout and verify.
type Orchestrator struct {
	orders   OrderService
	provider checkout.Provider
	cfg      Config
	events   events.Publisher
	logger   hclog.Logger

	mu      sync.Mutex
	pending plans.ID
}

// NewOrchestrator creates an Orchestrator. Events are discarded until
// SetPublisher is called.
func NewOrchestrator(orders OrderService, provider checkout.Provider, cfg Config, logger hclog.Logger) *Orchestrator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if cfg.MerchantName == "" {
		cfg.MerchantName = "CelebStyle"
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = DefaultVerifyTimeout
	}
	return &Orchestrator{
		orders:   orders,
		provider: provider,
		cfg:      cfg,
		events:   events.Nop{},
		logger:   logger,
	}
}

// SetPublisher sets where checkout outcomes are published.
func (o *Orchestrator) SetPublisher(p events.Publisher) {
	if p == nil {
		p = events.Nop{}
	}
	o.events = p
}

// Pending returns the plan currently being purchased, or "" when idle.
func (o *Orchestrator) Pending() plans.ID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Upgrade moves the user from current to target. It returns a Receipt only
// when the backend verified the payment.
func (o *Orchestrator) Upgrade(ctx context.Context, current, target plans.ID) (*Receipt, error) {
	plan, ok := plans.Lookup(target)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, target)
	}
	switch plans.Check(current, target) {
	case plans.Current:
		return nil, ErrCurrentPlan
	case plans.Downgrade:
		return nil, ErrDowngrade
	}

	if err := o.begin(target); err != nil {
		return nil, err
	}
	defer o.end()

	log := o.logger.With("current_plan", current, "target_plan", target)

	widget, err := o.provider.Ensure(ctx)
	if err != nil {
		log.Warn("checkout unavailable", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	created, err := o.orders.CreateOrder(ctx, target)
	if err != nil {
		log.Debug("create order failed", "error", err)
		return nil, err
	}
	order := created.Order

	key := created.KeyID
	if key == "" {
		key = o.cfg.KeyID
	}
	if key == "" {
		return nil, ErrMissingGatewayKey
	}

	ev := events.CheckoutEvent{
		UserID:      o.cfg.UserID,
		CurrentPlan: string(current),
		TargetPlan:  string(target),
		OrderID:     order.ID,
		Amount:      order.Amount,
		Currency:    order.Currency,
	}

	log.Info("opening checkout", "order_id", order.ID, "amount", order.Amount, "currency", order.Currency)
	result, err := o.openCheckout(ctx, widget, checkout.Options{
		Key:         key,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        o.cfg.MerchantName,
		Description: fmt.Sprintf("Upgrade to %s plan", plan.Label),
		OrderID:     order.ID,
		Prefill:     o.cfg.Prefill,
		Theme:       checkout.Theme{Color: o.cfg.ThemeColor},
	})
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case checkout.OutcomeDismissed:
		log.Info("checkout dismissed", "order_id", order.ID)
		ev.Kind = events.KindCancelled
		o.publish(ev)
		return nil, ErrCheckoutCancelled

	case checkout.OutcomeFailed:
		var f checkout.Failure
		if result.Failure != nil {
			f = *result.Failure
		}
		log.Warn("payment failed", "order_id", order.ID, "code", f.Code, "reason", f.Reason)
		ev.Kind = events.KindFailed
		ev.PaymentID = f.PaymentID
		ev.Message = f.Description
		o.publish(ev)
		return nil, &PaymentFailedError{Failure: f}

	case checkout.OutcomeCompleted:
		if result.Completion == nil {
			return nil, errors.New("checkout completed without payment details")
		}
	default:
		return nil, fmt.Errorf("checkout returned unknown outcome %d", result.Outcome)
	}

	// The user may have been charged by now. Verify even if the caller has
	// gone away so the backend hears about the payment.
	c := result.Completion
	ev.PaymentID = c.PaymentID
	verifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.VerifyTimeout)
	defer cancel()
	msg, err := o.orders.Verify(verifyCtx, VerifyRequest{
		OrderID:   c.OrderID,
		PaymentID: c.PaymentID,
		Signature: c.Signature,
	})
	if err != nil {
		log.Error("payment verification failed", "order_id", c.OrderID, "payment_id", c.PaymentID, "error", err)
		ev.Kind = events.KindVerifyFailed
		ev.Message = err.Error()
		o.publish(ev)
		return nil, &VerifyError{OrderID: c.OrderID, PaymentID: c.PaymentID, Err: err}
	}

	log.Info("plan upgraded", "order_id", c.OrderID, "payment_id", c.PaymentID)
	ev.Kind = events.KindUpgraded
	ev.Message = msg
	o.publish(ev)

	return &Receipt{
		Plan:      plan,
		OrderID:   c.OrderID,
		PaymentID: c.PaymentID,
		Message:   msg,
	}, nil
}

// openCheckout waits on the widget for at most CheckoutWait.
func (o *Orchestrator) openCheckout(ctx context.Context, widget checkout.Widget, opts checkout.Options) (checkout.Result, error) {
	waitCtx := ctx
	if o.cfg.CheckoutWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, o.cfg.CheckoutWait)
		defer cancel()
	}

	result, err := widget.Open(waitCtx, opts)
	if err == nil {
		return result, nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return checkout.Result{}, fmt.Errorf("%w after %s", ErrCheckoutTimeout, o.cfg.CheckoutWait)
	}
	return checkout.Result{}, fmt.Errorf("checkout: %w", err)
}

func (o *Orchestrator) begin(target plans.ID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending != "" {
		return ErrUpgradeInProgress
	}
	o.pending = target
	return nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.pending = ""
	o.mu.Unlock()
}

func (o *Orchestrator) publish(ev events.CheckoutEvent) {
	ev.Timestamp = time.Now().UTC()
	if err := o.events.Publish(ev); err != nil {
		o.logger.Warn("failed to publish checkout event", "kind", ev.Kind, "error", err)
	}
}
