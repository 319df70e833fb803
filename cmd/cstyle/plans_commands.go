package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/celebstyle/celebstyle-cli/internal/tui"
	"github.com/celebstyle/celebstyle-cli/pkg/apikey"
	"github.com/celebstyle/celebstyle-cli/pkg/auth"
	"github.com/celebstyle/celebstyle-cli/pkg/checkout"
	"github.com/celebstyle/celebstyle-cli/pkg/events"
	"github.com/celebstyle/celebstyle-cli/pkg/payment"
	"github.com/celebstyle/celebstyle-cli/pkg/plans"
)

func plansCommand() *cli.Command {
	return &cli.Command{
		Name:  "plans",
		Usage: "List API plans and upgrade",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List plans with prices and monthly quotas",
				Action: plansList,
			},
			{
				Name:      "upgrade",
				Usage:     "Buy a higher plan through the payment gateway",
				ArgsUsage: "[plan]",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "wait",
						Value: 15 * time.Minute,
						Usage: "How long to wait for the checkout to finish",
					},
				},
				Action: plansUpgrade,
			},
		},
	}
}

// planView is the JSON shape of one plan in `plans list`.
type planView struct {
	plans.Plan
	Eligibility string `json:"eligibility,omitempty"`
}

func plansList(c *cli.Context) error {
	e := envFrom(c)

	// The catalog is static; the current plan is only known when logged in
	current, known := plans.Free, false
	if _, err := auth.LoadCredentials(); err == nil {
		if dash, err := newDashboard(c); err == nil {
			current, known = dash.Stats().Plan(), true
		} else {
			e.logger.Debug("could not load current plan", "error", err)
		}
	}

	if e.json {
		out := make([]planView, 0, len(plans.Catalog()))
		for _, p := range plans.Catalog() {
			v := planView{Plan: p}
			if known {
				v.Eligibility = plans.Check(current, p.ID).Label(p)
			}
			out = append(out, v)
		}
		return e.printJSON(out)
	}

	e.println(tui.RenderTitle("Plans"))
	for _, p := range plans.Catalog() {
		e.println(planLine(p, current, known))
		e.println(tui.RenderMuted("         " + p.Description))
	}
	if known {
		e.println()
		e.println(tui.RenderMuted("Run 'cstyle plans upgrade <plan>' to upgrade."))
	}
	return nil
}

// planLine is one row of the plans table.
func planLine(p plans.Plan, current plans.ID, known bool) string {
	line := fmt.Sprintf("%-8s %8s  %-24s", p.Label, tui.FormatINR(int64(p.PriceINR)), p.QuotaLabel)
	if known {
		e := plans.Check(current, p.ID)
		label := e.Label(p)
		if e == plans.Upgrade {
			label = tui.SelectedStyle.Render(label)
		} else {
			label = tui.RenderMuted(label)
		}
		line += "  " + label
	}
	if p.Badge != "" {
		line += "  " + tui.BadgeStyle.Render(p.Badge)
	}
	return strings.TrimRight(line, " ")
}

// upgradeFailure maps an Upgrade error to what the user sees. A failed
// verification is checked first: it may follow a real charge and must keep
// its order and payment IDs whatever else it wraps.
func upgradeFailure(e *cliEnv, err error) error {
	var ve *payment.VerifyError
	switch {
	case errors.As(err, &ve):
		if !e.json {
			e.println(tui.RenderWarningBox(fmt.Sprintf(
				"Payment received but not confirmed.\nOrder:   %s\nPayment: %s\nKeep these IDs if you contact support.",
				ve.OrderID, ve.PaymentID)))
		}
		return ve
	case errors.Is(err, payment.ErrCheckoutCancelled) && !e.json:
		e.println(tui.RenderWarning("Payment cancelled, your plan was not changed"))
		return nil
	case errors.Is(err, context.Canceled):
		return errors.New("upgrade interrupted, your plan was not changed")
	}
	return err
}

// newOrchestrator wires the payment client, the browser checkout and, when
// configured, the NATS event sink. The returned func releases the sink.
func newOrchestrator(e *cliEnv, orders payment.OrderService, creds *auth.Credentials, wait time.Duration) (*payment.Orchestrator, func()) {
	co := e.cfg.Checkout

	provider := checkout.NewBrowserProvider(co.ScriptURL, e.logger)
	provider.Announce = func(url string) {
		if !e.json {
			e.println(tui.RenderInfo("Complete the payment in your browser: " + tui.RenderLink(url)))
		}
	}

	prefill := checkout.Prefill{Name: co.Prefill.Name, Email: co.Prefill.Email, Contact: co.Prefill.Contact}
	if prefill.Name == "" {
		prefill.Name = creds.Name
	}
	if prefill.Email == "" {
		prefill.Email = creds.Email
	}

	orch := payment.NewOrchestrator(orders, provider, payment.Config{
		KeyID:         co.KeyID,
		MerchantName:  co.MerchantName,
		ThemeColor:    co.ThemeColor,
		Prefill:       prefill,
		UserID:        creds.UserID,
		CheckoutWait:  wait,
		VerifyTimeout: e.cfg.RequestTimeout(),
	}, e.logger.Named("payment"))

	closer := func() {}
	if ev := e.cfg.Events; ev != nil {
		pub, err := events.NewNATSPublisher(events.NATSOptions{
			Servers:  ev.Servers,
			NKeySeed: ev.NKeySeed,
			Prefix:   ev.Prefix,
		}, e.logger.Named("events"))
		if err != nil {
			// Checkout events are best effort
			e.logger.Warn("checkout events disabled", "error", err)
		} else {
			orch.SetPublisher(pub)
			closer = func() { pub.Close() }
		}
	}
	return orch, closer
}

func plansUpgrade(c *cli.Context) error {
	e := envFrom(c)
	base, creds, err := e.session()
	if err != nil {
		return err
	}

	dash := apikey.NewDashboard(apikey.NewClient(base), e.logger.Named("apikey"))
	if err := e.run("Loading current plan...", func() error { return dash.Refresh(c.Context) }); err != nil {
		return err
	}
	// Plans are bought for the key; there is nothing to upgrade without one
	if !dash.HasKey() {
		return apikey.ErrNoKey
	}
	current := dash.Stats().Plan()

	var target plans.ID
	switch {
	case c.Args().Present():
		target, err = plans.Parse(c.Args().First())
		if err != nil {
			return err
		}
	case e.interactive:
		target, err = tui.RunPlanPicker(current)
		if errors.Is(err, tui.ErrCancelled) {
			e.println("Cancelled")
			return nil
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("plan is required: cstyle plans upgrade <plan>")
	}

	orch, closeEvents := newOrchestrator(e, payment.NewClient(base), creds, c.Duration("wait"))
	defer closeEvents()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	receipt, err := orch.Upgrade(ctx, current, target)
	if err != nil {
		return upgradeFailure(e, err)
	}

	// Read-your-writes: show the new quota from the server
	if err := dash.Refresh(c.Context); err != nil {
		e.logger.Warn("could not refresh usage after upgrade", "error", err)
	}

	if e.json {
		return e.printJSON(map[string]interface{}{
			"success":   true,
			"plan":      receipt.Plan.ID,
			"orderId":   receipt.OrderID,
			"paymentId": receipt.PaymentID,
			"message":   receipt.Message,
			"status":    newStatsView(dash),
		})
	}

	msg := receipt.Message
	if msg == "" {
		msg = "Upgraded to " + receipt.Plan.Label
	}
	e.println(tui.RenderSuccess(msg))
	e.println(tui.RenderMuted(fmt.Sprintf("Order %s, payment %s", receipt.OrderID, receipt.PaymentID)))
	if stats := dash.Stats(); stats != nil {
		q := stats.Quota()
		e.println(tui.RenderStatusLine("Monthly quota", tui.FormatCount(q.Total), "success"))
	}
	return nil
}
