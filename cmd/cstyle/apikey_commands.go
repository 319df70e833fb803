package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/celebstyle/celebstyle-cli/internal/tui"
	"github.com/celebstyle/celebstyle-cli/pkg/apikey"
	"github.com/celebstyle/celebstyle-cli/pkg/plans"
)

// newDashboard builds a key dashboard and loads its first stats.
func newDashboard(c *cli.Context) (*apikey.Dashboard, error) {
	e := envFrom(c)
	base, _, err := e.session()
	if err != nil {
		return nil, err
	}

	dash := apikey.NewDashboard(apikey.NewClient(base), e.logger.Named("apikey"))
	if err := e.run("Loading API key...", func() error { return dash.Refresh(c.Context) }); err != nil {
		return nil, err
	}
	return dash, nil
}

func apikeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "apikey",
		Usage: "Manage your API key and view usage",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show key state, plan and monthly usage",
				Action: apikeyStatus,
			},
			{
				Name:   "generate",
				Usage:  "Generate an API key",
				Action: apikeyGenerate,
			},
			{
				Name:  "reveal",
				Usage: "Show the full key after confirming your password",
				Flags: []cli.Flag{
					passwordFlag("Account password"),
				},
				Action: apikeyReveal,
			},
			{
				Name:   "hide",
				Usage:  "Show the key masked",
				Action: apikeyHide,
			},
			{
				Name:  "revoke",
				Usage: "Permanently revoke the API key",
				Flags: []cli.Flag{
					passwordFlag("Account password"),
					yesFlag(),
				},
				Action: apikeyRevoke,
			},
		},
	}
}

// statsView is the JSON shape of `apikey status`.
type statsView struct {
	State     string        `json:"state"`
	Key       string        `json:"key,omitempty"`
	Plan      plans.ID      `json:"plan"`
	Stats     *apikey.Stats `json:"stats,omitempty"`
	Total     int64         `json:"totalQuota"`
	Used      int64         `json:"used"`
	Remaining int64         `json:"remaining"`
	Percent   float64       `json:"percentUsed"`
}

func newStatsView(dash *apikey.Dashboard) statsView {
	stats := dash.Stats()
	v := statsView{
		State: dash.State().String(),
		Key:   dash.DisplayKey(),
		Plan:  stats.Plan(),
		Stats: stats,
	}
	if stats != nil {
		q := stats.Quota()
		v.Total, v.Used, v.Remaining, v.Percent = q.Total, q.Used, q.Remaining, q.Percent
	}
	return v
}

func apikeyStatus(c *cli.Context) error {
	e := envFrom(c)
	dash, err := newDashboard(c)
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(newStatsView(dash))
	}
	printKeyStatus(e, dash)
	return nil
}

func printKeyStatus(e *cliEnv, dash *apikey.Dashboard) {
	stats := dash.Stats()
	plan, _ := plans.Lookup(stats.Plan())

	e.println(tui.RenderTitle("API key"))
	if !dash.HasKey() || stats == nil {
		e.println(tui.RenderStatusLine("Status", "no key", "warning"))
		e.println(tui.RenderStatusLine("Plan", plan.Label, ""))
		e.println(tui.RenderMuted("Run 'cstyle apikey generate' to create one."))
		return
	}

	status, style := "active", "success"
	if !stats.IsActive {
		status, style = "inactive", "error"
	}
	e.println(tui.RenderStatusLine("Status", status, style))
	e.println(tui.RenderStatusLine("Key", dash.DisplayKey(), ""))
	e.println(tui.RenderStatusLine("Plan", plan.Label, ""))
	e.println(tui.RenderStatusLine("Created", formatTime(stats.CreatedAt), ""))
	if stats.LastUsedAt != nil {
		e.println(tui.RenderStatusLine("Last used", formatTime(*stats.LastUsedAt), ""))
	}

	q := stats.Quota()
	usageStyle := ""
	if q.DisplayPercent() >= tui.UsageWarnPercent {
		usageStyle = "warning"
	}
	e.println()
	e.println(tui.RenderHeader("This month"))
	e.printf("%s %.1f%%\n", tui.RenderUsageBar(q.DisplayPercent(), 30), q.Percent)
	e.println(tui.RenderStatusLine("Used", fmt.Sprintf("%s of %s", tui.FormatCount(q.Used), tui.FormatCount(q.Total)), usageStyle))
	e.println(tui.RenderStatusLine("Remaining", tui.FormatCount(q.Remaining), usageStyle))
	if stats.PurchasedQuota > 0 {
		e.println(tui.RenderMuted(fmt.Sprintf("  %s free + %s purchased", tui.FormatCount(stats.FreeQuota), tui.FormatCount(stats.PurchasedQuota))))
	}
	e.println(tui.RenderStatusLine("All-time requests", tui.FormatCount(stats.TotalHits), ""))

	if len(stats.Last7Days) > 0 {
		e.println()
		e.println(tui.RenderHeader("Last 7 days"))
		for _, d := range stats.Last7Days {
			e.printf("  %-12s %s\n", d.Date, tui.FormatCount(d.Count))
		}
	}
	if len(stats.Last3Months) > 0 {
		e.println()
		e.println(tui.RenderHeader("Last 3 months"))
		for _, m := range stats.Last3Months {
			e.printf("  %-12s %s\n", m.Month, tui.FormatCount(m.Count))
		}
	}
}

func apikeyGenerate(c *cli.Context) error {
	e := envFrom(c)
	dash, err := newDashboard(c)
	if err != nil {
		return err
	}
	if dash.HasKey() {
		return fmt.Errorf("you already have an API key: revoke it before generating a new one")
	}

	var key string
	if err := e.run("Generating API key...", func() error {
		var err error
		key, err = dash.Generate(c.Context)
		return err
	}); err != nil {
		return err
	}

	if e.json {
		return e.printJSON(map[string]interface{}{"key": key, "state": dash.State().String()})
	}
	e.println(tui.RenderSuccess("API key generated"))
	e.println(tui.RenderBox(tui.RenderSecret(key)))
	e.println(tui.RenderMuted("Store it somewhere safe. Use 'cstyle apikey reveal' to see it again."))
	return nil
}

func apikeyReveal(c *cli.Context) error {
	e := envFrom(c)
	dash, err := newDashboard(c)
	if err != nil {
		return err
	}
	if !dash.HasKey() {
		return apikey.ErrNoKey
	}

	password, err := e.secret(c, "password", "Reveal API key", "Password")
	if err != nil {
		return err
	}

	var key string
	if err := e.run("Revealing API key...", func() error {
		var err error
		key, err = dash.Reveal(c.Context, password)
		return err
	}); err != nil {
		return err
	}

	if e.json {
		return e.printJSON(map[string]interface{}{"key": key})
	}
	e.println(tui.RenderStatusLine("Key", tui.RenderSecret(key), ""))

	if e.interactive {
		e.println(tui.RenderMuted("Press Enter to hide."))
		bufio.NewReader(os.Stdin).ReadString('\n')
		dash.Hide()
		// Overwrite the two lines holding the plaintext
		e.printf("\033[3A\033[J")
		e.println(tui.RenderStatusLine("Key", dash.DisplayKey(), ""))
	}
	return nil
}

func apikeyHide(c *cli.Context) error {
	e := envFrom(c)
	dash, err := newDashboard(c)
	if err != nil {
		return err
	}
	if !dash.HasKey() {
		return apikey.ErrNoKey
	}
	dash.Hide()
	if e.json {
		return e.printJSON(map[string]interface{}{"key": dash.DisplayKey()})
	}
	e.println(tui.RenderStatusLine("Key", dash.DisplayKey(), ""))
	return nil
}

func apikeyRevoke(c *cli.Context) error {
	e := envFrom(c)
	dash, err := newDashboard(c)
	if err != nil {
		return err
	}
	if !dash.HasKey() {
		return apikey.ErrNoKey
	}

	ok, err := e.confirm(c, "Revoke "+dash.DisplayKey()+"? Apps using it will stop working.")
	if err != nil {
		return err
	}
	if !ok {
		e.println("Cancelled")
		return nil
	}

	password, err := e.secret(c, "password", "Revoke API key", "Password")
	if err != nil {
		return err
	}

	if err := e.run("Revoking API key...", func() error {
		return dash.Revoke(c.Context, password)
	}); err != nil {
		return err
	}

	if e.json {
		return e.printJSON(map[string]interface{}{"success": true, "state": dash.State().String()})
	}
	e.println(tui.RenderSuccess("API key revoked"))
	return nil
}
