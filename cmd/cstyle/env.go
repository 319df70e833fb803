package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/celebstyle/celebstyle-cli/internal/config"
	"github.com/celebstyle/celebstyle-cli/internal/tui"
	"github.com/celebstyle/celebstyle-cli/pkg/auth"
	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
)

const envKey = "cstyle.env"

// cliEnv is the per-invocation state built by the app's Before hook.
type cliEnv struct {
	cfg    *config.Config
	logger hclog.Logger
	out    io.Writer

	apiURLFlag  string
	json        bool
	interactive bool
}

func newCLIEnv(c *cli.Context, cfg *config.Config, logger hclog.Logger) *cliEnv {
	e := &cliEnv{
		cfg:        cfg,
		logger:     logger,
		out:        c.App.Writer,
		apiURLFlag: c.String("api-url"),
		json:       c.Bool("json"),
	}
	// Spinners and prompts only when a person is at the terminal
	e.interactive = !e.json && c.App.Writer == os.Stdout &&
		isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
	return e
}

func setEnv(c *cli.Context, e *cliEnv) {
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[envKey] = e
}

func envFrom(c *cli.Context) *cliEnv {
	e, _ := c.App.Metadata[envKey].(*cliEnv)
	return e
}

// apiURL picks the flag, then the config file, then the URL the stored
// token was issued for, then the built-in default.
func (e *cliEnv) apiURL(creds *auth.Credentials) string {
	switch {
	case e.apiURLFlag != "":
		return e.apiURLFlag
	case e.cfg.APIURL != "":
		return e.cfg.APIURL
	case creds != nil && creds.APIURL != "":
		return creds.APIURL
	default:
		return DefaultAPIURL
	}
}

// session loads the stored credentials and returns an authenticated client.
func (e *cliEnv) session() (*httpclient.BaseClient, *auth.Credentials, error) {
	creds, err := auth.LoadCredentials()
	if err != nil {
		return nil, nil, err
	}
	if !auth.IsValid(creds) {
		return nil, nil, auth.ErrTokenExpired
	}

	ts, err := auth.TokenSource(creds)
	if err != nil {
		return nil, nil, err
	}

	base := httpclient.NewBaseClient(e.apiURL(creds), e.cfg.RequestTimeout())
	base.SetTokenSource(ts)
	base.SetLogger(e.logger.Named("http"))
	return base, creds, nil
}

// run executes task behind a spinner when interactive.
func (e *cliEnv) run(message string, task func() error) error {
	return tui.RunSpinnerWithTaskAndMessage(e.interactive, message, func() (string, error) {
		return "", task()
	})
}

func (e *cliEnv) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(e.out, string(data))
	return nil
}

func (e *cliEnv) println(a ...interface{}) {
	fmt.Fprintln(e.out, a...)
}

func (e *cliEnv) printf(format string, a ...interface{}) {
	fmt.Fprintf(e.out, format, a...)
}

// secret returns the flag value or, interactively, prompts for it.
func (e *cliEnv) secret(c *cli.Context, flag, title, label string) (string, error) {
	if v := c.String(flag); v != "" {
		return v, nil
	}
	if !e.interactive {
		return "", nil
	}
	return tui.PromptPassword(title, label)
}

// confirm asks before a destructive action unless --yes was given.
func (e *cliEnv) confirm(c *cli.Context, question string) (bool, error) {
	if c.Bool("yes") {
		return true, nil
	}
	if !e.interactive {
		return false, fmt.Errorf("refusing to continue without confirmation: pass --yes")
	}
	return tui.Confirm(question)
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"}
}

func passwordFlag(usage string) cli.Flag {
	return &cli.StringFlag{Name: "password", Usage: usage, EnvVars: []string{"CELEBSTYLE_PASSWORD"}}
}

func pageFlags(defaultLimit int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
		&cli.IntFlag{Name: "limit", Value: defaultLimit, Usage: "Items per page"},
	}
}

// requireArg returns the first positional argument or a usage error.
func requireArg(c *cli.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Args().First())
	if v == "" {
		return "", fmt.Errorf("%s is required: cstyle %s <%s>", name, c.Command.FullName(), name)
	}
	return v, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
