package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/celebstyle/celebstyle-cli/internal/config"
	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
	"github.com/celebstyle/celebstyle-cli/pkg/payment"
)

var (
	// Build-time variables set via ldflags
	// Example: go build -ldflags "-X main.Version=1.0.0 -X main.DefaultAPIURL=https://api.example.com"
	Version       = "v0.1.0"
	DefaultAPIURL = "http://localhost:5000"
)

// commandWords are the names that make up a command path.
var commandWords = map[string]bool{
	"login": true, "logout": true, "whoami": true,
	"apikey": true, "plans": true, "profile": true, "preferences": true,
	"account": true, "outfits": true, "admin": true, "help": true, "h": true,

	"status": true, "generate": true, "reveal": true, "hide": true, "revoke": true,
	"list": true, "upgrade": true, "show": true, "update": true, "avatar": true,
	"toggle": true, "password": true, "delete": true, "activity": true,
	"mine": true, "favourites": true, "create": true, "favourite": true,
	"celebrities": true, "movies": true, "reviews": true, "users": true,
	"create-admin": true,
}

// globalFlags are app-level and always moved in front of the command path.
var globalFlags = map[string]bool{
	"--config": true, "-c": true, "--log-level": true, "--api-url": true, "--json": true,
}

// valuedFlags take a separate value argument.
var valuedFlags = map[string]bool{
	"--config": true, "-c": true, "--log-level": true, "--api-url": true,
	"--token": true, "--password": true, "--current": true, "--new": true, "--wait": true,
	"--name": true, "--username": true, "--bio": true, "--phone": true, "--location": true,
	"--page": true, "--limit": true, "--search": true,
	"--title": true, "--description": true, "--image": true, "--tag": true, "--celebrity": true,
	"--email": true, "--role": true, "--data": true, "--file": true,
}

// reorderArgs moves flags that follow positional arguments in front of them
// so that "cstyle outfits show abc --limit 5" parses like
// "cstyle outfits show --limit 5 abc". App-level flags such as --json are
// moved before the command path wherever they appear.
func reorderArgs(args []string) []string {
	if len(args) <= 1 {
		return args
	}

	var lead, path, flags, positional []string
	inPath := true

	for i := 1; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i:]...)
			break
		}

		if strings.HasPrefix(arg, "-") {
			group := &flags
			name, _, _ := strings.Cut(arg, "=")
			if len(path) == 0 || globalFlags[name] {
				group = &lead
			}
			*group = append(*group, arg)
			if valuedFlags[arg] && i+1 < len(args) {
				i++
				*group = append(*group, args[i])
			}
			continue
		}

		if inPath && commandWords[arg] {
			path = append(path, arg)
			continue
		}
		inPath = false
		positional = append(positional, arg)
	}

	result := make([]string, 0, len(args))
	result = append(result, args[0])
	result = append(result, lead...)
	result = append(result, path...)
	result = append(result, flags...)
	result = append(result, positional...)
	return result
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "cstyle",
		Usage:                  "CelebStyle dashboard: API keys, plans and content",
		Version:                Version,
		UseShortOptionHandling: true,
		EnableBashCompletion:   true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default: ./celebstyle.hcl, then ~/.celebstyle/config.hcl)",
				EnvVars: []string{"CELEBSTYLE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"CELEBSTYLE_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "CelebStyle API URL",
				EnvVars: []string{"CELEBSTYLE_API_URL"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Commands: []*cli.Command{
			// Authentication commands
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),

			// API key and plans
			apikeyCommand(),
			plansCommand(),

			// Account commands
			profileCommand(),
			preferencesCommand(),
			accountCommand(),

			// Content
			outfitsCommand(),
			adminCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}

			level := cfg.LogLevel
			if v := c.String("log-level"); v != "" {
				level = v
			}
			logger := hclog.New(&hclog.LoggerOptions{
				Name:   "cstyle",
				Level:  hclog.LevelFromString(level),
				Color:  hclog.AutoColor,
				Output: c.App.ErrWriter,
			})
			hclog.SetDefault(logger)

			setEnv(c, newCLIEnv(c, cfg, logger))
			return nil
		},
	}
}

// errorMessage is what the user sees for a failed command.
func errorMessage(err error) string {
	var verifyErr *payment.VerifyError
	if errors.As(err, &verifyErr) {
		return verifyErr.Error()
	}
	var apiErr *httpclient.APIError
	if errors.Is(err, httpclient.ErrNetwork) && !errors.As(err, &apiErr) {
		return httpclient.NetworkFailureMessage
	}
	return err.Error()
}

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	app := newApp()

	// Reorder args to allow flags after positional arguments
	args := reorderArgs(os.Args)

	if err := app.Run(args); err != nil {
		hclog.Default().Debug("command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		os.Exit(1)
	}
}
