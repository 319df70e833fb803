package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/celebstyle/celebstyle-cli/internal/tui"
	"github.com/celebstyle/celebstyle-cli/pkg/account"
	"github.com/celebstyle/celebstyle-cli/pkg/auth"
	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Store a dashboard session token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "token",
				Usage: "Session token issued by the CelebStyle sign-in page",
			},
			&cli.BoolFlag{
				Name:  "no-verify",
				Usage: "Store the token without checking it against the API",
			},
		},
		Action: func(c *cli.Context) error {
			e := envFrom(c)

			token := strings.TrimSpace(c.String("token"))
			if token == "" && e.interactive {
				var err error
				token, err = tui.PromptPassword("Log in to CelebStyle", "Session token")
				if err != nil {
					return err
				}
			}
			if token == "" {
				return fmt.Errorf("a session token is required: cstyle login --token <token>")
			}

			creds := auth.FromToken(token)
			creds.APIURL = e.apiURL(nil)
			if !auth.IsValid(creds) {
				return auth.ErrTokenExpired
			}

			if !c.Bool("no-verify") {
				ts, err := auth.TokenSource(creds)
				if err != nil {
					return err
				}
				base := httpclient.NewBaseClient(creds.APIURL, e.cfg.RequestTimeout())
				base.SetTokenSource(ts)
				base.SetLogger(e.logger.Named("http"))

				var profile *account.Profile
				err = e.run("Checking token...", func() error {
					var err error
					profile, err = account.NewClient(base).Profile(c.Context)
					return err
				})
				if err != nil {
					return fmt.Errorf("token rejected: %w", err)
				}
				fillFromProfile(creds, profile)
			}

			if err := auth.SaveCredentials(creds); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}
			e.logger.Debug("credentials saved", "user_id", creds.UserID, "api_url", creds.APIURL)

			if e.json {
				return e.printJSON(map[string]interface{}{
					"success": true,
					"email":   creds.Email,
					"user_id": creds.UserID,
					"api_url": creds.APIURL,
				})
			}
			who := creds.Email
			if who == "" {
				who = creds.UserID
			}
			if who == "" {
				who = "token"
			}
			e.println(tui.RenderSuccess("Logged in as " + who))
			return nil
		},
	}
}

// fillFromProfile completes fields the token claims did not carry.
func fillFromProfile(creds *auth.Credentials, p *account.Profile) {
	if p == nil {
		return
	}
	if creds.UserID == "" {
		creds.UserID = p.ID
	}
	if creds.Email == "" {
		creds.Email = p.Email
	}
	if creds.Name == "" {
		creds.Name = p.Name
	}
	if creds.Role == "" {
		creds.Role = p.Role
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Remove stored credentials",
		Action: func(c *cli.Context) error {
			e := envFrom(c)
			if err := auth.DeleteCredentials(); err != nil {
				return fmt.Errorf("failed to logout: %w", err)
			}
			if os.Getenv("CELEBSTYLE_TOKEN") != "" {
				e.println(tui.RenderWarning("CELEBSTYLE_TOKEN is still set in the environment"))
			}
			e.println(tui.RenderSuccess("Logged out successfully"))
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Display the current authenticated user",
		Action: func(c *cli.Context) error {
			e := envFrom(c)
			creds, err := auth.LoadCredentials()
			if err != nil {
				return err
			}

			source := "credentials file"
			if os.Getenv("CELEBSTYLE_TOKEN") != "" {
				source = "CELEBSTYLE_TOKEN"
			}

			if e.json {
				output := map[string]interface{}{
					"source":      source,
					"user_id":     creds.UserID,
					"email":       creds.Email,
					"name":        creds.Name,
					"role":        creds.Role,
					"api_url":     e.apiURL(creds),
					"token_valid": auth.IsValid(creds),
					"expires_at":  nil,
				}
				if !creds.ExpiresAt.IsZero() {
					output["expires_at"] = creds.ExpiresAt.Format(time.RFC3339)
				}
				return e.printJSON(output)
			}

			if creds.Name != "" {
				e.printf("Name: %s\n", creds.Name)
			}
			e.printf("Email: %s\n", orDash(creds.Email))
			e.printf("User ID: %s\n", orDash(creds.UserID))
			if creds.Role != "" {
				e.printf("Role: %s\n", creds.Role)
			}
			e.printf("API: %s\n", e.apiURL(creds))
			e.printf("Source: %s\n", source)
			if !creds.ExpiresAt.IsZero() {
				e.printf("Expires: %s\n", formatTime(creds.ExpiresAt))
				if !auth.IsValid(creds) {
					e.println(tui.RenderWarning("Token has expired"))
				}
			}
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
