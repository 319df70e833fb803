package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/celebstyle/celebstyle-cli/internal/tui"
	"github.com/celebstyle/celebstyle-cli/pkg/account"
	"github.com/celebstyle/celebstyle-cli/pkg/auth"
)

func newAccountClient(c *cli.Context) (*account.Client, error) {
	base, _, err := envFrom(c).session()
	if err != nil {
		return nil, err
	}
	return account.NewClient(base), nil
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and edit your profile",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Action: profileShow,
			},
			{
				Name:  "update",
				Usage: "Update profile fields",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "username", Usage: "Username"},
					&cli.StringFlag{Name: "bio", Usage: "Short bio"},
					&cli.StringFlag{Name: "phone", Usage: "Phone number"},
					&cli.StringFlag{Name: "location", Usage: "Location"},
				},
				Action: profileUpdate,
			},
			{
				Name:      "avatar",
				Usage:     "Upload a new avatar image",
				ArgsUsage: "<file>",
				Action:    profileAvatar,
			},
		},
	}
}

func printProfile(e *cliEnv, p *account.Profile) error {
	if e.json {
		return e.printJSON(p)
	}
	e.println(tui.RenderTitle(orDash(p.Name)))
	e.println(tui.RenderStatusLine("Email", orDash(p.Email), ""))
	if p.Username != "" {
		e.println(tui.RenderStatusLine("Username", p.Username, ""))
	}
	if p.Role != "" {
		e.println(tui.RenderStatusLine("Role", p.Role, ""))
	}
	if p.Bio != "" {
		e.println(tui.RenderStatusLine("Bio", p.Bio, ""))
	}
	if p.Phone != "" {
		e.println(tui.RenderStatusLine("Phone", p.Phone, ""))
	}
	if p.Location != "" {
		e.println(tui.RenderStatusLine("Location", p.Location, ""))
	}
	if p.Avatar != "" {
		e.println(tui.RenderStatusLine("Avatar", tui.RenderLink(p.Avatar), ""))
	}
	e.println(tui.RenderStatusLine("Member since", formatTime(p.CreatedAt), ""))
	return nil
}

func profileShow(c *cli.Context) error {
	e := envFrom(c)
	client, err := newAccountClient(c)
	if err != nil {
		return err
	}
	var p *account.Profile
	if err := e.run("Loading profile...", func() error {
		p, err = client.Profile(c.Context)
		return err
	}); err != nil {
		return err
	}
	return printProfile(e, p)
}

func profileUpdate(c *cli.Context) error {
	e := envFrom(c)

	var u account.ProfileUpdate
	set := func(flag string, dst **string) {
		if c.IsSet(flag) {
			v := c.String(flag)
			*dst = &v
		}
	}
	set("name", &u.Name)
	set("username", &u.Username)
	set("bio", &u.Bio)
	set("phone", &u.Phone)
	set("location", &u.Location)
	if u == (account.ProfileUpdate{}) {
		return fmt.Errorf("nothing to update: pass at least one of --name, --username, --bio, --phone, --location")
	}

	client, err := newAccountClient(c)
	if err != nil {
		return err
	}
	var p *account.Profile
	if err := e.run("Saving profile...", func() error {
		p, err = client.UpdateProfile(c.Context, u)
		return err
	}); err != nil {
		return err
	}
	if p == nil {
		if e.json {
			return e.printJSON(map[string]interface{}{"success": true})
		}
		e.println(tui.RenderSuccess("Profile updated"))
		return nil
	}
	if !e.json {
		e.println(tui.RenderSuccess("Profile updated"))
	}
	return printProfile(e, p)
}

func profileAvatar(c *cli.Context) error {
	e := envFrom(c)
	path, err := requireArg(c, "file")
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open avatar: %w", err)
	}
	defer f.Close()

	client, err := newAccountClient(c)
	if err != nil {
		return err
	}
	var p *account.Profile
	if err := e.run("Uploading avatar...", func() error {
		p, err = client.UploadAvatar(c.Context, filepath.Base(path), f)
		return err
	}); err != nil {
		return err
	}
	if e.json {
		return e.printJSON(map[string]interface{}{"success": true, "avatar": p.Avatar})
	}
	e.println(tui.RenderSuccess("Avatar updated"))
	if p.Avatar != "" {
		e.println(tui.RenderLink(p.Avatar))
	}
	return nil
}

func preferencesCommand() *cli.Command {
	return &cli.Command{
		Name:  "preferences",
		Usage: "View and toggle preferences",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show all preferences",
				Action: preferencesShow,
			},
			{
				Name:      "toggle",
				Usage:     "Flip an on/off preference",
				ArgsUsage: "<key>",
				Action:    preferencesToggle,
			},
		},
	}
}

func newToggler(c *cli.Context) (*account.PreferenceToggler, error) {
	e := envFrom(c)
	client, err := newAccountClient(c)
	if err != nil {
		return nil, err
	}
	t := account.NewPreferenceToggler(client, e.logger.Named("preferences"))
	if err := e.run("Loading preferences...", func() error { return t.Load(c.Context) }); err != nil {
		return nil, err
	}
	return t, nil
}

func printPreferences(e *cliEnv, prefs account.Preferences) error {
	if e.json {
		return e.printJSON(prefs)
	}
	if len(prefs) == 0 {
		e.println("No preferences set")
		return nil
	}
	for _, k := range prefs.Keys() {
		if v, ok := prefs.Bool(k); ok {
			state, style := "off", "warning"
			if v {
				state, style = "on", "success"
			}
			e.println(tui.RenderStatusLine(k, state, style))
			continue
		}
		e.println(tui.RenderStatusLine(k, fmt.Sprint(prefs[k]), ""))
	}
	return nil
}

func preferencesShow(c *cli.Context) error {
	t, err := newToggler(c)
	if err != nil {
		return err
	}
	return printPreferences(envFrom(c), t.Current())
}

func preferencesToggle(c *cli.Context) error {
	e := envFrom(c)
	key, err := requireArg(c, "key")
	if err != nil {
		return err
	}
	t, err := newToggler(c)
	if err != nil {
		return err
	}

	var value bool
	if err := e.run("Saving preference...", func() error {
		value, err = t.Toggle(c.Context, key)
		return err
	}); err != nil {
		return err
	}

	if e.json {
		return e.printJSON(map[string]interface{}{"key": key, "value": value, "preferences": t.Current()})
	}
	state := "off"
	if value {
		state = "on"
	}
	e.println(tui.RenderSuccess(fmt.Sprintf("%s is now %s", key, state)))
	return nil
}

func accountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Password, account deletion and activity",
		Subcommands: []*cli.Command{
			{
				Name:  "password",
				Usage: "Change your password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "current", Usage: "Current password"},
					&cli.StringFlag{Name: "new", Usage: "New password"},
				},
				Action: accountPassword,
			},
			{
				Name:  "delete",
				Usage: "Permanently delete your account",
				Flags: []cli.Flag{
					passwordFlag("Account password"),
					yesFlag(),
				},
				Action: accountDelete,
			},
			{
				Name:  "activity",
				Usage: "Show recent account activity",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Number of entries"},
				},
				Action: accountActivity,
			},
		},
	}
}

func accountPassword(c *cli.Context) error {
	e := envFrom(c)

	change := account.PasswordChange{
		Current: c.String("current"),
		New:     c.String("new"),
		Confirm: c.String("new"),
	}
	if change.Current == "" && change.New == "" && e.interactive {
		var err error
		change.Current, change.New, change.Confirm, err = tui.PromptPasswordChange(account.MinPasswordLength)
		if err != nil {
			return err
		}
	}
	// Checked before any client is built so bad input never reaches the API
	if err := change.Validate(); err != nil {
		return err
	}

	client, err := newAccountClient(c)
	if err != nil {
		return err
	}
	if err := e.run("Updating password...", func() error {
		return client.UpdatePassword(c.Context, change)
	}); err != nil {
		return err
	}

	if e.json {
		return e.printJSON(map[string]interface{}{"success": true})
	}
	e.println(tui.RenderSuccess("Password updated"))
	return nil
}

func accountDelete(c *cli.Context) error {
	e := envFrom(c)
	ok, err := e.confirm(c, "Delete your account? This cannot be undone.")
	if err != nil {
		return err
	}
	if !ok {
		e.println("Cancelled")
		return nil
	}

	password, err := e.secret(c, "password", "Delete account", "Password")
	if err != nil {
		return err
	}
	client, err := newAccountClient(c)
	if err != nil {
		return err
	}
	if err := e.run("Deleting account...", func() error {
		return client.DeleteAccount(c.Context, password)
	}); err != nil {
		return err
	}

	// The session dies with the account
	if err := auth.DeleteCredentials(); err != nil {
		e.logger.Warn("failed to remove stored credentials", "error", err)
	}

	if e.json {
		return e.printJSON(map[string]interface{}{"success": true})
	}
	e.println(tui.RenderSuccess("Account deleted"))
	return nil
}

func accountActivity(c *cli.Context) error {
	e := envFrom(c)
	client, err := newAccountClient(c)
	if err != nil {
		return err
	}
	var items []account.Activity
	if err := e.run("Loading activity...", func() error {
		items, err = client.Activity(c.Context, c.Int("limit"))
		return err
	}); err != nil {
		return err
	}

	if e.json {
		if items == nil {
			items = []account.Activity{}
		}
		return e.printJSON(items)
	}
	if len(items) == 0 {
		e.println("No recent activity")
		return nil
	}
	for _, a := range items {
		e.printf("%s  %-16s %s\n", formatTime(a.CreatedAt), a.Type, a.Description)
	}
	return nil
}
