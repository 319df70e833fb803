package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/celebstyle/celebstyle-cli/internal/tui"
	"github.com/celebstyle/celebstyle-cli/pkg/admin"
	"github.com/celebstyle/celebstyle-cli/pkg/auth"
)

func newAdminClient(c *cli.Context) (*admin.Client, error) {
	base, _, err := envFrom(c).session()
	if err != nil {
		return nil, err
	}
	return admin.NewClient(base), nil
}

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Super administrator tools",
		Before: func(c *cli.Context) error {
			// The API enforces the role; this only saves a round trip
			creds, err := auth.LoadCredentials()
			if err != nil {
				return err
			}
			if creds.Role != "" && !auth.IsSuperAdmin(creds) {
				return fmt.Errorf("admin commands require the %s role (you are %s)", auth.RoleSuperAdmin, creds.Role)
			}
			return nil
		},
		Subcommands: []*cli.Command{
			resourceCommand("celebrities", "Manage celebrities", (*admin.Client).Celebrities, func(v admin.Celebrity) string {
				return fmt.Sprintf("%-26s %-28s %s", v.ID, v.Name, tui.RenderMuted(v.Profession))
			}),
			resourceCommand("movies", "Manage movies", (*admin.Client).Movies, func(v admin.Movie) string {
				year := ""
				if v.ReleaseYear > 0 {
					year = fmt.Sprint(v.ReleaseYear)
				}
				return fmt.Sprintf("%-26s %-32s %s", v.ID, v.Title, tui.RenderMuted(year))
			}),
			resourceCommand("reviews", "Moderate reviews", (*admin.Client).Reviews, func(v admin.Review) string {
				return fmt.Sprintf("%-26s %3.1f  %-10s %s", v.ID, v.Rating, v.Status, truncate(v.Comment, 40))
			}),
			usersCommand(),
			createAdminCommand(),
		},
	}
}

func listOptionFlags() []cli.Flag {
	return append(pageFlags(20), &cli.StringFlag{Name: "search", Usage: "Filter by text"})
}

func listOptions(c *cli.Context) admin.ListOptions {
	return admin.ListOptions{Search: c.String("search"), Page: c.Int("page"), Limit: c.Int("limit")}
}

func bodyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "data", Usage: "Record as a JSON object"},
		&cli.StringFlag{Name: "file", Usage: "Read the JSON record from a file"},
	}
}

// readBody returns the JSON object given by --data or --file.
func readBody(c *cli.Context) (json.RawMessage, error) {
	var data []byte
	switch {
	case c.String("data") != "" && c.String("file") != "":
		return nil, fmt.Errorf("use either --data or --file, not both")
	case c.String("data") != "":
		data = []byte(c.String("data"))
	case c.String("file") != "":
		var err error
		if data, err = os.ReadFile(c.String("file")); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", c.String("file"), err)
		}
	default:
		return nil, fmt.Errorf("a record is required: pass --data '{...}' or --file record.json")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	return json.RawMessage(data), nil
}

// resourceCommand builds list/show/create/update/delete for one catalogue.
func resourceCommand[T any](name, usage string, resource func(*admin.Client) admin.Resource[T], row func(T) string) *cli.Command {
	open := func(c *cli.Context) (admin.Resource[T], error) {
		client, err := newAdminClient(c)
		if err != nil {
			return admin.Resource[T]{}, err
		}
		return resource(client), nil
	}

	showOne := func(c *cli.Context, verb string, fetch func(r admin.Resource[T]) (*T, error)) error {
		e := envFrom(c)
		r, err := open(c)
		if err != nil {
			return err
		}
		var v *T
		if err := e.run(fmt.Sprintf("%s %s...", verb, name), func() error {
			v, err = fetch(r)
			return err
		}); err != nil {
			return err
		}
		return e.printJSON(v)
	}

	return &cli.Command{
		Name:  name,
		Usage: usage,
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List " + name,
				Flags: listOptionFlags(),
				Action: func(c *cli.Context) error {
					e := envFrom(c)
					r, err := open(c)
					if err != nil {
						return err
					}
					var list *admin.List[T]
					if err := e.run("Loading "+name+"...", func() error {
						list, err = r.List(c.Context, listOptions(c))
						return err
					}); err != nil {
						return err
					}
					if e.json {
						return e.printJSON(map[string]interface{}{name: list.Items, "pagination": list.Pagination})
					}
					printList(e, name, list.Items, list.Pagination, row)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Show one record",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					return showOne(c, "Loading", func(r admin.Resource[T]) (*T, error) {
						return r.Get(c.Context, id)
					})
				},
			},
			{
				Name:  "create",
				Usage: "Create a record",
				Flags: bodyFlags(),
				Action: func(c *cli.Context) error {
					body, err := readBody(c)
					if err != nil {
						return err
					}
					return showOne(c, "Creating", func(r admin.Resource[T]) (*T, error) {
						return r.Create(c.Context, body)
					})
				},
			},
			{
				Name:      "update",
				Usage:     "Update a record",
				ArgsUsage: "<id>",
				Flags:     bodyFlags(),
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					body, err := readBody(c)
					if err != nil {
						return err
					}
					return showOne(c, "Updating", func(r admin.Resource[T]) (*T, error) {
						return r.Update(c.Context, id, body)
					})
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a record",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{yesFlag()},
				Action: func(c *cli.Context) error {
					e := envFrom(c)
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					ok, err := e.confirm(c, fmt.Sprintf("Delete %s %s?", strings.TrimSuffix(name, "s"), id))
					if err != nil || !ok {
						return err
					}
					r, err := open(c)
					if err != nil {
						return err
					}
					if err := e.run("Deleting...", func() error { return r.Delete(c.Context, id) }); err != nil {
						return err
					}
					if e.json {
						return e.printJSON(map[string]interface{}{"success": true, "id": id})
					}
					e.println(tui.RenderSuccess("Deleted " + id))
					return nil
				},
			},
		},
	}
}

func printList[T any](e *cliEnv, name string, items []T, pg admin.Pagination, row func(T) string) {
	if len(items) == 0 {
		e.printf("No %s found\n", name)
		return
	}
	for _, v := range items {
		e.println(row(v))
	}
	if pg.Pages > 1 {
		e.println(tui.RenderMuted(fmt.Sprintf("Page %d of %d (%s total)", pg.Page, pg.Pages, tui.FormatCount(int64(pg.Total)))))
	}
}

func usersCommand() *cli.Command {
	userRow := func(u admin.User) string {
		state := "active"
		if !u.IsActive {
			state = "inactive"
		}
		return fmt.Sprintf("%-26s %-32s %-10s %s", u.ID, u.Email, u.Role, tui.RenderMuted(state))
	}

	return &cli.Command{
		Name:  "users",
		Usage: "Manage platform users",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users",
				Flags: listOptionFlags(),
				Action: func(c *cli.Context) error {
					e := envFrom(c)
					client, err := newAdminClient(c)
					if err != nil {
						return err
					}
					var list *admin.List[admin.User]
					if err := e.run("Loading users...", func() error {
						list, err = client.AllUsers(c.Context, listOptions(c))
						return err
					}); err != nil {
						return err
					}
					if e.json {
						return e.printJSON(map[string]interface{}{"users": list.Items, "pagination": list.Pagination})
					}
					printList(e, "users", list.Items, list.Pagination, userRow)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Show a user",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					e := envFrom(c)
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					client, err := newAdminClient(c)
					if err != nil {
						return err
					}
					var u *admin.User
					if err := e.run("Loading user...", func() error {
						u, err = client.GetUser(c.Context, id)
						return err
					}); err != nil {
						return err
					}
					return e.printJSON(u)
				},
			},
			{
				Name:      "update",
				Usage:     "Change a user's name, role or status",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "role", Usage: "Role (user, admin, superadmin)"},
					&cli.BoolFlag{Name: "activate", Usage: "Mark the account active"},
					&cli.BoolFlag{Name: "deactivate", Usage: "Mark the account inactive"},
				},
				Action: func(c *cli.Context) error {
					e := envFrom(c)
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					u, err := userUpdate(c)
					if err != nil {
						return err
					}
					client, err := newAdminClient(c)
					if err != nil {
						return err
					}
					var updated *admin.User
					if err := e.run("Updating user...", func() error {
						updated, err = client.UpdateUser(c.Context, id, u)
						return err
					}); err != nil {
						return err
					}
					return e.printJSON(updated)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a user",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{yesFlag()},
				Action: func(c *cli.Context) error {
					e := envFrom(c)
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					ok, err := e.confirm(c, "Delete user "+id+"?")
					if err != nil || !ok {
						return err
					}
					client, err := newAdminClient(c)
					if err != nil {
						return err
					}
					if err := e.run("Deleting user...", func() error { return client.DeleteUser(c.Context, id) }); err != nil {
						return err
					}
					if e.json {
						return e.printJSON(map[string]interface{}{"success": true, "id": id})
					}
					e.println(tui.RenderSuccess("Deleted user " + id))
					return nil
				},
			},
		},
	}
}

func userUpdate(c *cli.Context) (admin.UserUpdate, error) {
	var u admin.UserUpdate
	if c.IsSet("name") {
		v := c.String("name")
		u.Name = &v
	}
	if c.IsSet("role") {
		v := c.String("role")
		u.Role = &v
	}
	switch {
	case c.Bool("activate") && c.Bool("deactivate"):
		return u, fmt.Errorf("use either --activate or --deactivate")
	case c.Bool("activate"):
		v := true
		u.IsActive = &v
	case c.Bool("deactivate"):
		v := false
		u.IsActive = &v
	}
	if u == (admin.UserUpdate{}) {
		return u, fmt.Errorf("nothing to update: pass --name, --role, --activate or --deactivate")
	}
	return u, nil
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an administrator account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Display name"},
			&cli.StringFlag{Name: "email", Usage: "Login email", Required: true},
			passwordFlag("Initial password"),
		},
		Action: func(c *cli.Context) error {
			e := envFrom(c)
			password, err := e.secret(c, "password", "New administrator", "Initial password")
			if err != nil {
				return err
			}
			in := admin.NewAdmin{Name: c.String("name"), Email: c.String("email"), Password: password}

			client, err := newAdminClient(c)
			if err != nil {
				return err
			}
			var u *admin.User
			if err := e.run("Creating administrator...", func() error {
				u, err = client.CreateAdmin(c.Context, in)
				return err
			}); err != nil {
				return err
			}
			if e.json {
				return e.printJSON(u)
			}
			e.println(tui.RenderSuccess("Administrator " + u.Email + " created"))
			return nil
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
