package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/celebstyle/celebstyle-cli/internal/tui"
	"github.com/celebstyle/celebstyle-cli/pkg/outfits"
)

func newOutfitsClient(c *cli.Context) (*outfits.Client, error) {
	base, _, err := envFrom(c).session()
	if err != nil {
		return nil, err
	}
	return outfits.NewClient(base), nil
}

func outfitInputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Outfit title"},
		&cli.StringFlag{Name: "description", Usage: "Description"},
		&cli.StringSliceFlag{Name: "image", Usage: "Image URL (repeatable)"},
		&cli.StringSliceFlag{Name: "tag", Usage: "Tag (repeatable)"},
		&cli.StringFlag{Name: "celebrity", Usage: "Celebrity ID the look is inspired by"},
	}
}

func outfitInput(c *cli.Context) outfits.Input {
	return outfits.Input{
		Title:       strings.TrimSpace(c.String("title")),
		Description: c.String("description"),
		Images:      c.StringSlice("image"),
		Tags:        c.StringSlice("tag"),
		Celebrity:   c.String("celebrity"),
	}
}

type outfitLister func(client *outfits.Client, ctx context.Context, page, limit int) (*outfits.Page, error)

func outfitsListCommand(name, usage string, list outfitLister) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: pageFlags(12),
		Action: func(c *cli.Context) error {
			e := envFrom(c)
			client, err := newOutfitsClient(c)
			if err != nil {
				return err
			}
			var page *outfits.Page
			if err := e.run("Loading outfits...", func() error {
				page, err = list(client, c.Context, c.Int("page"), c.Int("limit"))
				return err
			}); err != nil {
				return err
			}

			if e.json {
				return e.printJSON(page)
			}
			if len(page.Outfits) == 0 {
				e.println("No outfits found")
				return nil
			}
			for _, o := range page.Outfits {
				fav := " "
				if o.Favourited {
					fav = "♥"
				}
				e.printf("%s %-26s %-32s %s\n", fav, o.ID, o.Title, tui.RenderMuted(fmt.Sprintf("%d favourites", o.Favourites)))
			}
			pg := page.Pagination
			if pg.Pages > 1 {
				e.println(tui.RenderMuted(fmt.Sprintf("Page %d of %d (%s total)", pg.Page, pg.Pages, tui.FormatCount(int64(pg.Total)))))
			}
			return nil
		},
	}
}

func outfitsCommand() *cli.Command {
	return &cli.Command{
		Name:  "outfits",
		Usage: "Browse and manage outfits",
		Subcommands: []*cli.Command{
			outfitsListCommand("list", "Browse the outfit feed", (*outfits.Client).List),
			outfitsListCommand("mine", "List outfits you created", (*outfits.Client).Mine),
			outfitsListCommand("favourites", "List outfits you favourited", (*outfits.Client).Favourites),
			{
				Name:      "show",
				Usage:     "Show one outfit",
				ArgsUsage: "<id>",
				Action:    outfitsShow,
			},
			{
				Name:   "create",
				Usage:  "Create an outfit",
				Flags:  outfitInputFlags(),
				Action: outfitsCreate,
			},
			{
				Name:      "update",
				Usage:     "Replace an outfit's fields",
				ArgsUsage: "<id>",
				Flags:     outfitInputFlags(),
				Action:    outfitsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your outfits",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{yesFlag()},
				Action:    outfitsDelete,
			},
			{
				Name:      "favourite",
				Usage:     "Toggle an outfit in your favourites",
				ArgsUsage: "<id>",
				Action:    outfitsFavourite,
			},
		},
	}
}

func printOutfit(e *cliEnv, o *outfits.Outfit) error {
	if e.json {
		return e.printJSON(o)
	}
	e.println(tui.RenderTitle(o.Title))
	e.println(tui.RenderStatusLine("ID", o.ID, ""))
	if o.Description != "" {
		e.println(o.Description)
	}
	if o.Celebrity != "" {
		e.println(tui.RenderStatusLine("Celebrity", o.Celebrity, ""))
	}
	if len(o.Tags) > 0 {
		e.println(tui.RenderStatusLine("Tags", strings.Join(o.Tags, ", "), ""))
	}
	for _, img := range o.Images {
		e.println("  " + tui.RenderLink(img))
	}
	e.println(tui.RenderStatusLine("Favourites", tui.FormatCount(int64(o.Favourites)), ""))
	e.println(tui.RenderStatusLine("Created", formatTime(o.CreatedAt), ""))
	return nil
}

func outfitsShow(c *cli.Context) error {
	e := envFrom(c)
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}
	client, err := newOutfitsClient(c)
	if err != nil {
		return err
	}
	var o *outfits.Outfit
	if err := e.run("Loading outfit...", func() error {
		o, err = client.Get(c.Context, id)
		return err
	}); err != nil {
		return err
	}
	return printOutfit(e, o)
}

func outfitsCreate(c *cli.Context) error {
	e := envFrom(c)
	in := outfitInput(c)
	if err := in.Validate(); err != nil {
		return err
	}
	client, err := newOutfitsClient(c)
	if err != nil {
		return err
	}
	var o *outfits.Outfit
	if err := e.run("Creating outfit...", func() error {
		o, err = client.Create(c.Context, in)
		return err
	}); err != nil {
		return err
	}
	if !e.json {
		e.println(tui.RenderSuccess("Outfit created"))
	}
	return printOutfit(e, o)
}

func outfitsUpdate(c *cli.Context) error {
	e := envFrom(c)
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}
	in := outfitInput(c)
	if err := in.Validate(); err != nil {
		return err
	}
	client, err := newOutfitsClient(c)
	if err != nil {
		return err
	}
	var o *outfits.Outfit
	if err := e.run("Saving outfit...", func() error {
		o, err = client.Update(c.Context, id, in)
		return err
	}); err != nil {
		return err
	}
	if !e.json {
		e.println(tui.RenderSuccess("Outfit updated"))
	}
	return printOutfit(e, o)
}

func outfitsDelete(c *cli.Context) error {
	e := envFrom(c)
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}
	ok, err := e.confirm(c, "Delete outfit "+id+"?")
	if err != nil {
		return err
	}
	if !ok {
		e.println("Cancelled")
		return nil
	}
	client, err := newOutfitsClient(c)
	if err != nil {
		return err
	}
	if err := e.run("Deleting outfit...", func() error {
		return client.Delete(c.Context, id)
	}); err != nil {
		return err
	}
	if e.json {
		return e.printJSON(map[string]interface{}{"success": true, "id": id})
	}
	e.println(tui.RenderSuccess("Outfit deleted"))
	return nil
}

func outfitsFavourite(c *cli.Context) error {
	e := envFrom(c)
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}
	client, err := newOutfitsClient(c)
	if err != nil {
		return err
	}
	var fav bool
	if err := e.run("Updating favourites...", func() error {
		fav, err = client.ToggleFavourite(c.Context, id)
		return err
	}); err != nil {
		return err
	}
	if e.json {
		return e.printJSON(map[string]interface{}{"id": id, "isFavourited": fav})
	}
	if fav {
		e.println(tui.RenderSuccess("Added to favourites"))
	} else {
		e.println(tui.RenderSuccess("Removed from favourites"))
	}
	return nil
}
