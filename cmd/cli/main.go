package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/lebensmittel/cli/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Login     commands.LoginCmd     `cmd:"" help:"Log in and store a session"`
		Register  commands.RegisterCmd  `cmd:"" help:"Create an account and log in"`
		Logout    commands.LogoutCmd    `cmd:"" help:"Clear the stored session"`
		Whoami    commands.WhoamiCmd    `cmd:"" help:"Show the logged-in user"`
		Groups    commands.GroupsCmd    `cmd:"" help:"Manage household groups"`
		Groceries commands.GroceriesCmd `cmd:"" help:"Manage the grocery list"`
		Meals     commands.MealsCmd     `cmd:"" help:"Manage meal plans"`
		Receipts  commands.ReceiptsCmd  `cmd:"" help:"Manage receipts"`
		Watch     commands.WatchCmd     `cmd:"" help:"Stream live changes from the server"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
