package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// guildCmd groups guild registration commands.
var guildCmd = &cobra.Command{
	Use:   "guild",
	Short: "Manage tracked guilds",
}

var guildAddCmd = &cobra.Command{
	Use:   "add <name> <realm> <region>",
	Short: "Track a guild so the next run syncs it",
	Long: `Registers a guild by name, realm and region. The realm is stored as its slug.
A guild that is already tracked is left as is.

Example:
  guild add "Stormwind Watch" "Area 52" us`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.repo.AddGuild(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Guild #%d %s (%s-%s)\n", g.ID, g.Name, g.Region, g.Realm)
		return nil
	},
}

func init() {
	guildCmd.AddCommand(guildAddCmd)
	RootCmd.AddCommand(guildCmd)
}
