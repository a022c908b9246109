package cmd

import (
	"context"
	"fmt"

	"guild-sync/feature/guild"

	"github.com/spf13/cobra"
)

var persistClassification bool

// classifyCmd prints the main/alt classification of a guild's members.
var classifyCmd = &cobra.Command{
	Use:   "classify <guildID>",
	Short: "Classify a guild's members into mains and alts",
	Long: `Groups the guild's current members by owning account, or by toy fingerprint
when the owner is unknown, and marks one main per group.

Examples:
  # Preview only
  classify 12

  # Store the guild-scoped main flags
  classify 12 --persist`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUintArg(args[0])
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := guild.NewService(a.repo, a.logger).ClassifyGuild(ctx, id, persistClassification)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d mains, %d alts\n\n", report.Guild, report.Mains, report.Alts)
		fmt.Printf("%-5s %-24s %-6s %s\n", "RANK", "CHARACTER", "TYPE", "MAIN")
		for _, m := range report.Members {
			main := "-"
			if m.MainCharacterID != nil {
				main = fmt.Sprintf("#%d", *m.MainCharacterID)
			}
			fmt.Printf("%-5d %-24s %-6s %s\n", m.Rank, m.Name+"-"+m.Realm, m.Classification, main)
		}
		if report.Persisted {
			fmt.Println("\nMain flags stored.")
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&persistClassification, "persist", false, "Store the guild-scoped main flags")
	RootCmd.AddCommand(classifyCmd)
}
