package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd is the parent command for one-shot sync operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a sync once without starting the server",
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Sync every stale guild and character once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.orchestrator.RunSync(ctx); err != nil {
			return err
		}

		st := a.orchestrator.Status()
		fmt.Printf("Run %s\n", st.RunID)
		fmt.Printf("  Guilds:     %d synced, %d failed, %d skipped\n", st.Guilds.Synced, st.Guilds.Failed, st.Guilds.Skipped)
		fmt.Printf("  Characters: %d synced, %d failed, %d skipped\n", st.Characters.Synced, st.Characters.Failed, st.Characters.Skipped)
		return nil
	},
}

var syncGuildCmd = &cobra.Command{
	Use:   "guild <id>",
	Short: "Sync one guild regardless of staleness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUintArg(args[0])
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.orchestrator.SyncGuildByID(ctx, id); err != nil {
			return err
		}
		a.logger.Info("Guild synced", zap.Uint("guild_id", id))
		return nil
	},
}

var syncCharacterCmd = &cobra.Command{
	Use:   "character <id>",
	Short: "Sync one character regardless of staleness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUintArg(args[0])
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, err := a.orchestrator.SyncCharacterByID(ctx, id)
		if err != nil {
			return err
		}
		a.logger.Info("Character processed", zap.Uint("character_id", id), zap.String("outcome", string(outcome)))
		return nil
	},
}

func parseUintArg(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

func init() {
	syncCmd.AddCommand(syncRunCmd, syncGuildCmd, syncCharacterCmd)
	RootCmd.AddCommand(syncCmd)
}
