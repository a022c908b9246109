package cmd

import (
	"context"
	"fmt"

	"guild-sync/core/database"
	"guild-sync/feature/guild"
	"guild-sync/feature/guild/models"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// migrateCmd creates or updates the schema and reports each table's columns.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := guild.Migrate(a.db); err != nil {
			return err
		}

		for _, model := range models.All() {
			table, expected, err := modelColumns(a.db, model)
			if err != nil {
				return err
			}
			columns, err := database.GetTableColumns(a.db, table)
			if err != nil {
				return err
			}
			missing, err := database.MissingColumns(a.db, table, expected)
			if err != nil {
				return err
			}

			fmt.Printf("%s (%d columns)\n", table, len(columns))
			for _, col := range columns {
				fmt.Printf("  %-22s %s\n", col.Field, col.Type)
			}
			for _, name := range missing {
				fmt.Printf("  MISSING %s\n", name)
			}
		}
		return nil
	},
}

// modelColumns returns the table name and column names GORM derives for model.
func modelColumns(db *gorm.DB, model interface{}) (string, []string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "", nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return stmt.Schema.Table, stmt.Schema.DBNames, nil
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
