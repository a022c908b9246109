// Package database handles database connections, transaction tracking and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL, PostgreSQL or SQLite connections
// based on the application's configuration.
//
// # Connect
//
// Connect opens the configured driver and pings it. SQLite is limited to a single
// connection so that in-memory databases stay visible to every statement.
//
// # Transaction Tracking
//
// Tracker scopes transactions (begin/commit/rollback with guaranteed release) and
// logs a warning naming any transaction that stays open longer than the configured
// threshold. It replaces ad-hoc instrumentation of borrowed connections.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns report the live column set of a table; the
// migrate command uses them to confirm the schema after AutoMigrate.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	tracker := database.NewTracker(db, time.Duration(cfg.Database.SlowTxMillis)*time.Millisecond, log)
//	err = tracker.Transaction(ctx, "guild_members", func(tx *gorm.DB) error { ... })
package database
