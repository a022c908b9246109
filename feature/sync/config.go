package sync

import "time"

// Config holds the staleness and batching policy of the sync runner.
type Config struct {
	// IntervalMinutes is how often the scheduler starts a run; zero disables it.
	IntervalMinutes int `mapstructure:"interval_minutes" default:"60"`
	// StaleHours is the age after which a guild or character is synced again.
	StaleHours int `mapstructure:"stale_hours" default:"24"`
	// GuildBatchSize caps the guilds selected per run.
	GuildBatchSize int `mapstructure:"guild_batch_size" default:"50"`
	// CharacterBatchSize caps the characters selected per run.
	CharacterBatchSize int `mapstructure:"character_batch_size" default:"200"`
	// Workers is how many items are synced at once; 1 is sequential.
	Workers int `mapstructure:"workers" default:"1"`
	// RunOnStart triggers a run as soon as the server starts.
	RunOnStart bool `mapstructure:"run_on_start" default:"false"`
}

// StaleAfter returns the staleness threshold.
func (c Config) StaleAfter() time.Duration {
	hours := c.StaleHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Interval returns the scheduler period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}
