package battlenet

import "time"

// Config holds upstream credentials, endpoints and rate limits.
type Config struct {
	// ClientID is the OAuth client id used for the credential exchange.
	ClientID string `mapstructure:"client_id" default:""`
	// ClientSecret is the OAuth client secret.
	ClientSecret string `mapstructure:"client_secret" default:""`
	// TokenURL is the credential exchange endpoint.
	TokenURL string `mapstructure:"token_url" default:"https://oauth.battle.net/token"`
	// APIBaseURL is the data API root; %s is replaced by the region.
	APIBaseURL string `mapstructure:"api_base_url" default:"https://%s.api.blizzard.com"`
	// Locale is requested on every data call.
	Locale string `mapstructure:"locale" default:"en_US"`
	// TimeoutSeconds bounds each HTTP call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// ReservoirSize is the number of calls allowed per reservoir window.
	ReservoirSize int `mapstructure:"reservoir_size" default:"36000"`
	// ReservoirWindowSeconds is how often the reservoir refills.
	ReservoirWindowSeconds int `mapstructure:"reservoir_window_seconds" default:"3600"`
	// MaxConcurrent caps in-flight calls.
	MaxConcurrent int `mapstructure:"max_concurrent" default:"10"`
	// MinTimeMillis is the minimum spacing between call starts.
	MinTimeMillis int `mapstructure:"min_time_ms" default:"10"`
	// RetryBufferMillis is added to the next-second boundary before a throttle retry.
	RetryBufferMillis int `mapstructure:"retry_buffer_ms" default:"100"`
}

// LimiterConfig converts the rate settings into a LimiterConfig.
func (c Config) LimiterConfig() LimiterConfig {
	return LimiterConfig{
		ReservoirSize:   c.ReservoirSize,
		ReservoirWindow: time.Duration(c.ReservoirWindowSeconds) * time.Second,
		MaxConcurrent:   c.MaxConcurrent,
		MinTime:         time.Duration(c.MinTimeMillis) * time.Millisecond,
	}
}

// RetryBuffer returns the configured throttle retry buffer.
func (c Config) RetryBuffer() time.Duration {
	return time.Duration(c.RetryBufferMillis) * time.Millisecond
}
