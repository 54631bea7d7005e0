package config

// ElasticsearchConfig holds the connection settings for the event search
// index. When Enabled is false the event list falls back to SQL.
type ElasticsearchConfig struct {
	Enabled    bool
	URL        string
	Username   string
	Password   string
	Index      string
	MaxRetries int
}
