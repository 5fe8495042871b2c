package driven

// ConfigStore provides persistent key-value configuration.
type ConfigStore interface {
	// Get retrieves a value by key, with a boolean indicating presence.
	Get(key string) (any, bool)

	// GetString retrieves a string value, empty if absent.
	GetString(key string) string

	// GetInt retrieves an integer value, zero if absent.
	GetInt(key string) int

	// Set stores a value.
	Set(key string, value any) error

	// Delete removes a key.
	Delete(key string) error
}
