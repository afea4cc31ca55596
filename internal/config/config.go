package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Flex policies accepted by restore.flexPolicy.
const (
	FlexPassthrough = "passthrough"
	FlexRetain      = "retain"
	FlexEqual       = "equal"
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 18790,
			Bind: "loopback",
			Auth: GatewayAuth{Mode: "token"},
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
		Restore: RestoreConfig{
			MaxConcurrentItems: 8,
			FlexPolicy:         FlexPassthrough,
		},
	}
}
