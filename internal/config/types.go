package config

// Config is the root configuration for layoutdb.
type Config struct {
	Database DatabaseConfig `yaml:"database,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Restore  RestoreConfig  `yaml:"restore,omitempty"`
	Remote   RemoteConfig   `yaml:"remote,omitempty"`
	Hooks    HooksConfig    `yaml:"hooks,omitempty"`
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
}

// DatabaseConfig locates the workspace database.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"` // empty means <home>/data/workspaces.db
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// RestoreConfig tunes layout reconstruction.
type RestoreConfig struct {
	MaxConcurrentItems int      `yaml:"maxConcurrentItems,omitempty"` // per pane; 0 means unlimited
	FlexPolicy         string   `yaml:"flexPolicy,omitempty"`         // "passthrough" | "retain" | "equal"
	Kinds              []string `yaml:"kinds,omitempty"`              // item kinds the CLI can rehydrate
}

// RemoteConfig seeds the remote project directory.
type RemoteConfig struct {
	Projects   []RemoteProjectEntry `yaml:"projects,omitempty"`
	DevServers []DevServerEntry     `yaml:"devServers,omitempty"`
}

// RemoteProjectEntry describes one remote project.
type RemoteProjectEntry struct {
	ID          uint64 `yaml:"id"`
	Path        string `yaml:"path"`
	DevServerID uint64 `yaml:"devServer"`
}

// DevServerEntry describes one dev server.
type DevServerEntry struct {
	ID   uint64 `yaml:"id"`
	Name string `yaml:"name"`
}

// HooksConfig defines event hooks.
type HooksConfig struct {
	WorkspaceSaved    []HookEntry `yaml:"workspaceSaved,omitempty"`
	WorkspaceRestored []HookEntry `yaml:"workspaceRestored,omitempty"`
	ItemDropped       []HookEntry `yaml:"itemDropped,omitempty"`
	PaneDropped       []HookEntry `yaml:"paneDropped,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}

// GatewayConfig controls the layout RPC server started by "layoutdb serve".
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}
