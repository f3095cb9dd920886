package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 8080
	DefaultWSPath            = "/ws"
	DefaultReadLimit         = 1 << 20 // 1 MiB per message
	DefaultWriteTimeout      = 5 * time.Second
	DefaultPingInterval      = 15 * time.Second
	DefaultPongTimeout       = 60 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultMaxRoomIDLength   = 128
	DefaultMaxUsernameLength = 64
	DefaultMaxChatLength     = 2000
	DefaultLogLevel          = "info"
	DefaultInstanceID        = "scenesync"
)

func (c *Config) applyDefaults() {
	// Instance defaults
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}
	if c.Server.ReadLimit == 0 {
		c.Server.ReadLimit = DefaultReadLimit
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = DefaultPingInterval
	}
	if c.Server.PongTimeout == 0 {
		c.Server.PongTimeout = DefaultPongTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Session defaults
	if c.Session.MaxRoomIDLength == 0 {
		c.Session.MaxRoomIDLength = DefaultMaxRoomIDLength
	}
	if c.Session.MaxUsernameLength == 0 {
		c.Session.MaxUsernameLength = DefaultMaxUsernameLength
	}
	if c.Session.MaxChatLength == 0 {
		c.Session.MaxChatLength = DefaultMaxChatLength
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
