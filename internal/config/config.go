package config

import "time"

// Config is the root configuration for a scenesync server instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this server.
type InstanceConfig struct {
	ID string `yaml:"id"`
	AZ string `yaml:"az"`
}

// ServerConfig holds the listening endpoint and WebSocket transport settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	WSPath          string        `yaml:"ws_path"`
	AllowAnyOrigin  bool          `yaml:"allow_any_origin"`
	ReadLimit       int64         `yaml:"read_limit"`       // Max inbound message size in bytes
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // Write deadline for sends
	PingInterval    time.Duration `yaml:"ping_interval"`    // How often the server pings each client
	PongTimeout     time.Duration `yaml:"pong_timeout"`     // Max time without a pong before the read fails
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Graceful shutdown deadline
}

// SessionConfig holds room and client limits.
type SessionConfig struct {
	MaxRoomIDLength   int `yaml:"max_room_id_length"`
	MaxUsernameLength int `yaml:"max_username_length"`
	MaxChatLength     int `yaml:"max_chat_length"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
