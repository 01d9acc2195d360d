package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Instagram InstagramConfig `mapstructure:"instagram"`
	Download  DownloadConfig  `mapstructure:"download"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Merge     MergeConfig     `mapstructure:"merge"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// TelegramConfig contains bot credentials and delivery settings
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	BotUsername string `mapstructure:"bot_username"`
	// AdminChatID receives operational notices; zero disables them.
	AdminChatID int64 `mapstructure:"admin_chat_id"`
}

// InstagramConfig contains the direct-message bridge settings
type InstagramConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// DownloadConfig contains pipeline settings
type DownloadConfig struct {
	TempDir string `mapstructure:"temp_dir"`
	// PipelineTimeout is the ceiling on total wall time for one request,
	// format negotiation included.
	PipelineTimeout  time.Duration `mapstructure:"pipeline_timeout"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	ChoiceTTL        time.Duration `mapstructure:"choice_ttl"`
	UserAgent        string        `mapstructure:"user_agent"`
}

// ResolverConfig contains settings for the yt-dlp direct-URL resolver
type ResolverConfig struct {
	YTDLPBinary string `mapstructure:"ytdlp_binary"`
	CookieFile  string `mapstructure:"cookie_file"`
}

// MergeConfig contains the ffmpeg merge profile
type MergeConfig struct {
	FFmpegBinary string `mapstructure:"ffmpeg_binary"`
	Preset       string `mapstructure:"preset"`
	AudioBitrate string `mapstructure:"audio_bitrate"`
}

// DatabaseConfig contains persistence settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Instagram: InstagramConfig{
			Enabled:      false,
			PollInterval: time.Minute,
		},
		Download: DownloadConfig{
			TempDir:          "$HOME/.clip-relay/downloads",
			PipelineTimeout:  15 * time.Minute,
			ProgressInterval: 2 * time.Second,
			ChoiceTTL:        10 * time.Minute,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Resolver: ResolverConfig{
			YTDLPBinary: "yt-dlp",
		},
		Merge: MergeConfig{
			FFmpegBinary: "ffmpeg",
			Preset:       "veryfast",
			AudioBitrate: "128k",
		},
		Database: DatabaseConfig{
			Path: "$HOME/.clip-relay/relay.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
