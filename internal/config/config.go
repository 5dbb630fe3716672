package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type VideoConfig struct {
	FPS         int `mapstructure:"fps"`
	FrameBytes  int `mapstructure:"frame_bytes"`
	PacketBytes int `mapstructure:"packet_bytes"`
}

type StatsConfig struct {
	Workers        int           `mapstructure:"workers"`
	ExportInterval time.Duration `mapstructure:"export_interval"`
}

type Config struct {
	Mode       string      `mapstructure:"mode"`
	Port       int         `mapstructure:"port"`
	LogLevel   string      `mapstructure:"log_level"`
	ICEServers []string    `mapstructure:"ice_servers"`
	Video      VideoConfig `mapstructure:"video"`
	Stats      StatsConfig `mapstructure:"stats"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults when
// the file is missing. LOAD_SERVER_* environment variables override file
// values, with dots in keys mapped to underscores.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("video.fps", 30)
	v.SetDefault("video.frame_bytes", 37500)
	v.SetDefault("video.packet_bytes", 1200)
	v.SetDefault("stats.workers", 8)
	v.SetDefault("stats.export_interval", "15s")

	v.SetEnvPrefix("LOAD_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
