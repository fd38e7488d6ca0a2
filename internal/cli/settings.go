package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/client"
)

const (
	defaultServer            = "http://localhost:8080"
	defaultSecondaryCurrency = "SGD"
)

// Settings are the dashctl options shared by every command. Flags win over
// DASHCTL_* environment variables, which win over the settings file.
type Settings struct {
	Server            string `mapstructure:"server"`
	Token             string `mapstructure:"token"`
	SecondaryCurrency string `mapstructure:"secondary-currency"`
	ChunkThreshold    int    `mapstructure:"chunk-threshold"`
	Verbose           bool   `mapstructure:"verbose"`
}

var settingKeys = []string{"server", "token", "secondary-currency", "chunk-threshold", "verbose"}

func loadSettings(cmd *cobra.Command) (Settings, error) {
	v := viper.New()
	v.SetDefault("server", defaultServer)
	v.SetDefault("token", "")
	v.SetDefault("secondary-currency", defaultSecondaryCurrency)
	v.SetDefault("chunk-threshold", client.DefaultChunkThreshold)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("DASHCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := cmd.Root().PersistentFlags()
	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading settings file: %w", err)
		}
	}

	for _, key := range settingKeys {
		f := flags.Lookup(key)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return Settings{}, fmt.Errorf("binding flag %s: %w", key, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	s.Server = strings.TrimRight(s.Server, "/")
	s.SecondaryCurrency = strings.ToUpper(strings.TrimSpace(s.SecondaryCurrency))
	if s.SecondaryCurrency == "" {
		s.SecondaryCurrency = defaultSecondaryCurrency
	}
	if s.ChunkThreshold <= 0 {
		s.ChunkThreshold = client.DefaultChunkThreshold
	}
	return s, nil
}
