package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/amorlias/storefront/internal/log"
)

type Application struct {
	Env      string `mapstructure:"env"       json:"env"`
	LogPath  string `mapstructure:"log_path"  json:"log_path"`
	StateDir string `mapstructure:"state_dir" json:"state_dir"`
}

type API struct {
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	Timeout int    `mapstructure:"timeout"  json:"timeout"`
}

// Delivery holds the fee policy used when no pincode serviceability
// result is available. The two free-delivery thresholds cover the
// retail and wholesale flows.
type Delivery struct {
	FreeAbove          string `mapstructure:"free_above"           json:"free_above"`
	WholesaleFreeAbove string `mapstructure:"wholesale_free_above" json:"wholesale_free_above"`
	FlatFee            string `mapstructure:"flat_fee"             json:"flat_fee"`
}

type Tax struct {
	GstRate string `mapstructure:"gst_rate" json:"gst_rate"`
}

type Otel struct {
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	API         `mapstructure:"api"         json:"api"`
	Delivery    `mapstructure:"delivery"    json:"delivery"`
	Tax         `mapstructure:"tax"         json:"tax"`
	Otel        `mapstructure:"otel"        json:"otel"`
}

var (
	once   sync.Once
	config *Config
)

func InitConfig(c context.Context, filename string) *Config {
	cfg := Config{}
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		viper.SetConfigName(filename)
		viper.AddConfigPath("./env")
		viper.SetConfigType("yaml")
		viper.AutomaticEnv()

		viper.SetDefault("application.env", "production")
		viper.SetDefault("application.log_path", "/var/log/storefront.log")
		viper.SetDefault("application.state_dir", ".storefront")
		viper.SetDefault("api.timeout", 30)
		viper.SetDefault("delivery.free_above", "499")
		viper.SetDefault("delivery.wholesale_free_above", "1599")
		viper.SetDefault("delivery.flat_fee", "40")
		viper.SetDefault("tax.gst_rate", "0.18")

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := viper.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		err = viper.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger = logger.With().Any(log.KeyConfig, cfg).Logger()
		logger.Info().Msg("unmarshaled config")
	})
	return config
}
