package configs

import (
	"errors"
	"os"
	"strings"

	"github.com/kkyr/fig"
	"go.uber.org/zap"
)

type DB struct {
	Host               string `validate:"required"`
	Port               int    `default:"5432"`
	User               string `default:"postgres"`
	Password           string `validate:"required"`
	Database           string `default:"postgres"`
	MaxIdleConnections int    `default:"10"`
	MaxOpenConnections int    `default:"10"`
}

type Server struct {
	Port int `default:"8080"`
}

// Stats holds the tunables of the statistics and BAC engine.
type Stats struct {
	SessionGapHours  int     `default:"4"`
	ClusterPrecision int     `default:"4"`
	LookbackHours    int     `default:"24"`
	LegalLimitMgL    float64 `default:"500"`
	CacheTTLMinutes  int     `default:"5"`
}

type Geocode struct {
	Enabled bool   `default:"true"`
	BaseURL string `default:"https://nominatim.openstreetmap.org"`
}

type Integrations struct {
	Drink []string `default:"untappd_web"`
}

type Config struct {
	DB           DB
	Server       Server
	Stats        Stats
	Geocode      Geocode
	Integrations Integrations
}

const envPrefix = "SIPGARGOYLE" // env prefix for env vars

var ErrConfiguration = errors.New("configuration error")

func GetConfig(configFileName string, logger *zap.Logger) (*Config, error) {
	config := Config{}
	homeDir, _ := os.UserHomeDir()

	logger.Info("Loading config", zap.String("file", configFileName))

	err := fig.Load(&config, fig.File(configFileName), fig.Dirs(".", homeDir), fig.UseEnv(envPrefix))
	if err != nil {
		if strings.Contains(err.Error(), "file not found") {
			logger.Warn("Could not find config file", zap.String("file", configFileName))

			err = fig.Load(&config, fig.IgnoreFile(), fig.UseEnv(envPrefix))
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	return &config, nil
}
