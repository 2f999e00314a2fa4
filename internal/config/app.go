package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskmem/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"TUSK_RUNTIME_PATH" envDefault:".tuskmem"`

	HTTPAddr string `env:"TUSK_HTTP_ADDR" envDefault:":8080"`

	// MCP tool server: "off", "stdio" or "http"
	MCPTransport string `env:"TUSK_MCP_TRANSPORT" envDefault:"off"`
	MCPAddr      string `env:"TUSK_MCP_ADDR" envDefault:":8081"`

	// Messages kept per conversation window
	WindowSize int `env:"TUSK_WINDOW_SIZE" envDefault:"30"`

	RequestTimeout time.Duration `env:"TUSK_REQUEST_TIMEOUT" envDefault:"15s"`

	LogJSON bool `env:"TUSK_LOG_JSON" envDefault:"false"`
}

func LoadAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c, nil
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := LoadAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "tuskmem.db")
}

func (c AppConfig) GetVectorPath() string {
	return filepath.Join(c.RuntimePath, "vectors")
}

func (c AppConfig) GetHTTPAddr() string {
	return c.HTTPAddr
}

func (c AppConfig) GetWindowSize() int {
	return c.WindowSize
}

func (c AppConfig) GetRequestTimeout() time.Duration {
	return c.RequestTimeout
}
