package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults for the application account. They match what the database
// container has always provisioned when nothing is configured.
const (
	DefaultDatabase    = "vivbliss"
	DefaultAppUsername = "vivbliss_app"
	DefaultAppPassword = "vivbliss_secret"
)

// Config is the root configuration for mongo-init.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	ServiceName  string `mapstructure:"service_name"`
	LogLevel     string `mapstructure:"log_level"`
}

type BootstrapConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// MongoConfig holds both the administrative connection and the application
// account it provisions.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	RootUsername   string        `mapstructure:"root_username"`
	RootPassword   string        `mapstructure:"root_password"`
	AuthSource     string        `mapstructure:"auth_source"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AppName        string        `mapstructure:"app_name"`

	Database    string `mapstructure:"database"`
	AppUsername string `mapstructure:"app_username"`
	AppPassword string `mapstructure:"app_password"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// envBindings maps config keys to the unprefixed variable names used by the
// database container and the rest of the application stack.
var envBindings = map[string]string{
	"mongo.database":      "MONGO_DB",
	"mongo.app_username":  "MONGO_APP_USERNAME",
	"mongo.app_password":  "MONGO_APP_PASSWORD",
	"mongo.uri":           "MONGO_URI",
	"mongo.root_username": "MONGO_INITDB_ROOT_USERNAME",
	"mongo.root_password": "MONGO_INITDB_ROOT_PASSWORD",
	"redis.url":           "REDIS_URL",
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables. Every key can be set with the MONGO_INIT_ prefix
// (e.g. MONGO_INIT_SERVER_PORT); the keys in envBindings also answer to
// their conventional names (MONGO_DB, MONGO_URI, ...). Empty variables are
// treated as unset.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MONGO_INIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s to %s: %w", key, env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "mongo-init")
	v.SetDefault("telemetry.log_level", "info")

	v.SetDefault("bootstrap.timeout", time.Minute)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.root_username", "")
	v.SetDefault("mongo.root_password", "")
	v.SetDefault("mongo.auth_source", "admin")
	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("mongo.app_name", "mongo-init")

	v.SetDefault("mongo.database", DefaultDatabase)
	v.SetDefault("mongo.app_username", DefaultAppUsername)
	v.SetDefault("mongo.app_password", DefaultAppPassword)

	v.SetDefault("redis.url", "")
}
