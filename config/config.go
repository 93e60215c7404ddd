// Package config loads server and client settings from flags, environment,
// an optional config file and .env.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/imgcrop/preview"
	"github.com/imgcrop/transcoder"
)

const envPrefix = "IMGCROP"

// Transcoder kinds.
const (
	TranscoderLocal  = "local"
	TranscoderRemote = "remote"
)

// Server holds everything imgcrop-server needs at startup.
type Server struct {
	Addr          string
	LogLevel      zerolog.Level
	StoreURL      string
	MaxUploadSize int64
	Policy        transcoder.Policy
	Transcoder    string
	S3            S3
	Remote        Remote
}

// S3 configures the local transcoder's object storage.
type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
	ACL       string
}

// Remote configures the remote transcoder.
type Remote struct {
	Endpoint string
	APIKey   string
}

// Client holds settings of the imgcrop CLI.
type Client struct {
	APIURL       string
	LogLevel     zerolog.Level
	MaxDimension int
	MaxFileSize  int64
}

// New returns a viper instance with defaults, env bindings and, when fs is
// not nil, flag bindings. .env and config.{yaml,toml,json} in the working
// directory are read when present.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("error binding flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("upload.max_size", preview.DefaultMaxFileSize)
	v.SetDefault("variant.policy", string(transcoder.QualityPolicy))
	v.SetDefault("transcoder.kind", TranscoderLocal)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.acl", "public-read")
	v.SetDefault("api.url", "http://localhost:8080")
	v.SetDefault("preview.max_dimension", preview.DefaultMaxDimension)
	v.SetDefault("preview.max_file_size", preview.DefaultMaxFileSize)
}

// bindEnv adds the unprefixed names used by existing deployments.
func bindEnv(v *viper.Viper) error {
	aliases := map[string][]string{
		"store.url":       {"IMGCROP_STORE_URL", "STORE_URL", "MONGODB_URI", "DATABASE_URL"},
		"variant.policy":  {"IMGCROP_VARIANT_POLICY", "VARIANT_POLICY"},
		"server.addr":     {"IMGCROP_SERVER_ADDR", "ADDR"},
		"s3.bucket":       {"IMGCROP_S3_BUCKET", "S3_BUCKET"},
		"s3.region":       {"IMGCROP_S3_REGION", "AWS_REGION"},
		"remote.endpoint": {"IMGCROP_REMOTE_ENDPOINT", "TRANSCODER_URL"},
		"remote.api_key":  {"IMGCROP_REMOTE_API_KEY", "TRANSCODER_API_KEY"},
		"api.url":         {"IMGCROP_API_URL", "API_URL"},
	}
	for key, names := range aliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}
	return nil
}

// LoadServer reads and validates server settings. Missing required values
// are reported together.
func LoadServer(v *viper.Viper) (Server, error) {
	policy, err := transcoder.ParsePolicy(v.GetString("variant.policy"))
	if err != nil {
		return Server{}, err
	}

	cfg := Server{
		Addr:          v.GetString("server.addr"),
		LogLevel:      level(v.GetString("log.level")),
		StoreURL:      v.GetString("store.url"),
		MaxUploadSize: v.GetInt64("upload.max_size"),
		Policy:        policy,
		Transcoder:    strings.ToLower(v.GetString("transcoder.kind")),
		S3: S3{
			Bucket:    v.GetString("s3.bucket"),
			Region:    v.GetString("s3.region"),
			Endpoint:  v.GetString("s3.endpoint"),
			PublicURL: v.GetString("s3.public_url"),
			ACL:       v.GetString("s3.acl"),
		},
		Remote: Remote{
			Endpoint: v.GetString("remote.endpoint"),
			APIKey:   v.GetString("remote.api_key"),
		},
	}

	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	require("store.url", cfg.StoreURL)
	switch cfg.Transcoder {
	case TranscoderLocal:
		require("s3.bucket", cfg.S3.Bucket)
	case TranscoderRemote:
		require("remote.endpoint", cfg.Remote.Endpoint)
		require("remote.api_key", cfg.Remote.APIKey)
	default:
		return Server{}, fmt.Errorf("unknown transcoder kind %q", cfg.Transcoder)
	}
	if len(missing) > 0 {
		return Server{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if cfg.MaxUploadSize <= 0 {
		return Server{}, fmt.Errorf("upload.max_size must be positive, got %d", cfg.MaxUploadSize)
	}
	return cfg, nil
}

// LoadClient reads CLI settings.
func LoadClient(v *viper.Viper) (Client, error) {
	cfg := Client{
		APIURL:       strings.TrimRight(v.GetString("api.url"), "/"),
		LogLevel:     level(v.GetString("log.level")),
		MaxDimension: v.GetInt("preview.max_dimension"),
		MaxFileSize:  v.GetInt64("preview.max_file_size"),
	}
	if cfg.APIURL == "" {
		return Client{}, errors.New("missing required configuration: api.url")
	}
	return cfg, nil
}

func level(s string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return l
}
