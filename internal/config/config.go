package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/muhammadolammi/resumeanalyzer/internal/render"
	"github.com/muhammadolammi/resumeanalyzer/internal/storage"
)

type ConfigOption struct {
	Key     string
	Default any
	Comment string
	// Env lists extra environment variables read for this key, on top of
	// the RESUMEANALYZER_ prefixed one.
	Env []string
}

// GetConfigOptions returns every known option with its default and meaning.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "gemini.api_key", Default: "", Comment: "Gemini API key used by the analysis agent", Env: []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}},
		{Key: "gemini.model", Default: "gemini-2.5-pro", Comment: "Gemini model name"},

		{Key: "http_addr", Default: ":8080", Comment: "HTTP listen address for serve"},
		{Key: "upload.max_size", Default: "10 MB", Comment: "Largest accepted resume upload (e.g. 512 kB, 10 MB)"},
		{Key: "upload.accept", Default: []string{"application/pdf"}, Comment: "MIME types accepted for analysis"},
		{Key: "analysis.timeout", Default: "2m", Comment: "Upper bound for one analysis call"},

		{Key: "render.engine", Default: render.EnginePipeline, Comment: "HTML renderer: pipeline or goldmark"},
		{Key: "render.sanitize", Default: false, Comment: "Sanitize rendered HTML before it is served"},

		{Key: "r2.account_id", Default: "", Comment: "Cloudflare R2 account for analyze --r2-key", Env: []string{"R2_ACCOUNT_ID"}},
		{Key: "r2.bucket", Default: "", Comment: "R2 bucket holding resumes", Env: []string{"R2_BUCKET"}},
		{Key: "r2.access_key", Default: "", Comment: "R2 access key id", Env: []string{"R2_ACCESS_KEY"}},
		{Key: "r2.secret_key", Default: "", Comment: "R2 secret access key", Env: []string{"R2_SECRET_KEY"}},

		{Key: "rabbitmq.url", Default: "", Comment: "RabbitMQ URL for status updates; empty disables publishing", Env: []string{"RABBITMQ_URL"}},
		{Key: "rabbitmq.exchange", Default: "analysis_updates", Comment: "Topic exchange status updates are published to"},
		{Key: "worker.queue", Default: "analysis_jobs", Comment: "Durable queue the worker consumes analysis jobs from"},
		{Key: "worker.concurrency", Default: 2, Comment: "Number of worker consumers"},

		{Key: "log.level", Default: "info", Comment: "Log level: debug, info, warn, error"},
		{Key: "log.format", Default: "text", Comment: "Log format: text or json"},
	}
}

func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// A .env file in the working directory is loaded into the environment first.
func Load(v *viper.Viper) error {
	_ = godotenv.Load()

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "resumeanalyzer"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "resumeanalyzer"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("resumeanalyzer")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, o := range GetConfigOptions() {
		if len(o.Env) == 0 {
			continue
		}
		envs := append([]string{"RESUMEANALYZER_" + strings.ToUpper(strings.ReplaceAll(o.Key, ".", "_"))}, o.Env...)
		if err := v.BindEnv(append([]string{o.Key}, envs...)...); err != nil {
			return err
		}
	}

	// comma separated env override for upload.accept
	if s := strings.TrimSpace(v.GetString("upload.accept")); s != "" && strings.Contains(s, ",") {
		v.Set("upload.accept", splitList(s))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Validate reports every problem in the configuration at once.
func Validate(v *viper.Viper) error {
	var errs []error

	if strings.TrimSpace(v.GetString("gemini.model")) == "" {
		errs = append(errs, errors.New("gemini.model is required"))
	}
	if strings.TrimSpace(v.GetString("http_addr")) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if _, err := MaxUpload(v); err != nil {
		errs = append(errs, err)
	}
	if len(v.GetStringSlice("upload.accept")) == 0 {
		errs = append(errs, errors.New("upload.accept must list at least one MIME type"))
	}
	if d, err := time.ParseDuration(v.GetString("analysis.timeout")); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("analysis.timeout must be a positive duration, got %q", v.GetString("analysis.timeout")))
	}
	if engine := v.GetString("render.engine"); !slices.Contains(render.Engines(), strings.ToLower(strings.TrimSpace(engine))) {
		errs = append(errs, fmt.Errorf("render.engine must be one of %s, got %q", strings.Join(render.Engines(), ", "), engine))
	}
	if _, err := logrus.ParseLevel(v.GetString("log.level")); err != nil {
		errs = append(errs, fmt.Errorf("log.level is invalid: %q", v.GetString("log.level")))
	}
	switch strings.ToLower(v.GetString("log.format")) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", v.GetString("log.format")))
	}
	if err := R2(v).Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(v.GetString("rabbitmq.url")) != "" && strings.TrimSpace(v.GetString("rabbitmq.exchange")) == "" {
		errs = append(errs, errors.New("rabbitmq.exchange is required when rabbitmq.url is set"))
	}
	if v.GetInt("worker.concurrency") <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", v.GetInt("worker.concurrency")))
	}
	if strings.TrimSpace(v.GetString("worker.queue")) == "" {
		errs = append(errs, errors.New("worker.queue is required"))
	}

	return errors.Join(errs...)
}

// RequireAPIKey returns the Gemini API key or an error when it is missing.
func RequireAPIKey(v *viper.Viper) (string, error) {
	key := strings.TrimSpace(v.GetString("gemini.api_key"))
	if key == "" {
		return "", errors.New("empty GOOGLE_API_KEY in env (or gemini.api_key in config)")
	}
	return key, nil
}

// MaxUpload parses upload.max_size into bytes.
func MaxUpload(v *viper.Viper) (int64, error) {
	raw := v.GetString("upload.max_size")
	n, err := humanize.ParseBytes(raw)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("upload.max_size must be a positive size, got %q", raw)
	}
	return int64(n), nil
}

// Timeout returns analysis.timeout, zero when unparseable.
func Timeout(v *viper.Viper) time.Duration {
	d, _ := time.ParseDuration(v.GetString("analysis.timeout"))
	return d
}

func R2(v *viper.Viper) storage.R2Config {
	return storage.R2Config{
		AccountID: v.GetString("r2.account_id"),
		Bucket:    v.GetString("r2.bucket"),
		AccessKey: v.GetString("r2.access_key"),
		SecretKey: v.GetString("r2.secret_key"),
	}
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "resumeanalyzer", "config.toml")
}
