package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps Load away from the developer's real config and .env files.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Chdir(dir)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	v := viper.New()
	require.NoError(t, Load(v))

	assert.Equal(t, ":8080", v.GetString("http_addr"))
	assert.Equal(t, "gemini-2.5-pro", v.GetString("gemini.model"))
	assert.Equal(t, []string{"application/pdf"}, v.GetStringSlice("upload.accept"))
	assert.Equal(t, "pipeline", v.GetString("render.engine"))
	assert.False(t, v.GetBool("render.sanitize"))
	assert.Equal(t, "analysis_jobs", v.GetString("worker.queue"))
	assert.Equal(t, 2, v.GetInt("worker.concurrency"))
	assert.Equal(t, 2*time.Minute, Timeout(v))
	assert.NoError(t, Validate(v))

	n, err := MaxUpload(v)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), n)
}

func TestLoadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "from-google")
	t.Setenv("RESUMEANALYZER_HTTP_ADDR", ":9090")
	t.Setenv("RESUMEANALYZER_UPLOAD_ACCEPT", "application/pdf, text/plain")
	t.Setenv("R2_BUCKET", "resumes")

	v := viper.New()
	require.NoError(t, Load(v))

	key, err := RequireAPIKey(v)
	require.NoError(t, err)
	assert.Equal(t, "from-google", key)
	assert.Equal(t, ":9090", v.GetString("http_addr"))
	assert.Equal(t, []string{"application/pdf", "text/plain"}, v.GetStringSlice("upload.accept"))
	assert.Equal(t, "resumes", R2(v).Bucket)
}

func TestLoadPrefixedKeyWins(t *testing.T) {
	isolate(t)
	t.Setenv("RESUMEANALYZER_GEMINI_API_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "plain")

	v := viper.New()
	require.NoError(t, Load(v))
	assert.Equal(t, "prefixed", v.GetString("gemini.api_key"))
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	// godotenv does not override variables that are already set
	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "RESUMEANALYZER_GEMINI_API_KEY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	require.NoError(t, os.WriteFile(".env", []byte("GEMINI_API_KEY=from-dotenv\n"), 0o600))

	v := viper.New()
	require.NoError(t, Load(v))
	assert.Equal(t, "from-dotenv", v.GetString("gemini.api_key"))
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(`
http_addr = ":7000"

[render]
engine = "goldmark"
sanitize = true
`), 0o644))

	v := viper.New()
	v.SetConfigFile(p)
	require.NoError(t, Load(v))

	assert.Equal(t, ":7000", v.GetString("http_addr"))
	assert.Equal(t, "goldmark", v.GetString("render.engine"))
	assert.True(t, v.GetBool("render.sanitize"))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, Load(v))
}

func TestValidateInvalid(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("gemini.model", "")
	v.Set("upload.max_size", "lots")
	v.Set("analysis.timeout", "-1s")
	v.Set("render.engine", "pandoc")
	v.Set("log.level", "loud")
	v.Set("log.format", "xml")
	v.Set("r2.account_id", "acc")
	v.Set("rabbitmq.url", "amqp://localhost")
	v.Set("rabbitmq.exchange", "")
	v.Set("worker.concurrency", 0)

	err := Validate(v)
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"gemini.model is required",
		"upload.max_size must be a positive size",
		"analysis.timeout must be a positive duration",
		"render.engine must be one of pipeline, goldmark",
		"log.level is invalid",
		"log.format must be text or json",
		"r2.bucket is required",
		"rabbitmq.exchange is required",
		"worker.concurrency must be positive",
	} {
		assert.True(t, strings.Contains(msg, want), "expected error to contain %q, got %q", want, msg)
	}
}

func TestRequireAPIKeyMissing(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	_, err := RequireAPIKey(v)
	assert.ErrorContains(t, err, "GOOGLE_API_KEY")
}

func TestGetConfigOptionsDocumented(t *testing.T) {
	seen := map[string]bool{}
	for _, o := range GetConfigOptions() {
		assert.NotEmpty(t, o.Comment, o.Key)
		assert.False(t, seen[o.Key], "duplicate key %s", o.Key)
		seen[o.Key] = true
	}
}
