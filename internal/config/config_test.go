package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"BOT_CONFIG_FILE", "BOT_TRANSPORT", "BOT_TOKEN", "LINE_CHANNEL_SECRET", "LINE_CHANNEL_TOKEN", "HTTP_ADDR",
	"STORE_DRIVER", "DATABASE_URL", "MONGO_URI", "MONGO_DATABASE", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT",
	"S3_ACCESS_KEY", "S3_SECRET_KEY", "ASSET_PUBLIC_URL", "THUMBNAIL_URL", "NATS_URL", "BOT_TIMEZONE",
	"LOG_LEVEL", "LOG_FORMAT", "COMMAND_PREFIX", "MAX_ARGUMENT_LENGTH",
}

// clearEnv isolates a test from the environment and from any .env file in
// the working directory.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "token")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "telegram", c.Transport)
	assert.Equal(t, "memory", c.StoreDriver)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "!", c.CommandPrefix)
	assert.Equal(t, 200, c.MaxArgumentLength)
}

func TestLoad_RequiresTokenForTransport(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)

	t.Setenv("BOT_TRANSPORT", "line")
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	_, err = Load()
	assert.Error(t, err, "line needs a channel token too")

	t.Setenv("LINE_CHANNEL_TOKEN", "token")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_RequiresDatabaseURLForPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/bot")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_FilePrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
bot_token = "from-file"
http_addr = ":9000"
max_argument_length = 50
`), 0o600))
	require.NoError(t, os.WriteFile(".env", []byte("HTTP_ADDR=:9100\n"), 0o600))

	t.Setenv("BOT_CONFIG_FILE", path)
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.BotToken)
	assert.Equal(t, ":9100", c.HTTPAddr)
	assert.Equal(t, 50, c.MaxArgumentLength)

	t.Setenv("MAX_ARGUMENT_LENGTH", "80")
	c, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 80, c.MaxArgumentLength)
}

func TestLoad_BadNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("MAX_ARGUMENT_LENGTH", "lots")

	_, err := Load()
	assert.ErrorContains(t, err, "MAX_ARGUMENT_LENGTH")
}

func TestLocation(t *testing.T) {
	c := defaults()
	c.Timezone = "Asia/Jakarta"
	assert.Equal(t, "Asia/Jakarta", c.Location().String())

	c.Timezone = "Nowhere/Void"
	assert.Equal(t, "Local", c.Location().String())
}
