package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

var managedKeys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "CLEAR_CONFIRM_TOKEN",
	"STORAGE_BACKEND", "LOCAL_SNAPSHOT_PATH", "FEED_LIMIT",
	"MONGODB_URI", "MONGODB_DB_NAME",
	"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_BASE_URL", "WHATSAPP_API_VERSION", "WHATSAPP_REPORT_TO",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
	"REFRESH_CRON", "DAILY_REPORT_CRON", "TIMEZONE",
}

// clearEnv unsets every key for the duration of the test. t.Setenv records
// the value to restore; godotenv skips keys that exist even when empty.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "DELETE-ALL", cfg.Server.ClearConfirm)
	assert.Equal(t, models.BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "data/milktrack.json", cfg.Storage.SnapshotPath)
	assert.Equal(t, 50, cfg.Storage.FeedLimit)
	assert.Equal(t, "milktrack", cfg.MongoDB.DBName)
	assert.Equal(t, "@every 1m", cfg.Reporting.RefreshSchedule)
	assert.Equal(t, "0 20 * * *", cfg.Reporting.DailySchedule)
	assert.False(t, cfg.WhatsAppEnabled())
	assert.False(t, cfg.SheetsEnabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	content := "STORAGE_BACKEND=remote\nMONGODB_URI=mongodb://localhost:27017\nFEED_LIMIT=20\nTIMEZONE=Africa/Nairobi\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, models.BackendRemote, cfg.Storage.Backend)
	assert.Equal(t, 20, cfg.Storage.FeedLimit)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Africa/Nairobi", loc.String())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORAGE_BACKEND": "sqlite"}},
		{name: "remote without uri", env: map[string]string{"STORAGE_BACKEND": "remote"}},
		{name: "feed limit not a number", env: map[string]string{"FEED_LIMIT": "many"}},
		{name: "feed limit zero", env: map[string]string{"FEED_LIMIT": "0"}},
		{name: "bad timezone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{name: "half sheets config", env: map[string]string{"GOOGLE_SHEET_DATABASE_ID": "abc"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
		})
	}
}
