package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadConfiguration(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "mopad.toml")
	contents := `
server_url = "https://mopad.example.com"
refresh_cron = "0 * * * *"

[persistence]
type = "buntdb"
dsn = "/tmp/mopad-state.db"

[scheduler]
start_epoch = 1600000000
`
	if err := os.WriteFile(configFile, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadConfiguration(configFile, GetFlagSet())
	assert.NoError(t, err)
	assert.Equal(t, "https://mopad.example.com", cfg.ServerURL)
	assert.Equal(t, "0 * * * *", cfg.RefreshCron)
	assert.Equal(t, "buntdb", cfg.PersistenceConfig.Type)
	assert.Equal(t, int64(1600000000), cfg.SchedulerConfig.StartEpoch)

	// defaults fill what the file leaves out
	assert.Equal(t, 10, cfg.ReconnectSecs)
	assert.Equal(t, 60, cfg.ClockTickSecs)
	assert.Equal(t, 3, cfg.SchedulerConfig.DaysToShow)
	assert.Equal(t, 15, cfg.SchedulerConfig.SlotMinutes)
	assert.InDelta(t, 1.1, cfg.SchedulerConfig.PixelsPerMinute, 0.0001)
}
