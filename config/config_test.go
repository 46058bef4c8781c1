package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nathoo/heartweek/types"
)

func env(vars map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heartweek.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	r := cfg.Rules()
	assert.Equal(t, types.Monday, r.StartDay)
	assert.Equal(t, 360, r.StartTime)
	assert.Equal(t, 1200, r.Sunset)
	assert.Equal(t, 600, r.OversleepTime)
	assert.Equal(t, 12, r.InventorySlots)
	assert.Equal(t, 9, r.MaxStack)
	assert.Equal(t, 130, r.LuckCap)
	assert.Equal(t, 200, r.LuckDenominator)
	assert.Equal(t, 25, r.BoostCap)
	assert.Equal(t, 30, r.BoostDivisor)
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	path := writeFile(t, `
week:
  start_day: Wednesday
  start_time: "07:30"
  dawn: 300
slots:
  inventory: 20
storage:
  driver: sqlite
  path: /tmp/hw.db
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Weekday(types.Wednesday), cfg.Week.StartDay)
	assert.Equal(t, TimeOfDay(450), cfg.Week.StartTime)
	assert.Equal(t, TimeOfDay(300), cfg.Week.Dawn)
	assert.Equal(t, 20, cfg.Slots.Inventory)
	assert.Equal(t, 24, cfg.Slots.Storage, "unset keys keep defaults")
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "week:\n  start_time: \"25:00\"\n"))
	assert.ErrorContains(t, err, "out of range")

	_, err = Load(writeFile(t, "week:\n  start_day: Someday\n"))
	assert.ErrorContains(t, err, "unknown day")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"HEARTWEEK_SEED":           "42",
		"HEARTWEEK_START_KOIN":     " 250 ",
		"HEARTWEEK_START_DAY":      "fri",
		"HEARTWEEK_START_TIME":     "08:15",
		"HEARTWEEK_STORAGE_DRIVER": "sqlite",
		"HEARTWEEK_MYTHEGG_CHANCE": "0.5",
		"HEARTWEEK_LOG_LEVEL":      "",
		"UNRELATED":                "x",
	}))
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 250, cfg.Week.StartKoin)
	assert.Equal(t, Weekday(types.Friday), cfg.Week.StartDay)
	assert.Equal(t, TimeOfDay(495), cfg.Week.StartTime)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.InDelta(t, 0.5, cfg.Luck.MytheggChancePerHeart, 1e-9)
	assert.Equal(t, "info", cfg.Log.Level, "empty values are ignored")
}

func TestApplyEnv_BadValue(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{"HEARTWEEK_START_KOIN": "lots"}))
	assert.ErrorContains(t, err, "HEARTWEEK_START_KOIN")
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Week.Dawn = 1300
	cfg.Slots.Shop = 0
	cfg.Boost.Cap = 30
	cfg.Storage.Driver = "redis"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"dawn must be before", "slots.shop", "boost.cap", `"redis"`, `"xml"`} {
		assert.Contains(t, msg, want)
	}
}

func TestTimeOfDay_RoundTrip(t *testing.T) {
	out, err := yaml.Marshal(Default().Week)
	require.NoError(t, err)
	assert.Contains(t, string(out), `start_time: "06:00"`)
	assert.Contains(t, string(out), "start_day: Monday")

	var w Week
	require.NoError(t, yaml.Unmarshal(out, &w))
	assert.Equal(t, Default().Week, w)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Log{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "json handler expected, got %q", out)
	assert.Contains(t, out, `"k":1`)
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "warning", "error", ""} {
		_, err := ParseLevel(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
