package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keycast/internal/keysym"
	"keycast/internal/layout"
	"keycast/internal/logging"
	"keycast/internal/tracker"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Version, cfg.Version)
	assert.Equal(t, 3, cfg.History.Capacity)
	assert.Equal(t, time.Second, cfg.FadeDuration())
	assert.Equal(t, 17*time.Millisecond, cfg.TickInterval())
	assert.True(t, cfg.Notify.Enabled)
}

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", ConfigPath())

	t.Setenv(EnvConfig, "")
	assert.Equal(t, "config.toml", filepath.Base(ConfigPath()))
	assert.Equal(t, "keycast", filepath.Base(filepath.Dir(ConfigPath())))
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFormats(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"config.toml", "[history]\ncapacity = 5\n\n[overlay]\njustify = \"left\"\n"},
		{"config.json", `{"history": {"capacity": 5}, "overlay": {"justify": "left"}}`},
		{"config.yaml", "history:\n  capacity: 5\noverlay:\n  justify: left\n"},
		{"config.conf", "[history]\ncapacity = 5\n[overlay]\njustify = \"left\"\n"},
		{"settings", `{"history": {"capacity": 5}, "overlay": {"justify": "left"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tc.name, tc.content))
			require.NoError(t, err)
			assert.Equal(t, 5, cfg.History.Capacity)
			assert.Equal(t, "left", cfg.Overlay.Justify)
			// Untouched fields keep their defaults.
			assert.Equal(t, 1000, cfg.Fade.DurationMs)
			assert.Equal(t, "F6", cfg.Input.ToggleKey)
			// Unversioned files are stamped with the current version.
			assert.Equal(t, Version, cfg.Version)
		})
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", "history = [[["))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config", "{[unclosed"))
	assert.Error(t, err)
}

func TestLoadRejectsFutureVersion(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", "version = 7\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "version")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvHistoryCapacity, "6")
	t.Setenv(EnvFadeMs, "250")
	t.Setenv(EnvJustify, "center")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(writeFile(t, "config.toml", "[history]\ncapacity = 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.History.Capacity)
	assert.Equal(t, 250, cfg.Fade.DurationMs)
	assert.Equal(t, "center", cfg.Overlay.Justify)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverrideMalformed(t *testing.T) {
	t.Setenv(EnvHistoryCapacity, "many")
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvHistoryCapacity)
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"capacity zero", func(c *Config) { c.History.Capacity = 0 }, "history.capacity"},
		{"capacity nine", func(c *Config) { c.History.Capacity = 9 }, "history.capacity"},
		{"fade zero", func(c *Config) { c.Fade.DurationMs = 0 }, "fade.duration_ms"},
		{"tick zero", func(c *Config) { c.Fade.TickMs = 0 }, "fade.tick_ms"},
		{"justify", func(c *Config) { c.Overlay.Justify = "middle" }, "overlay.justify"},
		{"negative padding", func(c *Config) { c.Overlay.Padding = -1 }, "overlay.padding"},
		{"zero glyph size", func(c *Config) { c.Overlay.GlyphSize = 0 }, "overlay.glyph_size"},
		{"sampling", func(c *Config) { c.Input.ModifierSampling = "always" }, "input.modifier_sampling"},
		{"toggle key", func(c *Config) { c.Input.ToggleKey = "Hyper" }, "input.toggle_key"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
		{"file without path", func(c *Config) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}, "logging.file_path"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestValidationCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.History.Capacity = 0
	cfg.Overlay.Justify = "up"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: history.capacity: value must be between 1 and 8")
	assert.Contains(t, err.Error(), "; config: overlay.justify:")
}

func TestMissingDeviceIsWarning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Device = filepath.Join(t.TempDir(), "event99")
	assert.NoError(t, cfg.Validate())

	all := ValidateConfigAll(cfg)
	require.Len(t, all.Warnings(), 1)
	assert.Equal(t, "input.device", all.Warnings()[0].Field)
	assert.Empty(t, all.Errors())
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Overlay.Justify = "center"
	cfg.Input.ModifierSampling = "press"

	p, err := cfg.LayoutParams()
	require.NoError(t, err)
	assert.Equal(t, layout.JustifyCenter, p.Justify)
	assert.Equal(t, float32(12), p.Padding)
	assert.Equal(t, float32(16), p.ComboSpacing)
	assert.Equal(t, float32(48), p.OffsetBottom)
	assert.Zero(t, p.ViewportW)

	tc, err := cfg.TrackerConfig()
	require.NoError(t, err)
	assert.Equal(t, tracker.SampleAtPress, tc.Sampling)
	assert.Equal(t, keysym.F6, tc.ToggleKey)

	cfg.Input.ToggleKey = "none"
	key, err := cfg.ToggleKey()
	require.NoError(t, err)
	assert.Zero(t, key)

	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "json"
	lc, err := cfg.LoggerConfig()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelWarn, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
	assert.Equal(t, int64(10), lc.MaxSize)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	for _, ext := range []string{"toml", "json", "yaml"} {
		t.Run(ext, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.History.Capacity = 8
			cfg.Fade.DurationMs = 400
			cfg.Overlay.Justify = "left"
			cfg.Input.ToggleKey = "F12"
			cfg.Notify.Enabled = false

			path := filepath.Join(t.TempDir(), "nested", "config."+ext)
			require.NoError(t, SaveConfig(cfg, path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := Encode(DefaultConfig(), "ini")
	assert.Error(t, err)
}

func TestSchemaAcceptsDefaults(t *testing.T) {
	for _, format := range []string{"toml", "json", "yaml"} {
		data, err := Encode(DefaultConfig(), format)
		require.NoError(t, err)
		assert.NoError(t, ValidateDocument(data, format), format)
	}
	assert.NoError(t, ValidateDocument(nil, "toml"))
}

func TestSchemaRejects(t *testing.T) {
	cases := []struct {
		name    string
		content string
		field   string
	}{
		{"unknown section", "[colors]\nbg = \"red\"\n", "(root)"},
		{"unknown key", "[history]\nsize = 3\n", "history"},
		{"wrong type", "[history]\ncapacity = \"three\"\n", "history.capacity"},
		{"out of range", "[history]\ncapacity = 12\n", "history.capacity"},
		{"enum", "[overlay]\njustify = \"top\"\n", "overlay.justify"},
		{"float for int", "[fade]\ntick_ms = 16.5\n", "fade.tick_ms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDocument([]byte(tc.content), "toml")
			require.Error(t, err)
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), err.Error())
			fields := make([]string, 0, len(verrs))
			for _, v := range verrs {
				fields = append(fields, v.Field)
			}
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestValidateFile(t *testing.T) {
	assert.NoError(t, ValidateFile(writeFile(t, "config.yaml", "fade:\n  duration_ms: 500\n")))
	assert.Error(t, ValidateFile(writeFile(t, "config.json", `{"fade": {"duration": 500}}`)))
	assert.Error(t, ValidateFile(filepath.Join(t.TempDir(), "absent.toml")))
}

func TestMigrateConfigBacksUp(t *testing.T) {
	path := writeFile(t, "config.toml", "[history]\ncapacity = 4\n")
	cfg, err := loadConfigFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Version)

	result, err := MigrateConfig(cfg, path)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.FromVersion)
	assert.Equal(t, Version, result.ToVersion)
	assert.Equal(t, Version, cfg.Version)
	require.NotEmpty(t, result.Backup)
	assert.True(t, strings.HasPrefix(filepath.Base(result.Backup), "config.toml.backup-"))
	assert.FileExists(t, result.Backup)

	again, err := MigrateConfig(cfg, path)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	cfg, created, err = LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, DefaultConfig(), cfg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoaderWatchReloads(t *testing.T) {
	path := writeFile(t, "config.toml", "[history]\ncapacity = 2\n")
	l := NewLoader(path, quietLogger())
	defer l.Close()

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.History.Capacity)

	changes := make(chan [2]int, 4)
	l.OnChange(func(old, new *Config) {
		changes <- [2]int{old.History.Capacity, new.History.Capacity}
	})
	require.NoError(t, l.Watch())

	require.NoError(t, os.WriteFile(path, []byte("[history]\ncapacity = 7\n"), 0600))

	select {
	case c := <-changes:
		assert.Equal(t, [2]int{2, 7}, c)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
	assert.Equal(t, 7, l.Config().History.Capacity)
}

func TestLoaderWatchKeepsConfigOnInvalidWrite(t *testing.T) {
	path := writeFile(t, "config.toml", "[history]\ncapacity = 2\n")
	l := NewLoader(path, quietLogger())
	defer l.Close()

	_, err := l.Load()
	require.NoError(t, err)
	require.NoError(t, l.Watch())

	require.NoError(t, os.WriteFile(path, []byte("[history]\ncapacity = 0\n"), 0600))

	select {
	case err := <-l.Errors():
		assert.Contains(t, err.Error(), "history.capacity")
	case <-time.After(5 * time.Second):
		t.Fatal("no error after invalid write")
	}
	assert.Equal(t, 2, l.Config().History.Capacity)
}

func TestLoaderCloseWithoutWatch(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "config.toml"), quietLogger())
	assert.NoError(t, l.Close())
}
