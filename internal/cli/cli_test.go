package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokyo-gender/rosterkit/internal/gender"
	"github.com/tokyo-gender/rosterkit/internal/model"
)

func TestLoadConfig_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v, model.DefaultConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.Identity.Threshold)
	assert.Equal(t, 3, cfg.Identity.MinFuzzyRunes)
	assert.Equal(t, model.DefaultOutputFile, cfg.Output.Path)
	assert.True(t, cfg.Output.BOM)
	assert.Equal(t, 30*time.Minute, cfg.Cache.MemoryTTL)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ROSTER_IDENTITY_THRESHOLD", "0.9")
	t.Setenv("ROSTER_OUTPUT_PATH", "/tmp/out.csv")

	v := viper.New()
	setDefaults(v, model.DefaultConfig())
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Identity.Threshold)
	assert.Equal(t, "/tmp/out.csv", cfg.Output.Path)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	v := viper.New()
	setDefaults(v, model.DefaultConfig())
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.Cache.DiskTTL)
	assert.Equal(t, "Merged", cfg.Extract.CanonicalColumn)

	// Never overwrites
	assert.Error(t, writeDefaultConfig(path))
}

func TestLoadConfig_Invalid(t *testing.T) {
	v := viper.New()
	setDefaults(v, model.DefaultConfig())
	v.Set("identity.threshold", 1.5)
	_, err := loadConfig(v)
	assert.ErrorContains(t, err, "identity.threshold")

	v.Set("identity.threshold", 0.85)
	v.Set("concurrency.workers", 0)
	_, err = loadConfig(v)
	assert.ErrorContains(t, err, "concurrency.workers")

	v.Set("concurrency.workers", 2)
	v.Set("identity.min_fuzzy_runes", 2)
	_, err = loadConfig(v)
	assert.ErrorContains(t, err, "identity.min_fuzzy_runes")

	v.Set("identity.min_fuzzy_runes", 4)
	v.Set("rate_limiting.partitions", map[string]any{"TokyoShi/1930": map[string]any{"reads_per_second": 0}})
	_, err = loadConfig(v)
	assert.ErrorContains(t, err, "rate_limiting.partitions")
}

func TestLoadConfig_PartitionRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limiting:\n"+
		"  reads_per_second: 20\n"+
		"  partitions:\n"+
		"    TokyoFu/1925:\n"+
		"      reads_per_second: 0.5\n"+
		"      burst_size: 1\n"), 0644))

	v := viper.New()
	setDefaults(v, model.DefaultConfig())
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 20.0, cfg.RateLimiting.ReadsPerSecond)
	require.Len(t, cfg.RateLimiting.Partitions, 1)
	for _, pr := range cfg.RateLimiting.Partitions {
		assert.Equal(t, model.PartitionRate{ReadsPerSecond: 0.5, BurstSize: 1}, pr)
	}
}

func TestWriteClassification(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeClassification(&buf, []string{"花子", "金子", "の"}, gender.Methods))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "IS_NAME")
	assert.Regexp(t, `^花子\s+花子\s+true\s+ok\s+female\s+female$`, lines[1])
	assert.Regexp(t, `^金子\s+金子\s+true\s+ok\s+male\s+male$`, lines[2])
	assert.Regexp(t, `false`, lines[3])
	assert.Regexp(t, `-\s+-$`, lines[3])
}

func TestWriteClassification_SingleMethod(t *testing.T) {
	methods, err := parseMethods("Modern")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeClassification(&buf, []string{"ヨシ"}, methods))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `REASON\s+MODERN$`, lines[0])
	assert.Regexp(t, `^ヨシ\s+ヨシ\s+true\s+ok\s+female$`, lines[1])
}

func TestParseMethods(t *testing.T) {
	both, err := parseMethods("both")
	require.NoError(t, err)
	assert.Equal(t, gender.Methods, both)

	legacy, err := parseMethods("legacy")
	require.NoError(t, err)
	assert.Equal(t, []gender.Method{gender.Legacy}, legacy)

	_, err = parseMethods("astrology")
	assert.ErrorContains(t, err, "unknown gender method")
}

func TestBuildCommand_EndToEnd(t *testing.T) {
	root := t.TempDir()
	page := `<OCRDATASET><PAGE IMAGENAME="p1.jpg">` +
		`<LINE STRING="総務局" X="900" Y="10"/>` +
		`<LINE STRING="書記山田花子" X="850" Y="10"/>` +
		`</PAGE></OCRDATASET>`
	dir := filepath.Join(root, "TokyoFu", "1935")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Page001.xml"), []byte(page), 0644))

	out := filepath.Join(t.TempDir(), "master.csv")
	viper.Reset()
	defer viper.Reset()
	setDefaults(viper.GetViper(), model.DefaultConfig())
	viper.Set("output.path", out)
	viper.Set("extract.crosswalk", filepath.Join(root, "missing.csv"))
	viper.Set("concurrency.workers", 2)
	noCache = true
	defer func() { noCache = false }()

	require.NoError(t, runBuild(buildCmd, []string{root}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := strings.TrimPrefix(string(data), "\ufeff")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(model.MasterColumns, ","), lines[0])
	assert.Contains(t, lines[2], "書記山田花子")
}
