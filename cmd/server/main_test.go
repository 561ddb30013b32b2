package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/config"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/loader"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	sourceFlag, dataDirFlag, logLevelFlag = "", "", "error"
	reportBy, reportOrder, reportJSON = string(survey.DefaultRankMetric), string(survey.DefaultOrder), false
	renderOut, seedFrom, servePort = "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeSurvey writes the built-in survey to dir in the given format.
func writeSurvey(t *testing.T, dir string, format loader.Format) string {
	t.Helper()

	bundle, err := loader.LoadEmbedded()
	require.NoError(t, err)
	data, err := loader.Encode(bundle.ToDocument(), format)
	require.NoError(t, err)

	path := filepath.Join(dir, "survey."+string(format))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeSurvey(t, dir, loader.FormatYAML)
	jsonPath := writeSurvey(t, dir, loader.FormatJSON)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("title: only a title\n"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "yaml", path: yamlPath},
		{name: "json", path: jsonPath},
		{name: "missing buckets", path: broken, wantErr: true},
		{name: "unsupported extension", path: filepath.Join(dir, "survey.txt"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "validate", tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, survey.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.path+": ok (3 buckets)")
		})
	}
}

func TestValidateCommand_RequiresFile(t *testing.T) {
	_, err := execute(t, "validate")
	assert.Error(t, err)
}

func TestReportCommand_Table(t *testing.T) {
	out, err := execute(t, "report", "--source", "embedded")
	require.NoError(t, err)

	assert.Contains(t, out, "Source: embedded")
	assert.Contains(t, out, "BUCKET")
	assert.Contains(t, out, "TOO_BIG")
	assert.Contains(t, out, "Ranking by too_big_pct (desc)")

	lines := strings.Split(out, "\n")
	var ranked []string
	inRanking := false
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == "RANK" {
			inRanking = true
			continue
		}
		if inRanking && len(fields) == 3 {
			ranked = append(ranked, fields[1])
		}
	}
	assert.Equal(t, []string{"105", "110", "120"}, ranked)
}

func TestReportCommand_JSON(t *testing.T) {
	out, err := execute(t, "report", "--json", "--by", "too_big_pct", "--order", "asc")
	require.NoError(t, err)

	var got reportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, loader.EmbeddedSource, got.Source)
	require.Len(t, got.Buckets, 3)
	assert.Equal(t, survey.SizeBucket("105"), got.Buckets[0].Bucket)
	assert.Equal(t, survey.PriorityHigh, got.Buckets[0].Priority)

	require.NotNil(t, got.Ranking)
	assert.Equal(t, survey.Ascending, got.Ranking.Order)
	require.Len(t, got.Ranking.Entries, 3)
	assert.Equal(t, survey.SizeBucket("120"), got.Ranking.Entries[0].Bucket)
	assert.Equal(t, survey.SizeBucket("105"), got.Ranking.Entries[2].Bucket)
}

func TestReportCommand_InvalidFlags(t *testing.T) {
	_, err := execute(t, "report", "--by", "popularity")
	assert.ErrorIs(t, err, survey.ErrValidation)

	_, err = execute(t, "report", "--order", "sideways")
	assert.ErrorIs(t, err, survey.ErrValidation)
}

func TestRenderCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "charts")

	stdout, err := execute(t, "render", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 8 charts to "+out)

	for _, name := range []string{
		"overview.svg",
		"pie-105.svg",
		"pie-110.svg",
		"pie-120.svg",
		"ranking-too_big_pct.svg",
		"ranking-respondents.svg",
	} {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "<svg", name)
	}
}

func TestSeedCommand_ThenServeFromSQLite(t *testing.T) {
	dir := t.TempDir()
	path := writeSurvey(t, dir, loader.FormatYAML)
	dataDir := filepath.Join(dir, "data")

	out, err := execute(t, "seed", "--from", path, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored survey")
	assert.Contains(t, out, "(3 buckets)")

	out, err = execute(t, "report", "--json", "--source", "sqlite", "--data-dir", dataDir)
	require.NoError(t, err)

	var got reportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, strings.HasPrefix(got.Source, "sqlite:"), got.Source)
	assert.Len(t, got.Buckets, 3)
}

func TestSeedCommand_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"title": "", "buckets": []}`), 0o644))

	_, err := execute(t, "seed", "--from", broken, "--data-dir", filepath.Join(dir, "data"))
	assert.ErrorIs(t, err, survey.ErrValidation)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	sourceFlag, dataDirFlag, logLevelFlag = "sqlite", "/tmp/sizefit", "debug"
	t.Cleanup(func() { sourceFlag, dataDirFlag, logLevelFlag = "", "", "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DatasetSource)
	assert.Equal(t, "/tmp/sizefit", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)

	logLevelFlag = "verbose"
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	cfg := config.Default()

	client := connectRedis(context.Background(), cfg)
	assert.False(t, client.IsEnabled())

	mr := miniredis.RunT(t)
	cfg.RedisAddr = mr.Addr()
	client = connectRedis(context.Background(), cfg)
	assert.True(t, client.IsEnabled())
	require.NoError(t, client.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client = connectRedis(ctx, cfg)
	assert.False(t, client.IsEnabled())
}
