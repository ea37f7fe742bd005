package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-raster/images"
	"github.com/nvr-ai/go-raster/pipeline"
	"github.com/nvr-ai/go-raster/raster"
)

func writeInput(t *testing.T, path string, w, h int) {
	t.Helper()
	buf, err := raster.New(w, h)
	require.NoError(t, err)
	for i := range buf.Pix {
		buf.Pix[i] = uint8(i * 7)
	}
	for i := 3; i < len(buf.Pix); i += raster.Channels {
		buf.Pix[i] = 255
	}
	format, err := images.FormatFromPath(path)
	require.NoError(t, err)
	require.NoError(t, images.EncodeFile(path, buf, format, 0))
}

func TestRunSingleStepFromFlags(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeInput(t, in, 6, 4)
	outDir := filepath.Join(dir, "out")
	reportPath := filepath.Join(dir, "report", "run.json")

	err := run(context.Background(), []string{
		"--input", in,
		"--filter", "upscale",
		"--scale", "2",
		"--output-dir", outDir,
		"--format", "bmp",
		"--preview", "4",
		"--report", reportPath,
		"--log-level", "error",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	got, format, err := images.DecodeFile(filepath.Join(outDir, "in.bmp"))
	require.NoError(t, err)
	assert.Equal(t, images.FormatBMP, format)
	assert.Equal(t, 12, got.Width)
	assert.Equal(t, 8, got.Height)

	preview, _, err := images.DecodeFile(filepath.Join(outDir, "in_preview.bmp"))
	require.NoError(t, err)
	assert.Equal(t, 4, preview.Width)
	assert.Equal(t, 2, preview.Height)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Files, 1)
	assert.Equal(t, in, report.Files[0].Input)
	assert.Equal(t, 12, report.Files[0].Result.Width)
	require.Len(t, report.Config.Steps, 1)
	assert.Equal(t, "upscale", report.Config.Steps[0].Filter)
	assert.Equal(t, 2, report.Config.Steps[0].Scale)
}

func TestRunConfigFileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "inputs")
	writeInput(t, filepath.Join(inDir, "a.png"), 5, 5)
	writeInput(t, filepath.Join(inDir, "b.png"), 3, 7)

	cfgPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
steps:
  - filter: restore
    strength: 0.7
  - filter: colorize
    scheme: cool
    intensity: 0.3
parallel: true
workers: 2
output:
  dir: `+filepath.Join(dir, "results")+`
log:
  level: error
`), 0o644))

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"--config", cfgPath, "--dir", inDir, "--report", "-"}, &stdout)
	require.NoError(t, err)

	for _, name := range []string{"a.png", "b.png"} {
		_, err := os.Stat(filepath.Join(dir, "results", name))
		assert.NoError(t, err, name)
	}

	var report Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.Len(t, report.Files, 2)
	assert.Len(t, report.Config.Steps, 2)
	assert.True(t, report.Config.Parallel)
	assert.Len(t, report.Files[1].Result.Steps, 2)
	require.Len(t, report.Stats.Operations, 2)
	assert.Equal(t, "colorize", report.Stats.Operations[0].Name)
	assert.Equal(t, int64(2), report.Stats.Operations[1].Count)
}

func TestRunDistinctOutputsForSameBaseName(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "inputs")
	writeInput(t, filepath.Join(inDir, "photo.bmp"), 4, 3)
	writeInput(t, filepath.Join(inDir, "photo.png"), 5, 2)
	outDir := filepath.Join(dir, "out")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"--dir", inDir,
		"--format", "png",
		"--preview", "2",
		"--output-dir", outDir,
		"--report", "-",
		"--log-level", "error",
	}, &stdout)
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	var report Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.Len(t, report.Files, 2)
	assert.Equal(t, filepath.Join(outDir, "photo.png"), report.Files[0].Output)
	assert.Equal(t, filepath.Join(outDir, "photo_1.png"), report.Files[1].Output)
	assert.Equal(t, filepath.Join(outDir, "photo_1_preview.png"), report.Files[1].Preview)

	first, _, err := images.DecodeFile(report.Files[0].Output)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Width)
	second, _, err := images.DecodeFile(report.Files[1].Output)
	require.NoError(t, err)
	assert.Equal(t, 5, second.Width)
}

func TestPlanOutputsSkipsTakenSuffix(t *testing.T) {
	cfg := &pipeline.Config{Output: pipeline.OutputConfig{Dir: "out"}}
	plans, err := planOutputs(cfg, []images.ImageFile{
		{Path: "a/photo.png", Format: images.FormatPNG},
		{Path: "b/photo_1.png", Format: images.FormatPNG},
		{Path: "c/photo.png", Format: images.FormatPNG},
		{Path: "d/PHOTO.gif", Format: images.FormatGIF},
	})
	require.NoError(t, err)

	got := make([]string, len(plans))
	for i, plan := range plans {
		got[i] = plan.Output
	}
	assert.Equal(t, []string{
		filepath.Join("out", "photo.png"),
		filepath.Join("out", "photo_1.png"),
		filepath.Join("out", "photo_2.png"),
		filepath.Join("out", "PHOTO_3.png"),
	}, got)
	assert.False(t, plans[1].Renamed)
	assert.True(t, plans[2].Renamed)
	assert.Equal(t, images.FormatPNG, plans[3].Format)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no inputs", args: []string{"--log-level", "error"}},
		{name: "unknown filter", args: []string{"--filter", "blur", "--input", "x.png"}},
		{name: "unsupported input", args: []string{"--input", "x.tiff", "--log-level", "error"}},
		{name: "missing input", args: []string{"--input", "missing.png", "--log-level", "error"}},
		{name: "bad flag", args: []string{"--no-such-flag"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(context.Background(), tt.args, &bytes.Buffer{}))
		})
	}

	assert.NoError(t, run(context.Background(), []string{"--help"}, &bytes.Buffer{}))
}
