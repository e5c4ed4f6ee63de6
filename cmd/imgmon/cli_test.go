package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// writeGray 写出w×h的灰度PNG，像素值由f给出
func writeGray(t *testing.T, path string, w, h int, f func(x, y int) uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: f(x, y)})
		}
	}
	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(out, img))
	require.NoError(t, out.Close())
}

// commandContext 用命令的参数定义解析args
func commandContext(t *testing.T, name string, args ...string) *cli.Context {
	t.Helper()
	app := createCliApp()
	var cmd *cli.Command
	for _, c := range app.Commands {
		if c.Name == name {
			cmd = c
		}
	}
	require.NotNil(t, cmd, "command %s", name)

	set := flag.NewFlagSet(name, flag.ContinueOnError)
	for _, f := range cmd.Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestParseSize(t *testing.T) {
	size, err := parseSize("64x32")
	require.NoError(t, err)
	assert.Equal(t, []int{64, 32}, size)

	size, err = parseSize("8X8x100")
	require.NoError(t, err)
	assert.Equal(t, []int{8, 8, 100}, size)

	for _, bad := range []string{"", "0x4", "4xa", "1x2x3x4", "-1"} {
		_, err := parseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildConfigFromCLI(t *testing.T) {
	c := commandContext(t, "imgmon", "--size", "16x8", "--type", "int16", "--rate", "250",
		"--frequ", "20", "--samples", "256", "--udp", "127.0.0.1:9000", "cam0")

	config, err := buildConfigFromCLI(c)
	require.NoError(t, err)
	require.NoError(t, validateConfig(config))

	assert.Equal(t, "cam0", config.ImageName)
	assert.Equal(t, core.TypeInt16, config.Type)
	assert.Equal(t, []int{16, 8}, config.Size)
	assert.Equal(t, 250.0, config.FeedConfig.Rate)
	assert.Equal(t, "127.0.0.1:9000", config.FeedConfig.ListenAddr)
	assert.Equal(t, 20.0, config.TUIConfig.Frequency)
	assert.Equal(t, 256, config.TUIConfig.TimingSamples)
}

func TestBuildConfigDefaults(t *testing.T) {
	config, err := buildConfigFromCLI(commandContext(t, "streamtiming"))
	require.NoError(t, err)
	assert.Equal(t, "stream", config.ImageName)
	assert.Equal(t, core.TypeFloat32, config.Type)
	assert.Empty(t, config.UDPAddr)

	_, err = buildConfigFromCLI(commandContext(t, "imgmon", "--type", "half"))
	assert.ErrorIs(t, err, core.ErrUnsupportedType)

	config, err = buildConfigFromCLI(commandContext(t, "imgmon", "--frequ", "500"))
	require.NoError(t, err)
	assert.Error(t, validateConfig(config))
}

func TestBuildMatchConfig(t *testing.T) {
	config, err := buildMatchConfig(commandContext(t, "cubeslmatch", "--min-gap", "2", "--max-gap", "5", "--keep", "3"))
	require.NoError(t, err)
	assert.Equal(t, 2, config.MinGap)
	assert.Equal(t, 5, config.MaxGap)
	assert.Equal(t, 3, config.Keep)

	_, err = buildMatchConfig(commandContext(t, "cubeslmatch", "--min-gap", "5", "--max-gap", "2"))
	assert.Error(t, err)
}

func TestImstatsfCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "frame.png")
	writeGray(t, input, 4, 4, func(x, y int) uint8 { return uint8(4*y + x) })
	out := filepath.Join(dir, "imstat.info.txt")
	db := filepath.Join(dir, "vars.db")

	app := createCliApp()
	require.NoError(t, app.Run([]string{AppName, "--vars-db", db, "imstatsf", "--out", out, input}))

	text, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(text), "minimum"))
	assert.Contains(t, string(text), "percentile500")

	reg, err := vars.OpenSQLite(db)
	require.NoError(t, err)
	defer reg.Close()
	v, ok := reg.Get("vmax")
	require.True(t, ok)
	assert.Equal(t, 15.0, v)
}

func TestCubeslmatchCommand(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for k, level := range []uint8{0, 1, 3, 6, 10} {
		path := filepath.Join(dir, "slice"+string(rune('a'+k))+".png")
		writeGray(t, path, 2, 2, func(x, y int) uint8 { return level })
		files = append(files, path)
	}
	prefix := filepath.Join(dir, "outtest")
	rms := filepath.Join(dir, "imRMS.png")

	args := append([]string{AppName, "cubeslmatch", "--min-gap", "1", "--max-gap", "2", "--keep", "2",
		"--prefix", prefix, "--rms", rms}, files...)
	require.NoError(t, createCliApp().Run(args))

	sorted, err := os.ReadFile(prefix + ".sorted.txt")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(sorted), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "    0      1     +1   4", lines[0])

	listing, err := os.ReadFile(prefix + ".txt")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(string(listing), "\n"), "\n"), 10)

	for _, path := range []string{prefix + ".unsorted.txt", prefix + ".png", rms} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
}

func TestCubeslmatchReusesMatrix(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for k, level := range []uint8{0, 1, 3, 6, 10} {
		path := filepath.Join(dir, "slice"+string(rune('a'+k))+".png")
		writeGray(t, path, 2, 2, func(x, y int) uint8 { return level })
		files = append(files, path)
	}
	first := filepath.Join(dir, "first")
	second := filepath.Join(dir, "second")
	base := []string{AppName, "cubeslmatch", "--min-gap", "1", "--max-gap", "2", "--rms", filepath.Join(dir, "imRMS.png")}

	require.NoError(t, createCliApp().Run(append(append(base, "--prefix", first), files...)))
	require.NoError(t, createCliApp().Run(append(append(base, "--prefix", second, "--matrix", first+".txt"), files...)))

	for _, suffix := range []string{".sorted.txt", ".txt"} {
		a, err := os.ReadFile(first + suffix)
		require.NoError(t, err)
		b, err := os.ReadFile(second + suffix)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), suffix)
	}

	// 矩阵深度与立方体不符
	c := commandContext(t, "cubeslmatch", append([]string{"--min-gap", "1", "--max-gap", "2",
		"--prefix", filepath.Join(dir, "third"), "--matrix", first + ".txt"}, files[:4]...)...)
	assert.Error(t, runCubeslmatch(c))
}

func TestPrintpixCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "frame.png")
	writeGray(t, input, 4, 2, func(x, y int) uint8 { return uint8(x + 10*y) })
	db := filepath.Join(dir, "vars.db")
	reg, err := vars.OpenSQLite(db)
	require.NoError(t, err)
	require.NoError(t, reg.Set("_iistep", 2))
	require.NoError(t, reg.Close())

	out := filepath.Join(dir, "pixlist.txt")
	require.NoError(t, createCliApp().Run([]string{AppName, "--vars-db", db, "printpix", "--out", out, input}))
	text, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "0 0 0\n0 1 10\n\n2 0 2\n2 1 12\n\n", string(text))

	require.NoError(t, createCliApp().Run([]string{AppName, "--vars-db", db, "printpix", "--out", out, "--istep", "3", "--jstep", "2", input}))
	text, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "0 0 0\n\n3 0 3\n\n", string(text))
}

func TestBgnoiseCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "frame.png")
	writeGray(t, input, 10, 10, func(x, y int) uint8 { return uint8(10*y + x) })
	db := filepath.Join(dir, "vars.db")

	require.NoError(t, createCliApp().Run([]string{AppName, "--vars-db", db, "bgnoise", input}))

	reg, err := vars.OpenSQLite(db)
	require.NoError(t, err)
	defer reg.Close()
	v, ok := reg.Get("bgnoise")
	require.True(t, ok)
	assert.Equal(t, float64(38-9), v)
}

func TestBrighterCommand(t *testing.T) {
	input := filepath.Join(t.TempDir(), "frame.png")
	writeGray(t, input, 2, 2, func(x, y int) uint8 { return uint8(2*y + x) })
	require.NoError(t, createCliApp().Run([]string{AppName, "brighter", "--value", "1.5", input}))

	assert.Error(t, runBrighter(commandContext(t, "brighter")))
}

func TestNbpixfluxCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "frame.png")
	writeGray(t, input, 2, 2, func(x, y int) uint8 { return uint8(2*y + x + 1) })
	out := filepath.Join(dir, "flux.txt")

	require.NoError(t, createCliApp().Run([]string{AppName, "nbpixflux", "--out", out, input}))
	text, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(text), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "3  1.000000000000000000e+01", lines[3])
}

func TestProfileRoundTripCommands(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "frame.png")
	writeGray(t, input, 9, 9, func(x, y int) uint8 {
		if x == 4 && y == 4 {
			return 200
		}
		return 10
	})
	profile := filepath.Join(dir, "profile.txt")
	profim := filepath.Join(dir, "profim.png")

	require.NoError(t, createCliApp().Run([]string{AppName, "profile", "--cx", "4", "--cy", "4", "--nstep", "4", "--out", profile, input}))
	require.NoError(t, createCliApp().Run([]string{AppName, "profile2im", "--size", "16", "--radius", "4", "--out", profim, profile}))
	info, err := os.Stat(profim)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestStructfuncCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "frame.png")
	writeGray(t, input, 8, 8, func(x, y int) uint8 { return uint8(x * y) })
	out := filepath.Join(dir, "sfunc.png")

	require.NoError(t, createCliApp().Run([]string{AppName, "structfunc", "--npoints", "4", "--out", out, input}))
	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestWriteFileRemovesPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := writeFile(path, func(f *os.File) error {
		f.WriteString("partial")
		return core.ErrIO
	})
	assert.ErrorIs(t, err, core.ErrIO)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpenRegistry(t *testing.T) {
	reg, closeFn, err := openRegistry("")
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, reg.Set("vmin", 1))
	v, ok := reg.Get("vmin")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
}
