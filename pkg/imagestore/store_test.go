package imagestore

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphoreSaturates(t *testing.T) {
	s := NewSemaphore(3)
	for i := 0; i < 3; i++ {
		assert.True(t, s.Post())
	}
	assert.False(t, s.Post(), "post beyond the bound is dropped")
	assert.Equal(t, 3, s.Value())

	assert.True(t, s.TryWait())
	assert.Equal(t, 2, s.Value())
}

func TestSemaphoreWaitHonoursContext(t *testing.T) {
	s := NewSemaphore(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStoreLookup(t *testing.T) {
	store := NewStore()
	im, err := store.Create("im1", core.TypeFloat32, DefaultSemaphores, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 16, im.Buffer().NElement())

	_, err = store.Create("im1", core.TypeFloat32, 1, 2)
	assert.Error(t, err)

	got, err := store.Lookup("im1")
	require.NoError(t, err)
	assert.Same(t, im, got)

	_, err = store.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, errors.Is(err, core.ErrInvalidReference))

	store.Put("im0", core.NewBuffer(core.TypeUint8, 2), 1)
	assert.Equal(t, []string{"im0", "im1"}, store.Names())

	store.Delete("im0")
	assert.Equal(t, []string{"im1"}, store.Names())
}

func TestEndWritePostsAllSlots(t *testing.T) {
	store := NewStore()
	im, err := store.Create("cam", core.TypeUint16, 3, 8, 8)
	require.NoError(t, err)

	im.BeginWrite()
	assert.True(t, im.Writing())
	im.EndWrite(5)

	assert.False(t, im.Writing())
	assert.Equal(t, uint64(1), im.Cnt0())
	assert.Equal(t, uint64(5), im.Cnt1())
	for slot := 0; slot < 3; slot++ {
		assert.Equal(t, 1, im.SemValue(slot))
	}
	assert.Equal(t, 1, im.SemLogValue())

	stream, err := im.Stream(1)
	require.NoError(t, err)
	assert.Equal(t, int64(os.Getpid()), im.ReaderPID(1))
	assert.True(t, stream.TryWait())
	assert.False(t, stream.TryWait())
	assert.Equal(t, uint64(1), stream.Counter())

	_, err = im.Stream(3)
	assert.ErrorIs(t, err, core.ErrInvalidReference)
}

func writeGray16(t *testing.T, path string, w, h int, base uint16) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: base + uint16(y*w+x)})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadFileGray16(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	writeGray16(t, path, 3, 2, 100)

	buf, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, core.TypeUint16, buf.Type)
	assert.Equal(t, []int{3, 2}, buf.Size)

	data, ok := core.Data[uint16](buf)
	require.True(t, ok)
	assert.Equal(t, []uint16{100, 101, 102, 103, 104, 105}, data)
}

func TestLoadCube(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	writeGray16(t, a, 2, 2, 0)
	writeGray16(t, b, 2, 2, 10)
	writeGray16(t, c, 3, 2, 0)

	cube, err := LoadCube([]string{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, cube.Size)
	data, _ := core.Data[float32](cube)
	assert.Equal(t, float32(10), data[4])

	_, err = LoadCube([]string{a, c})
	assert.ErrorIs(t, err, core.ErrDimensionality)

	_, err = LoadFile(filepath.Join(dir, "frame.bmp"))
	assert.Error(t, err)
}
