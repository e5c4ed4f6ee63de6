package feed

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/imagestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFrames(t *testing.T, stream core.Stream, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		require.NoError(t, stream.Wait(ctx), "frame %d", i)
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, NewConfigWithOptions(WithRate(0)).Validate())
	assert.Error(t, NewConfigWithOptions(WithJitter(1)).Validate())
	assert.Error(t, NewConfigWithOptions(WithListenAddr("")).Validate())
	assert.Error(t, NewConfigWithOptions(WithBatchSize(0)).Validate())
	assert.Error(t, NewConfigWithOptions(WithReadTimeout(0)).Validate())
	assert.Equal(t, 10*time.Millisecond, NewConfigWithOptions(WithRate(100)).Interval())
}

func TestSimulator(t *testing.T) {
	store := imagestore.NewStore()
	im, err := store.Create("sim", core.TypeFloat32, 1, 8, 8)
	require.NoError(t, err)
	stream, err := im.Stream(0)
	require.NoError(t, err)

	sim, err := NewSimulator(im, NewConfigWithOptions(WithRate(1000), WithSeed(3)))
	require.NoError(t, err)
	var _ core.Producer = sim

	assert.Equal(t, StatusIdle, im.Status())
	require.NoError(t, sim.Start())
	assert.Equal(t, StatusRunning, im.Status())
	assert.ErrorIs(t, sim.Start(), ErrAlreadyRunning)
	waitFrames(t, stream, 5)
	sim.Stop()
	sim.Stop()
	assert.Equal(t, StatusStopped, im.Status())

	assert.GreaterOrEqual(t, sim.Frames(), uint64(5))
	assert.Equal(t, sim.Frames(), im.Cnt0())
	assert.False(t, im.Writing())
	assert.NotZero(t, im.WriterPID(0))
	assert.Error(t, sim.Start(), "a stopped producer cannot be restarted")

	data, _ := core.Data[float32](im.Buffer())
	for _, v := range data {
		assert.GreaterOrEqual(t, v, float32(0))
	}
}

func TestSimulatorCube(t *testing.T) {
	store := imagestore.NewStore()
	im, err := store.Create("cube", core.TypeUint16, 1, 4, 4, 3)
	require.NoError(t, err)
	stream, _ := im.Stream(0)

	sim, err := NewSimulator(im, NewConfigWithOptions(WithRate(2000)))
	require.NoError(t, err)
	require.NoError(t, sim.Start())
	defer sim.Stop()

	for i := 0; i < 6; i++ {
		waitFrames(t, stream, 1)
		assert.Less(t, im.Cnt1(), uint64(3))
	}
}

func TestNewProducerErrors(t *testing.T) {
	_, err := NewSimulator(nil, nil)
	assert.Error(t, err)

	im, _ := imagestore.NewStore().Create("x", core.TypeUint8, 1, 2)
	_, err = NewSimulator(im, NewConfigWithOptions(WithRate(-1)))
	assert.Error(t, err)
}

func TestUDPReceiverHandle(t *testing.T) {
	im, _ := imagestore.NewStore().Create("udp", core.TypeInt16, 1, 4)
	r, err := NewUDPReceiver(im, nil)
	require.NoError(t, err)
	defer r.Stop()

	datagram := func(frame, offset uint32, values ...int16) []byte {
		b := make([]byte, HeaderSize+2*len(values))
		binary.LittleEndian.PutUint32(b[0:4], frame)
		binary.LittleEndian.PutUint32(b[4:8], offset)
		for i, v := range values {
			binary.LittleEndian.PutUint16(b[HeaderSize+2*i:], uint16(v))
		}
		return b
	}

	require.NoError(t, r.handle(datagram(7, 0, 1, -2)))
	assert.True(t, im.Writing())
	assert.Zero(t, im.Cnt0())

	require.NoError(t, r.handle(datagram(7, 2, 3, -4)))
	assert.False(t, im.Writing())
	assert.Equal(t, uint64(1), im.Cnt0())
	assert.Equal(t, uint64(7), im.Cnt1())
	data, _ := core.Data[int16](im.Buffer())
	assert.Equal(t, []int16{1, -2, 3, -4}, data)

	assert.Error(t, r.handle([]byte{1, 2, 3}))
	assert.Error(t, r.handle(append(datagram(8, 0), 1)))
	assert.ErrorIs(t, r.handle(datagram(8, 3, 1, 2)), core.ErrDimensionality)
	assert.Equal(t, uint64(1), r.Frames())
}

func TestUDPReceiverNetwork(t *testing.T) {
	store := imagestore.NewStore()
	im, err := store.Create("udp", core.TypeUint16, 1, 64, 4)
	require.NoError(t, err)
	stream, _ := im.Stream(0)

	r, err := NewUDPReceiver(im, NewConfigWithOptions(WithReadTimeout(20*time.Millisecond)))
	require.NoError(t, err)
	require.NoError(t, r.Start())
	defer r.Stop()

	src := core.NewBuffer(core.TypeUint16, 64, 4)
	for i := 0; i < src.NElement(); i++ {
		src.SetFloat(i, float64(i*3))
	}

	conn, err := net.Dial("udp4", r.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, SendFrame(conn, 1, src, 50))
	waitFrames(t, stream, 1)

	want, _ := core.Data[uint16](src)
	got, _ := core.Data[uint16](im.Buffer())
	assert.Equal(t, want, got)
	assert.Equal(t, uint64(1), r.Frames())

	_, err = conn.Write([]byte{0xff})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return r.Dropped() == 1 }, 2*time.Second, 10*time.Millisecond)
}
