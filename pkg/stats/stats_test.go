package stats

import (
	"bytes"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/Kevin-Rudy/imgmon/pkg/vars"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSmallVector(t *testing.T) {
	buf, err := core.Wrap([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	r, err := Compute(buf)
	require.NoError(t, err)

	assert.Equal(t, 1.0, r.Min)
	assert.Equal(t, 0, r.MinIndex)
	assert.Equal(t, 5.0, r.Max)
	assert.Equal(t, 4, r.MaxIndex)
	assert.Equal(t, 15.0, r.Total)
	assert.Equal(t, 3.0, r.Mean)
	assert.InDelta(t, math.Sqrt(55), r.RMS, 1e-12)
	assert.InDelta(t, math.Sqrt(11), r.RMSPerPixel, 1e-12)
	assert.InDelta(t, math.Sqrt(2), r.RMSDevPerPixel, 1e-9)
	assert.Equal(t, 3.0, r.Median())
	assert.Nil(t, r.Barycenter)
	assert.Zero(t, r.Repaired)

	p01, _ := r.Percentile(0.01)
	p999, _ := r.Percentile(0.999)
	assert.Equal(t, 1.0, p01)
	assert.Equal(t, 5.0, p999)
}

func TestComputeRepairsNaN(t *testing.T) {
	data := []float32{1, 2, 3, 4, float32(math.NaN()), 5, 6, 7, 8, 9}
	buf, err := core.Wrap(data)
	require.NoError(t, err)

	r, err := Compute(buf)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Repaired)
	assert.Equal(t, 10, r.N)
	assert.Equal(t, 0.0, r.Min)
	assert.Equal(t, 4, r.MinIndex)
	assert.Equal(t, 45.0, r.Total)
	assert.Equal(t, float32(0), data[4], "NaN element is written back as 0")
}

func TestComputeIntegerTypes(t *testing.T) {
	buf, err := core.Wrap([]uint16{7, 65535, 0, 3})
	require.NoError(t, err)

	r, err := Compute(buf)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Min)
	assert.Equal(t, 2, r.MinIndex)
	assert.Equal(t, 65535.0, r.Max)
	assert.Equal(t, 1, r.MaxIndex)
}

func TestComputeBarycenter(t *testing.T) {
	buf, err := core.Wrap([]float64{0, 1, 0, 1}, 2, 2)
	require.NoError(t, err)

	r, err := Compute(buf)
	require.NoError(t, err)
	require.NotNil(t, r.Barycenter)
	assert.Equal(t, 1.0, r.Barycenter.X)
	assert.Equal(t, 0.5, r.Barycenter.Y)
}

func TestComputeRejectsComplex(t *testing.T) {
	_, err := Compute(core.NewBuffer(core.TypeComplex128, 4))
	assert.ErrorIs(t, err, core.ErrUnsupportedType)

	_, err = ComputeHistogram(core.NewBuffer(core.TypeComplex64, 4))
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestComputeProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	data := make([]float64, 5000)
	for i := range data {
		data[i] = rng.NormFloat64()*10 + 3
	}
	buf, _ := core.Wrap(data)

	r, err := Compute(buf)
	require.NoError(t, err)

	for _, v := range data {
		assert.LessOrEqual(t, r.Min, v)
		assert.GreaterOrEqual(t, r.Max, v)
	}
	assert.InDelta(t, r.Mean, r.Total/float64(r.N), 1e-12)
	assert.InEpsilon(t, r.SumSquares, r.RMS*r.RMS, 1e-12)
	assert.InDelta(t, r.RMS/math.Sqrt(float64(r.N)), r.RMSPerPixel, 1e-12)

	prev := math.Inf(-1)
	for _, q := range Quantiles {
		v, ok := r.Percentile(q)
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, prev, "percentile %v", q)
		prev = v
	}
}

func TestHistogram(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	data := make([]float64, 1000)
	for i := range data {
		data[i] = rng.Float64()
	}
	data[10] = math.Inf(1)
	buf, _ := core.Wrap(data)

	h, err := ComputeHistogram(buf)
	require.NoError(t, err)
	assert.Equal(t, 999, h.Total())
	assert.Equal(t, 1, h.Skipped)
	assert.Equal(t, 1000, h.Total()+h.Skipped)
}

func TestHistogramConstant(t *testing.T) {
	buf, _ := core.Wrap([]int32{4, 4, 4})
	h, err := ComputeHistogram(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Counts[0])
	assert.Equal(t, 3, h.Total())
	assert.Equal(t, 3, h.Peak())
}

func TestHistogramMaxInLastBin(t *testing.T) {
	buf, _ := core.Wrap([]float64{0, 0.5, 1})
	h, err := ComputeHistogram(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Counts[0])
	assert.Equal(t, 1, h.Counts[10])
	assert.Equal(t, 1, h.Counts[HistogramBins-1])
	assert.Equal(t, 0.5, h.BinStart(10))
}

func TestWriteText(t *testing.T) {
	buf, _ := core.Wrap([]float64{1, 2, 3, 4, 5})
	r, err := Compute(buf)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, WriteText(&out, r))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")

	assert.Equal(t, "minimum"+strings.Repeat(" ", 18)+"1.000000000000000000e+00 [ pix 0 ]", lines[0])
	assert.Equal(t, "maximum"+strings.Repeat(" ", 18)+"5.000000000000000000e+00 [ pix 4 ]", lines[1])
	assert.True(t, strings.HasPrefix(lines[5], "rms dev per pixel"))
	assert.True(t, strings.HasPrefix(lines[6], "mean "))
	assert.Len(t, lines, 7+len(Quantiles))
	assert.Equal(t, "percentile999"+strings.Repeat(" ", 12)+"5.000000000000000000e+00", lines[len(lines)-1])
}

func TestWriteConsole(t *testing.T) {
	buf, _ := core.Wrap([]float32{0, 1, 0, 1}, 2, 2)
	r, err := Compute(buf)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, WriteConsole(&out, "im1", buf, r))
	text := out.String()

	assert.Contains(t, text, "Image size (->imsize0...):     [ 2 2 ]")
	assert.Contains(t, text, "type:              FLOAT")
	assert.Contains(t, text, "minimum         (->vmin)     0.000000000000000000e+00 [ pix 0 ]")
	assert.Contains(t, text, "Barycenter x    (->vbx)      1.000000000000000000")
	assert.Contains(t, text, "99.5 percent    (->vp995)    ")
}

func TestExport(t *testing.T) {
	buf, _ := core.Wrap([]float64{1, 2, 3, 4, 5})
	r, err := Compute(buf)
	require.NoError(t, err)

	reg := vars.NewMemory()
	require.NoError(t, Export(reg, buf, r))

	want := map[string]float64{"imsize0": 5, "vmin": 1, "vmax": 5, "vtot": 15, "vmean": 3, "vp50": 3, "vp01": 1}
	for name, v := range want {
		got, ok := reg.Get(name)
		assert.True(t, ok, name)
		assert.Equal(t, v, got, name)
	}
	_, ok := reg.Get("vbx")
	assert.False(t, ok, "barycenter is only exported for 2D images")
	assert.Len(t, reg.Names(), 1+7+len(Quantiles))
}

func TestCubeStats(t *testing.T) {
	cube, err := core.Wrap([]float64{1, 2, 3, 5}, 2, 1, 2)
	require.NoError(t, err)

	rows, err := CubeStats(cube, nil)
	require.NoError(t, err)

	want := []SliceStats{
		{Index: 0, Min: 1, Max: 2, Total: 3, Mean: 1.5, SumSquares: 5, RMS: 0.5},
		{Index: 1, Min: 3, Max: 5, Total: 8, Mean: 4, SumSquares: 34, RMS: 1},
	}
	if diff := cmp.Diff(want, rows, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("CubeStats mismatch (-want +got):\n%s", diff)
	}

	mask, _ := core.Wrap([]float32{1, 0}, 2, 1)
	rows, err = CubeStats(cube, mask)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rows[0].Total)
	assert.Equal(t, 3.0, rows[1].Max)

	var out bytes.Buffer
	require.NoError(t, WriteCubeStats(&out, rows))
	assert.True(t, strings.HasPrefix(out.String(), "    0  "))

	_, err = CubeStats(core.NewBuffer(core.TypeFloat32, 4, 4), nil)
	assert.ErrorIs(t, err, core.ErrDimensionality)

	_, err = CubeStats(cube, core.NewBuffer(core.TypeFloat32, 3))
	assert.ErrorIs(t, err, core.ErrDimensionality)
}

func TestCubeCorrelation(t *testing.T) {
	cube, _ := core.Wrap([]float64{1, 2, 3, 5}, 2, 1, 2)
	corr, err := CubeCorrelation(cube, nil, DefaultMaxLag)
	require.NoError(t, err)
	require.Len(t, corr, 1)
	assert.Equal(t, 1, corr[0].Lag)
	assert.InDelta(t, 13/math.Sqrt(170), corr[0].Value, 1e-12)

	var out bytes.Buffer
	require.NoError(t, WriteCorrelation(&out, corr))
	assert.True(t, strings.HasPrefix(out.String(), "  1   0.99"))
}

func TestProfile(t *testing.T) {
	data := []float64{
		1, 1, 1,
		1, 5, 1,
		1, 1, 1,
	}
	img, _ := core.Wrap(data, 3, 3)

	bins, err := Profile(img, nil, 1, 1, 1, 2)
	require.NoError(t, err)
	require.Len(t, bins, 2)

	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 5.0, bins[0].Mean)
	assert.Equal(t, 0.0, bins[0].Distance)

	assert.Equal(t, 8, bins[1].Count)
	assert.Equal(t, 1.0, bins[1].Mean)
	assert.Equal(t, 0.0, bins[1].RMS)
	assert.InDelta(t, (4+4*math.Sqrt2)/8, bins[1].Distance, 1e-12)

	mask, _ := core.Wrap([]float32{0, 0, 0, 0, 0, 0, 0, 0, 1}, 3, 3)
	bins, err = Profile(img, mask, 1, 1, 1, 2)
	require.NoError(t, err)
	require.Len(t, bins, 1)
	assert.Equal(t, 1, bins[0].Index)

	var out bytes.Buffer
	require.NoError(t, WriteProfile(&out, bins))
	assert.True(t, strings.HasSuffix(out.String(), " 1 1\n"))

	_, err = Profile(core.NewBuffer(core.TypeFloat32, 9), nil, 0, 0, 1, 1)
	assert.ErrorIs(t, err, core.ErrDimensionality)
}

func TestBrighter(t *testing.T) {
	buf, _ := core.Wrap([]uint16{1, 2, 3, 4, 5})
	brighter, fainter, err := Brighter(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, brighter)
	assert.Equal(t, 3, fainter)

	_, _, err = Brighter(core.NewBuffer(core.TypeComplex64, 4), 0)
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestWritePixels(t *testing.T) {
	img, _ := core.Wrap([]float64{1, 2, 3, 4}, 2, 2)

	var out bytes.Buffer
	require.NoError(t, WritePixels(&out, img, 1, 1))
	assert.Equal(t, "0 0 1\n0 1 3\n\n1 0 2\n1 1 4\n\n", out.String())

	out.Reset()
	require.NoError(t, WritePixels(&out, img, 2, 1))
	assert.Equal(t, "0 0 1\n0 1 3\n\n", out.String())

	cube, _ := core.Wrap([]float32{7, 8}, 1, 1, 2)
	out.Reset()
	require.NoError(t, WritePixels(&out, cube, 1, 1))
	assert.Equal(t, "0 0 0 7.000000\n0 0 1 8.000000\n", out.String())

	assert.ErrorIs(t, WritePixels(&out, core.NewBuffer(core.TypeFloat32, 4), 1, 1), core.ErrDimensionality)
	assert.ErrorIs(t, WritePixels(&out, img, 0, 1), core.ErrDimensionality)
}

func TestCumulativeFlux(t *testing.T) {
	buf, _ := core.Wrap([]float64{3, 1, 2})
	r, err := Compute(buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, r.Sorted)

	flux, err := CumulativeFlux(r)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 6}, flux)

	var out bytes.Buffer
	require.NoError(t, WriteCumulativeFlux(&out, flux))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0  1.000000000000000000e+00", lines[0])
	assert.Equal(t, "2  6.000000000000000000e+00", lines[2])

	_, err = CumulativeFlux(&Report{})
	assert.ErrorIs(t, err, core.ErrDimensionality)
}

func TestBackgroundNoise(t *testing.T) {
	data := make([]float64, 1000)
	for i := range data {
		data[i] = float64(i)
	}
	rand.New(rand.NewPCG(1, 2)).Shuffle(len(data), func(i, j int) { data[i], data[j] = data[j], data[i] })
	buf, _ := core.Wrap(data, 40, 25)
	r, err := Compute(buf)
	require.NoError(t, err)

	e, err := BackgroundNoise(r)
	require.NoError(t, err)
	assert.InDelta(t, (184.0-96.0)/0.4, e.Narrow, 1e-9)
	assert.InDelta(t, (274.0-96.0)/0.7, e.Medium, 1e-9)
	assert.InDelta(t, 286.0, e.Wide, 1e-9)
	assert.Equal(t, e.Wide, e.Sigma())

	var out bytes.Buffer
	require.NoError(t, WriteNoise(&out, e))
	assert.Equal(t, "(-1.3 -0.9) 220.000000\n(-1.3 -0.6) 254.285714\n(-1.3 -0.3) 286.000000\n", out.String())

	_, err = BackgroundNoise(&Report{})
	assert.ErrorIs(t, err, core.ErrDimensionality)
}

func TestProfileImage(t *testing.T) {
	img, err := ProfileImage([]float64{10, 20}, 3, 0, 0, 4)
	require.NoError(t, err)
	data, ok := core.Data[float32](img)
	require.True(t, ok)
	assert.Equal(t, []int{3, 3}, img.Size)
	assert.InDelta(t, 10, data[0], 1e-6)
	assert.InDelta(t, 15, data[1], 1e-6, "halfway between the first two points")
	assert.InDelta(t, 20, data[2], 1e-6)
	assert.InDelta(t, 20, data[8], 1e-6)

	img, err = ProfileImage([]float64{10, 20}, 3, 0, 0, 2)
	require.NoError(t, err)
	data, _ = core.Data[float32](img)
	assert.InDelta(t, 20, data[1], 1e-6)
	assert.Zero(t, data[2], "outside the radius")

	_, err = ProfileImage(nil, 3, 0, 0, 1)
	assert.ErrorIs(t, err, core.ErrDimensionality)
	_, err = ProfileImage([]float64{1}, 3, 0, 0, 0)
	assert.ErrorIs(t, err, core.ErrDimensionality)
}

func TestReadProfile(t *testing.T) {
	img, _ := core.Wrap([]float64{1, 1, 1, 1, 5, 1, 1, 1, 1}, 3, 3)
	bins, err := Profile(img, nil, 1, 1, 1, 2)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, WriteProfile(&out, bins))
	text := out.String()

	means, err := ReadProfile(strings.NewReader(text), 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 1}, means)

	means, err = ReadProfile(strings.NewReader(text), 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, means)

	_, err = ReadProfile(strings.NewReader(text), 3)
	assert.ErrorIs(t, err, core.ErrIO)
	_, err = ReadProfile(strings.NewReader("0.5\n"), 0)
	assert.ErrorIs(t, err, core.ErrIO)
	_, err = ReadProfile(strings.NewReader("0 abc\n"), 0)
	assert.ErrorIs(t, err, core.ErrIO)
}

func TestStructureFunction(t *testing.T) {
	data := make([]float64, 16)
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			data[j*4+i] = float64(i)
		}
	}
	img, _ := core.Wrap(data, 4, 4)

	sf, err := StructureFunction(img, 100)
	require.NoError(t, err)
	got, _ := core.Data[float32](sf)
	want := make([]float32, 16)
	want[1*4+1] = 1
	want[1*4+3] = 9
	want[3*4+1] = 1
	want[3*4+3] = 9
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StructureFunction mismatch (-want +got):\n%s", diff)
	}

	sf, err = StructureFunction(img, 1)
	require.NoError(t, err)
	got, _ = core.Data[float32](sf)
	want = make([]float32, 16)
	want[3*4+3] = 9
	assert.Equal(t, want, got)

	_, err = StructureFunction(core.NewBuffer(core.TypeFloat32, 2, 2, 2), 1)
	assert.ErrorIs(t, err, core.ErrDimensionality)
	_, err = StructureFunction(img, 0)
	assert.ErrorIs(t, err, core.ErrDimensionality)
}
