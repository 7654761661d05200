package sensors

import (
	"io/ioutil"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"periph.io/x/periph/conn/physic"

	"github.com/envnode/envnode/internal/telemetry"
	"github.com/envnode/envnode/log2"
)

type fakeSampler struct {
	name    string
	samples uint32
}

func (f *fakeSampler) Name() string { return f.name }
func (f *fakeSampler) Sample() (telemetry.Update, error) {
	n := atomic.AddUint32(&f.samples, 1)
	return func(s *telemetry.Snapshot) { s.VOC = n }, nil
}

func TestTaskPeriodicPublish(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	buf := telemetry.NewBuffer()
	a := alive.NewAlive()
	fs := &fakeSampler{name: "fake"}
	Run(a, log, buf, fs)

	time.Sleep(3*SamplePeriod + SamplePeriod/2)
	a.Stop()
	a.Wait()

	samples := atomic.LoadUint32(&fs.samples)
	assert.True(t, samples >= 2, "expected at least 2 samples, got %d", samples)
	assert.Equal(t, samples, buf.Snapshot().VOC)
}

// concurrent-entry detector in place of real i2c hardware
type fakeI2C struct {
	busy int32
	txs  uint32
	fail error
}

func (f *fakeI2C) String() string                       { return "fake-i2c" }
func (f *fakeI2C) SetSpeed(freq physic.Frequency) error { return nil }
func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if !atomic.CompareAndSwapInt32(&f.busy, 0, 1) {
		panic("concurrent bus transaction")
	}
	time.Sleep(time.Millisecond)
	atomic.AddUint32(&f.txs, 1)
	for i := range r {
		r[i] = byte(i)
	}
	atomic.StoreInt32(&f.busy, 0)
	return f.fail
}

func TestBusSerializesTransactions(t *testing.T) {
	t.Parallel()

	dev := &fakeI2C{}
	bus := &i2cBus{dev: dev}

	const workers = 4
	const perWorker = 25
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			var r [6]byte
			for j := 0; j < perWorker; j++ {
				assert.NoError(t, bus.Tx(0x70, []byte{0x35, 0x17}, r[:]))
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, workers*perWorker, atomic.LoadUint32(&dev.txs))
}

func TestSHTC3Conversion(t *testing.T) {
	t.Parallel()

	bus := &i2cBus{dev: &fakeI2C{}}
	d := &SHTC3{Bus: bus}
	u, err := d.Sample()
	require.NoError(t, err)

	// fakeI2C fills raw with 0,1,2,3,4,5:
	// rawT=0x0001 rawH=0x0304
	s := telemetry.Snapshot{}
	u(&s)
	assert.InDelta(t, -45+175*float64(0x0001)/65536, float64(s.Temperature), 0.001)
	assert.InDelta(t, 100*float64(0x0304)/65536, float64(s.Humidity), 0.001)
}

func TestADCSample(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "in_voltage0_raw")
	require.NoError(t, ioutil.WriteFile(path, []byte("2048\n"), 0644))

	d := NewLightADC(path)
	u, err := d.Sample()
	require.NoError(t, err)
	s := telemetry.Snapshot{}
	u(&s)
	assert.EqualValues(t, 2048, s.Light)

	// clamp to 12 bits
	require.NoError(t, ioutil.WriteFile(path, []byte("65000"), 0644))
	u, err = d.Sample()
	require.NoError(t, err)
	u(&s)
	assert.EqualValues(t, 0xfff, s.Light)

	// device error: sampled channel goes stale, no update produced
	bad := NewSoundADC(filepath.Join(dir, "missing"))
	_, err = bad.Sample()
	assert.Error(t, err)
}
