// Package sensors runs the periodic sampling tasks that feed the
// shared telemetry buffer.
package sensors

import (
	"time"

	"github.com/temoto/alive/v2"

	"github.com/envnode/envnode/internal/telemetry"
	"github.com/envnode/envnode/log2"
)

// All sampling tasks run at the same fixed rate.
const SamplePeriod = 100 * time.Millisecond

// Sampler reads one channel set from hardware. Sample must not touch
// the telemetry buffer: it returns an update to be published by the
// task loop after any bus access is finished. This keeps the bus lock
// and the buffer lock from ever being held together.
type Sampler interface {
	Name() string
	Sample() (telemetry.Update, error)
}

// Run starts one periodic task per sampler under a.
func Run(a *alive.Alive, log *log2.Log, buf *telemetry.Buffer, samplers ...Sampler) {
	for _, s := range samplers {
		if !a.Add(1) {
			return
		}
		go task(a, log, buf, s)
	}
}

func task(a *alive.Alive, log *log2.Log, buf *telemetry.Buffer, s Sampler) {
	defer a.Done()
	stopch := a.StopChan()
	for a.IsRunning() {
		u, err := s.Sample()
		if err != nil {
			// no error path upward, channel stays stale this cycle
			log.Debugf("sensor %s: sample err=%v", s.Name(), err)
		} else if !buf.Update(u) {
			log.Debugf("sensor %s: buffer busy, drop", s.Name())
		}

		select {
		case <-time.After(SamplePeriod):
		case <-stopch:
			return
		}
	}
}
