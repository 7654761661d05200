package sensors

import (
	"sync"

	"github.com/juju/errors"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/envnode/envnode/helpers"
)

// Bus is one shared hardware bus. Tx serializes access internally with
// an unbounded wait: a device read must not be skipped, only delayed.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

type i2cBus struct {
	lk  sync.Mutex
	dev i2c.Bus
}

// OpenI2C opens a periph.io I2C bus by name ("" picks the first one).
func OpenI2C(name string) (Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	dev, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Annotatef(err, "i2c open name=%s", name)
	}
	return &i2cBus{dev: dev}, nil
}

func (b *i2cBus) Tx(addr uint16, w, r []byte) error {
	return helpers.WithLockError(&b.lk, func() error {
		return b.dev.Tx(addr, w, r)
	})
}
