package sensors

// Thin register-level wrappers. Each driver turns one bus transaction
// into a telemetry.Update; conversion math follows the vendor datasheets.

import (
	"io/ioutil"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/envnode/envnode/internal/telemetry"
)

// SHTC3 temperature+humidity sensor.
type SHTC3 struct {
	Bus Bus
}

const shtc3Addr = 0x70

func (d *SHTC3) Name() string { return "shtc3" }

func (d *SHTC3) Sample() (telemetry.Update, error) {
	var raw [6]byte
	if err := d.Bus.Tx(shtc3Addr, []byte{0x35, 0x17}, nil); err != nil { // wakeup
		return nil, errors.Annotate(err, "shtc3 wakeup")
	}
	// measure T first, clock stretching enabled
	if err := d.Bus.Tx(shtc3Addr, []byte{0x7c, 0xa2}, raw[:]); err != nil {
		return nil, errors.Annotate(err, "shtc3 measure")
	}
	if err := d.Bus.Tx(shtc3Addr, []byte{0xb0, 0x98}, nil); err != nil { // sleep
		return nil, errors.Annotate(err, "shtc3 sleep")
	}
	rawT := uint16(raw[0])<<8 | uint16(raw[1])
	rawH := uint16(raw[3])<<8 | uint16(raw[4])
	temp := -45 + 175*float32(rawT)/65536
	hum := 100 * float32(rawH) / 65536
	return func(s *telemetry.Snapshot) {
		s.Temperature = temp
		s.Humidity = hum
	}, nil
}

// SGP40 VOC sensor. Measures with static temperature/humidity
// compensation (25C / 50%), same as before calibration was dropped.
type SGP40 struct {
	Bus Bus
}

const sgp40Addr = 0x59

func (d *SGP40) Name() string { return "sgp40" }

func (d *SGP40) Sample() (telemetry.Update, error) {
	// sgp40_measure_raw_signal, default compensation params
	cmd := []byte{0x26, 0x0f, 0x80, 0x00, 0xa2, 0x66, 0x66, 0x93}
	if err := d.Bus.Tx(sgp40Addr, cmd, nil); err != nil {
		return nil, errors.Annotate(err, "sgp40 measure")
	}
	time.Sleep(30 * time.Millisecond) // datasheet max measure duration
	var raw [3]byte
	if err := d.Bus.Tx(sgp40Addr, nil, raw[:]); err != nil {
		return nil, errors.Annotate(err, "sgp40 read")
	}
	// raw signal ticks; gas index post-processing is out of scope here
	voc := uint32(raw[0])<<8 | uint32(raw[1])
	return func(s *telemetry.Snapshot) { s.VOC = voc }, nil
}

// QMI8658 6-axis IMU, accel +-8g and gyro +-512dps full scale.
type QMI8658 struct {
	Bus Bus
}

const (
	qmi8658Addr   = 0x6b
	qmi8658RegAxL = 0x35
	accScale      = 9.80665 / 4096 // LSB to m/s2
	gyroScale     = 1.0 / 64       // LSB to dps
)

func (d *QMI8658) Name() string { return "qmi8658" }

func (d *QMI8658) Sample() (telemetry.Update, error) {
	var raw [12]byte
	if err := d.Bus.Tx(qmi8658Addr, []byte{qmi8658RegAxL}, raw[:]); err != nil {
		return nil, errors.Annotate(err, "qmi8658 read xyz")
	}
	var acc, gyro [3]float32
	for i := 0; i < 3; i++ {
		acc[i] = float32(int16(uint16(raw[2*i])|uint16(raw[2*i+1])<<8)) * accScale
		gyro[i] = float32(int16(uint16(raw[6+2*i])|uint16(raw[6+2*i+1])<<8)) * gyroScale
	}
	return func(s *telemetry.Snapshot) {
		s.Acc = acc
		s.Gyro = gyro
	}, nil
}

// ADC reads one 12-bit channel from a sysfs IIO voltage file.
type ADC struct {
	name  string
	path  string
	apply func(*telemetry.Snapshot, uint16)
}

func NewLightADC(path string) *ADC {
	return &ADC{name: "light", path: path,
		apply: func(s *telemetry.Snapshot, v uint16) { s.Light = v }}
}

func NewSoundADC(path string) *ADC {
	return &ADC{name: "sound", path: path,
		apply: func(s *telemetry.Snapshot, v uint16) { s.Sound = v }}
}

func (d *ADC) Name() string { return d.name }

func (d *ADC) Sample() (telemetry.Update, error) {
	bs, err := ioutil.ReadFile(d.path)
	if err != nil {
		return nil, errors.Annotatef(err, "adc %s read path=%s", d.name, d.path)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(bs)), 10, 16)
	if err != nil {
		return nil, errors.Annotatef(err, "adc %s parse", d.name)
	}
	if v > 0xfff {
		v = 0xfff
	}
	value := uint16(v)
	return func(s *telemetry.Snapshot) { d.apply(s, value) }, nil
}
