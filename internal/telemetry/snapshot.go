package telemetry

import "fmt"

// Snapshot holds the latest value of every sensor channel.
// All fields are always present; zero values until first sample.
type Snapshot struct {
	Temperature float32 // Celsius
	Humidity    float32 // percent
	VOC         uint32  // gas index
	Light       uint16  // raw ADC 0-4095
	Sound       uint16  // raw ADC 0-4095
	Acc         [3]float32
	Gyro        [3]float32
}

// AppendBody appends the fixed-layout JSON document to dst.
// Field order and 2-decimal float formatting are part of the wire
// contract, the collector validates schema strictly.
func AppendBody(dst []byte, s Snapshot) []byte {
	return append(dst, fmt.Sprintf(
		`{"temperature":%.2f,"humidity":%.2f,"voc":%d,"light":%d,"sound":%d,`+
			`"accelerometer":{"x":%.2f,"y":%.2f,"z":%.2f},`+
			`"gyroscope":{"x":%.2f,"y":%.2f,"z":%.2f}}`,
		s.Temperature, s.Humidity, s.VOC, s.Light, s.Sound,
		s.Acc[0], s.Acc[1], s.Acc[2],
		s.Gyro[0], s.Gyro[1], s.Gyro[2])...)
}
