package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envnode/envnode/log2"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(t testing.TB, c *Config)
		expectErr string
	}
	cases := []Case{
		{"upload", `
upload {
  host = "telemetry.example.com"
  path = "/v1/ingest"
  ca_file = "/etc/envnode/ca.pem"
}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "telemetry.example.com", c.Upload.Host)
				assert.Equal(t, "/v1/ingest", c.Upload.Path)
				assert.Equal(t, "/etc/envnode/ca.pem", c.Upload.CaFile)
			}, ""},

		{"sensors", `
sensors {
  i2c_bus = "1"
  light_dev = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw"
}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "1", c.Sensors.I2CBus)
				assert.Equal(t, "/sys/bus/iio/devices/iio:device0/in_voltage0_raw", c.Sensors.LightDev)
			}, ""},

		{"include-override", `
include "small" {}
upload { host = "final.example.com" }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "final.example.com", c.Upload.Host)
				assert.Equal(t, "small-path", c.Upload.Path)
			}, ""},

		{"include-optional-missing", `
include "nonexist" { optional = true }
upload { host = "a.example.com" }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "a.example.com", c.Upload.Host)
			}, ""},

		{"include-required-missing", `include "nonexist" {}`,
			nil, "config required name=nonexist"},

		{"include-loop", `include "loop1" {}`,
			nil, "config include loop"},

		{"syntax-error", `upload { host = `,
			nil, "config unmarshal"},
	}
	mkread := func(input string) FullReader {
		return NewMockFullReader(map[string]string{
			"test-inline": input,
			"small":       `upload { path = "small-path" }`,
			"loop1":       `include "loop2" {}`,
			"loop2":       `include "loop1" {}`,
		})
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			log := log2.NewTest(t, log2.LDebug)
			fs := mkread(c.input)
			cfg, err := ReadConfig(log, fs, "test-inline")
			if c.expectErr == "" {
				require.NoError(t, err)
				c.check(t, cfg)
			} else {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), c.expectErr),
					"error=%v expected substring=%s", err, c.expectErr)
			}
		})
	}
}

func TestReadConfigNoNames(t *testing.T) {
	t.Parallel()
	// log.Fatal path is not testable here; just ensure reading one empty
	// source yields a zero config without error.
	log := log2.NewTest(t, log2.LDebug)
	fs := NewMockFullReader(map[string]string{"empty": ""})
	cfg, err := ReadConfig(log, fs, "empty")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Upload.Host)
}
