package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	isatty "github.com/mattn/go-isatty"

	"github.com/envnode/envnode/internal/sensors"
	"github.com/envnode/envnode/internal/state"
	"github.com/envnode/envnode/internal/upload"
	"github.com/envnode/envnode/internal/uploader"
	"github.com/envnode/envnode/log2"
)

func main() {
	flagConfig := flag.String("config", "envnode.hcl", "")
	flag.Parse()

	logger := log2.NewStderr(log2.LInfo)
	if sdnotify("start") {
		// under systemd, journal adds timestamps
		logger.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		logger.SetFlags(log2.LInteractiveFlags)
	} else {
		logger.SetFlags(log2.LStdFlags)
	}
	logger.Infof("hello")

	ctx, g := state.NewContext(logger)
	config := state.MustReadConfig(logger, state.NewOsFullReader(), *flagConfig)
	g.MustInit(ctx, config)
	logger.Debugf("config=%+v", config)

	bus, err := sensors.OpenI2C(config.Sensors.I2CBus)
	if err != nil {
		logger.Fatal(errors.ErrorStack(err))
	}
	samplers := []sensors.Sampler{
		&sensors.SHTC3{Bus: bus},
		&sensors.SGP40{Bus: bus},
		&sensors.QMI8658{Bus: bus},
	}
	if config.Sensors.LightDev != "" {
		samplers = append(samplers, sensors.NewLightADC(config.Sensors.LightDev))
	}
	if config.Sensors.SoundDev != "" {
		samplers = append(samplers, sensors.NewSoundADC(config.Sensors.SoundDev))
	}
	sensors.Run(g.Alive, logger, g.Buffer, samplers...)

	session := upload.NewSession(logger, g.Trust)
	session.Port = config.Upload.Port
	up := &uploader.Uploader{
		Log:         logger,
		Buffer:      g.Buffer,
		Link:        uploader.SysfsLink{Iface: config.Link.Iface},
		Session:     session,
		Host:        config.Upload.Host,
		Path:        config.Upload.Path,
		LinkTimeout: time.Duration(config.Link.TimeoutSec) * time.Second,
	}
	up.Start(g.Alive)

	sdnotify(daemon.SdNotifyReady)
	logger.Infof("init complete, running")
	g.Alive.Wait()
	sdnotify(daemon.SdNotifyStopping)
	logger.Infof("stopped")
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
