package state

import (
	"context"
	"crypto/x509"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/envnode/envnode/helpers"
	"github.com/envnode/envnode/internal/telemetry"
	"github.com/envnode/envnode/log2"
)

type Global struct {
	Alive  *alive.Alive
	Config *Config
	Log    *log2.Log
	Buffer *telemetry.Buffer
	// Trust is nil when no ca_file is configured; the upload session
	// then runs with relaxed verification (bring-up mode).
	Trust *x509.CertPool
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error state.NewContext() log=nil")
	}
	g := &Global{
		Alive:  alive.NewAlive(),
		Log:    log,
		Buffer: telemetry.NewBuffer(),
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, ContextKey, g) //nolint:staticcheck
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If Init fails, consider Global is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg

	errs := make([]error, 0)
	if g.Config.Upload.Host == "" {
		errs = append(errs, errors.NotValidf("config: upload.host is required"))
	}
	if g.Config.Upload.Path == "" {
		g.Config.Upload.Path = "/"
	}
	if g.Config.Upload.Port == "" {
		g.Config.Upload.Port = "443"
	}
	if g.Config.Link.Iface == "" {
		g.Config.Link.Iface = "wlan0"
		g.Log.Debugf("config: link.iface=empty default=%s", g.Config.Link.Iface)
	}
	if g.Config.Upload.LogDebug {
		g.Log.SetLevel(log2.LDebug)
	}

	if g.Config.Upload.CaFile != "" {
		pem, err := ioutil.ReadFile(g.Config.Upload.CaFile)
		if err != nil {
			errs = append(errs, errors.Annotatef(err, "config: upload.ca_file=%s", g.Config.Upload.CaFile))
		} else {
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				errs = append(errs, errors.NotValidf("config: upload.ca_file=%s no certificates", g.Config.Upload.CaFile))
			} else {
				g.Trust = pool
			}
		}
	} else {
		g.Log.Infof("config: upload.ca_file=empty certificate verification relaxed")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		g.Log.Infof("graceful stop")
		g.Alive.Stop()
	}()

	return helpers.FoldErrors(errs)
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	if err := g.Init(ctx, cfg); err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

func (g *Global) Error(e error) {
	if e != nil {
		g.Log.Error(errors.ErrorStack(e))
	}
}
