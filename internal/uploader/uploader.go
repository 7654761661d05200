// Package uploader is the single consumer of the telemetry buffer:
// every period it snapshots the buffer, serializes the fixed JSON body
// and drives one upload attempt.
package uploader

import (
	"time"

	"github.com/temoto/alive/v2"

	"github.com/envnode/envnode/helpers"
	"github.com/envnode/envnode/helpers/atomic_clock"
	"github.com/envnode/envnode/internal/telemetry"
	"github.com/envnode/envnode/internal/upload"
	"github.com/envnode/envnode/log2"
)

const (
	DefaultPeriod = 30 * time.Second
	linkPollDelay = 1 * time.Second
)

// Poster is the upload session seam; *upload.Session in production.
type Poster interface {
	Post(host, path string, body []byte) upload.Result
}

// LinkChecker reports underlying network connectivity. External to
// this core; production reads the interface operstate.
type LinkChecker interface {
	IsUp() bool
}

type Uploader struct {
	Log     *log2.Log
	Buffer  *telemetry.Buffer
	Link    LinkChecker
	Session Poster
	Host    string
	Path    string
	// LinkTimeout only raises the link wait to error level; the task
	// keeps waiting, the device is useless without the network anyway.
	LinkTimeout time.Duration

	period    time.Duration // 0 = DefaultPeriod
	pollDelay time.Duration // 0 = linkPollDelay

	lastAttempt atomic_clock.Clock
	lastSuccess atomic_clock.Clock
	lastError   helpers.AtomicError
}

// Start runs the task under a. One task per Uploader.
func (u *Uploader) Start(a *alive.Alive) {
	if u.period == 0 {
		u.period = DefaultPeriod
	}
	if u.pollDelay == 0 {
		u.pollDelay = linkPollDelay
	}
	if !a.Add(1) {
		return
	}
	go u.task(a)
}

func (u *Uploader) task(a *alive.Alive) {
	defer a.Done()
	stopch := a.StopChan()

	// link wait runs once at task start, not per cycle
	waitBegin := atomic_clock.Now()
	warned := false
	for !u.Link.IsUp() {
		if u.LinkTimeout > 0 && !warned && atomic_clock.Since(waitBegin) > u.LinkTimeout {
			u.Log.Errorf("uploader: link still down after %v", u.LinkTimeout)
			warned = true
		}
		u.Log.Infof("uploader: waiting for link")
		select {
		case <-time.After(u.pollDelay):
		case <-stopch:
			return
		}
	}
	u.Log.Infof("uploader: link up, starting send loop")

	for a.IsRunning() {
		select {
		case <-time.After(u.period):
		case <-stopch:
			return
		}
		u.UploadOnce()
	}
}

// UploadOnce performs one full attempt and returns its outcome.
// No retry on failure; the next attempt is the next period.
func (u *Uploader) UploadOnce() upload.Result {
	u.lastAttempt.SetNow()
	snap := u.Buffer.Snapshot()
	body := telemetry.AppendBody(nil, snap)
	u.Log.Debugf("uploader: body=%s", body)

	r := u.Session.Post(u.Host, u.Path, body)
	u.lastError.Store(r.Err)
	if r.Ok() {
		u.lastSuccess.SetNow()
		u.Log.Infof("uploader: sent outcome=%s code=%d response=%d bytes", r.Outcome, r.Code, len(r.Response))
	} else {
		u.Log.Errorf("uploader: outcome=%s err=%v", r.Outcome, r.Err)
	}
	return r
}

// LastError returns the error of the most recent attempt, nil after a
// delivered one; ok is false before any attempt completed.
func (u *Uploader) LastError() (err error, ok bool) {
	return u.lastError.Load()
}

// LastSuccessAge returns time since the last delivered upload, or
// false if none succeeded yet.
func (u *Uploader) LastSuccessAge() (time.Duration, bool) {
	if u.lastSuccess.IsZero() {
		return 0, false
	}
	return atomic_clock.Since(&u.lastSuccess), true
}
