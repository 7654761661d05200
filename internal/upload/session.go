// Package upload delivers one JSON document per attempt to a fixed
// HTTPS endpoint and reports a discriminated outcome. It never leaks
// a socket or protocol state on any exit path.
package upload

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/juju/errors"

	"github.com/envnode/envnode/log2"
)

const (
	// Request and response live in fixed 1024-byte buffers. The bound
	// is a protocol constraint: an oversized request is rejected
	// before any byte reaches the wire.
	bufferSize = 1024

	DefaultPort    = "443"
	defaultTimeout = 30 * time.Second
)

// secureConn is the encrypted channel over the bound transport,
// *tls.Conn in production. Dropping protocol state does not close the
// socket; the session owns the socket separately.
type secureConn interface {
	Handshake() error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Session posts JSON documents to one fixed remote endpoint. Each
// Post is one self-contained attempt: whatever it acquires it
// releases before returning, on success and on every failure path.
// A Session is owned by the single task that created it.
type Session struct {
	Log   *log2.Log
	Trust *x509.CertPool // nil = no trust store, verification relaxed
	Port  string

	dialer  dialer
	secure  func(net.Conn, *tls.Config) secureConn
	entropy io.Reader // nil = crypto/rand
}

func NewSession(log *log2.Log, trust *x509.CertPool) *Session {
	return &Session{
		Log:    log,
		Trust:  trust,
		Port:   DefaultPort,
		dialer: dialer{timeout: defaultTimeout},
		secure: func(conn net.Conn, conf *tls.Config) secureConn {
			return tls.Client(conn, conf)
		},
	}
}

func (s *Session) Post(host, path string, body []byte) Result {
	s.Log.Debugf("upload: POST https://%s%s bytes=%d", host, path, len(body))

	// init: deterministic RNG from entropy + personalization
	rng, err := newDRBG(s.entropy)
	if err != nil {
		return Result{Outcome: SetupFailure, Err: errors.Annotate(err, "rng")}
	}

	// configure: stream client defaults, trust store, RNG
	conf := &tls.Config{
		Rand:       rng,
		RootCAs:    s.Trust,
		MinVersion: tls.VersionTLS12,
		ServerName: host, // SNI and certificate hostname match
	}
	if s.Trust == nil {
		// bring-up relaxation: without a trust store verification is
		// optional, not required
		conf.InsecureSkipVerify = true
	}

	// connect: each resolved address in order, fixed port
	port := s.Port
	if port == "" {
		port = DefaultPort
	}
	conn, err := s.dialer.connect(host, port)
	if err != nil {
		return Result{Outcome: ConnectFailure,
			Err: errors.Annotatef(err, "connect host=%s port=%s", host, port)}
	}
	// the one socket release, covers every path below; TLS state, the
	// config, the trust holder and the RNG are plain memory
	defer conn.Close()

	// bind transport: adapter callbacks between TLS and the socket
	sc := s.secure(&netAdapter{conn: conn}, conf)

	// handshake: busy retry on the two sentinels, no backoff, no limit
	for {
		err = sc.Handshake()
		if err == nil {
			break
		}
		if stderrors.Is(err, errWantRead) || stderrors.Is(err, errWantWrite) {
			continue
		}
		return Result{Outcome: HandshakeFailure, Err: errors.Annotate(err, "handshake")}
	}

	// exchange: bounded request, size checked before any send
	var reqArr [bufferSize]byte
	req, err := formatRequest(reqArr[:0], host, path, body)
	if err != nil {
		return Result{Outcome: RequestTooLarge, Err: err}
	}
	n, err := sc.Write(req)
	if err != nil || n <= 0 {
		if err == nil {
			err = errors.Errorf("write n=%d", n)
		}
		return Result{Outcome: SendFailure, Err: errors.Annotate(err, "send")}
	}

	// single bounded read, last byte reserved as terminator
	var respArr [bufferSize]byte
	n, err = sc.Read(respArr[:bufferSize-1])
	switch {
	case n == 0 && (err == nil || err == io.EOF):
		s.Log.Infof("upload: server closed connection")
		return Result{Outcome: PeerClosed}
	case err != nil && err != io.EOF:
		return Result{Outcome: ReceiveFailure, Err: errors.Annotate(err, "receive")}
	}
	resp := make([]byte, n)
	copy(resp, respArr[:n])
	s.Log.Debugf("upload: received %d bytes: %s", n, resp)
	return Result{Outcome: Success, Code: statusCode(resp), Response: resp}
}

// statusCode picks the status out of "HTTP/1.x NNN ...", 0 if the
// response does not start with one.
func statusCode(resp []byte) int {
	if len(resp) < 12 || !bytes.HasPrefix(resp, []byte("HTTP/1.")) {
		return 0
	}
	code, err := strconv.Atoi(string(resp[9:12]))
	if err != nil {
		return 0
	}
	return code
}

func formatRequest(dst []byte, host, path string, body []byte) ([]byte, error) {
	head := fmt.Sprintf("POST %s HTTP/1.1\r\n"+
		"Host: %s\r\n"+
		"Content-Type: application/json\r\n"+
		"Content-Length: %d\r\n"+
		"Connection: close\r\n"+
		"\r\n",
		path, host, len(body))
	if len(head)+len(body) > cap(dst) {
		return nil, errors.Errorf("request too large need=%d cap=%d",
			len(head)+len(body), cap(dst))
	}
	dst = append(dst, head...)
	return append(dst, body...), nil
}
