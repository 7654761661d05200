package upload

import (
	"errors"
	"net"
	"syscall"
	"time"
)

// The two handshake sentinels: the TLS layer cannot make progress
// without more socket I/O. Retryable, unlike every other error.
var (
	errWantRead  = errors.New("transport: want read")
	errWantWrite = errors.New("transport: want write")
)

type dialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

// dialer resolves the target host and tries a stream connection to
// each candidate address in order until one succeeds. Address family
// is whatever the resolver returns.
type dialer struct {
	resolve func(host string) ([]string, error)
	dial    dialFunc
	timeout time.Duration
}

func (d *dialer) connect(host, port string) (net.Conn, error) {
	resolve := d.resolve
	if resolve == nil {
		resolve = net.LookupHost
	}
	dial := d.dial
	if dial == nil {
		dial = net.DialTimeout
	}

	addrs, err := resolve(host)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, addr := range addrs {
		conn, err := dial("tcp", net.JoinHostPort(addr, port), d.timeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no addresses resolved")
	}
	return nil, lastErr
}

// netAdapter sits between the TLS layer and the socket, the same job
// as classic BIO send/recv callbacks: would-block conditions become
// the retryable sentinels, everything else passes through as fatal.
type netAdapter struct {
	conn net.Conn
}

func (a *netAdapter) Read(p []byte) (int, error) {
	n, err := a.conn.Read(p)
	if err != nil && wouldBlock(err) {
		return n, errWantRead
	}
	return n, err
}

func (a *netAdapter) Write(p []byte) (int, error) {
	n, err := a.conn.Write(p)
	if err != nil && wouldBlock(err) {
		return n, errWantWrite
	}
	return n, err
}

func (a *netAdapter) Close() error                       { return a.conn.Close() }
func (a *netAdapter) LocalAddr() net.Addr                { return a.conn.LocalAddr() }
func (a *netAdapter) RemoteAddr() net.Addr               { return a.conn.RemoteAddr() }
func (a *netAdapter) SetDeadline(t time.Time) error      { return a.conn.SetDeadline(t) }
func (a *netAdapter) SetReadDeadline(t time.Time) error  { return a.conn.SetReadDeadline(t) }
func (a *netAdapter) SetWriteDeadline(t time.Time) error { return a.conn.SetWriteDeadline(t) }

func wouldBlock(err error) bool {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EAGAIN || errno == syscall.EWOULDBLOCK
	}
	return false
}
