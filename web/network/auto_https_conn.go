// Package network lets the HTTPS listener answer plain HTTP requests sent to
// the TLS port with a redirect to the https URL.
package network

import (
	"bufio"
	"bytes"
	"net"
	"net/http"
	"sync"
)

// tlsHandshake is the record type byte every TLS connection starts with.
const tlsHandshake = 0x16

// AutoHttpsConn inspects the first bytes of a connection. A plain HTTP
// request gets a permanent redirect and the connection is closed; anything
// else is replayed untouched to the TLS layer.
type AutoHttpsConn struct {
	net.Conn

	firstBuf []byte
	bufStart int

	readRequestOnce sync.Once
}

func NewAutoHttpsConn(conn net.Conn) net.Conn {
	return &AutoHttpsConn{Conn: conn}
}

func (c *AutoHttpsConn) readRequest() {
	buf := make([]byte, 4096)
	n, err := c.Conn.Read(buf)
	c.firstBuf = buf[:n]
	if err != nil || n == 0 || c.firstBuf[0] == tlsHandshake {
		return
	}

	request, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(c.firstBuf)))
	if err != nil {
		return
	}
	resp := http.Response{
		StatusCode: http.StatusPermanentRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", "https://"+request.Host+request.RequestURI)
	resp.Header.Set("Connection", "close")
	_ = resp.Write(c.Conn)
	_ = c.Close()
	c.firstBuf = nil
}

func (c *AutoHttpsConn) Read(buf []byte) (int, error) {
	c.readRequestOnce.Do(c.readRequest)

	if c.firstBuf != nil {
		n := copy(buf, c.firstBuf[c.bufStart:])
		c.bufStart += n
		if c.bufStart >= len(c.firstBuf) {
			c.firstBuf = nil
		}
		return n, nil
	}

	return c.Conn.Read(buf)
}
