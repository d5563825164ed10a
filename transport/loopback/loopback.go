// Package loopback provides an in-memory Transport for tests and
// examples. The test side plays the peer: it injects connections and
// PDUs, and inspects the frames the server sent.
package loopback

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yinzara/libblepp"
)

var logger = logrus.WithField("prefix", "loopback")

// A Frame is one outbound PDU captured by the transport.
type Frame struct {
	Conn uint16
	PDU  []byte
}

// Transport is an in-memory blepp.Transport.
type Transport struct {
	mu          sync.Mutex
	handler     blepp.Handler
	mtus        map[uint16]uint16
	sec         map[uint16]blepp.LinkSecurity
	sent        []Frame
	advertising bool
	params      blepp.AdvertisingParams
}

// New returns an idle loopback transport.
func New() *Transport {
	return &Transport{
		mtus: make(map[uint16]uint16),
		sec:  make(map[uint16]blepp.LinkSecurity),
	}
}

// SetHandler implements blepp.Transport.
func (t *Transport) SetHandler(h blepp.Handler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Send implements blepp.Transport; the frame is captured for inspection.
func (t *Transport) Send(conn uint16, pdu []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.mtus[conn]; !ok {
		return 0, errors.Wrapf(blepp.ErrNotConnected, "conn %d", conn)
	}
	t.sent = append(t.sent, Frame{Conn: conn, PDU: append([]byte(nil), pdu...)})
	return len(pdu), nil
}

// StartAdvertising implements blepp.Transport.
func (t *Transport) StartAdvertising(p blepp.AdvertisingParams) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advertising = true
	t.params = p
	logger.Debugf("advertising as %q", p.DeviceName)
	return nil
}

// StopAdvertising implements blepp.Transport.
func (t *Transport) StopAdvertising() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advertising = false
	return nil
}

// Advertising implements blepp.Transport.
func (t *Transport) Advertising() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.advertising
}

// AdvertisingParams returns the parameters of the current advertisement.
func (t *Transport) AdvertisingParams() blepp.AdvertisingParams {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params
}

// Disconnect implements blepp.Transport; the disconnect event is
// delivered synchronously.
func (t *Transport) Disconnect(conn uint16) error {
	t.mu.Lock()
	if _, ok := t.mtus[conn]; !ok {
		t.mu.Unlock()
		return errors.Wrapf(blepp.ErrNotConnected, "conn %d", conn)
	}
	delete(t.mtus, conn)
	delete(t.sec, conn)
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		h.Disconnected(conn)
	}
	return nil
}

// MTU implements blepp.Transport.
func (t *Transport) MTU(conn uint16) uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if mtu, ok := t.mtus[conn]; ok {
		return mtu
	}
	return 23
}

// SetMTU implements blepp.Transport.
func (t *Transport) SetMTU(conn uint16, mtu uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.mtus[conn]; !ok {
		return errors.Wrapf(blepp.ErrNotConnected, "conn %d", conn)
	}
	t.mtus[conn] = mtu
	return nil
}

// Security implements blepp.Transport.
func (t *Transport) Security(conn uint16) blepp.LinkSecurity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sec[conn]
}

// Peer-side drivers.

// Connect accepts a simulated connection and delivers the connected event.
func (t *Transport) Connect(conn uint16, peer string) {
	t.mu.Lock()
	t.mtus[conn] = 23
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		h.Connected(blepp.ConnectionParams{
			ConnHandle:  conn,
			PeerAddress: peer,
			MTU:         23,
		})
	}
}

// Receive delivers one inbound PDU to the handler, synchronously.
func (t *Transport) Receive(conn uint16, pdu []byte) {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		h.Received(conn, pdu)
	}
}

// SetSecurity flips the simulated link security of a connection.
func (t *Transport) SetSecurity(conn uint16, s blepp.LinkSecurity) {
	t.mu.Lock()
	t.sec[conn] = s
	t.mu.Unlock()
}

// ReportMTU delivers a stack-negotiated MTU change event.
func (t *Transport) ReportMTU(conn uint16, mtu uint16) {
	t.mu.Lock()
	t.mtus[conn] = mtu
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		h.MTUChanged(conn, mtu)
	}
}

// Sent drains and returns the captured outbound frames.
func (t *Transport) Sent() []Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.sent
	t.sent = nil
	return out
}
