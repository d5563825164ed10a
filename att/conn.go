package att

import (
	"sync"

	"github.com/yinzara/libblepp"
)

// CCCD subscription bits.
const (
	cccNotify   = 0x0001
	cccIndicate = 0x0002
)

// conn is the per-connection state tracked by the server: the negotiated
// MTU and the CCCD subscription bits per characteristic value handle.
type conn struct {
	id     uint16
	params blepp.ConnectionParams
	mtu    uint16

	// subs maps a characteristic value handle to its CCCD bits for this
	// connection. Populated exclusively by Write Requests landing on a
	// CCCD row.
	subs map[uint16]uint16

	// sendMu serializes outbound PDUs for this connection; Send is not
	// assumed re-entrant per connection.
	sendMu sync.Mutex

	// indGate holds a token while an indication awaits its confirmation;
	// it keeps at most one indication outstanding per connection.
	indGate chan struct{}

	// closed is closed when the connection goes away, releasing any
	// waiter blocked on indGate.
	closed chan struct{}
}

func newConn(p blepp.ConnectionParams) *conn {
	mtu := p.MTU
	if mtu < DefaultMTU {
		mtu = DefaultMTU
	}
	return &conn{
		id:      p.ConnHandle,
		params:  p,
		mtu:     mtu,
		subs:    make(map[uint16]uint16),
		indGate: make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
}

// raiseMTU records a negotiated MTU. The MTU starts at the ATT default and
// is never lowered.
func (c *conn) raiseMTU(mtu uint16) {
	if mtu < DefaultMTU {
		mtu = DefaultMTU
	}
	if mtu > c.mtu {
		c.mtu = mtu
	}
}

// confirmIndication releases the indication slot, if one is outstanding.
func (c *conn) confirmIndication() {
	select {
	case <-c.indGate:
	default:
	}
}
