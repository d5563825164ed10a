package gatt

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/yinzara/libblepp"
	"github.com/yinzara/libblepp/adv"
	"github.com/yinzara/libblepp/att"
)

// A Server is the GATT server facade: an attribute database and ATT state
// machine on top of a transport, plus advertising control.
type Server struct {
	tr blepp.Transport
	db *att.DB
	as *att.Server

	mu     sync.Mutex
	params blepp.AdvertisingParams
	haveAd bool

	// Connection lifecycle callbacks. Assign before the first connection
	// is accepted.
	OnConnected    func(conn uint16, peer string)
	OnDisconnected func(conn uint16)
	OnMTUExchanged func(conn uint16, mtu uint16)
}

// NewServer returns a GATT server bound to the transport.
func NewServer(tr blepp.Transport) *Server {
	s := &Server{
		tr: tr,
		db: att.NewDB(),
	}
	s.as = att.NewServer(s.db, tr)
	s.as.OnConnected = func(conn uint16, peer string) {
		if s.OnConnected != nil {
			s.OnConnected(conn, peer)
		}
	}
	s.as.OnDisconnected = func(conn uint16) {
		if s.OnDisconnected != nil {
			s.OnDisconnected(conn)
		}
	}
	s.as.OnMTUExchanged = func(conn uint16, mtu uint16) {
		if s.OnMTUExchanged != nil {
			s.OnMTUExchanged(conn, mtu)
		}
	}
	return s
}

// DB returns the server's attribute database.
func (s *Server) DB() *att.DB { return s.db }

// RegisterServices flattens the service tree into the attribute database
// and reports the assigned handles.
func (s *Server) RegisterServices(defs []*ServiceDef) ([]RegisteredService, error) {
	return RegisterServices(s.db, defs)
}

// StartAdvertising renders the advertising parameters to raw AD bytes
// (unless raw bytes were supplied) and starts advertising.
func (s *Server) StartAdvertising(p blepp.AdvertisingParams) error {
	if len(p.AdvertisingData) > adv.MaxEIRPacketLength || len(p.ScanResponseData) > adv.MaxEIRPacketLength {
		return errors.WithStack(blepp.ErrEIRPacketTooLong)
	}
	if p.AdvertisingData == nil {
		p.AdvertisingData = renderAdvData(p)
	}
	if err := s.tr.StartAdvertising(p); err != nil {
		return errors.Wrap(err, "start advertising")
	}
	s.mu.Lock()
	s.params = p
	s.haveAd = true
	s.mu.Unlock()
	return nil
}

// StopAdvertising stops advertising.
func (s *Server) StopAdvertising() error {
	return s.tr.StopAdvertising()
}

// RestartAdvertising starts advertising again with the parameters of the
// last StartAdvertising call. Backends drop advertising on connect; call
// this from OnConnected or OnDisconnected to stay connectable.
func (s *Server) RestartAdvertising() error {
	s.mu.Lock()
	p, ok := s.params, s.haveAd
	s.mu.Unlock()
	if !ok {
		return errors.New("no previous advertising parameters")
	}
	if s.tr.Advertising() {
		if err := s.tr.StopAdvertising(); err != nil {
			return errors.Wrap(err, "restart advertising")
		}
	}
	return errors.Wrap(s.tr.StartAdvertising(p), "restart advertising")
}

// Advertising reports whether the transport is currently advertising.
func (s *Server) Advertising() bool { return s.tr.Advertising() }

// Notify sends a notification on the characteristic value handle vh.
func (s *Server) Notify(conn, vh uint16, data []byte) (int, error) {
	return s.as.Notify(conn, vh, data)
}

// Indicate sends an indication on the characteristic value handle vh.
func (s *Server) Indicate(conn, vh uint16, data []byte) (int, error) {
	return s.as.Indicate(conn, vh, data)
}

// Disconnect drops a connection.
func (s *Server) Disconnect(conn uint16) error {
	return s.tr.Disconnect(conn)
}

// renderAdvData builds the AD payload: flags, service UUIDs, appearance,
// and as much of the name as fits.
func renderAdvData(p blepp.AdvertisingParams) []byte {
	pkt := adv.Packet(make([]byte, 0, adv.MaxEIRPacketLength))
	pkt = pkt.AppendFlags(adv.FlagGeneralDiscoverable | adv.FlagLEOnly)
	pkt.AppendUUIDFit(p.ServiceUUIDs)
	if p.Appearance != 0 && pkt.Fits(2) {
		pkt = pkt.AppendAppearance(p.Appearance)
	}
	if p.DeviceName != "" {
		pkt = pkt.AppendName(p.DeviceName)
	}
	return pkt
}
