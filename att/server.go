package att

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"

	"github.com/yinzara/libblepp"
)

// DefaultMTU is the initial ATT MTU of every connection.
const DefaultMTU = 23

// MaxMTU is the largest MTU this server offers in an MTU exchange.
const MaxMTU = 517

// A Server is the server-side ATT state machine. It sits on top of a
// Transport, answers inbound requests out of its attribute database, and
// emits notifications and indications gated by per-connection CCCD state.
//
// The state machine runs to completion on the goroutine delivering the
// inbound PDU; the transport must not interleave deliveries for one
// connection.
type Server struct {
	db *DB
	tr blepp.Transport

	mu    sync.Mutex
	conns map[uint16]*conn

	// OnConnected, OnDisconnected and OnMTUExchanged are invoked after
	// the corresponding state change has been recorded.
	OnConnected    func(conn uint16, peer string)
	OnDisconnected func(conn uint16)
	OnMTUExchanged func(conn uint16, mtu uint16)
}

// NewServer returns a server answering out of db and registers it as the
// transport's event handler.
func NewServer(db *DB, tr blepp.Transport) *Server {
	s := &Server{
		db:    db,
		tr:    tr,
		conns: make(map[uint16]*conn),
	}
	tr.SetHandler(s)
	return s
}

// DB returns the attribute database the server answers from.
func (s *Server) DB() *DB { return s.db }

// Connected implements blepp.Handler.
func (s *Server) Connected(p blepp.ConnectionParams) {
	s.mu.Lock()
	s.conns[p.ConnHandle] = newConn(p)
	s.mu.Unlock()

	logger.Infof("connected: conn=%d addr=%s", p.ConnHandle, p.PeerAddress)
	if s.OnConnected != nil {
		s.OnConnected(p.ConnHandle, p.PeerAddress)
	}
}

// Disconnected implements blepp.Handler. The connection's entries are
// removed atomically; an in-flight indication waiter is released.
func (s *Server) Disconnected(id uint16) {
	s.mu.Lock()
	c, ok := s.conns[id]
	delete(s.conns, id)
	s.mu.Unlock()
	if ok {
		close(c.closed)
	}

	logger.Infof("disconnected: conn=%d", id)
	if s.OnDisconnected != nil {
		s.OnDisconnected(id)
	}
}

// MTUChanged implements blepp.Handler; integrated stacks report the MTU
// they negotiated themselves.
func (s *Server) MTUChanged(id uint16, mtu uint16) {
	s.mu.Lock()
	if c, ok := s.conns[id]; ok {
		c.raiseMTU(mtu)
	}
	s.mu.Unlock()
}

// Received implements blepp.Handler: it parses one inbound ATT PDU,
// performs the request against the database, and writes the response, if
// any, back through the transport. Protocol failures become Error
// Response PDUs; a bad request never drops the connection.
func (s *Server) Received(id uint16, pdu []byte) {
	c := s.lookup(id)
	if c == nil {
		logger.Warnf("PDU for unknown connection %d", id)
		return
	}
	if len(pdu) == 0 {
		logger.Warnf("conn %d: empty PDU", id)
		return
	}
	if rsp := s.handle(c, pdu); rsp != nil {
		s.send(c, rsp)
	}
}

func (s *Server) lookup(id uint16) *conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[id]
}

func (s *Server) mtu(c *conn) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(c.mtu)
}

func (s *Server) send(c *conn, pdu []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if _, err := s.tr.Send(c.id, pdu); err != nil {
		logger.Errorf("conn %d: send failed: %v", c.id, err)
	}
}

func (s *Server) handle(c *conn, pdu []byte) []byte {
	op := pdu[0]
	switch op {
	case ExchangeMTURequestCode:
		return s.handleMTU(c, pdu)
	case FindInformationRequestCode:
		return s.handleFindInfo(c, pdu)
	case FindByTypeValueRequestCode:
		return s.handleFindByTypeValue(c, pdu)
	case ReadByTypeRequestCode:
		return s.handleReadByType(c, pdu)
	case ReadRequestCode:
		return s.handleRead(c, pdu)
	case ReadBlobRequestCode:
		return s.handleReadBlob(c, pdu)
	case ReadByGroupTypeRequestCode:
		return s.handleReadByGroup(c, pdu)
	case WriteRequestCode, WriteCommandCode:
		return s.handleWrite(c, op, pdu)
	case PrepareWriteRequestCode, ExecuteWriteRequestCode:
		// No prepare queue; long writes are rejected, not queued.
		return NewErrorResponse(op, 0, blepp.ErrReqNotSupp)
	case SignedWriteCommandCode:
		logger.Warnf("conn %d: signed write command not supported, ignored", c.id)
		return nil
	case HandleValueConfirmationCode:
		logger.Debugf("conn %d: indication confirmed", c.id)
		c.confirmIndication()
		return nil
	default:
		logger.Warnf("conn %d: unsupported ATT opcode 0x%02X [% X]", c.id, op, pdu)
		return NewErrorResponse(op, 0, blepp.ErrReqNotSupp)
	}
}

// MTU Exchange [Vol 3, Part F, 3.4.2]

func (s *Server) handleMTU(c *conn, pdu []byte) []byte {
	if len(pdu) < 3 {
		return NewErrorResponse(pdu[0], 0, blepp.ErrInvalidPDU)
	}
	client := ExchangeMTURequest(pdu).ClientRxMTU()
	if client < DefaultMTU {
		client = DefaultMTU
	}
	mtu := client
	if mtu > MaxMTU {
		mtu = MaxMTU
	}

	s.mu.Lock()
	c.raiseMTU(mtu)
	mtu = c.mtu
	s.mu.Unlock()

	s.tr.SetMTU(c.id, mtu)
	logger.Infof("conn %d: MTU negotiated to %d", c.id, mtu)

	rsp := ExchangeMTUResponse(make([]byte, 3))
	rsp.SetAttributeOpcode()
	rsp.SetServerRxMTU(MaxMTU)

	if s.OnMTUExchanged != nil {
		s.OnMTUExchanged(c.id, mtu)
	}
	return rsp
}

// Find Information [Vol 3, Part F, 3.4.3.1]

func (s *Server) handleFindInfo(c *conn, pdu []byte) []byte {
	if len(pdu) < 5 {
		return NewErrorResponse(pdu[0], 0, blepp.ErrInvalidPDU)
	}
	req := FindInformationRequest(pdu)
	start, end := req.StartingHandle(), req.EndingHandle()
	if start == 0 || start > end {
		return NewErrorResponse(pdu[0], start, blepp.ErrInvalidHandle)
	}

	attrs := s.db.Range(start, end)
	if len(attrs) == 0 {
		return NewErrorResponse(pdu[0], start, blepp.ErrAttrNotFound)
	}

	mtu := s.mtu(c)
	rsp := make([]byte, 2, mtu)
	rsp[0] = FindInformationResponseCode

	// One format per response: 0x01 for 16-bit types, 0x02 for 128-bit.
	format := byte(0x01)
	if attrs[0].Type.Len() == 16 {
		format = 0x02
	}
	rsp[1] = format

	for _, a := range attrs {
		if (format == 0x01) != (a.Type.Len() == 2) {
			break
		}
		if len(rsp)+2+a.Type.Len() > mtu {
			break
		}
		rsp = blepp.PutUint16(rsp, a.Handle)
		rsp = append(rsp, a.Type...)
	}
	return rsp
}

// Find By Type Value [Vol 3, Part F, 3.4.3.3]

func (s *Server) handleFindByTypeValue(c *conn, pdu []byte) []byte {
	if len(pdu) < 7 {
		return NewErrorResponse(pdu[0], 0, blepp.ErrInvalidPDU)
	}
	req := FindByTypeValueRequest(pdu)
	start, end := req.StartingHandle(), req.EndingHandle()
	if start == 0 || start > end {
		return NewErrorResponse(pdu[0], start, blepp.ErrInvalidHandle)
	}

	matches := s.db.FindByTypeValue(start, end, blepp.UUID16(req.AttributeType()), req.AttributeValue())
	if len(matches) == 0 {
		return NewErrorResponse(pdu[0], start, blepp.ErrAttrNotFound)
	}

	mtu := s.mtu(c)
	rsp := make([]byte, 1, mtu)
	rsp[0] = FindByTypeValueResponseCode
	for _, a := range matches {
		if len(rsp)+4 > mtu {
			break
		}
		rsp = blepp.PutUint16(rsp, a.Handle)
		rsp = blepp.PutUint16(rsp, a.EndGroup)
	}
	return rsp
}

// Read By Type [Vol 3, Part F, 3.4.4.1]

func (s *Server) handleReadByType(c *conn, pdu []byte) []byte {
	typ, ecode := rangeTypeUUID(pdu)
	if ecode != blepp.ErrSuccess {
		return NewErrorResponse(pdu[0], 0, ecode)
	}
	req := ReadByTypeRequest(pdu)
	start, end := req.StartingHandle(), req.EndingHandle()
	if start == 0 || start > end {
		return NewErrorResponse(pdu[0], start, blepp.ErrInvalidHandle)
	}

	attrs := s.db.FindByType(start, end, typ)
	if len(attrs) == 0 {
		return NewErrorResponse(pdu[0], start, blepp.ErrAttrNotFound)
	}

	mtu := s.mtu(c)
	rsp := make([]byte, 2, mtu)
	rsp[0] = ReadByTypeResponseCode

	// Every pair in the response has the length of the first readable
	// match; longer values are truncated to it.
	dlen := 0
	sec := s.tr.Security(c.id)
	for _, a := range attrs {
		if checkRead(a, sec) != blepp.ErrSuccess {
			continue
		}
		v, ecode := s.readValue(c, a, 0)
		if ecode != blepp.ErrSuccess {
			continue
		}
		if dlen == 0 {
			dlen = 2 + len(v)
			if dlen > 255 {
				dlen = 255
			}
			if dlen > mtu-2 {
				dlen = mtu - 2
			}
			rsp[1] = byte(dlen)
		}
		if 2+len(v) < dlen {
			break
		}
		if len(rsp)+dlen > mtu {
			break
		}
		rsp = blepp.PutUint16(rsp, a.Handle)
		rsp = append(rsp, v[:dlen-2]...)
	}
	if dlen == 0 {
		return NewErrorResponse(pdu[0], start, blepp.ErrAttrNotFound)
	}
	return rsp
}

// Read [Vol 3, Part F, 3.4.4.3]

func (s *Server) handleRead(c *conn, pdu []byte) []byte {
	if len(pdu) < 3 {
		return NewErrorResponse(pdu[0], 0, blepp.ErrInvalidPDU)
	}
	h := ReadRequest(pdu).AttributeHandle()
	a, ok := s.db.Get(h)
	if !ok {
		return NewErrorResponse(pdu[0], h, blepp.ErrInvalidHandle)
	}
	if ecode := checkRead(a, s.tr.Security(c.id)); ecode != blepp.ErrSuccess {
		return NewErrorResponse(pdu[0], h, ecode)
	}

	v, ecode := s.readValue(c, a, 0)
	if ecode != blepp.ErrSuccess {
		return NewErrorResponse(pdu[0], h, ecode)
	}

	mtu := s.mtu(c)
	if len(v) > mtu-1 {
		v = v[:mtu-1]
	}
	rsp := make([]byte, 1, 1+len(v))
	rsp[0] = ReadResponseCode
	return append(rsp, v...)
}

// Read Blob [Vol 3, Part F, 3.4.4.5]

func (s *Server) handleReadBlob(c *conn, pdu []byte) []byte {
	if len(pdu) < 5 {
		return NewErrorResponse(pdu[0], 0, blepp.ErrInvalidPDU)
	}
	req := ReadBlobRequest(pdu)
	h, off := req.AttributeHandle(), req.ValueOffset()
	a, ok := s.db.Get(h)
	if !ok {
		return NewErrorResponse(pdu[0], h, blepp.ErrInvalidHandle)
	}
	if ecode := checkRead(a, s.tr.Security(c.id)); ecode != blepp.ErrSuccess {
		return NewErrorResponse(pdu[0], h, ecode)
	}

	var v []byte
	if rh := a.ReadHandler(); rh != nil {
		var ecode blepp.ATTError
		v, ecode = rh.ServeRead(c.id, off)
		if ecode != blepp.ErrSuccess {
			return NewErrorResponse(pdu[0], h, ecode)
		}
	} else {
		full := s.db.value(a.Handle)
		if int(off) >= len(full) {
			return NewErrorResponse(pdu[0], h, blepp.ErrInvalidOffset)
		}
		v = full[off:]
	}

	mtu := s.mtu(c)
	if len(v) > mtu-1 {
		v = v[:mtu-1]
	}
	rsp := make([]byte, 1, 1+len(v))
	rsp[0] = ReadBlobResponseCode
	return append(rsp, v...)
}

// Read By Group Type [Vol 3, Part F, 3.4.4.9]

func (s *Server) handleReadByGroup(c *conn, pdu []byte) []byte {
	typ, ecode := rangeTypeUUID(pdu)
	if ecode != blepp.ErrSuccess {
		return NewErrorResponse(pdu[0], 0, ecode)
	}
	req := ReadByGroupTypeRequest(pdu)
	start, end := req.StartingHandle(), req.EndingHandle()
	if start == 0 || start > end {
		return NewErrorResponse(pdu[0], start, blepp.ErrInvalidHandle)
	}

	// Primary Service is the only grouping type served.
	if !typ.Equal(PrimaryServiceUUID) {
		return NewErrorResponse(pdu[0], start, blepp.ErrUnsuppGrpType)
	}

	attrs := s.db.FindByType(start, end, PrimaryServiceUUID)
	if len(attrs) == 0 {
		return NewErrorResponse(pdu[0], start, blepp.ErrAttrNotFound)
	}

	mtu := s.mtu(c)
	rsp := make([]byte, 2, mtu)
	rsp[0] = ReadByGroupTypeResponseCode

	// start(2) || end_group(2) || service uuid; uniform length throughout.
	dlen := 4 + len(attrs[0].Value)
	rsp[1] = byte(dlen)
	for _, a := range attrs {
		if 4+len(a.Value) != dlen {
			break
		}
		if len(rsp)+dlen > mtu {
			break
		}
		rsp = blepp.PutUint16(rsp, a.Handle)
		rsp = blepp.PutUint16(rsp, a.EndGroup)
		rsp = append(rsp, a.Value...)
	}
	return rsp
}

// Write / Write Command [Vol 3, Part F, 3.4.5]

func (s *Server) handleWrite(c *conn, op byte, pdu []byte) []byte {
	cmd := op == WriteCommandCode
	if len(pdu) < 3 {
		if cmd {
			return nil
		}
		return NewErrorResponse(op, 0, blepp.ErrInvalidPDU)
	}
	req := WriteRequest(pdu)
	h, value := req.AttributeHandle(), req.AttributeValue()

	a, ok := s.db.Get(h)
	if !ok {
		if cmd {
			return nil
		}
		return NewErrorResponse(op, h, blepp.ErrInvalidHandle)
	}
	if ecode := checkWrite(a, s.tr.Security(c.id)); ecode != blepp.ErrSuccess {
		if cmd {
			return nil
		}
		return NewErrorResponse(op, h, ecode)
	}

	if a.Type.Equal(ClientCharConfigUUID) {
		if len(value) != 2 {
			if cmd {
				return nil
			}
			return NewErrorResponse(op, h, blepp.ErrInvalAttrValueLen)
		}
		// The CCCD sits right after the characteristic value it
		// configures; record the bits under the value handle.
		bits := binary.LittleEndian.Uint16(value)
		s.mu.Lock()
		c.subs[h-1] = bits
		s.mu.Unlock()
		logger.Infof("conn %d: CCCD 0x%04X = 0x%04X", c.id, h, bits)
	}

	if wh := a.WriteHandler(); wh != nil {
		if ecode := wh.ServeWrite(c.id, value); ecode != blepp.ErrSuccess {
			if cmd {
				return nil
			}
			return NewErrorResponse(op, h, ecode)
		}
	} else {
		s.db.setValue(h, value)
	}

	if cmd {
		return nil
	}
	return []byte{WriteResponseCode}
}

// Notify sends a Handle Value Notification carrying data for the
// characteristic value handle vh. The payload is truncated to MTU-3; the
// connection must have notifications enabled on the characteristic.
func (s *Server) Notify(id, vh uint16, data []byte) (int, error) {
	c, err := s.subscribed(id, vh, cccNotify)
	if err != nil {
		return 0, err
	}

	mtu := s.mtu(c)
	if len(data) > mtu-3 {
		data = data[:mtu-3]
	}
	pdu := make([]byte, 3, 3+len(data))
	n := HandleValueNotification(pdu)
	n.SetAttributeOpcode()
	n.SetAttributeHandle(vh)
	pdu = append(pdu, data...)

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return s.tr.Send(c.id, pdu)
}

// Indicate sends a Handle Value Indication. Indications are serialized per
// connection: Indicate blocks while a previous indication on the same
// connection has not yet been confirmed by the peer.
func (s *Server) Indicate(id, vh uint16, data []byte) (int, error) {
	c, err := s.subscribed(id, vh, cccIndicate)
	if err != nil {
		return 0, err
	}

	select {
	case c.indGate <- struct{}{}:
	case <-c.closed:
		return 0, errors.WithStack(blepp.ErrNotConnected)
	}

	mtu := s.mtu(c)
	if len(data) > mtu-3 {
		data = data[:mtu-3]
	}
	pdu := make([]byte, 3, 3+len(data))
	in := HandleValueIndication(pdu)
	in.SetAttributeOpcode()
	in.SetAttributeHandle(vh)
	pdu = append(pdu, data...)

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	n, err := s.tr.Send(c.id, pdu)
	if err != nil {
		// Nothing on the wire; free the slot.
		c.confirmIndication()
	}
	return n, err
}

func (s *Server) subscribed(id, vh uint16, bit uint16) (*conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return nil, errors.Wrapf(blepp.ErrNotConnected, "conn %d", id)
	}
	if c.subs[vh]&bit == 0 {
		return nil, errors.Wrapf(blepp.ErrNotSubscribed, "conn %d handle 0x%04X", id, vh)
	}
	return c, nil
}

// readValue resolves an attribute value through its read hook when one is
// installed, and from the static row otherwise.
func (s *Server) readValue(c *conn, a *Attribute, off uint16) ([]byte, blepp.ATTError) {
	if rh := a.ReadHandler(); rh != nil {
		return rh.ServeRead(c.id, off)
	}
	v := s.db.value(a.Handle)
	if int(off) > len(v) {
		return nil, blepp.ErrInvalidOffset
	}
	return v[off:], blepp.ErrSuccess
}

func checkRead(a *Attribute, sec blepp.LinkSecurity) blepp.ATTError {
	if a.Perms&blepp.PermRead == 0 {
		return blepp.ErrReadNotPerm
	}
	switch {
	case a.Perms&blepp.PermReadEncrypt != 0 && !sec.Encrypted:
		return blepp.ErrInsuffEnc
	case a.Perms&blepp.PermReadAuthen != 0 && !sec.Authenticated:
		return blepp.ErrAuthentication
	case a.Perms&blepp.PermReadAuthor != 0 && !sec.Authorized:
		return blepp.ErrAuthorization
	}
	return blepp.ErrSuccess
}

func checkWrite(a *Attribute, sec blepp.LinkSecurity) blepp.ATTError {
	if a.Perms&blepp.PermWrite == 0 {
		return blepp.ErrWriteNotPerm
	}
	switch {
	case a.Perms&blepp.PermWriteEncrypt != 0 && !sec.Encrypted:
		return blepp.ErrInsuffEnc
	case a.Perms&blepp.PermWriteAuthen != 0 && !sec.Authenticated:
		return blepp.ErrAuthentication
	case a.Perms&blepp.PermWriteAuthor != 0 && !sec.Authorized:
		return blepp.ErrAuthorization
	}
	return blepp.ErrSuccess
}

// rangeTypeUUID extracts the 16- or 128-bit type UUID of a Read By Type or
// Read By Group Type request.
func rangeTypeUUID(pdu []byte) (blepp.UUID, blepp.ATTError) {
	switch len(pdu) {
	case 7:
		return blepp.UUID(append([]byte(nil), pdu[5:7]...)), blepp.ErrSuccess
	case 21:
		return blepp.UUID(append([]byte(nil), pdu[5:21]...)), blepp.ErrSuccess
	default:
		return nil, blepp.ErrInvalidPDU
	}
}
