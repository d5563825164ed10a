package blepp

// ConnectionParams describes an accepted connection as reported by a
// transport backend.
type ConnectionParams struct {
	ConnHandle      uint16
	PeerAddress     string
	PeerAddressType uint8
	MTU             uint16
}

// LinkSecurity is the security state of a link, as reported by the
// transport. The ATT server checks it against the encrypt/authen/author
// permission bits; key exchange itself is the backend's business.
type LinkSecurity struct {
	Encrypted     bool
	Authenticated bool
	Authorized    bool
	KeySize       int
}

// AdvertisingParams configures peripheral-mode advertising.
type AdvertisingParams struct {
	DeviceName   string
	ServiceUUIDs []UUID
	Appearance   uint16

	// Advertising interval bounds, in milliseconds.
	MinIntervalMs uint16
	MaxIntervalMs uint16

	// Raw advertising data (max 31 bytes). When set, it is used verbatim
	// instead of data rendered from the fields above.
	AdvertisingData []byte

	// Raw scan response data (max 31 bytes).
	ScanResponseData []byte
}

// A Handler receives inbound transport events. The transport must deliver
// events for one connection sequentially: Received for request N+1 is not
// delivered until the handler has returned from request N.
type Handler interface {
	Connected(p ConnectionParams)
	Disconnected(conn uint16)

	// Received delivers one complete ATT PDU; PDUs are never split.
	Received(conn uint16, pdu []byte)

	MTUChanged(conn uint16, mtu uint16)
}

// Transport is the capability boundary between the protocol core and a
// link-layer backend. Two kinds of backend exist: raw-link backends that
// surface every ATT PDU on the wire, and integrated-stack backends that
// answer requests internally and only surface server-initiated frames.
type Transport interface {
	// SetHandler registers the event sink. Must be called before the
	// first connection is accepted.
	SetHandler(h Handler)

	// Send writes one ATT PDU on a connection and reports bytes sent.
	// Send is not assumed re-entrant for the same connection; callers
	// serialize per-connection sends.
	Send(conn uint16, pdu []byte) (int, error)

	StartAdvertising(p AdvertisingParams) error
	StopAdvertising() error
	Advertising() bool

	Disconnect(conn uint16) error

	MTU(conn uint16) uint16
	SetMTU(conn uint16, mtu uint16) error

	// Security reports the current link security of a connection.
	Security(conn uint16) LinkSecurity
}
