package blepp

// Property is a characteristic property bitset [Vol 3, Part G, 3.3.1.1].
type Property byte

const (
	CharBroadcast   Property = 0x01 // may be broadcast
	CharRead        Property = 0x02 // may be read
	CharWriteNR     Property = 0x04 // may be written to, with no reply
	CharWrite       Property = 0x08 // may be written to, with a reply
	CharNotify      Property = 0x10 // supports notifications
	CharIndicate    Property = 0x20 // supports indications
	CharSignedWrite Property = 0x40 // supports signed write
	CharExtended    Property = 0x80 // supports extended properties
)

// Permission is an attribute access-permission bitset. The plain bits gate
// access outright; the encrypt/authen/author bits are checked against the
// link security reported by the transport.
type Permission byte

const (
	PermRead         Permission = 0x01
	PermWrite        Permission = 0x02
	PermReadEncrypt  Permission = 0x04
	PermWriteEncrypt Permission = 0x08
	PermReadAuthen   Permission = 0x10
	PermWriteAuthen  Permission = 0x20
	PermReadAuthor   Permission = 0x40
	PermWriteAuthor  Permission = 0x80
)
