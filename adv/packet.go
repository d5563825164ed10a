package adv

import (
	"encoding/binary"

	"github.com/yinzara/libblepp"
)

// Packet is a utility to craft or inspect advertising and scan-response
// payloads (the length-TLV "AD" region of an advertising packet).
type Packet []byte

// Field returns the field data of the first field with the given type,
// excluding the initial length and type byte. It returns nil if the field
// is not present.
func (p Packet) Field(typ byte) []byte {
	b := p
	for len(b) > 0 {
		if len(b) < 2 {
			return nil
		}
		l, t := b[0], b[1]
		if l == 0 || len(b) < int(1+l) {
			return nil
		}
		if t == typ {
			return b[2 : 1+l]
		}
		b = b[1+l:]
	}
	return nil
}

// Flags returns the first flags byte, if a Flags field is present.
func (p Packet) Flags() (byte, bool) {
	b := p.Field(Flags)
	if len(b) < 1 {
		return 0, false
	}
	return b[0], true
}

// LocalName returns the shortened or complete local name.
func (p Packet) LocalName() string {
	if b := p.Field(ShortName); b != nil {
		return string(b)
	}
	return string(p.Field(CompleteName))
}

// TxPower returns the advertised transmit power in dBm.
func (p Packet) TxPower() (int, bool) {
	b := p.Field(TxPower)
	if len(b) < 1 {
		return 0, false
	}
	return int(int8(b[0])), true
}

// UUIDs returns the advertised service UUIDs of every width.
func (p Packet) UUIDs() []blepp.UUID {
	var u []blepp.UUID
	if b := p.Field(SomeUUID16); b != nil {
		u = uuidList(u, b, 2)
	}
	if b := p.Field(AllUUID16); b != nil {
		u = uuidList(u, b, 2)
	}
	if b := p.Field(SomeUUID32); b != nil {
		u = uuidList(u, b, 4)
	}
	if b := p.Field(AllUUID32); b != nil {
		u = uuidList(u, b, 4)
	}
	if b := p.Field(SomeUUID128); b != nil {
		u = uuidList(u, b, 16)
	}
	if b := p.Field(AllUUID128); b != nil {
		u = uuidList(u, b, 16)
	}
	return u
}

// ManufacturerData returns the manufacturer-specific data field.
func (p Packet) ManufacturerData() []byte {
	return p.Field(ManufacturerData)
}

// AppendField appends one advertising field. The caller keeps the packet
// within MaxEIRPacketLength; Fits reports whether a field would fit.
func (p Packet) AppendField(typ byte, b []byte) Packet {
	p = append(p, byte(len(b)+1))
	p = append(p, typ)
	return append(p, b...)
}

// Fits reports whether a field with a payload of n bytes still fits.
func (p Packet) Fits(n int) bool {
	return len(p)+2+n <= MaxEIRPacketLength
}

// AppendFlags appends a flags field.
func (p Packet) AppendFlags(f byte) Packet {
	return p.AppendField(Flags, []byte{f})
}

// AppendName appends the device name; complete if it fits, shortened
// otherwise.
func (p Packet) AppendName(n string) Packet {
	if p.Fits(len(n)) {
		return p.AppendField(CompleteName, []byte(n))
	}
	avail := MaxEIRPacketLength - len(p) - 2
	if avail <= 0 {
		return p
	}
	return p.AppendField(ShortName, []byte(n[:avail]))
}

// AppendAppearance appends the appearance field.
func (p Packet) AppendAppearance(a uint16) Packet {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, a)
	return p.AppendField(Appearance, b)
}

// AppendManufacturerData appends a manufacturer data field.
func (p Packet) AppendManufacturerData(id uint16, b []byte) Packet {
	d := append([]byte{uint8(id), uint8(id >> 8)}, b...)
	return p.AppendField(ManufacturerData, d)
}

// AppendUUIDFit appends the advertised service UUIDs, grouped by width.
// If not all of them fit, the emitted lists are tagged incomplete and the
// overflow is dropped. It reports whether everything fit.
func (p *Packet) AppendUUIDFit(uu []blepp.UUID) bool {
	fit, l := true, len(*p)
	for _, u := range uu {
		l += 2 + u.Len()
		if l > MaxEIRPacketLength {
			fit = false
			break
		}
	}

	for _, u := range uu {
		if !p.Fits(u.Len()) {
			break
		}
		switch w := u.Len(); {
		case w == 2 && fit:
			*p = p.AppendField(AllUUID16, u)
		case w == 2 && !fit:
			*p = p.AppendField(SomeUUID16, u)
		case w == 4 && fit:
			*p = p.AppendField(AllUUID32, u)
		case w == 4 && !fit:
			*p = p.AppendField(SomeUUID32, u)
		case w == 16 && fit:
			*p = p.AppendField(AllUUID128, u)
		case w == 16 && !fit:
			*p = p.AppendField(SomeUUID128, u)
		}
	}
	return fit
}

// IBeaconFromData returns an iBeacon advertisement carrying md verbatim.
func IBeaconFromData(md []byte) Packet {
	if len(md) != 23 {
		return nil
	}
	p := Packet(make([]byte, 0, MaxEIRPacketLength))
	p = p.AppendFlags(FlagGeneralDiscoverable | FlagLEOnly)
	p = p.AppendManufacturerData(0x004C, md)
	return p
}

// IBeacon returns an iBeacon advertisement with the given parameters.
func IBeacon(u blepp.UUID, major, minor uint16, pwr int8) Packet {
	if u.Len() != 16 {
		return nil
	}
	md := make([]byte, 23)
	md[0] = 0x02                               // iBeacon type
	md[1] = 0x15                               // 21 bytes follow
	copy(md[2:], blepp.Reverse(u))             // Big endian
	binary.BigEndian.PutUint16(md[18:], major) // Big endian
	binary.BigEndian.PutUint16(md[20:], minor) // Big endian
	md[22] = uint8(pwr)                        // Measured Tx Power
	return IBeaconFromData(md)
}

func uuidList(u []blepp.UUID, d []byte, w int) []blepp.UUID {
	for len(d) >= w {
		u = append(u, blepp.UUID(append([]byte(nil), d[:w]...)))
		d = d[w:]
	}
	return u
}
