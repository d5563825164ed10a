// Package scan decodes HCI LE Advertising Report events into structured
// records.
package scan

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yinzara/libblepp"
)

var logger = logrus.WithField("prefix", "scan")

const (
	hciEventPkt      = 0x04
	evtLEMetaEvent   = 0x3E
	subevtAdvReport  = 0x02
	rssiUnavailable  = 127
	addrLen          = 6
	reportHeaderLen  = 1 + 1 + addrLen + 1 // event type, address type, address, data length
	packetHeaderLen  = 5                   // packet type, event code, plen, subevent, num reports
	typeFlags        = 0x01
	typeSomeUUID16   = 0x02
	typeAllUUID16    = 0x03
	typeSomeUUID32   = 0x04
	typeAllUUID32    = 0x05
	typeSomeUUID128  = 0x06
	typeAllUUID128   = 0x07
	typeShortName    = 0x08
	typeCompleteName = 0x09
	typeSvcData16    = 0x16
	typeSvcData32    = 0x20
	typeSvcData128   = 0x21
	typeMfgData      = 0xFF
)

// EventType is the advertising event type of one report.
type EventType uint8

const (
	ADVInd        EventType = 0x00 // connectable undirected
	ADVDirectInd  EventType = 0x01 // connectable directed
	ADVScanInd    EventType = 0x02 // scannable undirected
	ADVNonconnInd EventType = 0x03 // non-connectable undirected
	ScanRsp       EventType = 0x04 // scan response
)

func (t EventType) String() string {
	switch t {
	case ADVInd:
		return "ADV_IND"
	case ADVDirectInd:
		return "ADV_DIRECT_IND"
	case ADVScanInd:
		return "ADV_SCAN_IND"
	case ADVNonconnInd:
		return "ADV_NONCONN_IND"
	case ScanRsp:
		return "SCAN_RSP"
	}
	return fmt.Sprintf("unknown(0x%02X)", uint8(t))
}

// RSSIUnavailable is the RSSI value meaning "not available".
const RSSIUnavailable = int8(rssiUnavailable)

// Flags is the decoded Flags AD field.
type Flags struct {
	LimitedDiscoverable  bool
	GeneralDiscoverable  bool
	BREDRUnsupported     bool
	SimultaneousLEBRCtrl bool
	SimultaneousLEBRHost bool

	// Raw is the flag payload, without the AD type byte.
	Raw []byte
}

func newFlags(payload []byte) *Flags {
	f := &Flags{Raw: append([]byte(nil), payload...)}
	if len(payload) > 0 {
		b := payload[0]
		f.LimitedDiscoverable = b&(1<<0) != 0
		f.GeneralDiscoverable = b&(1<<1) != 0
		f.BREDRUnsupported = b&(1<<2) != 0
		f.SimultaneousLEBRCtrl = b&(1<<3) != 0
		f.SimultaneousLEBRHost = b&(1<<4) != 0
	}
	return f
}

// Name is the decoded local-name AD field.
type Name struct {
	Name     string
	Complete bool
}

// ServiceData is one decoded service-data AD field.
type ServiceData struct {
	UUID blepp.UUID
	Data []byte
}

// A Report is one decoded advertising report.
type Report struct {
	// Address is the peer address, colon-separated, most significant
	// byte first.
	Address     string
	AddressType uint8

	Type EventType

	// RSSI in dBm; RSSIUnavailable (127) means not reported.
	RSSI int8

	Flags     *Flags
	LocalName *Name

	// UUIDs are the advertised service UUIDs of every width, with a
	// completeness bit per width.
	UUIDs           []blepp.UUID
	UUID16Complete  bool
	UUID32Complete  bool
	UUID128Complete bool

	ManufacturerData [][]byte
	ServiceData      []ServiceData

	// Unparsed keeps AD structures of other types, type byte included.
	Unparsed [][]byte

	// Raw is the report's AD region, owned by the record.
	Raw []byte
}

// Reports is a finite, non-restartable sequence of decoded advertising
// reports, one per report entry in the packet.
type Reports struct {
	buf []byte
	n   int
}

// ParsePacket validates the framing of a raw HCI packet and returns the
// report sequence. The packet type must be HCI Event (0x04), the event LE
// Meta (0x3E), the parameter length consistent, and the subevent LE
// Advertising Report (0x02).
func ParsePacket(p []byte) (*Reports, error) {
	if len(p) < 1 {
		return nil, errors.Wrap(blepp.ErrTruncated, "empty packet")
	}
	if p[0] != hciEventPkt {
		return nil, errors.Wrapf(blepp.ErrUnknownHCIPacket, "packet type 0x%02X", p[0])
	}
	if len(p) < packetHeaderLen {
		return nil, errors.Wrap(blepp.ErrMalformedPacket, "truncated event packet")
	}
	if p[1] != evtLEMetaEvent {
		return nil, errors.Wrapf(blepp.ErrMalformedPacket, "unexpected event code 0x%02X", p[1])
	}
	if int(p[2]) != len(p)-3 {
		return nil, errors.Wrapf(blepp.ErrMalformedPacket, "parameter length %d, have %d", p[2], len(p)-3)
	}
	if p[3] != subevtAdvReport {
		return nil, errors.Wrapf(blepp.ErrMalformedPacket, "unexpected subevent 0x%02X", p[3])
	}

	// The records own their bytes; copy once up front.
	return &Reports{
		buf: append([]byte(nil), p[packetHeaderLen:]...),
		n:   int(p[4]),
	}, nil
}

// ParseAll decodes every report of the packet eagerly.
func ParseAll(p []byte) ([]*Report, error) {
	rr, err := ParsePacket(p)
	if err != nil {
		return nil, err
	}
	var out []*Report
	for {
		r, ok := rr.Next()
		if !ok {
			return out, nil
		}
		out = append(out, r)
	}
}

// Next decodes the next report. It returns false when the sequence is
// exhausted. A report corrupted mid-TLV is logged and skipped; the
// remaining reports still come out.
func (rr *Reports) Next() (*Report, bool) {
	for rr.n > 0 {
		rr.n--
		r, ok := rr.decodeOne()
		if !ok {
			// Report framing is gone; nothing behind it is safe.
			rr.n = 0
			return nil, false
		}
		if r != nil {
			return r, true
		}
	}
	return nil, false
}

// decodeOne consumes one report from the buffer. It returns (nil, true)
// when the report's AD region was corrupt but the framing held.
func (rr *Reports) decodeOne() (*Report, bool) {
	b := rr.buf
	if len(b) < reportHeaderLen {
		logger.Errorf("truncated report header (%d bytes left)", len(b))
		return nil, false
	}

	r := &Report{
		Type:        EventType(b[0]),
		AddressType: b[1],
		Address:     formatAddress(b[2 : 2+addrLen]),
		RSSI:        RSSIUnavailable,
	}
	dlen := int(b[8])
	if len(b) < reportHeaderLen+dlen+1 {
		logger.Errorf("report from %s: data length %d exceeds packet", r.Address, dlen)
		return nil, false
	}
	data := b[reportHeaderLen : reportHeaderLen+dlen]
	r.RSSI = int8(b[reportHeaderLen+dlen])
	rr.buf = b[reportHeaderLen+dlen+1:]

	r.Raw = append([]byte(nil), data...)
	if !r.decodeAD(r.Raw) {
		logger.Errorf("corrupted advertising data from %s", r.Address)
		return nil, true
	}
	return r, true
}

// decodeAD walks the length-TLV AD region. It reports false when a TLV
// runs past the buffer.
func (r *Report) decodeAD(data []byte) bool {
	for len(data) > 0 {
		l := int(data[0])
		if l == 0 {
			return true
		}
		if 1+l > len(data) {
			return false
		}
		chunk := data[1 : 1+l] // type byte + payload
		data = data[1+l:]

		typ, payload := chunk[0], chunk[1:]
		switch typ {
		case typeFlags:
			r.Flags = newFlags(payload)
		case typeSomeUUID16, typeAllUUID16:
			r.UUID16Complete = typ == typeAllUUID16
			r.UUIDs = appendUUIDs(r.UUIDs, payload, 2)
		case typeSomeUUID32, typeAllUUID32:
			r.UUID32Complete = typ == typeAllUUID32
			r.UUIDs = appendUUIDs(r.UUIDs, payload, 4)
		case typeSomeUUID128, typeAllUUID128:
			r.UUID128Complete = typ == typeAllUUID128
			r.UUIDs = appendUUIDs(r.UUIDs, payload, 16)
		case typeShortName, typeCompleteName:
			r.LocalName = &Name{
				Name:     string(payload),
				Complete: typ == typeCompleteName,
			}
		case typeMfgData:
			r.ManufacturerData = append(r.ManufacturerData, append([]byte(nil), payload...))
		case typeSvcData16:
			r.ServiceData = appendServiceData(r.ServiceData, payload, 2)
		case typeSvcData32:
			r.ServiceData = appendServiceData(r.ServiceData, payload, 4)
		case typeSvcData128:
			r.ServiceData = appendServiceData(r.ServiceData, payload, 16)
		default:
			r.Unparsed = append(r.Unparsed, append([]byte(nil), chunk...))
		}
	}
	return true
}

func appendUUIDs(uu []blepp.UUID, d []byte, w int) []blepp.UUID {
	for len(d) >= w {
		uu = append(uu, blepp.UUID(append([]byte(nil), d[:w]...)))
		d = d[w:]
	}
	return uu
}

func appendServiceData(sd []ServiceData, d []byte, w int) []ServiceData {
	if len(d) < w {
		return sd
	}
	return append(sd, ServiceData{
		UUID: blepp.UUID(append([]byte(nil), d[:w]...)),
		Data: append([]byte(nil), d[w:]...),
	})
}

// formatAddress renders a little-endian 6-byte address most significant
// byte first.
func formatAddress(b []byte) string {
	var sb strings.Builder
	for i := len(b) - 1; i >= 0; i-- {
		if sb.Len() > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02X", b[i])
	}
	return sb.String()
}
