package gatt

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/yinzara/libblepp"
	"github.com/yinzara/libblepp/adv"
	"github.com/yinzara/libblepp/transport/loopback"
)

func newTestServer(t *testing.T) (*Server, *loopback.Transport, RegisteredService) {
	t.Helper()
	tr := loopback.New()
	s := NewServer(tr)

	battery := NewService(blepp.UUID16(0x180F))
	battery.AddCharacteristic(blepp.UUID16(0x2A19), FlagRead|FlagNotify|FlagIndicate).
		SetValue([]byte{0x64})
	regs, err := s.RegisterServices([]*ServiceDef{battery})
	if err != nil {
		t.Fatal(err)
	}
	return s, tr, regs[0]
}

func TestServerEndToEnd(t *testing.T) {
	s, tr, reg := newTestServer(t)

	var connected, mtus []uint16
	s.OnConnected = func(conn uint16, peer string) { connected = append(connected, conn) }
	s.OnMTUExchanged = func(conn uint16, mtu uint16) { mtus = append(mtus, mtu) }

	tr.Connect(1, "AA:BB:CC:DD:EE:FF")
	if len(connected) != 1 || connected[0] != 1 {
		t.Fatalf("OnConnected events = %v", connected)
	}

	tr.Receive(1, []byte{0x02, 0x17, 0x00})
	if len(mtus) != 1 || mtus[0] != 23 {
		t.Fatalf("OnMTUExchanged events = %v", mtus)
	}
	tr.Sent()

	// Subscribe and notify through the facade.
	cccd := reg.Characteristics[0].CCCDHandle
	tr.Receive(1, []byte{0x12, byte(cccd), byte(cccd >> 8), 0x01, 0x00})
	tr.Sent()

	vh := reg.Characteristics[0].ValueHandle
	if _, err := s.Notify(1, vh, []byte{0x5A}); err != nil {
		t.Fatal(err)
	}
	ff := tr.Sent()
	if len(ff) != 1 || !bytes.Equal(ff[0].PDU, []byte{0x1B, byte(vh), byte(vh >> 8), 0x5A}) {
		t.Fatalf("notification frames = %v", ff)
	}

	if _, err := s.Indicate(1, vh, []byte{0x01}); errors.Cause(err) != blepp.ErrNotSubscribed {
		t.Fatalf("indicate without subscription: %v", err)
	}
}

func TestStartAdvertisingRendersData(t *testing.T) {
	s, tr, _ := newTestServer(t)
	err := s.StartAdvertising(blepp.AdvertisingParams{
		DeviceName:   "Gopher",
		ServiceUUIDs: []blepp.UUID{blepp.UUID16(0x180F)},
		Appearance:   0x0341,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !s.Advertising() {
		t.Fatal("not advertising")
	}

	p := adv.Packet(tr.AdvertisingParams().AdvertisingData)
	if len(p) > adv.MaxEIRPacketLength {
		t.Fatalf("AD payload too long: %d", len(p))
	}
	if f, ok := p.Flags(); !ok || f != adv.FlagGeneralDiscoverable|adv.FlagLEOnly {
		t.Errorf("flags = 0x%02X, ok=%v", f, ok)
	}
	if name := p.LocalName(); name != "Gopher" {
		t.Errorf("name = %q", name)
	}
	uu := p.UUIDs()
	if len(uu) != 1 || !uu[0].Equal(blepp.UUID16(0x180F)) {
		t.Errorf("uuids = %v", uu)
	}
}

func TestStartAdvertisingRawPassthrough(t *testing.T) {
	s, tr, _ := newTestServer(t)
	raw := adv.Packet(nil).AppendFlags(adv.FlagLimitedDiscoverable)
	if err := s.StartAdvertising(blepp.AdvertisingParams{AdvertisingData: raw}); err != nil {
		t.Fatal(err)
	}
	if got := tr.AdvertisingParams().AdvertisingData; !bytes.Equal(got, raw) {
		t.Errorf("raw AD not passed through: % X", got)
	}

	tooLong := make([]byte, 32)
	err := s.StartAdvertising(blepp.AdvertisingParams{AdvertisingData: tooLong})
	if errors.Cause(err) != blepp.ErrEIRPacketTooLong {
		t.Errorf("oversized AD: %v, want ErrEIRPacketTooLong", err)
	}
}

func TestRestartAdvertising(t *testing.T) {
	s, tr, _ := newTestServer(t)
	if err := s.RestartAdvertising(); err == nil {
		t.Fatal("restart with no prior parameters should fail")
	}
	if err := s.StartAdvertising(blepp.AdvertisingParams{DeviceName: "Gopher"}); err != nil {
		t.Fatal(err)
	}
	if err := s.StopAdvertising(); err != nil {
		t.Fatal(err)
	}
	if err := s.RestartAdvertising(); err != nil {
		t.Fatal(err)
	}
	if !tr.Advertising() {
		t.Fatal("not advertising after restart")
	}
	if got := tr.AdvertisingParams().DeviceName; got != "Gopher" {
		t.Errorf("restarted with name %q", got)
	}
}

func TestDisconnect(t *testing.T) {
	s, tr, _ := newTestServer(t)
	var dropped []uint16
	s.OnDisconnected = func(conn uint16) { dropped = append(dropped, conn) }
	tr.Connect(2, "11:22:33:44:55:66")
	if err := s.Disconnect(2); err != nil {
		t.Fatal(err)
	}
	if len(dropped) != 1 || dropped[0] != 2 {
		t.Fatalf("OnDisconnected events = %v", dropped)
	}
}
