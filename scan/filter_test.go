package scan

import "testing"

func TestDedup(t *testing.T) {
	d := NewDedup()
	adv := &Report{Address: "FF:EE:DD:CC:BB:AA", Type: ADVInd}
	rsp := &Report{Address: "FF:EE:DD:CC:BB:AA", Type: ScanRsp}
	other := &Report{Address: "06:05:04:03:02:01", Type: ADVInd}

	if d.Seen(adv) {
		t.Error("first report marked duplicate")
	}
	if !d.Seen(adv) {
		t.Error("repeat not marked duplicate")
	}
	// A scan response from the same peer is distinct.
	if d.Seen(rsp) {
		t.Error("scan response conflated with advertisement")
	}
	if d.Seen(other) {
		t.Error("different peer marked duplicate")
	}

	d.Reset()
	if d.Seen(adv) {
		t.Error("Reset did not clear state")
	}
}
