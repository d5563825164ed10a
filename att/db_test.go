package att

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/yinzara/libblepp"
)

func mustAdd(t *testing.T, h uint16, err error) uint16 {
	t.Helper()
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	return h
}

// buildDB registers a battery service (notify), a custom 128-bit service
// (indicate, with a user descriptor) and a secondary service with an
// include back to the first.
func buildDB(t *testing.T) *DB {
	t.Helper()
	db := NewDB()

	h, err := db.AddPrimaryService(blepp.UUID16(0x180F))
	svc1 := mustAdd(t, h, err)
	h, err = db.AddCharacteristic(svc1, blepp.UUID16(0x2A19),
		blepp.CharRead|blepp.CharNotify, blepp.PermRead)
	mustAdd(t, h, err)

	h, err = db.AddPrimaryService(blepp.MustParse("34DA3AD1-7110-41A1-B1EF-4430F509CDE7"))
	svc2 := mustAdd(t, h, err)
	h, err = db.AddCharacteristic(svc2, blepp.MustParse("45D65B41-B7A2-4B93-A543-B3D480F32667"),
		blepp.CharRead|blepp.CharWrite|blepp.CharIndicate, blepp.PermRead|blepp.PermWrite)
	decl2 := mustAdd(t, h, err)
	h, err = db.AddDescriptor(decl2+1, blepp.UUID16(0x2901), blepp.PermRead)
	mustAdd(t, h, err)

	h, err = db.AddSecondaryService(blepp.UUID16(0x1801))
	svc3 := mustAdd(t, h, err)
	h, err = db.AddInclude(svc3, svc1)
	mustAdd(t, h, err)
	return db
}

func TestHandlesStrictlyIncreasing(t *testing.T) {
	db := buildDB(t)
	attrs := db.Range(1, 0xFFFF)
	if len(attrs) != db.Len() {
		t.Fatalf("Range returned %d attrs, Len is %d", len(attrs), db.Len())
	}
	for i := 1; i < len(attrs); i++ {
		if attrs[i].Handle <= attrs[i-1].Handle {
			t.Fatalf("handles not strictly increasing: 0x%04X after 0x%04X",
				attrs[i].Handle, attrs[i-1].Handle)
		}
	}
}

func TestServiceGroupsDoNotInterleave(t *testing.T) {
	db := buildDB(t)
	var groups [][2]uint16
	for _, a := range db.Range(1, 0xFFFF) {
		if a.Kind == PrimaryService || a.Kind == SecondaryService {
			groups = append(groups, [2]uint16{a.Handle, a.EndGroup})
		}
	}
	if len(groups) != 3 {
		t.Fatalf("want 3 service groups, got %d", len(groups))
	}
	for i, g := range groups {
		if g[0] > g[1] {
			t.Errorf("group %d: start 0x%04X > end 0x%04X", i, g[0], g[1])
		}
		if i > 0 && g[0] <= groups[i-1][1] {
			t.Errorf("group %d starts at 0x%04X inside previous group ending 0x%04X",
				i, g[0], groups[i-1][1])
		}
	}
	// Every non-service row falls inside exactly one group.
	for _, a := range db.Range(1, 0xFFFF) {
		if a.Kind == PrimaryService || a.Kind == SecondaryService {
			continue
		}
		n := 0
		for _, g := range groups {
			if a.Handle > g[0] && a.Handle <= g[1] {
				n++
			}
		}
		if n != 1 {
			t.Errorf("handle 0x%04X is in %d groups, want 1", a.Handle, n)
		}
	}
}

func TestCharacteristicValueFollowsDecl(t *testing.T) {
	db := buildDB(t)
	for _, a := range db.Range(1, 0xFFFF) {
		if a.Kind != CharacteristicDecl {
			continue
		}
		v, ok := db.Get(a.Handle + 1)
		if !ok || v.Kind != CharacteristicValue {
			t.Fatalf("decl 0x%04X: no value row at +1", a.Handle)
		}
		if a.ValueHandle != a.Handle+1 {
			t.Errorf("decl 0x%04X: ValueHandle = 0x%04X", a.Handle, a.ValueHandle)
		}
		// The declaration value embeds the value handle.
		if got := uint16(a.Value[1]) | uint16(a.Value[2])<<8; got != a.ValueHandle {
			t.Errorf("decl 0x%04X: embedded value handle 0x%04X", a.Handle, got)
		}
	}
}

func TestExactlyOneCCCDPerNotifyingCharacteristic(t *testing.T) {
	db := buildDB(t)
	for _, a := range db.Range(1, 0xFFFF) {
		if a.Kind != CharacteristicValue || a.Props&(blepp.CharNotify|blepp.CharIndicate) == 0 {
			continue
		}
		// Owning service group.
		var end uint16
		for _, s := range db.Range(1, a.Handle) {
			if (s.Kind == PrimaryService || s.Kind == SecondaryService) && a.Handle <= s.EndGroup {
				end = s.EndGroup
			}
		}
		n := 0
		for _, d := range db.Range(a.Handle+1, end) {
			if d.Type.Equal(ClientCharConfigUUID) {
				n++
				if d.Perms != blepp.PermRead|blepp.PermWrite {
					t.Errorf("CCCD 0x%04X perms = 0x%02X", d.Handle, d.Perms)
				}
				if !bytes.Equal(d.Value, []byte{0x00, 0x00}) {
					t.Errorf("CCCD 0x%04X initial value = % X", d.Handle, d.Value)
				}
			}
		}
		if n != 1 {
			t.Errorf("value 0x%04X: %d CCCDs in group, want 1", a.Handle, n)
		}
	}
}

func TestIncludeValue(t *testing.T) {
	db := NewDB()
	h, err := db.AddPrimaryService(blepp.UUID16(0x180F))
	svc1 := mustAdd(t, h, err)
	h, err = db.AddCharacteristic(svc1, blepp.UUID16(0x2A19), blepp.CharRead, blepp.PermRead)
	mustAdd(t, h, err)
	h, err = db.AddPrimaryService(blepp.UUID16(0x1801))
	svc2 := mustAdd(t, h, err)
	h, err = db.AddInclude(svc2, svc1)
	inc := mustAdd(t, h, err)

	a, _ := db.Get(inc)
	// included_start || included_end || uuid16
	want := []byte{0x01, 0x00, 0x03, 0x00, 0x0F, 0x18}
	if !bytes.Equal(a.Value, want) {
		t.Errorf("include value = % X, want % X", a.Value, want)
	}

	// A 128-bit included service has no trailing UUID.
	h, err = db.AddPrimaryService(blepp.MustParse("34DA3AD1-7110-41A1-B1EF-4430F509CDE7"))
	svc3 := mustAdd(t, h, err)
	h, err = db.AddInclude(svc2, svc3)
	inc2 := mustAdd(t, h, err)
	a2, _ := db.Get(inc2)
	if len(a2.Value) != 4 {
		t.Errorf("128-bit include value = % X, want 4 bytes", a2.Value)
	}

	if _, err := db.AddInclude(svc2, 0x4242); errors.Cause(err) != blepp.ErrUnknownHandle {
		t.Errorf("include of unknown handle: %v, want ErrUnknownHandle", err)
	}
}

func TestFindByType(t *testing.T) {
	db := buildDB(t)
	svcs := db.FindByType(1, 0xFFFF, PrimaryServiceUUID)
	if len(svcs) != 2 {
		t.Fatalf("found %d primary services, want 2", len(svcs))
	}
	if svcs[0].Handle >= svcs[1].Handle {
		t.Errorf("results not in ascending handle order")
	}
	if got := db.FindByType(svcs[1].Handle+1, 0xFFFF, PrimaryServiceUUID); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestDBFindByTypeValue(t *testing.T) {
	db := buildDB(t)
	got := db.FindByTypeValue(1, 0xFFFF, PrimaryServiceUUID, []byte{0x0F, 0x18})
	if len(got) != 1 || got[0].Handle != 1 {
		t.Fatalf("FindByTypeValue(0x180F) = %v", got)
	}
	if got := db.FindByTypeValue(1, 0xFFFF, PrimaryServiceUUID, []byte{0x0D, 0x18}); len(got) != 0 {
		t.Errorf("value mismatch should yield empty result")
	}
}

func TestCharacteristicValueAccess(t *testing.T) {
	db := buildDB(t)
	if err := db.SetCharacteristicValue(3, []byte{0x64}); err != nil {
		t.Fatal(err)
	}
	if v := db.CharacteristicValue(3); !bytes.Equal(v, []byte{0x64}) {
		t.Errorf("value = % X", v)
	}
	// Handle 2 is a declaration, not a value row.
	if err := db.SetCharacteristicValue(2, []byte{1}); errors.Cause(err) != blepp.ErrUnknownHandle {
		t.Errorf("set on decl row: %v, want ErrUnknownHandle", err)
	}
	if v := db.CharacteristicValue(2); v != nil {
		t.Errorf("get on decl row = % X, want nil", v)
	}
}

func TestClear(t *testing.T) {
	db := buildDB(t)
	db.Clear()
	if db.Len() != 0 || db.NextHandle() != 1 {
		t.Errorf("after Clear: len=%d next=%d", db.Len(), db.NextHandle())
	}
}

func TestHandleSpaceExhaustion(t *testing.T) {
	db := NewDB()
	h, err := db.AddPrimaryService(blepp.UUID16(0x180F))
	svc := mustAdd(t, h, err)
	for db.NextHandle() < 0xFFFD {
		if _, err := db.AddPrimaryService(blepp.UUID16(0x1801)); err != nil {
			t.Fatalf("unexpected failure at handle %d: %v", db.NextHandle(), err)
		}
	}
	// Three handles needed, two left: nothing may be inserted.
	before := db.Len()
	_, err = db.AddCharacteristic(svc, blepp.UUID16(0x2A19),
		blepp.CharRead|blepp.CharNotify, blepp.PermRead)
	if errors.Cause(err) != blepp.ErrHandleSpaceExhausted {
		t.Fatalf("err = %v, want ErrHandleSpaceExhausted", err)
	}
	if db.Len() != before {
		t.Fatalf("partial state recorded: len %d -> %d", before, db.Len())
	}
	// A single-handle add still fits.
	if _, err := db.AddPrimaryService(blepp.UUID16(0x1802)); err != nil {
		t.Fatalf("single add should still fit: %v", err)
	}
	if _, err := db.AddPrimaryService(blepp.UUID16(0x1803)); err != nil {
		t.Fatalf("0xFFFE is allocatable: %v", err)
	}
	if _, err := db.AddPrimaryService(blepp.UUID16(0x1804)); errors.Cause(err) != blepp.ErrHandleSpaceExhausted {
		t.Fatalf("0xFFFF must not be allocated: %v", err)
	}
}

func TestDescriptorAttachesToLastContainingService(t *testing.T) {
	db := buildDB(t)
	// Value handle 7 belongs to the second service (handles 5..9).
	h, err := db.AddDescriptor(7, blepp.UUID16(0x2904), blepp.PermRead)
	if err != nil {
		t.Fatal(err)
	}
	svc, _ := db.Get(5)
	if svc.EndGroup != h {
		t.Errorf("service end group = 0x%04X, want 0x%04X", svc.EndGroup, h)
	}
}
