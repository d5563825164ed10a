package gatt

import (
	"bytes"
	"testing"

	"github.com/yinzara/libblepp"
	"github.com/yinzara/libblepp/att"
)

func TestFlagMapping(t *testing.T) {
	cases := []struct {
		flags     Flag
		wantProps blepp.Property
		wantPerms blepp.Permission
	}{
		{FlagBroadcast, blepp.CharBroadcast, 0},
		{FlagRead, blepp.CharRead, blepp.PermRead},
		{FlagWriteNoRsp, blepp.CharWriteNR, blepp.PermWrite},
		{FlagWrite, blepp.CharWrite, blepp.PermWrite},
		{FlagNotify, blepp.CharNotify, 0},
		{FlagIndicate, blepp.CharIndicate, 0},
		{FlagAuthSignWrite, blepp.CharSignedWrite, 0},
		{FlagReadEnc, 0, blepp.PermReadEncrypt},
		{FlagReadAuthen, 0, blepp.PermReadAuthen},
		{FlagReadAuthor, 0, blepp.PermReadAuthor},
		{FlagWriteEnc, 0, blepp.PermWriteEncrypt},
		{FlagWriteAuthen, 0, blepp.PermWriteAuthen},
		{FlagWriteAuthor, 0, blepp.PermWriteAuthor},
		{
			FlagRead | FlagWrite | FlagNotify | FlagReadEnc,
			blepp.CharRead | blepp.CharWrite | blepp.CharNotify,
			blepp.PermRead | blepp.PermWrite | blepp.PermReadEncrypt,
		},
	}
	for _, tt := range cases {
		if got := tt.flags.Properties(); got != tt.wantProps {
			t.Errorf("Flags 0x%04X: props = 0x%02X, want 0x%02X", uint16(tt.flags), got, tt.wantProps)
		}
		if got := tt.flags.Permissions(); got != tt.wantPerms {
			t.Errorf("Flags 0x%04X: perms = 0x%02X, want 0x%02X", uint16(tt.flags), got, tt.wantPerms)
		}
	}
}

func TestRegisterServices(t *testing.T) {
	db := att.NewDB()

	battery := NewService(blepp.UUID16(0x180F))
	battery.AddCharacteristic(blepp.UUID16(0x2A19), FlagRead|FlagNotify).
		SetValue([]byte{0x64})

	devinfo := NewService(blepp.UUID16(0x180A))
	devinfo.AddCharacteristic(blepp.UUID16(0x2A29), FlagRead).
		SetValue([]byte("ACME"))
	devinfo.Characteristics[0].AddDescriptor(blepp.UUID16(0x2901), blepp.PermRead).
		SetValue([]byte("maker"))

	regs, err := RegisterServices(db, []*ServiceDef{battery, devinfo})
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) != 2 {
		t.Fatalf("got %d registered services", len(regs))
	}

	b := regs[0]
	if b.Handle != 1 {
		t.Errorf("battery handle = %d", b.Handle)
	}
	bc := b.Characteristics[0]
	if bc.DeclHandle != 2 || bc.ValueHandle != 3 || bc.CCCDHandle != 4 {
		t.Errorf("battery characteristic handles = %+v", bc)
	}
	if v := db.CharacteristicValue(bc.ValueHandle); !bytes.Equal(v, []byte{0x64}) {
		t.Errorf("battery value = % X", v)
	}

	d := regs[1]
	if d.Handle != 5 {
		t.Errorf("devinfo handle = %d", d.Handle)
	}
	dc := d.Characteristics[0]
	if dc.DeclHandle != 6 || dc.ValueHandle != 7 || dc.CCCDHandle != 0 {
		t.Errorf("devinfo characteristic handles = %+v", dc)
	}
	if len(dc.DescriptorHandles) != 1 || dc.DescriptorHandles[0] != 8 {
		t.Errorf("descriptor handles = %v", dc.DescriptorHandles)
	}
	desc, _ := db.Get(8)
	if !bytes.Equal(desc.Value, []byte("maker")) {
		t.Errorf("descriptor value = % X", desc.Value)
	}

	svc, _ := db.Get(5)
	if svc.EndGroup != 8 {
		t.Errorf("devinfo end group = 0x%04X, want 8", svc.EndGroup)
	}
}

func TestRegisterSecondaryWithInclude(t *testing.T) {
	db := att.NewDB()
	regs, err := RegisterServices(db, []*ServiceDef{NewService(blepp.UUID16(0x180F))})
	if err != nil {
		t.Fatal(err)
	}

	sec := NewSecondaryService(blepp.UUID16(0x1801)).AddInclude(regs[0].Handle)
	regs2, err := RegisterServices(db, []*ServiceDef{sec})
	if err != nil {
		t.Fatal(err)
	}
	if len(regs2[0].IncludeHandles) != 1 {
		t.Fatalf("include handles = %v", regs2[0].IncludeHandles)
	}
	inc, _ := db.Get(regs2[0].IncludeHandles[0])
	if inc.Kind != att.Include {
		t.Errorf("include row kind = %v", inc.Kind)
	}
}

func TestRegisterHooks(t *testing.T) {
	db := att.NewDB()
	svc := NewService(blepp.UUID16(0x180F))
	svc.AddCharacteristic(blepp.UUID16(0x2A19), FlagRead|FlagWrite).
		HandleRead(att.ReadHandlerFunc(func(conn uint16, offset uint16) ([]byte, blepp.ATTError) {
			return []byte{0x42}, blepp.ErrSuccess
		})).
		HandleWrite(att.WriteHandlerFunc(func(conn uint16, data []byte) blepp.ATTError {
			return blepp.ErrSuccess
		}))
	regs, err := RegisterServices(db, []*ServiceDef{svc})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := db.Get(regs[0].Characteristics[0].ValueHandle)
	if a.ReadHandler() == nil || a.WriteHandler() == nil {
		t.Errorf("hooks not installed")
	}
}

func TestExportTable(t *testing.T) {
	db := att.NewDB()
	svc := NewService(blepp.UUID16(0x180F))
	svc.AddCharacteristic(blepp.UUID16(0x2A19), FlagRead|FlagNotify).SetValue([]byte{0x64})
	if _, err := RegisterServices(db, []*ServiceDef{svc}); err != nil {
		t.Fatal(err)
	}

	entries := ExportTable(db)
	if len(entries) != db.Len() {
		t.Fatalf("exported %d entries, db has %d", len(entries), db.Len())
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Handle <= entries[i-1].Handle {
			t.Fatalf("entries not in ascending handle order")
		}
	}
	if entries[0].Handle != 1 || !entries[0].Type.Equal(blepp.UUID16(0x2800)) {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[0].EndGroup != 4 {
		t.Errorf("service entry end group = %d", entries[0].EndGroup)
	}

	// The export owns its bytes.
	entries[2].Value[0] = 0xFF
	if v := db.CharacteristicValue(3); !bytes.Equal(v, []byte{0x64}) {
		t.Errorf("export aliases database storage")
	}
}
