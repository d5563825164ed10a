package gatt

import (
	"encoding/binary"

	"github.com/yinzara/libblepp"
)

// Standard service and characteristic UUIDs used by the stock services.
var (
	GAPServiceUUID  = blepp.UUID16(0x1800)
	GATTServiceUUID = blepp.UUID16(0x1801)

	DeviceNameUUID       = blepp.UUID16(0x2A00)
	AppearanceUUID       = blepp.UUID16(0x2A01)
	PreferredParamsUUID  = blepp.UUID16(0x2A04)
	ServiceChangedUUID   = blepp.UUID16(0x2A05)
)

// NewGAPService builds the Generic Access service: device name and
// appearance, read-only. Integrated stacks usually provide this service
// themselves; raw-link peripherals register it explicitly.
func NewGAPService(name string, appearance uint16) *ServiceDef {
	app := make([]byte, 2)
	binary.LittleEndian.PutUint16(app, appearance)

	s := NewService(GAPServiceUUID)
	s.AddCharacteristic(DeviceNameUUID, FlagRead).SetValue([]byte(name))
	s.AddCharacteristic(AppearanceUUID, FlagRead).SetValue(app)
	return s
}

// NewGATTService builds the Generic Attribute service with its Service
// Changed characteristic. The attribute table is frozen once serving
// starts, so the characteristic exists for clients that expect it but
// never fires.
func NewGATTService() *ServiceDef {
	s := NewService(GATTServiceUUID)
	s.AddCharacteristic(ServiceChangedUUID, FlagIndicate)
	return s
}
