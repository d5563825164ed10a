package gatt

import (
	"github.com/yinzara/libblepp"
	"github.com/yinzara/libblepp/att"
)

// Flag is the composite characteristic flag word used by declarative
// service definitions. One word carries both the characteristic
// properties and the attribute permissions of the value row.
type Flag uint16

const (
	FlagBroadcast     Flag = 0x0001
	FlagRead          Flag = 0x0002
	FlagWriteNoRsp    Flag = 0x0004
	FlagWrite         Flag = 0x0008
	FlagNotify        Flag = 0x0010
	FlagIndicate      Flag = 0x0020
	FlagAuthSignWrite Flag = 0x0040
	FlagReliableWrite Flag = 0x0080
	FlagAuxWrite      Flag = 0x0100
	FlagReadEnc       Flag = 0x0200
	FlagReadAuthen    Flag = 0x0400
	FlagReadAuthor    Flag = 0x0800
	FlagWriteEnc      Flag = 0x1000
	FlagWriteAuthen   Flag = 0x2000
	FlagWriteAuthor   Flag = 0x4000
)

// Properties translates the flag word to the characteristic property byte.
func (f Flag) Properties() blepp.Property {
	var p blepp.Property
	if f&FlagBroadcast != 0 {
		p |= blepp.CharBroadcast
	}
	if f&FlagRead != 0 {
		p |= blepp.CharRead
	}
	if f&FlagWriteNoRsp != 0 {
		p |= blepp.CharWriteNR
	}
	if f&FlagWrite != 0 {
		p |= blepp.CharWrite
	}
	if f&FlagNotify != 0 {
		p |= blepp.CharNotify
	}
	if f&FlagIndicate != 0 {
		p |= blepp.CharIndicate
	}
	if f&FlagAuthSignWrite != 0 {
		p |= blepp.CharSignedWrite
	}
	return p
}

// Permissions translates the flag word to the value row's permission bits.
func (f Flag) Permissions() blepp.Permission {
	var p blepp.Permission
	if f&FlagRead != 0 {
		p |= blepp.PermRead
	}
	if f&(FlagWrite|FlagWriteNoRsp) != 0 {
		p |= blepp.PermWrite
	}
	if f&FlagReadEnc != 0 {
		p |= blepp.PermReadEncrypt
	}
	if f&FlagReadAuthen != 0 {
		p |= blepp.PermReadAuthen
	}
	if f&FlagReadAuthor != 0 {
		p |= blepp.PermReadAuthor
	}
	if f&FlagWriteEnc != 0 {
		p |= blepp.PermWriteEncrypt
	}
	if f&FlagWriteAuthen != 0 {
		p |= blepp.PermWriteAuthen
	}
	if f&FlagWriteAuthor != 0 {
		p |= blepp.PermWriteAuthor
	}
	return p
}

// ServiceType selects the service declaration kind.
type ServiceType uint8

const (
	Primary ServiceType = iota + 1
	Secondary
)

// A ServiceDef declares one service of a service tree.
type ServiceDef struct {
	Type ServiceType
	UUID blepp.UUID

	// Includes lists handles of previously registered services to
	// reference with include declarations.
	Includes []uint16

	Characteristics []*CharacteristicDef
}

// A CharacteristicDef declares one characteristic of a service.
type CharacteristicDef struct {
	UUID  blepp.UUID
	Flags Flag

	// Value seeds the static value of the characteristic value row.
	Value []byte

	// OnRead and OnWrite are the optional access hooks installed on the
	// value row.
	OnRead  att.ReadHandler
	OnWrite att.WriteHandler

	Descriptors []*DescriptorDef
}

// A DescriptorDef declares one descriptor of a characteristic. The CCCD
// must not be declared here; it is inserted automatically for notify and
// indicate characteristics.
type DescriptorDef struct {
	UUID  blepp.UUID
	Perms blepp.Permission
	Value []byte

	OnRead  att.ReadHandler
	OnWrite att.WriteHandler
}

// NewService starts a primary service definition.
func NewService(u blepp.UUID) *ServiceDef {
	return &ServiceDef{Type: Primary, UUID: u}
}

// NewSecondaryService starts a secondary service definition.
func NewSecondaryService(u blepp.UUID) *ServiceDef {
	return &ServiceDef{Type: Secondary, UUID: u}
}

// AddCharacteristic appends a characteristic and returns it for further
// configuration.
func (s *ServiceDef) AddCharacteristic(u blepp.UUID, f Flag) *CharacteristicDef {
	c := &CharacteristicDef{UUID: u, Flags: f}
	s.Characteristics = append(s.Characteristics, c)
	return c
}

// AddInclude references a previously registered service.
func (s *ServiceDef) AddInclude(serviceHandle uint16) *ServiceDef {
	s.Includes = append(s.Includes, serviceHandle)
	return s
}

// SetValue seeds the characteristic's static value.
func (c *CharacteristicDef) SetValue(v []byte) *CharacteristicDef {
	c.Value = append([]byte(nil), v...)
	return c
}

// HandleRead installs the read hook.
func (c *CharacteristicDef) HandleRead(h att.ReadHandler) *CharacteristicDef {
	c.OnRead = h
	return c
}

// HandleWrite installs the write hook.
func (c *CharacteristicDef) HandleWrite(h att.WriteHandler) *CharacteristicDef {
	c.OnWrite = h
	return c
}

// AddDescriptor appends a descriptor and returns it for configuration.
func (c *CharacteristicDef) AddDescriptor(u blepp.UUID, perms blepp.Permission) *DescriptorDef {
	d := &DescriptorDef{UUID: u, Perms: perms}
	c.Descriptors = append(c.Descriptors, d)
	return d
}

// SetValue seeds the descriptor's static value.
func (d *DescriptorDef) SetValue(v []byte) *DescriptorDef {
	d.Value = append([]byte(nil), v...)
	return d
}
