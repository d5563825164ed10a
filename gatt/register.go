package gatt

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yinzara/libblepp"
	"github.com/yinzara/libblepp/att"
)

var logger = logrus.WithField("prefix", "gatt")

// RegisteredCharacteristic reports the handles a characteristic definition
// was flattened to.
type RegisteredCharacteristic struct {
	DeclHandle  uint16
	ValueHandle uint16

	// CCCDHandle is zero when the characteristic is neither notify nor
	// indicate.
	CCCDHandle uint16

	// DescriptorHandles correspond to the definition's Descriptors, in
	// order, not counting the auto-inserted CCCD.
	DescriptorHandles []uint16
}

// RegisteredService reports the handles a service definition was
// flattened to.
type RegisteredService struct {
	Handle          uint16
	IncludeHandles  []uint16
	Characteristics []RegisteredCharacteristic
}

// RegisterServices flattens a declarative service tree into attribute
// rows. Registration is not atomic: on error, rows inserted so far remain
// and the database must not be reused.
func RegisterServices(db *att.DB, defs []*ServiceDef) ([]RegisteredService, error) {
	var out []RegisteredService
	for _, sd := range defs {
		rs, err := registerService(db, sd)
		if err != nil {
			return out, err
		}
		out = append(out, rs)
	}
	logger.Infof("registered %d services, %d attributes total", len(defs), db.Len())
	return out, nil
}

func registerService(db *att.DB, sd *ServiceDef) (RegisteredService, error) {
	var rs RegisteredService
	var err error

	switch sd.Type {
	case Secondary:
		rs.Handle, err = db.AddSecondaryService(sd.UUID)
	default:
		rs.Handle, err = db.AddPrimaryService(sd.UUID)
	}
	if err != nil {
		return rs, errors.Wrapf(err, "service %s", sd.UUID)
	}

	for _, inc := range sd.Includes {
		h, err := db.AddInclude(rs.Handle, inc)
		if err != nil {
			return rs, errors.Wrapf(err, "include 0x%04X in service %s", inc, sd.UUID)
		}
		rs.IncludeHandles = append(rs.IncludeHandles, h)
	}

	for _, cd := range sd.Characteristics {
		rc, err := registerCharacteristic(db, rs.Handle, cd)
		if err != nil {
			return rs, errors.Wrapf(err, "characteristic %s in service %s", cd.UUID, sd.UUID)
		}
		rs.Characteristics = append(rs.Characteristics, rc)
	}
	return rs, nil
}

func registerCharacteristic(db *att.DB, service uint16, cd *CharacteristicDef) (RegisteredCharacteristic, error) {
	var rc RegisteredCharacteristic

	props := cd.Flags.Properties()
	perms := cd.Flags.Permissions()

	decl, err := db.AddCharacteristic(service, cd.UUID, props, perms)
	if err != nil {
		return rc, err
	}
	rc.DeclHandle = decl
	rc.ValueHandle = decl + 1
	if props&(blepp.CharNotify|blepp.CharIndicate) != 0 {
		rc.CCCDHandle = rc.ValueHandle + 1
	}

	if cd.Value != nil {
		if err := db.SetCharacteristicValue(rc.ValueHandle, cd.Value); err != nil {
			return rc, err
		}
	}
	if cd.OnRead != nil {
		if err := db.SetReadHandler(rc.ValueHandle, cd.OnRead); err != nil {
			return rc, err
		}
	}
	if cd.OnWrite != nil {
		if err := db.SetWriteHandler(rc.ValueHandle, cd.OnWrite); err != nil {
			return rc, err
		}
	}

	for _, dd := range cd.Descriptors {
		h, err := db.AddDescriptor(rc.ValueHandle, dd.UUID, dd.Perms)
		if err != nil {
			return rc, errors.Wrapf(err, "descriptor %s", dd.UUID)
		}
		if dd.Value != nil {
			if err := db.SetAttributeValue(h, dd.Value); err != nil {
				return rc, err
			}
		}
		if dd.OnRead != nil {
			if err := db.SetReadHandler(h, dd.OnRead); err != nil {
				return rc, err
			}
		}
		if dd.OnWrite != nil {
			if err := db.SetWriteHandler(h, dd.OnWrite); err != nil {
				return rc, err
			}
		}
		rc.DescriptorHandles = append(rc.DescriptorHandles, h)
	}
	return rc, nil
}
