package att

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yinzara/libblepp"
)

var logger = logrus.WithField("prefix", "att")

// Standard GATT attribute-type UUIDs.
var (
	PrimaryServiceUUID   = blepp.UUID16(0x2800)
	SecondaryServiceUUID = blepp.UUID16(0x2801)
	IncludeUUID          = blepp.UUID16(0x2802)
	CharacteristicUUID   = blepp.UUID16(0x2803)
	ClientCharConfigUUID = blepp.UUID16(0x2902)
)

type serviceRange struct {
	start uint16
	end   uint16
}

// A DB is the attribute database: a handle-keyed store of services,
// characteristics and descriptors, with service-group bookkeeping.
//
// Rows are created during setup only; after serving starts the table is
// logically frozen and value changes go through handlers or
// SetCharacteristicValue.
type DB struct {
	mu       sync.RWMutex
	attrs    map[uint16]*Attribute
	order    []uint16 // handles in allocation (= ascending) order
	services []serviceRange
	next     uint16
}

// NewDB returns an empty database. Handles are allocated from 1.
func NewDB() *DB {
	return &DB{
		attrs: make(map[uint16]*Attribute),
		next:  1,
	}
}

// reserve reports whether n more handles can be allocated. Multi-row
// operations check up front so a failure leaves no partial state.
func (db *DB) reserve(n int) bool {
	return int(0xFFFF)-int(db.next) >= n
}

func (db *DB) allocate() uint16 {
	h := db.next
	db.next++
	return h
}

// NextHandle returns the handle the next allocation will use.
func (db *DB) NextHandle() uint16 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.next
}

// Len returns the number of attribute rows.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.attrs)
}

// Clear removes every row and resets the handle counter.
func (db *DB) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.attrs = make(map[uint16]*Attribute)
	db.order = nil
	db.services = nil
	db.next = 1
}

func (db *DB) insert(a *Attribute) {
	db.attrs[a.Handle] = a
	db.order = append(db.order, a.Handle)
}

func (db *DB) addService(kind Kind, typ, u blepp.UUID) (uint16, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.reserve(1) {
		return 0, errors.WithStack(blepp.ErrHandleSpaceExhausted)
	}
	h := db.allocate()
	db.insert(&Attribute{
		Handle:   h,
		Kind:     kind,
		Type:     typ,
		Perms:    blepp.PermRead,
		Value:    append([]byte(nil), u...),
		EndGroup: h,
	})
	db.services = append(db.services, serviceRange{start: h, end: h})
	logger.Infof("added service %s at handle 0x%04X", u, h)
	return h, nil
}

// AddPrimaryService appends a primary-service declaration row and opens a
// new service group.
func (db *DB) AddPrimaryService(u blepp.UUID) (uint16, error) {
	return db.addService(PrimaryService, PrimaryServiceUUID, u)
}

// AddSecondaryService appends a secondary-service declaration row.
func (db *DB) AddSecondaryService(u blepp.UUID) (uint16, error) {
	return db.addService(SecondaryService, SecondaryServiceUUID, u)
}

// AddInclude appends an include declaration to service, referencing the
// service at included.
func (db *DB) AddInclude(service, included uint16) (uint16, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	inc, ok := db.attrs[included]
	if !ok {
		return 0, errors.Wrapf(blepp.ErrUnknownHandle, "included service 0x%04X", included)
	}
	if _, ok := db.attrs[service]; !ok {
		return 0, errors.Wrapf(blepp.ErrUnknownHandle, "service 0x%04X", service)
	}
	if !db.reserve(1) {
		return 0, errors.WithStack(blepp.ErrHandleSpaceExhausted)
	}

	// included_start(2) || included_end(2) || uuid16(2) if 16-bit.
	v := make([]byte, 0, 6)
	v = blepp.PutUint16(v, included)
	v = blepp.PutUint16(v, inc.EndGroup)
	if svcUUID := blepp.UUID(inc.Value); svcUUID.Len() == 2 {
		v = append(v, svcUUID...)
	}

	h := db.allocate()
	db.insert(&Attribute{
		Handle:   h,
		Kind:     Include,
		Type:     IncludeUUID,
		Perms:    blepp.PermRead,
		Value:    v,
		EndGroup: h,
	})
	db.extendService(service, h)
	return h, nil
}

// AddCharacteristic appends a characteristic declaration row and its value
// row to service. If props include notify or indicate, a CCCD row is
// inserted right after the value, initialized to 00 00. The declaration
// handle is returned; the value handle is always one higher.
func (db *DB) AddCharacteristic(service uint16, u blepp.UUID, props blepp.Property, perms blepp.Permission) (uint16, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.attrs[service]; !ok {
		return 0, errors.Wrapf(blepp.ErrUnknownHandle, "service 0x%04X", service)
	}
	need := 2
	cccd := props&(blepp.CharNotify|blepp.CharIndicate) != 0
	if cccd {
		need = 3
	}
	if !db.reserve(need) {
		return 0, errors.WithStack(blepp.ErrHandleSpaceExhausted)
	}

	h := db.allocate()
	vh := db.allocate()

	// properties(1) || value_handle(2) || uuid(2 or 16).
	declv := make([]byte, 0, 3+len(u))
	declv = append(declv, byte(props))
	declv = blepp.PutUint16(declv, vh)
	declv = append(declv, u...)

	db.insert(&Attribute{
		Handle:      h,
		Kind:        CharacteristicDecl,
		Type:        CharacteristicUUID,
		Perms:       blepp.PermRead,
		Value:       declv,
		Props:       props,
		ValueHandle: vh,
		EndGroup:    h,
	})
	db.insert(&Attribute{
		Handle:      vh,
		Kind:        CharacteristicValue,
		Type:        append(blepp.UUID(nil), u...),
		Perms:       perms,
		Props:       props,
		ValueHandle: vh,
		EndGroup:    vh,
	})
	db.extendService(service, vh)

	if cccd {
		dh := db.allocate()
		db.insert(&Attribute{
			Handle:   dh,
			Kind:     Descriptor,
			Type:     ClientCharConfigUUID,
			Perms:    blepp.PermRead | blepp.PermWrite,
			Value:    []byte{0x00, 0x00},
			EndGroup: dh,
		})
		db.extendService(service, dh)
		logger.Debugf("auto-added CCCD at 0x%04X for characteristic 0x%04X", dh, vh)
	}

	logger.Infof("added characteristic %s (decl=0x%04X, value=0x%04X)", u, h, vh)
	return h, nil
}

// AddDescriptor appends a descriptor row, attached to the service owning
// the referenced characteristic value handle.
func (db *DB) AddDescriptor(valueHandle uint16, u blepp.UUID, perms blepp.Permission) (uint16, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.attrs[valueHandle]; !ok {
		return 0, errors.Wrapf(blepp.ErrUnknownHandle, "characteristic value 0x%04X", valueHandle)
	}
	if !db.reserve(1) {
		return 0, errors.WithStack(blepp.ErrHandleSpaceExhausted)
	}

	h := db.allocate()
	db.insert(&Attribute{
		Handle:   h,
		Kind:     Descriptor,
		Type:     append(blepp.UUID(nil), u...),
		Perms:    perms,
		EndGroup: h,
	})

	// The last service whose range contains the value handle owns the
	// descriptor.
	for i := len(db.services) - 1; i >= 0; i-- {
		s := &db.services[i]
		if valueHandle >= s.start && valueHandle <= s.end {
			s.end = h
			if svc := db.attrs[s.start]; svc != nil {
				svc.EndGroup = h
			}
			break
		}
	}
	return h, nil
}

func (db *DB) extendService(service, last uint16) {
	for i := range db.services {
		if db.services[i].start == service {
			db.services[i].end = last
			break
		}
	}
	if svc := db.attrs[service]; svc != nil {
		svc.EndGroup = last
	}
}

// Get returns the attribute at handle h.
func (db *DB) Get(h uint16) (*Attribute, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	a, ok := db.attrs[h]
	return a, ok
}

// Range returns the attributes with handles in [start, end], in ascending
// handle order. An empty result is legal, not an error.
func (db *DB) Range(start, end uint16) []*Attribute {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []*Attribute
	for _, h := range db.order {
		if h >= start && h <= end {
			out = append(out, db.attrs[h])
		}
	}
	return out
}

// FindByType returns the attributes in [start, end] whose attribute type
// equals typ, in ascending handle order.
func (db *DB) FindByType(start, end uint16, typ blepp.UUID) []*Attribute {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []*Attribute
	for _, h := range db.order {
		if h < start || h > end {
			continue
		}
		if a := db.attrs[h]; a.Type.Equal(typ) {
			out = append(out, a)
		}
	}
	return out
}

// FindByTypeValue is FindByType further filtered by an exact value match.
func (db *DB) FindByTypeValue(start, end uint16, typ blepp.UUID, value []byte) []*Attribute {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []*Attribute
	for _, h := range db.order {
		if h < start || h > end {
			continue
		}
		if a := db.attrs[h]; a.Type.Equal(typ) && bytes.Equal(a.Value, value) {
			out = append(out, a)
		}
	}
	return out
}

// SetCharacteristicValue replaces the static value of a characteristic
// value row.
func (db *DB) SetCharacteristicValue(valueHandle uint16, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.attrs[valueHandle]
	if !ok || a.Kind != CharacteristicValue {
		return errors.Wrapf(blepp.ErrUnknownHandle, "characteristic value 0x%04X", valueHandle)
	}
	a.Value = append([]byte(nil), value...)
	return nil
}

// CharacteristicValue returns a copy of the static value of a
// characteristic value row, or nil if the handle does not name one.
func (db *DB) CharacteristicValue(valueHandle uint16) []byte {
	db.mu.RLock()
	defer db.mu.RUnlock()
	a, ok := db.attrs[valueHandle]
	if !ok || a.Kind != CharacteristicValue {
		return nil
	}
	return append([]byte(nil), a.Value...)
}

// SetAttributeValue replaces the static value of any attribute row. It is
// meant for setup-time seeding (descriptor initial values); runtime value
// changes should go through SetCharacteristicValue or a write hook.
func (db *DB) SetAttributeValue(h uint16, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.attrs[h]
	if !ok {
		return errors.Wrapf(blepp.ErrUnknownHandle, "handle 0x%04X", h)
	}
	a.Value = append([]byte(nil), value...)
	return nil
}

// SetReadHandler installs a read hook on the attribute at h.
func (db *DB) SetReadHandler(h uint16, rh ReadHandler) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.attrs[h]
	if !ok {
		return errors.Wrapf(blepp.ErrUnknownHandle, "handle 0x%04X", h)
	}
	a.rh = rh
	return nil
}

// SetWriteHandler installs a write hook on the attribute at h.
func (db *DB) SetWriteHandler(h uint16, wh WriteHandler) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.attrs[h]
	if !ok {
		return errors.Wrapf(blepp.ErrUnknownHandle, "handle 0x%04X", h)
	}
	a.wh = wh
	return nil
}

// setValue is used by the server's write path; the value of an attribute
// without a write hook is simply replaced.
func (db *DB) setValue(h uint16, value []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if a, ok := db.attrs[h]; ok {
		a.Value = append([]byte(nil), value...)
	}
}

// value returns a copy of the static value of the attribute at h.
func (db *DB) value(h uint16) []byte {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if a, ok := db.attrs[h]; ok {
		return append([]byte(nil), a.Value...)
	}
	return nil
}
