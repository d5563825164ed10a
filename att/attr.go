package att

import "github.com/yinzara/libblepp"

// Kind classifies an attribute row.
type Kind int

const (
	PrimaryService Kind = iota
	SecondaryService
	Include
	CharacteristicDecl
	CharacteristicValue
	Descriptor
)

// A ReadHandler produces the value of an attribute on behalf of the
// application. A non-success code is propagated verbatim as the ATT error
// code of the failed request.
type ReadHandler interface {
	ServeRead(conn uint16, offset uint16) ([]byte, blepp.ATTError)
}

// ReadHandlerFunc is an adapter to allow the use of ordinary functions as
// read handlers.
type ReadHandlerFunc func(conn uint16, offset uint16) ([]byte, blepp.ATTError)

// ServeRead returns f(conn, offset).
func (f ReadHandlerFunc) ServeRead(conn uint16, offset uint16) ([]byte, blepp.ATTError) {
	return f(conn, offset)
}

// A WriteHandler consumes an inbound attribute write.
type WriteHandler interface {
	ServeWrite(conn uint16, data []byte) blepp.ATTError
}

// WriteHandlerFunc is an adapter to allow the use of ordinary functions as
// write handlers.
type WriteHandlerFunc func(conn uint16, data []byte) blepp.ATTError

// ServeWrite returns f(conn, data).
func (f WriteHandlerFunc) ServeWrite(conn uint16, data []byte) blepp.ATTError {
	return f(conn, data)
}

// An Attribute is one row of the database.
type Attribute struct {
	Handle uint16
	Kind   Kind

	// Type is the ATT attribute type (0x2800 for a primary service
	// declaration, the characteristic UUID for a value row, ...).
	Type blepp.UUID

	Perms blepp.Permission
	Value []byte

	// Props and ValueHandle are meaningful for characteristic
	// declaration and value rows only.
	Props       blepp.Property
	ValueHandle uint16

	// EndGroup is the last handle of the group for service rows; for all
	// other rows it equals Handle.
	EndGroup uint16

	rh ReadHandler
	wh WriteHandler
}

// ReadHandler returns the attribute's read hook, or nil.
func (a *Attribute) ReadHandler() ReadHandler { return a.rh }

// WriteHandler returns the attribute's write hook, or nil.
func (a *Attribute) WriteHandler() WriteHandler { return a.wh }

// DumpAttributes logs the attribute table.
func DumpAttributes(aa []*Attribute) {
	logger.Debugf("attribute table:")
	logger.Debugf("handle\tend\ttype\tvalue")
	for _, a := range aa {
		if a.Value != nil {
			logger.Debugf("0x%04X\t0x%04X\t0x%s\t[ % X ]", a.Handle, a.EndGroup, a.Type, a.Value)
			continue
		}
		logger.Debugf("0x%04X\t0x%04X\t0x%s", a.Handle, a.EndGroup, a.Type)
	}
}
