package gatt

import (
	"github.com/yinzara/libblepp"
	"github.com/yinzara/libblepp/att"
)

// A TableEntry is one attribute row serialized for an integrated-stack
// backend's native registration call. Integrated stacks answer ATT
// requests themselves; the core hands them the flattened table once and
// owns no further PDU handling for them.
type TableEntry struct {
	Handle   uint16
	EndGroup uint16
	Type     blepp.UUID
	Perms    blepp.Permission
	Props    blepp.Property
	Value    []byte
}

// ExportTable serializes every attribute row, in ascending handle order.
// The entries own their bytes; the buffers are scoped to this call.
func ExportTable(db *att.DB) []TableEntry {
	attrs := db.Range(1, 0xFFFF)
	out := make([]TableEntry, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, TableEntry{
			Handle:   a.Handle,
			EndGroup: a.EndGroup,
			Type:     append(blepp.UUID(nil), a.Type...),
			Perms:    a.Perms,
			Props:    a.Props,
			Value:    append([]byte(nil), a.Value...),
		})
	}
	return out
}
