package blepp

import "encoding/binary"

// Little-endian integer codec helpers. All reads are bounds-checked;
// running past the buffer yields ErrTruncated rather than a panic.

// ReadUint16 reads a little-endian uint16 at offset off.
func ReadUint16(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, ErrTruncated
	}
	return binary.LittleEndian.Uint16(b[off:]), nil
}

// ReadUint32 reads a little-endian uint32 at offset off.
func ReadUint32(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, ErrTruncated
	}
	return binary.LittleEndian.Uint32(b[off:]), nil
}

// PutUint16 appends v little-endian to b.
func PutUint16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

// PutUint32 appends v little-endian to b.
func PutUint32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
