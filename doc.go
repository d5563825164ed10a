// Package blepp implements the host side of the Bluetooth Low Energy
// Attribute Protocol (ATT) and the Generic Attribute Profile (GATT) on
// top of a pluggable link-layer transport.
//
// The root package holds the shared vocabulary: UUIDs, attribute
// permissions, ATT error codes, and the Transport capability boundary.
// Package att implements the attribute database and the server-side ATT
// state machine; package gatt the declarative service registrar and the
// server facade; package scan the LE advertising-report parser; package
// adv the advertising-data builder.
package blepp
