package blepp

import "github.com/pkg/errors"

// Errors surfaced to callers of the public API. ATT-expressible failures
// never reach the API as errors; they become Error Response PDUs instead.
var (
	// ErrNotConnected means the connection handle does not name a live connection.
	ErrNotConnected = errors.New("not connected")

	// ErrNotSubscribed means the peer has not enabled the requested
	// notification or indication via its CCCD.
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrHandleSpaceExhausted means the 16-bit attribute handle space is used up.
	ErrHandleSpaceExhausted = errors.New("attribute handle space exhausted")

	// ErrUnknownHandle means an operation referenced a handle with no attribute.
	ErrUnknownHandle = errors.New("unknown attribute handle")

	// ErrTruncated means a decode ran past the end of its input.
	ErrTruncated = errors.New("truncated input")

	// ErrMalformedPacket means an HCI packet failed structural validation.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrUnknownHCIPacket means the packet-type byte was not an HCI event.
	ErrUnknownHCIPacket = errors.New("unknown HCI packet")

	// ErrEIRPacketTooLong is returned when an advertising or scan-response
	// payload exceeds the 31-byte limit.
	ErrEIRPacketTooLong = errors.New("max packet length is 31")
)

// ATTError is an Attribute Protocol error code, carried in the Error
// Response PDU [Vol 3, Part F, 3.4.1.1].
type ATTError byte

const (
	ErrSuccess           ATTError = 0x00 // The operation succeeded.
	ErrInvalidHandle     ATTError = 0x01 // The attribute handle given was not valid on this server.
	ErrReadNotPerm       ATTError = 0x02 // The attribute cannot be read.
	ErrWriteNotPerm      ATTError = 0x03 // The attribute cannot be written.
	ErrInvalidPDU        ATTError = 0x04 // The attribute PDU was invalid.
	ErrAuthentication    ATTError = 0x05 // The attribute requires authentication before it can be read or written.
	ErrReqNotSupp        ATTError = 0x06 // The server does not support the request received from the client.
	ErrInvalidOffset     ATTError = 0x07 // The offset specified was past the end of the attribute.
	ErrAuthorization     ATTError = 0x08 // The attribute requires authorization before it can be read or written.
	ErrPrepQueueFull     ATTError = 0x09 // Too many prepare writes have been queued.
	ErrAttrNotFound      ATTError = 0x0A // No attribute found within the given attribute handle range.
	ErrAttrNotLong       ATTError = 0x0B // The attribute cannot be read using the Read Blob Request.
	ErrInsuffEncrKeySize ATTError = 0x0C // The Encryption Key Size used for encrypting this link is insufficient.
	ErrInvalAttrValueLen ATTError = 0x0D // The attribute value length is invalid for the operation.
	ErrUnlikely          ATTError = 0x0E // The request has encountered an unlikely error and could not be completed.
	ErrInsuffEnc         ATTError = 0x0F // The attribute requires encryption before it can be read or written.
	ErrUnsuppGrpType     ATTError = 0x10 // The attribute type is not a supported grouping attribute.
	ErrInsuffResources   ATTError = 0x11 // Insufficient resources to complete the request.
)

func (e ATTError) Error() string {
	switch i := int(e); {
	case i <= 0x11:
		return errName[e]
	case i >= 0x80 && i <= 0x9F:
		return "application error"
	case i >= 0xE0: // Common profile and service error codes
		return "profile or service error"
	default:
		return "reserved error code"
	}
}

var errName = map[ATTError]string{
	ErrSuccess:           "success",
	ErrInvalidHandle:     "invalid handle",
	ErrReadNotPerm:       "read not permitted",
	ErrWriteNotPerm:      "write not permitted",
	ErrInvalidPDU:        "invalid PDU",
	ErrAuthentication:    "insufficient authentication",
	ErrReqNotSupp:        "request not supported",
	ErrInvalidOffset:     "invalid offset",
	ErrAuthorization:     "insufficient authorization",
	ErrPrepQueueFull:     "prepare queue full",
	ErrAttrNotFound:      "attribute not found",
	ErrAttrNotLong:       "attribute not long",
	ErrInsuffEncrKeySize: "insufficient encryption key size",
	ErrInvalAttrValueLen: "invalid attribute value length",
	ErrUnlikely:          "unlikely error",
	ErrInsuffEnc:         "insufficient encryption",
	ErrUnsuppGrpType:     "unsupported group type",
	ErrInsuffResources:   "insufficient resources",
}
