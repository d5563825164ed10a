package att

import "github.com/yinzara/libblepp"

// NewErrorResponse builds a 5-byte Error Response for the request opcode op
// on handle h. The handle field is zero when no handle applies.
func NewErrorResponse(op byte, h uint16, s blepp.ATTError) []byte {
	r := ErrorResponse(make([]byte, 5))
	r.SetAttributeOpcode()
	r.SetRequestOpcodeInError(op)
	r.SetAttributeInError(h)
	r.SetErrorCode(uint8(s))
	return r
}
