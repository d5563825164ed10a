package att

import (
	"bytes"
	"testing"

	"github.com/yinzara/libblepp"
)

func TestErrorResponse(t *testing.T) {
	r := NewErrorResponse(ReadByGroupTypeRequestCode, 0x0001, blepp.ErrUnsuppGrpType)
	if !bytes.Equal(r, []byte{0x01, 0x10, 0x01, 0x00, 0x10}) {
		t.Errorf("error response = % X", r)
	}
	er := ErrorResponse(r)
	if er.RequestOpcodeInError() != 0x10 || er.AttributeInError() != 1 || er.ErrorCode() != 0x10 {
		t.Errorf("accessors: op=0x%02X h=0x%04X code=0x%02X",
			er.RequestOpcodeInError(), er.AttributeInError(), er.ErrorCode())
	}
}

func TestRequestAccessors(t *testing.T) {
	req := ExchangeMTURequest(make([]byte, 3))
	req.SetAttributeOpcode()
	req.SetClientRxMTU(517)
	if !bytes.Equal(req, []byte{0x02, 0x05, 0x02}) {
		t.Errorf("mtu request = % X", []byte(req))
	}
	if req.ClientRxMTU() != 517 {
		t.Errorf("ClientRxMTU = %d", req.ClientRxMTU())
	}

	fr := FindInformationRequest(make([]byte, 5))
	fr.SetAttributeOpcode()
	fr.SetStartingHandle(0x0001)
	fr.SetEndingHandle(0xFFFF)
	if !bytes.Equal(fr, []byte{0x04, 0x01, 0x00, 0xFF, 0xFF}) {
		t.Errorf("find info request = % X", []byte(fr))
	}

	w := WriteRequest(append(make([]byte, 3), 0x01, 0x00))
	w.SetAttributeOpcode()
	w.SetAttributeHandle(0x0004)
	if !bytes.Equal(w, []byte{0x12, 0x04, 0x00, 0x01, 0x00}) {
		t.Errorf("write request = % X", []byte(w))
	}
	if !bytes.Equal(w.AttributeValue(), []byte{0x01, 0x00}) {
		t.Errorf("write value = % X", w.AttributeValue())
	}

	n := HandleValueNotification(make([]byte, 3))
	n.SetAttributeOpcode()
	n.SetAttributeHandle(0x0003)
	if !bytes.Equal(n, []byte{0x1B, 0x03, 0x00}) {
		t.Errorf("notification header = % X", []byte(n))
	}
}
