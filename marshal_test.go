// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Captured packets. The tcpdump summaries are kept above each fixture.

/*
kyocera_response
	Simple Network Management Protocol
	    version: v2c (1)
	    community: public
	    data: get-response (2)
	        get-response
	            request-id: 1066889284
	            error-status: noError (0)
	            error-index: 0
	            variable-bindings: 8 items
	                1.3.6.1.2.1.1.7.0: 104
	                1.3.6.1.2.1.2.2.1.10.1: 271070065
	                1.3.6.1.2.1.2.2.1.5.1: 100000000
	                1.3.6.1.2.1.1.4.0: 41646d696e6973747261746f72
	                1.3.6.1.2.1.43.5.1.1.15.1: Value (Null)
	                1.3.6.1.2.1.4.21.1.1.127.0.0.1: 127.0.0.1 (127.0.0.1)
	                1.3.6.1.4.1.23.2.5.1.1.1.4.2: 00159937762b
	                1.3.6.1.2.1.1.3.0: 318870100
*/
func kyoceraResponseBytes() []byte {
	return []byte{
		0x30, 0x81, 0xc2, 0x02, 0x01, 0x01, 0x04, 0x06, 0x70, 0x75, 0x62, 0x6c,
		0x69, 0x63, 0xa2, 0x81, 0xb4, 0x02, 0x04, 0x3f, 0x97, 0x70, 0x44, 0x02,
		0x01, 0x00, 0x02, 0x01, 0x00, 0x30, 0x81, 0xa5, 0x30, 0x0d, 0x06, 0x08,
		0x2b, 0x06, 0x01, 0x02, 0x01, 0x01, 0x07, 0x00, 0x02, 0x01, 0x68, 0x30,
		0x12, 0x06, 0x0a, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x0a,
		0x01, 0x41, 0x04, 0x10, 0x28, 0x33, 0x71, 0x30, 0x12, 0x06, 0x0a, 0x2b,
		0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x05, 0x01, 0x42, 0x04, 0x05,
		0xf5, 0xe1, 0x00, 0x30, 0x19, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01,
		0x01, 0x04, 0x00, 0x04, 0x0d, 0x41, 0x64, 0x6d, 0x69, 0x6e, 0x69, 0x73,
		0x74, 0x72, 0x61, 0x74, 0x6f, 0x72, 0x30, 0x0f, 0x06, 0x0b, 0x2b, 0x06,
		0x01, 0x02, 0x01, 0x2b, 0x05, 0x01, 0x01, 0x0f, 0x01, 0x05, 0x00, 0x30,
		0x15, 0x06, 0x0d, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x04, 0x15, 0x01, 0x01,
		0x7f, 0x00, 0x00, 0x01, 0x40, 0x04, 0x7f, 0x00, 0x00, 0x01, 0x30, 0x17,
		0x06, 0x0d, 0x2b, 0x06, 0x01, 0x04, 0x01, 0x17, 0x02, 0x05, 0x01, 0x01,
		0x01, 0x04, 0x02, 0x04, 0x06, 0x00, 0x15, 0x99, 0x37, 0x76, 0x2b, 0x30,
		0x10, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x01, 0x03, 0x00, 0x43,
		0x04, 0x13, 0x01, 0x92, 0x54,
	}
}

/*
cisco_response
	Simple Network Management Protocol
	    version: v2c (1)
	    community: public
	    data: get-response (2)
	        get-response
	            request-id: 4876669
	            error-status: noError (0)
	            error-index: 0
	            variable-bindings: 10 items
	                1.3.6.1.2.1.1.7.0: 78
	                1.3.6.1.2.1.2.2.1.2.6: 476967616269744574686572
	                1.3.6.1.2.1.2.2.1.5.3: 4294967295
	                1.3.6.1.2.1.2.2.1.7.2: noSuchInstance
	                1.3.6.1.2.1.2.2.1.9.3: 2970
	                1.3.6.1.2.1.3.1.1.2.10.1.10.11.0.17: 00077d4d0900
	                1.3.6.1.2.1.3.1.1.3.10.1.10.11.0.2: 10.11.0.2 (10.11.0.2)
	                1.3.6.1.2.1.4.20.1.1.110.143.197.1: 110.143.197.1 (110.143.197.1)
	                1.3.6.1.66.1: noSuchObject
	                1.3.6.1.2.1.1.2.0: 1.3.6.1.4.1.9.1.1166
*/
func ciscoResponseBytes() []byte {
	return []byte{
		0x30, 0x81,
		0xf1, 0x02, 0x01, 0x01, 0x04, 0x06, 0x70, 0x75, 0x62, 0x6c, 0x69, 0x63,
		0xa2, 0x81, 0xe3, 0x02, 0x03, 0x4a, 0x69, 0x7d, 0x02, 0x01, 0x00, 0x02,
		0x01, 0x00, 0x30, 0x81, 0xd5, 0x30, 0x0d, 0x06, 0x08, 0x2b, 0x06, 0x01,
		0x02, 0x01, 0x01, 0x07, 0x00, 0x02, 0x01, 0x4e, 0x30, 0x1e, 0x06, 0x0a,
		0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x02, 0x06, 0x04, 0x10,
		0x47, 0x69, 0x67, 0x61, 0x62, 0x69, 0x74, 0x45, 0x74, 0x68, 0x65, 0x72,
		0x6e, 0x65, 0x74, 0x30, 0x30, 0x13, 0x06, 0x0a, 0x2b, 0x06, 0x01, 0x02,
		0x01, 0x02, 0x02, 0x01, 0x05, 0x03, 0x42, 0x05, 0x00, 0xff, 0xff, 0xff,
		0xff, 0x30, 0x0e, 0x06, 0x0a, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02,
		0x01, 0x07, 0x02, 0x81, 0x00, 0x30, 0x10, 0x06, 0x0a, 0x2b, 0x06, 0x01,
		0x02, 0x01, 0x02, 0x02, 0x01, 0x09, 0x03, 0x43, 0x02, 0x0b, 0x9a, 0x30,
		0x19, 0x06, 0x0f, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x03, 0x01, 0x01, 0x02,
		0x0a, 0x01, 0x0a, 0x0b, 0x00, 0x11, 0x04, 0x06, 0x00, 0x07, 0x7d, 0x4d,
		0x09, 0x00, 0x30, 0x17, 0x06, 0x0f, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x03,
		0x01, 0x01, 0x03, 0x0a, 0x01, 0x0a, 0x0b, 0x00, 0x02, 0x40, 0x04, 0x0a,
		0x0b, 0x00, 0x02, 0x30, 0x17, 0x06, 0x0f, 0x2b, 0x06, 0x01, 0x02, 0x01,
		0x04, 0x14, 0x01, 0x01, 0x6e, 0x81, 0x0f, 0x81, 0x45, 0x01, 0x40, 0x04,
		0x6e, 0x8f, 0xc5, 0x01, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x06, 0x01, 0x42,
		0x01, 0x80, 0x00, 0x30, 0x15, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01,
		0x01, 0x02, 0x00, 0x06, 0x09, 0x2b, 0x06, 0x01, 0x04, 0x01, 0x09, 0x01,
		0x89, 0x0e,
	}
}

/*
kyocera_request
	Simple Network Management Protocol
	    version: v2c (1)
	    community: public
	    data: get-request (0)
	        get-request
	            request-id: 1871507044
	            error-status: noError (0)
	            error-index: 0
	            variable-bindings: 8 items
	                1.3.6.1.2.1.1.7.0: Value (Null)
	                1.3.6.1.2.1.2.2.1.10.1: Value (Null)
	                1.3.6.1.2.1.2.2.1.5.1: Value (Null)
	                1.3.6.1.2.1.1.4.0: Value (Null)
	                1.3.6.1.2.1.43.5.1.1.15.1: Value (Null)
	                1.3.6.1.2.1.4.21.1.1.127.0.0.1: Value (Null)
	                1.3.6.1.4.1.23.2.5.1.1.1.4.2: Value (Null)
	                1.3.6.1.2.1.1.3.0: Value (Null)
*/
func kyoceraRequestBytes() []byte {
	return []byte{
		0x30, 0x81,
		0x9e, 0x02, 0x01, 0x01, 0x04, 0x06, 0x70, 0x75, 0x62, 0x6c, 0x69, 0x63,
		0xa0, 0x81, 0x90, 0x02, 0x04, 0x6f, 0x8c, 0xee, 0x64, 0x02, 0x01, 0x00,
		0x02, 0x01, 0x00, 0x30, 0x81, 0x81, 0x30, 0x0c, 0x06, 0x08, 0x2b, 0x06,
		0x01, 0x02, 0x01, 0x01, 0x07, 0x00, 0x05, 0x00, 0x30, 0x0e, 0x06, 0x0a,
		0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x0a, 0x01, 0x05, 0x00,
		0x30, 0x0e, 0x06, 0x0a, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01,
		0x05, 0x01, 0x05, 0x00, 0x30, 0x0c, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02,
		0x01, 0x01, 0x04, 0x00, 0x05, 0x00, 0x30, 0x0f, 0x06, 0x0b, 0x2b, 0x06,
		0x01, 0x02, 0x01, 0x2b, 0x05, 0x01, 0x01, 0x0f, 0x01, 0x05, 0x00, 0x30,
		0x11, 0x06, 0x0d, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x04, 0x15, 0x01, 0x01,
		0x7f, 0x00, 0x00, 0x01, 0x05, 0x00, 0x30, 0x11, 0x06, 0x0d, 0x2b, 0x06,
		0x01, 0x04, 0x01, 0x17, 0x02, 0x05, 0x01, 0x01, 0x01, 0x04, 0x02, 0x05,
		0x00, 0x30, 0x0c, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x01, 0x03,
		0x00, 0x05, 0x00,
	}
}

// v1 set of an APC PDU outlet (1 = on, 2 = off) and the agent's answers. The
// answers use a non-minimal long form for the outer length.

func portOnOutgoing() []byte {
	return []byte{
		0x30, 0x35, 0x02, 0x01, 0x00, 0x04, 0x0a, 0x70, 0x72, 0x69, 0x76, 0x61,
		0x74, 0x65, 0x6c, 0x61, 0x62, 0xa3, 0x24, 0x02, 0x04, 0x1f, 0x67, 0xc8,
		0xb8, 0x02, 0x01, 0x00, 0x02, 0x01, 0x00, 0x30, 0x16, 0x30, 0x14, 0x06,
		0x0f, 0x2b, 0x06, 0x01, 0x04, 0x01, 0x82, 0x3e, 0x01, 0x01, 0x04, 0x04,
		0x02, 0x01, 0x03, 0x05, 0x02, 0x01, 0x01,
	}
}

func portOnIncoming() []byte {
	return []byte{
		0x30, 0x82, 0x00, 0x35, 0x02, 0x01, 0x00, 0x04, 0x0a, 0x70, 0x72, 0x69,
		0x76, 0x61, 0x74, 0x65, 0x6c, 0x61, 0x62, 0xa2, 0x24, 0x02, 0x04, 0x1f,
		0x67, 0xc8, 0xb8, 0x02, 0x01, 0x00, 0x02, 0x01, 0x00, 0x30, 0x16, 0x30,
		0x14, 0x06, 0x0f, 0x2b, 0x06, 0x01, 0x04, 0x01, 0x82, 0x3e, 0x01, 0x01,
		0x04, 0x04, 0x02, 0x01, 0x03, 0x05, 0x02, 0x01, 0x01,
	}
}

func portOffOutgoing() []byte {
	return []byte{
		0x30, 0x35, 0x02, 0x01, 0x00, 0x04, 0x0a, 0x70, 0x72, 0x69, 0x76, 0x61,
		0x74, 0x65, 0x6c, 0x61, 0x62, 0xa3, 0x24, 0x02, 0x04, 0x6c, 0xd7, 0xa8,
		0xe3, 0x02, 0x01, 0x00, 0x02, 0x01, 0x00, 0x30, 0x16, 0x30, 0x14, 0x06,
		0x0f, 0x2b, 0x06, 0x01, 0x04, 0x01, 0x82, 0x3e, 0x01, 0x01, 0x04, 0x04,
		0x02, 0x01, 0x03, 0x05, 0x02, 0x01, 0x02,
	}
}

func portOffIncoming() []byte {
	return []byte{
		0x30, 0x82, 0x00, 0x35, 0x02, 0x01, 0x00, 0x04, 0x0a, 0x70, 0x72, 0x69,
		0x76, 0x61, 0x74, 0x65, 0x6c, 0x61, 0x62, 0xa2, 0x24, 0x02, 0x04, 0x6c,
		0xd7, 0xa8, 0xe3, 0x02, 0x01, 0x00, 0x02, 0x01, 0x00, 0x30, 0x16, 0x30,
		0x14, 0x06, 0x0f, 0x2b, 0x06, 0x01, 0x04, 0x01, 0x82, 0x3e, 0x01, 0x01,
		0x04, 0x04, 0x02, 0x01, 0x03, 0x05, 0x02, 0x01, 0x02,
	}
}

var outletOID = MustParseOID("1.3.6.1.4.1.318.1.1.4.4.2.1.3.5")

var testsUnmarshal = []struct {
	name      string
	in        func() []byte
	minimal   bool // re-encoding gives back the same octets
	version   SnmpVersion
	community string
	pduType   PDUType
	requestID int32
	vbl       VarBindList
}{
	{
		"kyocera response", kyoceraResponseBytes, true,
		Version2c, "public", GetResponse, 1066889284,
		VarBindList{
			{Name: MustParseOID("1.3.6.1.2.1.1.7.0"), Value: Integer32(104)},
			{Name: MustParseOID("1.3.6.1.2.1.2.2.1.10.1"), Value: Counter32(271070065)},
			{Name: MustParseOID("1.3.6.1.2.1.2.2.1.5.1"), Value: Gauge32(100000000)},
			{Name: MustParseOID("1.3.6.1.2.1.1.4.0"), Value: OctetString("Administrator")},
			{Name: MustParseOID("1.3.6.1.2.1.43.5.1.1.15.1")},
			{Name: MustParseOID("1.3.6.1.2.1.4.21.1.1.127.0.0.1"), Value: IPAddress{127, 0, 0, 1}},
			{Name: MustParseOID("1.3.6.1.4.1.23.2.5.1.1.1.4.2"), Value: OctetString{0x00, 0x15, 0x99, 0x37, 0x76, 0x2b}},
			{Name: MustParseOID("1.3.6.1.2.1.1.3.0"), Value: TimeTicks(318870100)},
		},
	},
	{
		"cisco response", ciscoResponseBytes, true,
		Version2c, "public", GetResponse, 4876669,
		VarBindList{
			{Name: MustParseOID("1.3.6.1.2.1.1.7.0"), Value: Integer32(78)},
			{Name: MustParseOID("1.3.6.1.2.1.2.2.1.2.6"), Value: OctetString("GigabitEthernet0")},
			{Name: MustParseOID("1.3.6.1.2.1.2.2.1.5.3"), Value: Gauge32(4294967295)},
			{Name: MustParseOID("1.3.6.1.2.1.2.2.1.7.2"), Value: NoSuchInstance},
			{Name: MustParseOID("1.3.6.1.2.1.2.2.1.9.3"), Value: TimeTicks(2970)},
			{Name: MustParseOID("1.3.6.1.2.1.3.1.1.2.10.1.10.11.0.17"), Value: OctetString{0x00, 0x07, 0x7d, 0x4d, 0x09, 0x00}},
			{Name: MustParseOID("1.3.6.1.2.1.3.1.1.3.10.1.10.11.0.2"), Value: IPAddress{10, 11, 0, 2}},
			{Name: MustParseOID("1.3.6.1.2.1.4.20.1.1.110.143.197.1"), Value: IPAddress{110, 143, 197, 1}},
			{Name: MustParseOID("1.3.6.1.66.1"), Value: NoSuchObject},
			{Name: MustParseOID("1.3.6.1.2.1.1.2.0"), Value: MustParseOID("1.3.6.1.4.1.9.1.1166")},
		},
	},
	{
		"kyocera request", kyoceraRequestBytes, true,
		Version2c, "public", GetRequest, 0x6f8cee64,
		NullVarBinds(
			MustParseOID("1.3.6.1.2.1.1.7.0"),
			MustParseOID("1.3.6.1.2.1.2.2.1.10.1"),
			MustParseOID("1.3.6.1.2.1.2.2.1.5.1"),
			MustParseOID("1.3.6.1.2.1.1.4.0"),
			MustParseOID("1.3.6.1.2.1.43.5.1.1.15.1"),
			MustParseOID("1.3.6.1.2.1.4.21.1.1.127.0.0.1"),
			MustParseOID("1.3.6.1.4.1.23.2.5.1.1.1.4.2"),
			MustParseOID("1.3.6.1.2.1.1.3.0"),
		),
	},
	{
		"port on set", portOnOutgoing, true,
		Version1, "privatelab", SetRequest, 526895288,
		VarBindList{{Name: outletOID, Value: Integer32(1)}},
	},
	{
		"port on response", portOnIncoming, false,
		Version1, "privatelab", GetResponse, 526895288,
		VarBindList{{Name: outletOID, Value: Integer32(1)}},
	},
	{
		"port off set", portOffOutgoing, true,
		Version1, "privatelab", SetRequest, 1826072803,
		VarBindList{{Name: outletOID, Value: Integer32(2)}},
	},
	{
		"port off response", portOffIncoming, false,
		Version1, "privatelab", GetResponse, 1826072803,
		VarBindList{{Name: outletOID, Value: Integer32(2)}},
	},
}

func TestUnmarshalCaptured(t *testing.T) {
	for _, test := range testsUnmarshal {
		t.Run(test.name, func(t *testing.T) {
			msg, err := UnmarshalMessage(test.in())
			require.NoError(t, err)
			assert.Equal(t, test.version, msg.Version)
			assert.Equal(t, test.community, msg.Community)

			pdu, ok := msg.PDU.(*ImplicitPDU)
			require.True(t, ok, "got %T", msg.PDU)
			assert.Equal(t, test.pduType, pdu.Type)
			assert.Equal(t, test.requestID, pdu.RequestID)
			assert.Equal(t, NoError, pdu.ErrorStatus)
			assert.Zero(t, pdu.ErrorIndex)
			if diff := cmp.Diff(test.vbl, pdu.VarBinds); diff != "" {
				t.Errorf("varbinds mismatch (-want +got):\n%s", diff)
			}

			out, err := msg.Marshal()
			require.NoError(t, err)
			if test.minimal {
				assert.Equal(t, test.in(), out, dumpBytes(out))
			} else {
				// the long form collapses to the short one
				assert.Equal(t, test.in()[4:], out[2:])
				assert.Equal(t, []byte{0x30, 0x35}, out[:2])
			}
		})
	}
}

func TestMarshalCaptured(t *testing.T) {
	for _, test := range testsUnmarshal {
		if !test.minimal {
			continue
		}
		t.Run(test.name, func(t *testing.T) {
			msg := &Message{
				Version:   test.version,
				Community: test.community,
				PDU:       &ImplicitPDU{Type: test.pduType, RequestID: test.requestID, VarBinds: test.vbl},
			}
			out, err := msg.Marshal()
			require.NoError(t, err)
			assert.Equal(t, test.in(), out)
		})
	}
}

func TestMarshalGetResponse(t *testing.T) {
	msg := &Message{
		Version:   Version2c,
		Community: "public",
		PDU: NewResponse(42, NoError, 0, VarBindList{
			{Name: MustParseOID("1.3.6.1.2.1.1.5.0"), Value: OctetString("myhost")},
		}),
	}
	out, err := msg.Marshal()
	require.NoError(t, err)

	want := []byte{
		0x30, 0x2c, 0x02, 0x01, 0x01, 0x04, 0x06, 0x70, 0x75, 0x62, 0x6c, 0x69,
		0x63, 0xa2, 0x1f, 0x02, 0x01, 0x2a, 0x02, 0x01, 0x00, 0x02, 0x01, 0x00,
		0x30, 0x14, 0x30, 0x12, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x01,
		0x05, 0x00, 0x04, 0x06, 0x6d, 0x79, 0x68, 0x6f, 0x73, 0x74,
	}
	assert.Equal(t, want, out)
	assert.Equal(t, byte(0x30), out[0])
	assert.Equal(t, byte(GetResponse), out[13])

	back, err := UnmarshalMessage(out)
	require.NoError(t, err)
	pdu := back.PDU.(*ImplicitPDU)
	assert.Equal(t, int32(42), pdu.RequestID)
	require.Len(t, pdu.VarBinds, 1)
	assert.Equal(t, OctetString("myhost"), pdu.VarBinds[0].Value)
}

// Error fields are zero on the wire for everything but a response.
func TestMarshalRequestZeroesErrorFields(t *testing.T) {
	pdu := NewGetRequest(MustParseOID("1.3.6.1.2.1.1.5.0"))
	pdu.ErrorStatus, pdu.ErrorIndex = GenErr, 3
	out, err := (&Message{Version: Version2c, Community: "public", PDU: pdu}).Marshal()
	require.NoError(t, err)
	back, err := UnmarshalMessage(out)
	require.NoError(t, err)
	got := back.PDU.(*ImplicitPDU)
	assert.Equal(t, NoError, got.ErrorStatus)
	assert.Zero(t, got.ErrorIndex)
}

func TestBulkPDUBuilders(t *testing.T) {
	p := NewGetBulkRequest()
	assert.Equal(t, 10, p.MaxRepetitions)
	p.AddRepeater(OID{1, 3, 6, 1, 2, 1, 2, 2, 1, 2})
	p.AddRepeater(OID{1, 3, 6, 1, 2, 1, 2, 2, 1, 3})
	p.AddNonRepeater(OID{1, 3, 6, 1, 2, 1, 1, 3, 0})
	assert.Equal(t, 1, p.NonRepeaters)
	assert.Equal(t, []OID{
		{1, 3, 6, 1, 2, 1, 1, 3, 0},
		{1, 3, 6, 1, 2, 1, 2, 2, 1, 2},
		{1, 3, 6, 1, 2, 1, 2, 2, 1, 3},
	}, p.VarBinds.Names())

	p.SetRepeater(OID{1, 3, 6, 1, 2, 1, 2, 2, 1, 2, 7})
	assert.Equal(t, []OID{
		{1, 3, 6, 1, 2, 1, 1, 3, 0},
		{1, 3, 6, 1, 2, 1, 2, 2, 1, 2, 7},
	}, p.VarBinds.Names())

	p.RequestID = -7
	p.MaxRepetitions = 25
	out, err := (&Message{Version: Version2c, Community: "public", PDU: p}).Marshal()
	require.NoError(t, err)
	back, err := UnmarshalMessage(out)
	require.NoError(t, err)
	if diff := cmp.Diff(p, back.PDU); diff != "" {
		t.Errorf("bulk round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBulkPDUBadFields(t *testing.T) {
	p := NewGetBulkRequest()
	p.AddRepeater(OID{1, 3, 6})
	p.NonRepeaters = 2
	_, err := (&Message{Version: Version2c, PDU: p}).Marshal()
	assert.ErrorIs(t, err, ErrOverflow)

	p.NonRepeaters = 0
	p.MaxRepetitions = -1
	_, err = (&Message{Version: Version2c, PDU: p}).Marshal()
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestTrapV1RoundTrip(t *testing.T) {
	trap := &TrapV1PDU{
		Enterprise:   MustParseOID("1.3.6.1.4.1.318"),
		AgentAddress: IPAddress{192, 0, 2, 9},
		GenericTrap:  EnterpriseSpecific,
		SpecificTrap: 42,
		Timestamp:    TimeTicks(1234),
		VarBinds: VarBindList{
			{Name: MustParseOID("1.3.6.1.4.1.318.2.1"), Value: OctetString("outlet 5 off")},
		},
	}
	out, err := (&Message{Version: Version1, Community: "public", PDU: trap}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, byte(Trap), out[2+3+8])

	back, err := UnmarshalMessage(out)
	require.NoError(t, err)
	if diff := cmp.Diff(trap, back.PDU); diff != "" {
		t.Errorf("trap round trip mismatch (-want +got):\n%s", diff)
	}
}

// A v1 trap with an extra NULL after its varbind list is rejected, as
// the request shape is.
func TestTrapV1TrailingOctets(t *testing.T) {
	trap := &TrapV1PDU{Enterprise: MustParseOID("1.3.6.1.4.1.318"), Timestamp: TimeTicks(1)}
	var buf bytes.Buffer
	require.NoError(t, trap.marshal(&buf))
	_, content, _, err := parseTLV(buf.Bytes())
	require.NoError(t, err)

	_, err = parseTrapV1(content)
	require.NoError(t, err)
	_, err = parseTrapV1(append(bytes.Clone(content), 0x05, 0x00))
	assert.ErrorIs(t, err, ErrInvalidLength)
}

// responseWithStatus is a v2c Response for request-id 42 carrying myhost,
// with the error-status INTEGER given as raw TLV octets.
func responseWithStatus(status ...byte) []byte {
	vbl := []byte{
		0x30, 0x14, 0x30, 0x12,
		0x06, 0x08, 0x2b, 0x06, 0x01, 0x02, 0x01, 0x01, 0x05, 0x00,
		0x04, 0x06, 'm', 'y', 'h', 'o', 's', 't',
	}
	pdu := append([]byte{0x02, 0x01, 0x2a}, status...)
	pdu = append(pdu, 0x02, 0x01, 0x01)
	pdu = append(pdu, vbl...)
	pdu = append([]byte{0xa2, byte(len(pdu))}, pdu...)
	msg := append([]byte{0x02, 0x01, 0x01, 0x04, 0x06, 'p', 'u', 'b', 'l', 'i', 'c'}, pdu...)
	return append([]byte{0x30, byte(len(msg))}, msg...)
}

func TestUnmarshalErrorStatusRange(t *testing.T) {
	msg, err := UnmarshalMessage(responseWithStatus(0x02, 0x01, 0x02))
	require.NoError(t, err)
	assert.Equal(t, NoSuchName, msg.PDU.(*ImplicitPDU).ErrorStatus)

	msg, err = UnmarshalMessage(responseWithStatus(0x02, 0x02, 0x00, 0xff))
	require.NoError(t, err)
	p := msg.PDU.(*ImplicitPDU)
	assert.Equal(t, ErrorStatus(255), p.ErrorStatus)
	assert.Contains(t, (&ProtocolError{Status: p.ErrorStatus, Index: p.ErrorIndex}).Error(), "unknown error-status 255")

	// 256 and 258 do not fit an error-status and must not wrap to noError
	// or noSuchName.
	for _, status := range [][]byte{{0x02, 0x02, 0x01, 0x00}, {0x02, 0x02, 0x01, 0x02}} {
		_, err = UnmarshalMessage(responseWithStatus(status...))
		assert.ErrorIs(t, err, ErrDecode)
		assert.ErrorIs(t, err, ErrIntegerTooLarge)
	}
}

var testsMarshalVersion = []struct {
	name    string
	version SnmpVersion
	pdu     PDU
	err     error
}{
	{"v3", Version3, NewGetRequest(OID{1, 3}), ErrNotImplemented},
	{"unknown version", SnmpVersion(7), NewGetRequest(OID{1, 3}), ErrBadVersion},
	{"bulk on v1", Version1, NewGetBulkRequest(), ErrBadVersion},
	{"inform on v1", Version1, &ImplicitPDU{Type: InformRequest}, ErrBadVersion},
	{"v2 trap on v1", Version1, &ImplicitPDU{Type: SNMPv2Trap}, ErrBadVersion},
	{"v1 trap on v2c", Version2c, &TrapV1PDU{Enterprise: OID{1, 3}}, ErrBadVersion},
}

func TestMarshalVersionChecks(t *testing.T) {
	for _, test := range testsMarshalVersion {
		t.Run(test.name, func(t *testing.T) {
			_, err := (&Message{Version: test.version, Community: "public", PDU: test.pdu}).Marshal()
			assert.ErrorIs(t, err, test.err)
		})
	}

	_, err := (&Message{Version: Version2c}).Marshal()
	assert.Error(t, err)

	_, err = (&Message{Version: Version2c, Community: string(make([]byte, maxOctetStringLength+1)), PDU: NewGetRequest()}).Marshal()
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUnmarshalV3(t *testing.T) {
	// SEQUENCE { INTEGER 3, ... }
	_, err := UnmarshalMessage([]byte{0x30, 0x03, 0x02, 0x01, 0x03})
	assert.ErrorIs(t, err, ErrNotImplemented)
}

var testsUnmarshalMalformed = []struct {
	name string
	in   []byte
}{
	{"empty", []byte{}},
	{"not a sequence", []byte{0x02, 0x01, 0x01}},
	{"outer length too long", []byte{0x30, 0x10, 0x02, 0x01, 0x01}},
	{"trailing octets", append(kyoceraRequestBytes(), 0x00)},
	{"missing community", []byte{0x30, 0x03, 0x02, 0x01, 0x01}},
	{"unknown PDU", []byte{0x30, 0x0a, 0x02, 0x01, 0x01, 0x04, 0x01, 0x70, 0xaf, 0x02, 0x05, 0x00}},
	{"version not an integer", []byte{0x30, 0x03, 0x04, 0x01, 0x01}},
}

func TestUnmarshalMalformed(t *testing.T) {
	for _, test := range testsUnmarshalMalformed {
		t.Run(test.name, func(t *testing.T) {
			_, err := UnmarshalMessage(test.in)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

// Every truncation of a good packet is an error, never a panic.
func TestUnmarshalTruncated(t *testing.T) {
	for _, f := range []func() []byte{kyoceraResponseBytes, ciscoResponseBytes, portOnIncoming} {
		full := f()
		for i := 0; i < len(full); i++ {
			assert.NotPanics(t, func() {
				_, err := UnmarshalMessage(full[:i])
				assert.Error(t, err, "prefix of %d octets", i)
			})
		}
	}
}

func TestPDUTypeString(t *testing.T) {
	assert.Equal(t, "GetBulkRequest", GetBulkRequest.String())
	assert.Equal(t, "PDUType(0xaf)", PDUType(0xaf).String())
	assert.Equal(t, "2c", Version2c.String())
}

func dumpBytes(b []byte) string {
	var sb bytes.Buffer
	for i, o := range b {
		if i > 0 && i%12 == 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "0x%02x, ", o)
	}
	return sb.String()
}
