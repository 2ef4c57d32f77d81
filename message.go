// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"bytes"
	"fmt"
)

// SnmpVersion is the version field of a Message.
type SnmpVersion uint8

const (
	Version1  SnmpVersion = 0x0
	Version2c SnmpVersion = 0x1
	Version3  SnmpVersion = 0x3
)

func (s SnmpVersion) String() string {
	switch s {
	case Version1:
		return "1"
	case Version2c:
		return "2c"
	case Version3:
		return "3"
	default:
		return fmt.Sprintf("%d", uint8(s))
	}
}

// Message is a community-based SNMP message:
//
//	SEQUENCE { version INTEGER, community OCTET STRING, data PDU }
type Message struct {
	Version   SnmpVersion
	Community string
	PDU       PDU
}

func checkVersion(v SnmpVersion) error {
	switch v {
	case Version1, Version2c:
		return nil
	case Version3:
		return fmt.Errorf("SNMPv3 user-based security: %w", ErrNotImplemented)
	default:
		return fmt.Errorf("%w: %d", ErrBadVersion, uint8(v))
	}
}

// Marshal encodes the message. Range and version problems are reported
// here, before anything reaches the network.
func (m *Message) Marshal() ([]byte, error) {
	if err := checkVersion(m.Version); err != nil {
		return nil, err
	}
	if m.PDU == nil {
		return nil, fmt.Errorf("message has no PDU")
	}
	switch m.PDU.PDUType() {
	case GetBulkRequest, InformRequest, SNMPv2Trap, Report:
		if m.Version == Version1 {
			return nil, fmt.Errorf("%w: %s requires SNMPv2c", ErrBadVersion, m.PDU.PDUType())
		}
	case Trap:
		if m.Version != Version1 {
			return nil, fmt.Errorf("%w: Trap-PDU requires SNMPv1", ErrBadVersion)
		}
	}
	if err := checkRange("community", len(m.Community), 0, maxOctetStringLength); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := marshalTLV(buf, byte(TagInteger), marshalInt64(int64(m.Version))); err != nil {
		return nil, err
	}
	if err := marshalTLV(buf, byte(TagOctetString), []byte(m.Community)); err != nil {
		return nil, err
	}
	if err := m.PDU.marshal(buf); err != nil {
		return nil, err
	}

	msg := new(bytes.Buffer)
	if err := marshalTLV(msg, byte(TagSequence), buf.Bytes()); err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

// UnmarshalMessage decodes one datagram. Malformed input yields a
// *DecodeError; an SNMPv3 message yields ErrNotImplemented.
func UnmarshalMessage(data []byte) (*Message, error) {
	content, trailing, err := expectTLV(data, byte(TagSequence))
	if err != nil {
		return nil, decodeError("message", err)
	}
	if len(trailing) != 0 {
		return nil, decodeError("message", fmt.Errorf("%w: %d trailing octets", ErrInvalidLength, len(trailing)))
	}
	version, rest, err := parseInteger(content, 0, 255)
	if err != nil {
		return nil, decodeError("version", err)
	}
	if err = checkVersion(SnmpVersion(version)); err != nil {
		return nil, err
	}
	community, rest, err := expectTLV(rest, byte(TagOctetString))
	if err != nil {
		return nil, decodeError("community", err)
	}
	pdu, rest, err := unmarshalPDU(rest)
	if err != nil {
		return nil, decodeError("PDU", err)
	}
	if len(rest) != 0 {
		return nil, decodeError("message", fmt.Errorf("%w: %d octets after PDU", ErrInvalidLength, len(rest)))
	}
	return &Message{Version: SnmpVersion(version), Community: string(community), PDU: pdu}, nil
}
