// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"bytes"
	"fmt"
	"math"
)

// PDUType is the context tag of a PDU.
type PDUType byte

const (
	GetRequest     PDUType = 0xa0
	GetNextRequest PDUType = 0xa1
	GetResponse    PDUType = 0xa2
	SetRequest     PDUType = 0xa3
	Trap           PDUType = 0xa4
	GetBulkRequest PDUType = 0xa5
	InformRequest  PDUType = 0xa6
	SNMPv2Trap     PDUType = 0xa7
	Report         PDUType = 0xa8
)

func (t PDUType) String() string {
	switch t {
	case GetRequest:
		return "GetRequest"
	case GetNextRequest:
		return "GetNextRequest"
	case GetResponse:
		return "GetResponse"
	case SetRequest:
		return "SetRequest"
	case Trap:
		return "Trap"
	case GetBulkRequest:
		return "GetBulkRequest"
	case InformRequest:
		return "InformRequest"
	case SNMPv2Trap:
		return "SNMPv2Trap"
	case Report:
		return "Report"
	default:
		return fmt.Sprintf("PDUType(0x%02x)", byte(t))
	}
}

// PDU is one of *ImplicitPDU, *BulkPDU or *TrapV1PDU.
type PDU interface {
	PDUType() PDUType
	VarBindList() VarBindList
	marshal(buf *bytes.Buffer) error
}

// ImplicitPDU is the shape shared by Get, GetNext, Set, Response, Inform,
// SNMPv2-Trap and Report. Only a Response carries its error fields on the
// wire; the other types always send zero.
type ImplicitPDU struct {
	Type        PDUType
	RequestID   int32
	ErrorStatus ErrorStatus
	ErrorIndex  int
	VarBinds    VarBindList
}

const defaultBulkMaxRepetitions = 10

// BulkPDU is a GetBulkRequest. The first NonRepeaters varbinds are fetched
// once, the rest up to MaxRepetitions times.
type BulkPDU struct {
	RequestID      int32
	NonRepeaters   int
	MaxRepetitions int
	VarBinds       VarBindList
}

// GenericTrap is the generic-trap field of an SNMPv1 Trap.
type GenericTrap int

const (
	ColdStart             GenericTrap = 0
	WarmStart             GenericTrap = 1
	LinkDown              GenericTrap = 2
	LinkUp                GenericTrap = 3
	AuthenticationFailure GenericTrap = 4
	EGPNeighborLoss       GenericTrap = 5
	EnterpriseSpecific    GenericTrap = 6
)

// TrapV1PDU is the SNMPv1 Trap-PDU. It has no request-id.
type TrapV1PDU struct {
	Enterprise   OID
	AgentAddress IPAddress
	GenericTrap  GenericTrap
	SpecificTrap int
	Timestamp    TimeTicks
	VarBinds     VarBindList
}

func NewGetRequest(oids ...OID) *ImplicitPDU {
	return &ImplicitPDU{Type: GetRequest, VarBinds: NullVarBinds(oids...)}
}

func NewGetNextRequest(oids ...OID) *ImplicitPDU {
	return &ImplicitPDU{Type: GetNextRequest, VarBinds: NullVarBinds(oids...)}
}

func NewSetRequest(vbl VarBindList) *ImplicitPDU {
	return &ImplicitPDU{Type: SetRequest, VarBinds: vbl}
}

func NewResponse(requestID int32, status ErrorStatus, index int, vbl VarBindList) *ImplicitPDU {
	return &ImplicitPDU{Type: GetResponse, RequestID: requestID, ErrorStatus: status, ErrorIndex: index, VarBinds: vbl}
}

// NewGetBulkRequest returns an empty GetBulk with ten repetitions; fill it
// with AddNonRepeater and AddRepeater.
func NewGetBulkRequest() *BulkPDU {
	return &BulkPDU{MaxRepetitions: defaultBulkMaxRepetitions, VarBinds: VarBindList{}}
}

func (p *ImplicitPDU) PDUType() PDUType         { return p.Type }
func (p *ImplicitPDU) VarBindList() VarBindList { return p.VarBinds }
func (p *BulkPDU) PDUType() PDUType             { return GetBulkRequest }
func (p *BulkPDU) VarBindList() VarBindList     { return p.VarBinds }
func (p *TrapV1PDU) PDUType() PDUType           { return Trap }
func (p *TrapV1PDU) VarBindList() VarBindList   { return p.VarBinds }

// AddNonRepeater puts oid after the existing non-repeaters.
func (p *BulkPDU) AddNonRepeater(oid OID) {
	vbl := make(VarBindList, 0, len(p.VarBinds)+1)
	vbl = append(vbl, p.VarBinds[:p.NonRepeaters]...)
	vbl = append(vbl, VarBind{Name: oid})
	p.VarBinds = append(vbl, p.VarBinds[p.NonRepeaters:]...)
	p.NonRepeaters++
}

func (p *BulkPDU) AddRepeater(oid OID) {
	p.VarBinds = append(p.VarBinds, VarBind{Name: oid})
}

// SetRepeater replaces all repeaters with oid, keeping the non-repeaters.
func (p *BulkPDU) SetRepeater(oid OID) {
	vbl := make(VarBindList, 0, p.NonRepeaters+1)
	vbl = append(vbl, p.VarBinds[:p.NonRepeaters]...)
	p.VarBinds = append(vbl, VarBind{Name: oid})
}

// -- Marshalling Logic --------------------------------------------------------

func (p *ImplicitPDU) marshal(buf *bytes.Buffer) error {
	var status, index int
	if p.Type == GetResponse {
		status, index = int(p.ErrorStatus), p.ErrorIndex
	}
	return marshalRequestShape(buf, p.Type, p.RequestID, status, index, p.VarBinds)
}

func (p *BulkPDU) marshal(buf *bytes.Buffer) error {
	if p.NonRepeaters < 0 || p.NonRepeaters > len(p.VarBinds) {
		return &RangeError{Type: "non-repeaters", Value: p.NonRepeaters, Min: 0, Max: len(p.VarBinds)}
	}
	if err := checkRange("max-repetitions", p.MaxRepetitions, 0, math.MaxInt32); err != nil {
		return err
	}
	return marshalRequestShape(buf, GetBulkRequest, p.RequestID, p.NonRepeaters, p.MaxRepetitions, p.VarBinds)
}

// marshalRequestShape writes request-id, two integers and the varbind list
// under tag; all but the v1 Trap share this layout.
func marshalRequestShape(buf *bytes.Buffer, tag PDUType, requestID int32, a, b int, vbl VarBindList) error {
	inner := new(bytes.Buffer)
	for _, v := range []int64{int64(requestID), int64(a), int64(b)} {
		if err := marshalTLV(inner, byte(TagInteger), marshalInt64(v)); err != nil {
			return err
		}
	}
	if err := vbl.marshal(inner); err != nil {
		return err
	}
	return marshalTLV(buf, byte(tag), inner.Bytes())
}

func (p *TrapV1PDU) marshal(buf *bytes.Buffer) error {
	inner := new(bytes.Buffer)
	enterprise, err := p.Enterprise.marshal()
	if err != nil {
		return err
	}
	if err = marshalTLV(inner, byte(TagObjectIdentifier), enterprise); err != nil {
		return err
	}
	if err = marshalTLV(inner, byte(TagIPAddress), p.AgentAddress[:]); err != nil {
		return err
	}
	if err = marshalTLV(inner, byte(TagInteger), marshalInt64(int64(p.GenericTrap))); err != nil {
		return err
	}
	if err = marshalTLV(inner, byte(TagInteger), marshalInt64(int64(p.SpecificTrap))); err != nil {
		return err
	}
	if err = marshalTLV(inner, byte(TagTimeTicks), marshalUint64(uint64(p.Timestamp))); err != nil {
		return err
	}
	if err = p.VarBinds.marshal(inner); err != nil {
		return err
	}
	return marshalTLV(buf, byte(Trap), inner.Bytes())
}

// -- Unmarshalling Logic ------------------------------------------------------

func unmarshalPDU(data []byte) (PDU, []byte, error) {
	tag, content, rest, err := parseTLV(data)
	if err != nil {
		return nil, nil, err
	}
	switch PDUType(tag) {
	case GetRequest, GetNextRequest, GetResponse, SetRequest, InformRequest, SNMPv2Trap, Report:
		id, a, b, vbl, err := parseRequestShape(content)
		if err != nil {
			return nil, nil, err
		}
		if a > math.MaxUint8 {
			return nil, nil, fmt.Errorf("%w: error-status %d", ErrIntegerTooLarge, a)
		}
		return &ImplicitPDU{Type: PDUType(tag), RequestID: id, ErrorStatus: ErrorStatus(a), ErrorIndex: int(b), VarBinds: vbl}, rest, nil
	case GetBulkRequest:
		id, a, b, vbl, err := parseRequestShape(content)
		if err != nil {
			return nil, nil, err
		}
		return &BulkPDU{RequestID: id, NonRepeaters: int(a), MaxRepetitions: int(b), VarBinds: vbl}, rest, nil
	case Trap:
		pdu, err := parseTrapV1(content)
		if err != nil {
			return nil, nil, err
		}
		return pdu, rest, nil
	default:
		return nil, nil, fmt.Errorf("%w: PDU 0x%02x", ErrUnknownTag, tag)
	}
}

func parseInteger(data []byte, lo, hi int64) (int64, []byte, error) {
	content, rest, err := expectTLV(data, byte(TagInteger))
	if err != nil {
		return 0, nil, err
	}
	v, err := parseInt64(content)
	if err != nil {
		return 0, nil, err
	}
	if v < lo || v > hi {
		return 0, nil, ErrIntegerTooLarge
	}
	return v, rest, nil
}

func parseRequestShape(content []byte) (int32, int64, int64, VarBindList, error) {
	id, rest, err := parseInteger(content, math.MinInt32, math.MaxInt32)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	a, rest, err := parseInteger(rest, 0, math.MaxInt32)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	b, rest, err := parseInteger(rest, 0, math.MaxInt32)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	vblContent, trailing, err := expectTLV(rest, byte(TagSequence))
	if err != nil {
		return 0, 0, 0, nil, err
	}
	if len(trailing) != 0 {
		return 0, 0, 0, nil, ErrInvalidLength
	}
	vbl, err := parseVarBindList(vblContent)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	return int32(id), a, b, vbl, nil
}

func parseTrapV1(content []byte) (*TrapV1PDU, error) {
	pdu := new(TrapV1PDU)
	oid, rest, err := expectTLV(content, byte(TagObjectIdentifier))
	if err != nil {
		return nil, err
	}
	if pdu.Enterprise, err = parseOIDContent(oid); err != nil {
		return nil, err
	}
	addr, rest, err := expectTLV(rest, byte(TagIPAddress))
	if err != nil {
		return nil, err
	}
	if len(addr) != 4 {
		return nil, fmt.Errorf("%w: agent-addr of %d octets", ErrInvalidLength, len(addr))
	}
	copy(pdu.AgentAddress[:], addr)
	generic, rest, err := parseInteger(rest, 0, math.MaxInt32)
	if err != nil {
		return nil, err
	}
	pdu.GenericTrap = GenericTrap(generic)
	specific, rest, err := parseInteger(rest, math.MinInt32, math.MaxInt32)
	if err != nil {
		return nil, err
	}
	pdu.SpecificTrap = int(specific)
	ticks, rest, err := expectTLV(rest, byte(TagTimeTicks))
	if err != nil {
		return nil, err
	}
	t, err := parseUint64(ticks)
	if err != nil {
		return nil, err
	}
	if t > math.MaxUint32 {
		return nil, ErrIntegerTooLarge
	}
	pdu.Timestamp = TimeTicks(t)
	vblContent, trailing, err := expectTLV(rest, byte(TagSequence))
	if err != nil {
		return nil, err
	}
	if len(trailing) != 0 {
		return nil, ErrInvalidLength
	}
	if pdu.VarBinds, err = parseVarBindList(vblContent); err != nil {
		return nil, err
	}
	return pdu, nil
}

// requestIDOf returns the request-id of PDUs that have one.
func requestIDOf(p PDU) (int32, bool) {
	switch p := p.(type) {
	case *ImplicitPDU:
		return p.RequestID, true
	case *BulkPDU:
		return p.RequestID, true
	default:
		return 0, false
	}
}

func setRequestID(p PDU, id int32) {
	switch p := p.(type) {
	case *ImplicitPDU:
		p.RequestID = id
	case *BulkPDU:
		p.RequestID = id
	}
}
