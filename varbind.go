// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"bytes"
	"sort"
	"strings"
)

// Formatter renders a value with knowledge the engine does not have,
// typically the MIB object a varbind was decoded for.
type Formatter interface {
	Format(vb VarBind) string
}

// VarBind is a name and its value. A nil Value is sent as NULL.
type VarBind struct {
	Name  OID
	Value Value

	// Object, when set, takes over String.
	Object Formatter
}

// Clear drops the value so a following fetch shows which names the agent
// actually answered.
func (vb *VarBind) Clear() {
	vb.Value = nil
}

func (vb VarBind) String() string {
	if vb.Object != nil {
		return vb.Object.Format(vb)
	}
	if vb.Value == nil {
		return vb.Name.String() + " = Null"
	}
	return vb.Name.String() + " = " + vb.Value.String()
}

// VarBindList keeps wire order; GetBulk relies on it to tell non-repeaters
// from repeaters.
type VarBindList []VarBind

// NullVarBinds builds a list with no values, the shape of a Get request.
func NullVarBinds(oids ...OID) VarBindList {
	vbl := make(VarBindList, len(oids))
	for i, oid := range oids {
		vbl[i] = VarBind{Name: oid}
	}
	return vbl
}

func (l VarBindList) String() string {
	s := make([]string, len(l))
	for i, vb := range l {
		s[i] = vb.String()
	}
	return strings.Join(s, "\n")
}

// Names returns the OID of every varbind.
func (l VarBindList) Names() []OID {
	names := make([]OID, len(l))
	for i, vb := range l {
		names[i] = vb.Name
	}
	return names
}

// Clear drops every value.
func (l VarBindList) Clear() {
	for i := range l {
		l[i].Clear()
	}
}

// Sort orders the list lexicographically by name.
func (l VarBindList) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].Name.StrictCompare(l[j].Name) < 0
	})
}

// -- BER ----------------------------------------------------------------------

func (vb VarBind) marshal(buf *bytes.Buffer) error {
	name, err := vb.Name.marshal()
	if err != nil {
		return err
	}
	inner := new(bytes.Buffer)
	if err = marshalTLV(inner, byte(TagObjectIdentifier), name); err != nil {
		return err
	}
	if vb.Value == nil {
		inner.Write([]byte{byte(TagNull), 0x00})
	} else {
		content, err := vb.Value.marshal()
		if err != nil {
			return err
		}
		if err = marshalTLV(inner, byte(vb.Value.Type()), content); err != nil {
			return err
		}
	}
	return marshalTLV(buf, byte(TagSequence), inner.Bytes())
}

func (l VarBindList) marshal(buf *bytes.Buffer) error {
	inner := new(bytes.Buffer)
	for _, vb := range l {
		if err := vb.marshal(inner); err != nil {
			return err
		}
	}
	return marshalTLV(buf, byte(TagSequence), inner.Bytes())
}

func parseVarBindList(content []byte) (VarBindList, error) {
	vbl := VarBindList{}
	for len(content) > 0 {
		vbContent, rest, err := expectTLV(content, byte(TagSequence))
		if err != nil {
			return nil, err
		}
		content = rest

		nameContent, valueBytes, err := expectTLV(vbContent, byte(TagObjectIdentifier))
		if err != nil {
			return nil, err
		}
		name, err := parseOIDContent(nameContent)
		if err != nil {
			return nil, err
		}
		tag, valueContent, trailing, err := parseTLV(valueBytes)
		if err != nil {
			return nil, err
		}
		if len(trailing) != 0 {
			return nil, ErrInvalidLength
		}
		value, err := decodeValue(tag, valueContent)
		if err != nil {
			return nil, err
		}
		vbl = append(vbl, VarBind{Name: name, Value: value})
	}
	return vbl, nil
}
