// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Textual conventions from SNMPv2-TC. They travel with their base type's
// tag, so a decoded value comes back as the base type; convert with the
// helpers below when the MIB says which convention applies.

const maxDisplayStringLength = 255

// DisplayString is an OCTET STRING (SIZE (0..255)) of NVT ASCII.
type DisplayString string

func NewDisplayString(s string) (DisplayString, error) {
	if err := checkRange("DisplayString", len(s), 0, maxDisplayStringLength); err != nil {
		return "", err
	}
	return DisplayString(s), nil
}

func (v DisplayString) Type() Asn1BER  { return TagOctetString }
func (v DisplayString) String() string { return string(v) }

func (v DisplayString) marshal() ([]byte, error) {
	if err := checkRange("DisplayString", len(v), 0, maxDisplayStringLength); err != nil {
		return nil, err
	}
	return []byte(v), nil
}

// MacAddress is a PhysAddress of six octets, shown as colon separated hex.
type MacAddress []byte

// ParseMacAddress accepts colon, dash or dot separated hex.
func ParseMacAddress(s string) (MacAddress, error) {
	clean := strings.NewReplacer(":", "", "-", "", ".", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid MAC address %q: %w", s, err)
	}
	if len(b) != 6 {
		return nil, &RangeError{Type: "MacAddress", Value: len(b), Min: 6, Max: 6}
	}
	return MacAddress(b), nil
}

func (v MacAddress) Type() Asn1BER { return TagOctetString }

func (v MacAddress) String() string {
	parts := make([]string, len(v))
	for i, o := range v {
		parts[i] = fmt.Sprintf("%02x", o)
	}
	return strings.Join(parts, ":")
}

func (v MacAddress) marshal() ([]byte, error) {
	if err := checkRange("MacAddress", len(v), 0, maxOctetStringLength); err != nil {
		return nil, err
	}
	return v, nil
}

// Enumeration is an INTEGER with named values.
type Enumeration struct {
	Value int32
	Names map[int32]string
}

// TruthValue returns the SNMPv2-TC TruthValue enumeration.
func TruthValue(b bool) Enumeration {
	v := int32(2)
	if b {
		v = 1
	}
	return Enumeration{Value: v, Names: map[int32]string{1: "true", 2: "false"}}
}

// RowStatus returns the SNMPv2-TC RowStatus enumeration.
func RowStatus(v int32) Enumeration {
	return Enumeration{Value: v, Names: map[int32]string{
		1: "active", 2: "notInService", 3: "notReady",
		4: "createAndGo", 5: "createAndWait", 6: "destroy",
	}}
}

func (e Enumeration) Type() Asn1BER { return TagInteger }

// String renders name(value), or BADVALUE(value) for an unnamed value.
func (e Enumeration) String() string {
	name, ok := e.Names[e.Value]
	if !ok {
		name = "BADVALUE"
	}
	return name + "(" + strconv.FormatInt(int64(e.Value), 10) + ")"
}

func (e Enumeration) marshal() ([]byte, error) {
	return marshalInt64(int64(e.Value)), nil
}

// AsEnumeration attaches names to a decoded Integer32.
func AsEnumeration(v Value, names map[int32]string) (Enumeration, error) {
	i, ok := v.(Integer32)
	if !ok {
		return Enumeration{}, fmt.Errorf("%s is not an Integer32", v)
	}
	return Enumeration{Value: int32(i), Names: names}, nil
}
