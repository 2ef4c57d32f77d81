// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"fmt"
	"strconv"
	"strings"
)

// OID is an object identifier. It is also the ObjectIdentifier value type.
//
// Treat an OID as immutable once built; methods that derive a new OID
// always return a fresh slice.
type OID []uint32

// ParseOID parses dotted decimal notation, with or without a leading dot.
func ParseOID(s string) (OID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), ".")
	if s == "" {
		return OID{}, nil
	}
	parts := strings.Split(s, ".")
	oid := make(OID, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidOID, s, err)
		}
		oid = append(oid, uint32(n))
	}
	return oid, nil
}

// MustParseOID is ParseOID for literals; it panics on malformed input.
func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

func (o OID) String() string {
	var sb strings.Builder
	for i, subid := range o {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.FormatUint(uint64(subid), 10))
	}
	return sb.String()
}

func (o OID) Type() Asn1BER { return TagObjectIdentifier }

// Copy returns an OID that does not share storage with o.
func (o OID) Copy() OID {
	return append(OID{}, o...)
}

// Append returns o followed by subids.
func (o OID) Append(subids ...uint32) OID {
	out := make(OID, 0, len(o)+len(subids))
	out = append(out, o...)
	return append(out, subids...)
}

func (o OID) Equal(b OID) bool {
	if len(o) != len(b) {
		return false
	}
	for i := range o {
		if o[i] != b[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p is a prefix of o. Every OID has itself and
// the empty OID as prefixes.
func (o OID) HasPrefix(p OID) bool {
	return len(p) <= len(o) && o[:len(p)].Equal(p)
}

// -- ordering -----------------------------------------------------------------
//
// Three orderings are offered. Compare is the table-sorting order inherited
// by existing callers: a shorter OID is less, an OID is greater only when
// the other is its true prefix, and anything unrelated compares as less.
// PartialCompare exposes the same prefix relation without guessing, and
// StrictCompare is plain lexicographic order.

// Compare returns -1, 0 or 1. Note that it is not a total order: two
// unrelated OIDs of equal length are each less than the other.
func (o OID) Compare(b OID) int {
	switch {
	case len(o) < len(b):
		return -1
	case len(o) == len(b):
		if o.Equal(b) {
			return 0
		}
		return -1
	default:
		if o.HasPrefix(b) {
			return 1
		}
		return -1
	}
}

// PartialCompare orders OIDs by the prefix relation only. ok is false when
// neither OID is a prefix of the other.
func (o OID) PartialCompare(b OID) (cmp int, ok bool) {
	switch {
	case o.Equal(b):
		return 0, true
	case o.HasPrefix(b):
		return 1, true
	case b.HasPrefix(o):
		return -1, true
	default:
		return 0, false
	}
}

// Less reports whether o is a strict prefix of b.
func (o OID) Less(b OID) bool {
	c, ok := o.PartialCompare(b)
	return ok && c < 0
}

// Greater reports whether b is a strict prefix of o.
func (o OID) Greater(b OID) bool {
	c, ok := o.PartialCompare(b)
	return ok && c > 0
}

// StrictCompare is lexicographic order, a prefix sorting first.
func (o OID) StrictCompare(b OID) int {
	for i := 0; i < len(o) && i < len(b); i++ {
		switch {
		case o[i] < b[i]:
			return -1
		case o[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(o) < len(b):
		return -1
	case len(o) > len(b):
		return 1
	}
	return 0
}

// Sub returns what is left of o after removing the longest prefix it
// shares with b.
func (o OID) Sub(b OID) OID {
	i := 0
	for i < len(o) && i < len(b) && o[i] == b[i] {
		i++
	}
	return o[i:].Copy()
}

// -- BER ----------------------------------------------------------------------

// marshal packs the sub-identifiers. Leading zero arcs are skipped while
// more than two arcs remain, the first two arcs are combined as
// first*40+second, and a one-arc OID is packed with an implied zero second
// arc (it decodes with that zero arc present).
func (o OID) marshal() ([]byte, error) {
	oid := o
	for len(oid) > 2 && oid[0] == 0 {
		oid = oid[1:]
	}
	if len(oid) == 0 {
		return []byte{}, nil
	}
	first := oid[0]
	var second uint32
	if len(oid) > 1 {
		second = oid[1]
	}
	if first > 2 || (first < 2 && second >= 40) {
		return nil, fmt.Errorf("%w: %s: first arcs %d.%d cannot be encoded", ErrInvalidOID, o, first, second)
	}
	out := make([]byte, 0, len(oid)+4)
	out = appendBase128Int(out, uint64(first)*40+uint64(second))
	if len(oid) > 2 {
		for _, subid := range oid[2:] {
			out = appendBase128Int(out, uint64(subid))
		}
	}
	return out, nil
}

func parseOIDContent(b []byte) (OID, error) {
	if len(b) == 0 {
		return OID{}, nil
	}
	oid := make(OID, 0, len(b)+1)
	v, offset, err := parseBase128Uint32(b, 0)
	if err != nil {
		return nil, err
	}
	switch {
	case v < 40:
		oid = append(oid, 0, v)
	case v < 80:
		oid = append(oid, 1, v-40)
	default:
		oid = append(oid, 2, v-80)
	}
	for offset < len(b) {
		v, offset, err = parseBase128Uint32(b, offset)
		if err != nil {
			return nil, err
		}
		oid = append(oid, v)
	}
	return oid, nil
}
