// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"fmt"
	"math"
)

// Table rows are named by appending an INDEX to the column OID (RFC 2578
// section 7.7). Integers take one sub-identifier, IpAddress four, and
// variable length strings and OIDs are length prefixed unless the INDEX
// clause marks them IMPLIED.

var errShortIndex = fmt.Errorf("%w: index too short", ErrInvalidOID)

// IndexInteger encodes a numeric index.
func IndexInteger(v uint32) OID { return OID{v} }

// IndexIPAddress encodes an IpAddress index.
func IndexIPAddress(a IPAddress) OID {
	return OID{uint32(a[0]), uint32(a[1]), uint32(a[2]), uint32(a[3])}
}

// IndexOctetString encodes a string index.
func IndexOctetString(s []byte, implied bool) OID {
	out := make(OID, 0, len(s)+1)
	if !implied {
		out = append(out, uint32(len(s)))
	}
	for _, o := range s {
		out = append(out, uint32(o))
	}
	return out
}

// IndexOID encodes an OBJECT IDENTIFIER index.
func IndexOID(o OID, implied bool) OID {
	if implied {
		return o.Copy()
	}
	return append(OID{uint32(len(o))}, o...)
}

// Index concatenates encoded index parts, for tables with several INDEX
// objects.
func Index(parts ...OID) OID {
	var out OID
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// The decoders consume their part of an index and return what is left.

func DecodeIndexInteger(idx OID) (uint32, OID, error) {
	if len(idx) < 1 {
		return 0, nil, errShortIndex
	}
	return idx[0], idx[1:], nil
}

func DecodeIndexIPAddress(idx OID) (IPAddress, OID, error) {
	var a IPAddress
	if len(idx) < 4 {
		return a, nil, errShortIndex
	}
	for i := range a {
		if idx[i] > math.MaxUint8 {
			return a, nil, fmt.Errorf("%w: IpAddress octet %d", ErrInvalidOID, idx[i])
		}
		a[i] = byte(idx[i])
	}
	return a, idx[4:], nil
}

func DecodeIndexOctetString(idx OID, implied bool) (OctetString, OID, error) {
	n := len(idx)
	if !implied {
		if len(idx) < 1 {
			return nil, nil, errShortIndex
		}
		n = int(idx[0])
		idx = idx[1:]
		if len(idx) < n {
			return nil, nil, errShortIndex
		}
	}
	s := make(OctetString, n)
	for i := 0; i < n; i++ {
		if idx[i] > math.MaxUint8 {
			return nil, nil, fmt.Errorf("%w: string octet %d", ErrInvalidOID, idx[i])
		}
		s[i] = byte(idx[i])
	}
	return s, idx[n:], nil
}

func DecodeIndexOID(idx OID, implied bool) (OID, OID, error) {
	if implied {
		return idx.Copy(), OID{}, nil
	}
	if len(idx) < 1 {
		return nil, nil, errShortIndex
	}
	n := int(idx[0])
	if len(idx)-1 < n {
		return nil, nil, errShortIndex
	}
	return idx[1 : 1+n].Copy(), idx[1+n:], nil
}
