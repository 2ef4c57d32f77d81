// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"bytes"
	"errors"
	"fmt"
	"math"
)

// Asn1BER is the BER tag of an SNMP value.
type Asn1BER byte

const (
	TagBoolean          Asn1BER = 0x01
	TagInteger          Asn1BER = 0x02
	TagOctetString      Asn1BER = 0x04
	TagNull             Asn1BER = 0x05
	TagObjectIdentifier Asn1BER = 0x06
	TagSequence         Asn1BER = 0x30
	TagIPAddress        Asn1BER = 0x40
	TagCounter32        Asn1BER = 0x41
	TagGauge32          Asn1BER = 0x42
	TagTimeTicks        Asn1BER = 0x43
	TagOpaque           Asn1BER = 0x44
	TagCounter64        Asn1BER = 0x46
	TagNoSuchObject     Asn1BER = 0x80
	TagNoSuchInstance   Asn1BER = 0x81
	TagEndOfMibView     Asn1BER = 0x82
)

func (t Asn1BER) String() string {
	switch t {
	case TagBoolean:
		return "Boolean"
	case TagInteger:
		return "Integer"
	case TagOctetString:
		return "OctetString"
	case TagNull:
		return "Null"
	case TagObjectIdentifier:
		return "ObjectIdentifier"
	case TagSequence:
		return "Sequence"
	case TagIPAddress:
		return "IPAddress"
	case TagCounter32:
		return "Counter32"
	case TagGauge32:
		return "Gauge32"
	case TagTimeTicks:
		return "TimeTicks"
	case TagOpaque:
		return "Opaque"
	case TagCounter64:
		return "Counter64"
	case TagNoSuchObject:
		return "NoSuchObject"
	case TagNoSuchInstance:
		return "NoSuchInstance"
	case TagEndOfMibView:
		return "EndOfMibView"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", byte(t))
	}
}

// malformed BER conditions, always reported wrapped in a *DecodeError
var (
	ErrBase128IntegerTooLarge  = errors.New("base 128 integer too large")
	ErrBase128IntegerTruncated = errors.New("base 128 integer truncated")
	ErrIndefiniteLength        = errors.New("indefinite length not supported")
	ErrIntegerTooLarge         = errors.New("integer too large")
	ErrInvalidLength           = errors.New("invalid length")
	ErrTruncated               = errors.New("truncated")
	ErrUnexpectedTag           = errors.New("unexpected tag")
	ErrUnknownTag              = errors.New("unknown tag")
	ErrZeroLenInteger          = errors.New("zero length integer")
)

// -- BER length ---------------------------------------------------------------

// marshalLength encodes a length in short form below 128 and in the
// shortest long form otherwise.
func marshalLength(length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("length must not be negative: %d", length)
	}
	if length < 0x80 {
		return []byte{byte(length)}, nil
	}
	var octets []byte
	for l := length; l > 0; l >>= 8 {
		octets = append([]byte{byte(l)}, octets...)
	}
	return append([]byte{0x80 | byte(len(octets))}, octets...), nil
}

// parseLength reads the length octets of the TLV starting at data[0]. It
// returns the content length and the size of the tag plus length header.
func parseLength(data []byte) (int, int, error) {
	if len(data) < 2 {
		return 0, 0, ErrTruncated
	}
	first := data[1]
	if first < 0x80 {
		return int(first), 2, nil
	}
	if first == 0x80 {
		return 0, 0, ErrIndefiniteLength
	}
	n := int(first & 0x7f)
	if n > 4 {
		return 0, 0, ErrInvalidLength
	}
	if len(data) < 2+n {
		return 0, 0, ErrTruncated
	}
	var length uint64
	for _, o := range data[2 : 2+n] {
		length = length<<8 | uint64(o)
	}
	if length > math.MaxInt32 {
		return 0, 0, ErrInvalidLength
	}
	return int(length), 2 + n, nil
}

// -- TLV ----------------------------------------------------------------------

func marshalTLV(buf *bytes.Buffer, tag byte, value []byte) error {
	length, err := marshalLength(len(value))
	if err != nil {
		return err
	}
	buf.WriteByte(tag)
	buf.Write(length)
	buf.Write(value)
	return nil
}

// parseTLV splits one TLV off the front of data.
func parseTLV(data []byte) (tag byte, content []byte, rest []byte, err error) {
	if len(data) == 0 {
		return 0, nil, nil, ErrTruncated
	}
	length, header, err := parseLength(data)
	if err != nil {
		return 0, nil, nil, err
	}
	if len(data)-header < length {
		return 0, nil, nil, ErrTruncated
	}
	return data[0], data[header : header+length], data[header+length:], nil
}

// expectTLV is parseTLV with a required tag.
func expectTLV(data []byte, want byte) ([]byte, []byte, error) {
	tag, content, rest, err := parseTLV(data)
	if err != nil {
		return nil, nil, err
	}
	if tag != want {
		return nil, nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrUnexpectedTag, tag, want)
	}
	return content, rest, nil
}

// -- integers -----------------------------------------------------------------

// marshalInt64 encodes v as a minimal two's complement big-endian integer.
func marshalInt64(v int64) []byte {
	n := 1
	for i := v; i > 127 || i < -128; i >>= 8 {
		n++
	}
	out := make([]byte, n)
	for j := n - 1; j >= 0; j-- {
		out[j] = byte(v)
		v >>= 8
	}
	return out
}

// parseInt64 accepts non-minimal encodings; redundant sign octets are
// dropped before the size check.
func parseInt64(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, ErrZeroLenInteger
	}
	for len(b) > 1 && ((b[0] == 0x00 && b[1]&0x80 == 0) || (b[0] == 0xff && b[1]&0x80 != 0)) {
		b = b[1:]
	}
	if len(b) > 8 {
		return 0, ErrIntegerTooLarge
	}
	ret := int64(int8(b[0]))
	for _, o := range b[1:] {
		ret = ret<<8 | int64(o)
	}
	return ret, nil
}

// marshalUint64 encodes v as an unsigned integer, prefixing 0x00 when the
// high bit of the first octet would otherwise read as a sign.
func marshalUint64(v uint64) []byte {
	n := 1
	for i := v; i > 0x7f; i >>= 8 {
		n++
	}
	out := make([]byte, n)
	for j := n - 1; j >= 0; j-- {
		out[j] = byte(v)
		v >>= 8
	}
	return out
}

// parseUint64 treats empty content as zero and a set high bit as magnitude,
// matching what agents put on the wire in practice.
func parseUint64(b []byte) (uint64, error) {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	if len(b) > 8 {
		return 0, ErrIntegerTooLarge
	}
	var ret uint64
	for _, o := range b {
		ret = ret<<8 | uint64(o)
	}
	return ret, nil
}

// -- base 128 -----------------------------------------------------------------

func appendBase128Int(dst []byte, n uint64) []byte {
	l := 0
	for i := n; i > 0; i >>= 7 {
		l++
	}
	if l == 0 {
		return append(dst, 0)
	}
	for i := l - 1; i >= 0; i-- {
		o := byte(n>>uint(i*7)) & 0x7f
		if i != 0 {
			o |= 0x80
		}
		dst = append(dst, o)
	}
	return dst
}

// parseBase128Uint32 decodes one sub-identifier starting at offset.
func parseBase128Uint32(b []byte, offset int) (uint32, int, error) {
	var ret uint64
	for shifted := 0; offset < len(b); shifted++ {
		if shifted == 5 {
			return 0, 0, ErrBase128IntegerTooLarge
		}
		o := b[offset]
		offset++
		ret = ret<<7 | uint64(o&0x7f)
		if o&0x80 == 0 {
			if ret > math.MaxUint32 {
				return 0, 0, ErrBase128IntegerTooLarge
			}
			return uint32(ret), offset, nil
		}
	}
	return 0, 0, ErrBase128IntegerTruncated
}
