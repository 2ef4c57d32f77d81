// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"net"
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/constraints"
)

// Value is the value half of a VarBind. The implementations are the types
// in this package: Integer32, Unsigned32, Counter32, Gauge32, TimeTicks,
// Counter64, OctetString, OID, IPAddress, Opaque, Boolean, Exception and
// the textual conventions built on them.
//
// A nil Value stands for NULL.
type Value interface {
	// Type is the BER tag the value is sent with.
	Type() Asn1BER
	String() string

	// marshal returns the content octets, validating the declared range.
	marshal() ([]byte, error)
}

const maxOctetStringLength = 65535

// -- simple and application types ---------------------------------------------

// Integer32 is INTEGER (-2147483648..2147483647).
type Integer32 int32

// Unsigned32 is sent with the Gauge32 tag; a decoded 0x42 is always a Gauge32.
type Unsigned32 uint32

type Counter32 uint32

type Gauge32 uint32

// TimeTicks counts hundredths of a second.
type TimeTicks uint32

type Counter64 uint64

// OctetString is raw bytes of length 0..65535.
type OctetString []byte

// IPAddress is an IPv4 address in network order.
type IPAddress [4]byte

// Opaque carries arbitrary, usually BER encoded, bytes.
type Opaque []byte

type Boolean bool

// Exception is one of the v2 varbind exceptions. It has no content octets.
type Exception byte

const (
	NoSuchObject   = Exception(TagNoSuchObject)
	NoSuchInstance = Exception(TagNoSuchInstance)
	EndOfMibView   = Exception(TagEndOfMibView)
)

func (v Integer32) Type() Asn1BER   { return TagInteger }
func (v Unsigned32) Type() Asn1BER  { return TagGauge32 }
func (v Counter32) Type() Asn1BER   { return TagCounter32 }
func (v Gauge32) Type() Asn1BER     { return TagGauge32 }
func (v TimeTicks) Type() Asn1BER   { return TagTimeTicks }
func (v Counter64) Type() Asn1BER   { return TagCounter64 }
func (v OctetString) Type() Asn1BER { return TagOctetString }
func (v IPAddress) Type() Asn1BER   { return TagIPAddress }
func (v Opaque) Type() Asn1BER      { return TagOpaque }
func (v Boolean) Type() Asn1BER     { return TagBoolean }
func (e Exception) Type() Asn1BER   { return Asn1BER(e) }

func (v Integer32) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v Unsigned32) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v Counter32) String() string  { return strconv.FormatUint(uint64(v), 10) }
func (v Gauge32) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v Counter64) String() string  { return strconv.FormatUint(uint64(v), 10) }
func (v Boolean) String() string    { return strconv.FormatBool(bool(v)) }
func (v IPAddress) String() string  { return net.IP(v[:]).String() }
func (v Opaque) String() string     { return hex.EncodeToString(v) }
func (e Exception) String() string  { return Asn1BER(e).String() }

// String renders TimeTicks the way agents commonly display sysUpTime.
func (v TimeTicks) String() string {
	t := uint64(v)
	days := t / 8640000
	t %= 8640000
	return fmt.Sprintf("(%d) %d days, %02d:%02d:%02d.%02d", uint32(v), days,
		t/360000, t%360000/6000, t%6000/100, t%100)
}

// String returns the bytes as text when they are printable, otherwise as
// space separated hex.
func (v OctetString) String() string {
	if isPrintable(v) {
		return string(v)
	}
	return fmt.Sprintf("% x", []byte(v))
}

func isPrintable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func (v Integer32) marshal() ([]byte, error)  { return marshalInt64(int64(v)), nil }
func (v Unsigned32) marshal() ([]byte, error) { return marshalUint64(uint64(v)), nil }
func (v Counter32) marshal() ([]byte, error)  { return marshalUint64(uint64(v)), nil }
func (v Gauge32) marshal() ([]byte, error)    { return marshalUint64(uint64(v)), nil }
func (v TimeTicks) marshal() ([]byte, error)  { return marshalUint64(uint64(v)), nil }
func (v Counter64) marshal() ([]byte, error)  { return marshalUint64(uint64(v)), nil }
func (v IPAddress) marshal() ([]byte, error)  { return v[:], nil }
func (v Opaque) marshal() ([]byte, error)     { return v, nil }
func (e Exception) marshal() ([]byte, error)  { return []byte{}, nil }

func (v OctetString) marshal() ([]byte, error) {
	if err := checkRange("OctetString", len(v), 0, maxOctetStringLength); err != nil {
		return nil, err
	}
	return v, nil
}

func (v Boolean) marshal() ([]byte, error) {
	if v {
		return []byte{0xff}, nil
	}
	return []byte{0x00}, nil
}

// -- checked constructors -----------------------------------------------------

func checkRange[T constraints.Integer](typ string, v, lo, hi T) error {
	if v < lo || v > hi {
		return &RangeError{Type: typ, Value: v, Min: lo, Max: hi}
	}
	return nil
}

func NewInteger32(v int64) (Integer32, error) {
	if err := checkRange[int64]("Integer32", v, math.MinInt32, math.MaxInt32); err != nil {
		return 0, err
	}
	return Integer32(v), nil
}

func NewUnsigned32(v int64) (Unsigned32, error) {
	if err := checkRange[int64]("Unsigned32", v, 0, math.MaxUint32); err != nil {
		return 0, err
	}
	return Unsigned32(v), nil
}

func NewCounter32(v int64) (Counter32, error) {
	if err := checkRange[int64]("Counter32", v, 0, math.MaxUint32); err != nil {
		return 0, err
	}
	return Counter32(v), nil
}

func NewGauge32(v int64) (Gauge32, error) {
	if err := checkRange[int64]("Gauge32", v, 0, math.MaxUint32); err != nil {
		return 0, err
	}
	return Gauge32(v), nil
}

func NewTimeTicks(v int64) (TimeTicks, error) {
	if err := checkRange[int64]("TimeTicks", v, 0, math.MaxUint32); err != nil {
		return 0, err
	}
	return TimeTicks(v), nil
}

// NewCounter64 accepts any integer in [0, 2^64-1].
func NewCounter64(v *big.Int) (Counter64, error) {
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, &RangeError{Type: "Counter64", Value: v, Min: 0, Max: uint64(math.MaxUint64)}
	}
	return Counter64(v.Uint64()), nil
}

func NewOctetString(b []byte) (OctetString, error) {
	if err := checkRange("OctetString", len(b), 0, maxOctetStringLength); err != nil {
		return nil, err
	}
	return OctetString(b), nil
}

// NewIPAddress requires an address with an IPv4 form.
func NewIPAddress(ip net.IP) (IPAddress, error) {
	var a IPAddress
	v4 := ip.To4()
	if v4 == nil {
		return a, &RangeError{Type: "IPAddress", Value: len(ip), Min: 4, Max: 4}
	}
	copy(a[:], v4)
	return a, nil
}

// ToBigInt converts numeric values to a big.Int and anything else to zero.
func ToBigInt(v Value) *big.Int {
	switch v := v.(type) {
	case Integer32:
		return big.NewInt(int64(v))
	case Unsigned32:
		return new(big.Int).SetUint64(uint64(v))
	case Counter32:
		return new(big.Int).SetUint64(uint64(v))
	case Gauge32:
		return new(big.Int).SetUint64(uint64(v))
	case TimeTicks:
		return new(big.Int).SetUint64(uint64(v))
	case Counter64:
		return new(big.Int).SetUint64(uint64(v))
	case Enumeration:
		return big.NewInt(int64(v.Value))
	case Boolean:
		if v {
			return big.NewInt(1)
		}
		return new(big.Int)
	default:
		return new(big.Int)
	}
}

// -- decoding -----------------------------------------------------------------

// decodeValue builds a Value from a tag and its content octets. NULL
// decodes to a nil Value.
func decodeValue(tag byte, content []byte) (Value, error) {
	switch Asn1BER(tag) {
	case TagNull:
		return nil, nil
	case TagInteger:
		v, err := parseInt64(content)
		if err != nil {
			return nil, err
		}
		return NewInteger32(v)
	case TagOctetString:
		return OctetString(append([]byte{}, content...)), nil
	case TagObjectIdentifier:
		return parseOIDContent(content)
	case TagIPAddress:
		if len(content) != 4 {
			return nil, fmt.Errorf("%w: IPAddress of %d octets", ErrInvalidLength, len(content))
		}
		var a IPAddress
		copy(a[:], content)
		return a, nil
	case TagCounter32, TagGauge32, TagTimeTicks:
		v, err := parseUint64(content)
		if err != nil {
			return nil, err
		}
		if v > math.MaxUint32 {
			return nil, &RangeError{Type: Asn1BER(tag).String(), Value: v, Min: 0, Max: uint64(math.MaxUint32)}
		}
		switch Asn1BER(tag) {
		case TagCounter32:
			return Counter32(v), nil
		case TagGauge32:
			return Gauge32(v), nil
		default:
			return TimeTicks(v), nil
		}
	case TagCounter64:
		v, err := parseUint64(content)
		if err != nil {
			return nil, err
		}
		return Counter64(v), nil
	case TagOpaque:
		return Opaque(append([]byte{}, content...)), nil
	case TagBoolean:
		if len(content) != 1 {
			return nil, fmt.Errorf("%w: Boolean of %d octets", ErrInvalidLength, len(content))
		}
		return Boolean(content[0] != 0), nil
	case TagNoSuchObject, TagNoSuchInstance, TagEndOfMibView:
		return Exception(tag), nil
	default:
		return nil, fmt.Errorf("%w 0x%02x", ErrUnknownTag, tag)
	}
}
