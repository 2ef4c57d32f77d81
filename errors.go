// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"errors"
	"fmt"
)

// session and configuration errors
var (
	ErrNotConnected   = errors.New("not connected")
	ErrNoResponse     = errors.New("no response from agent")
	ErrNoCommunity    = errors.New("no community string configured")
	ErrNoFramework    = errors.New("cannot determine administrative framework, are communities set?")
	ErrNotImplemented = errors.New("not implemented")
	ErrBadVersion     = errors.New("unsupported SNMP version")
	ErrInvalidOID     = errors.New("invalid OID")
	ErrOverflow       = errors.New("value out of range")
	ErrDecode         = errors.New("malformed BER")
)

// ErrorStatus is the error-status field of a Response PDU.
type ErrorStatus uint8

const (
	NoError             ErrorStatus = 0
	TooBig              ErrorStatus = 1
	NoSuchName          ErrorStatus = 2
	BadValue            ErrorStatus = 3
	ReadOnly            ErrorStatus = 4
	GenErr              ErrorStatus = 5
	NoAccess            ErrorStatus = 6
	WrongType           ErrorStatus = 7
	WrongLength         ErrorStatus = 8
	WrongEncoding       ErrorStatus = 9
	WrongValue          ErrorStatus = 10
	NoCreation          ErrorStatus = 11
	InconsistentValue   ErrorStatus = 12
	ResourceUnavailable ErrorStatus = 13
	CommitFailed        ErrorStatus = 14
	UndoFailed          ErrorStatus = 15
	AuthorizationError  ErrorStatus = 16
	NotWritable         ErrorStatus = 17
	InconsistentName    ErrorStatus = 18
)

// one sentinel per non-zero error-status; match with errors.Is
var (
	ErrTooBig              = errors.New("(tooBig) Response message would have been too large.")
	ErrNoSuchName          = errors.New("(noSuchName) There is no such variable name in this MIB.")
	ErrBadValue            = errors.New("(badValue) The value given has the wrong type or length.")
	ErrReadOnly            = errors.New("(readOnly) The two parties used do not have access to use the specified SNMP PDU.")
	ErrGenErr              = errors.New("(genError) A general failure occurred.")
	ErrNoAccess            = errors.New("(noAccess) Access denied.")
	ErrWrongType           = errors.New("(wrongType) Wrong BER type")
	ErrWrongLength         = errors.New("(wrongLength) Wrong BER length.")
	ErrWrongEncoding       = errors.New("(wrongEncoding) Wrong BER encoding.")
	ErrWrongValue          = errors.New("(wrongValue) Wrong value.")
	ErrNoCreation          = errors.New("(noCreation) Variable does not exist and cannot be created.")
	ErrInconsistentValue   = errors.New("(inconsistentValue) Value is inconsistent with other managed objects.")
	ErrResourceUnavailable = errors.New("(resourceUnavailable) Resources required to assign the value are unavailable.")
	ErrCommitFailed        = errors.New("(commitFailed) Assignment failed.")
	ErrUndoFailed          = errors.New("(undoFailed) Assignment failed and could not be undone.")
	ErrAuthorizationError  = errors.New("(authorizationError) Not authorized.")
	ErrNotWritable         = errors.New("(notWritable) Variable cannot be modified.")
	ErrInconsistentName    = errors.New("(inconsistentName) Variable does not exist and cannot be created now.")
)

var statusErrors = [...]error{
	NoError:             nil,
	TooBig:              ErrTooBig,
	NoSuchName:          ErrNoSuchName,
	BadValue:            ErrBadValue,
	ReadOnly:            ErrReadOnly,
	GenErr:              ErrGenErr,
	NoAccess:            ErrNoAccess,
	WrongType:           ErrWrongType,
	WrongLength:         ErrWrongLength,
	WrongEncoding:       ErrWrongEncoding,
	WrongValue:          ErrWrongValue,
	NoCreation:          ErrNoCreation,
	InconsistentValue:   ErrInconsistentValue,
	ResourceUnavailable: ErrResourceUnavailable,
	CommitFailed:        ErrCommitFailed,
	UndoFailed:          ErrUndoFailed,
	AuthorizationError:  ErrAuthorizationError,
	NotWritable:         ErrNotWritable,
	InconsistentName:    ErrInconsistentName,
}

var statusNames = [...]string{
	"noError", "tooBig", "noSuchName", "badValue", "readOnly", "genErr",
	"noAccess", "wrongType", "wrongLength", "wrongEncoding", "wrongValue",
	"noCreation", "inconsistentValue", "resourceUnavailable", "commitFailed",
	"undoFailed", "authorizationError", "notWritable", "inconsistentName",
}

func (s ErrorStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("errorStatus(%d)", uint8(s))
}

// Err returns the sentinel for s, nil for NoError or an unknown code.
func (s ErrorStatus) Err() error {
	if int(s) < len(statusErrors) {
		return statusErrors[s]
	}
	return nil
}

// ProtocolError is a Response PDU with a non-zero error-status. Index is
// the 1-based position of the offending varbind, as sent by the agent.
type ProtocolError struct {
	Status ErrorStatus
	Index  int
}

func (e *ProtocolError) Error() string {
	if err := e.Status.Err(); err != nil {
		return fmt.Sprintf("%s (error index %d)", err, e.Index)
	}
	return fmt.Sprintf("unknown error-status %d (error index %d)", uint8(e.Status), e.Index)
}

func (e *ProtocolError) Unwrap() error {
	return e.Status.Err()
}

// RangeError reports a value outside the range its type declares. For
// octet string types Value, Min and Max are lengths.
type RangeError struct {
	Type  string
	Value any
	Min   any
	Max   any
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %v not in range [%v, %v]", e.Type, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrOverflow
}

// DecodeError is returned for any datagram that is not well formed BER.
// It matches ErrDecode as well as the specific cause.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

func decodeError(what string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{What: what, Err: err}
}
