// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"errors"
	"fmt"
)

const defaultWalkMaxRepetitions = 25

// WalkFunc is called for every varbind found under the walked row.
// Returning an error ends the walk with that error.
type WalkFunc func(vb VarBind) error

// WalkErrorPolicy decides which error responses a GetNext walk treats as
// the end of the table.
type WalkErrorPolicy int

const (
	// SwallowAllErrors ends the walk quietly on any error-status, since
	// some v1 agents answer genErr or badValue past the last row.
	SwallowAllErrors WalkErrorPolicy = iota

	// SwallowNoSuchName only treats noSuchName as the end of the table.
	SwallowNoSuchName
)

func (p WalkErrorPolicy) swallow(err error) bool {
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		return false
	}
	switch p {
	case SwallowNoSuchName:
		return perr.Status == NoSuchName
	default:
		return true
	}
}

// GetTable walks every instance under row, calling fn for each in agent
// order. SNMPv2c sessions use GetBulk and SNMPv1 sessions use GetNext.
func (s *Session) GetTable(row OID, fn WalkFunc) error {
	if s.Version == Version1 {
		return s.nextWalk(row, fn)
	}
	return s.bulkWalk(row, fn)
}

// WalkAll collects what GetTable finds.
func (s *Session) WalkAll(row OID) (VarBindList, error) {
	var results VarBindList
	err := s.GetTable(row, func(vb VarBind) error {
		results = append(results, vb)
		return nil
	})
	return results, err
}

func (s *Session) bulkWalk(row OID, fn WalkFunc) error {
	pdu := NewGetBulkRequest()
	pdu.MaxRepetitions = s.MaxRepetitions
	if pdu.MaxRepetitions <= 0 {
		pdu.MaxRepetitions = defaultWalkMaxRepetitions
	}
	pdu.AddRepeater(row)

	seed := row
	requests := 0
	for {
		requests++
		vbl, err := s.GetBulk(pdu)
		if err != nil {
			return err
		}
		if len(vbl) == 0 {
			break
		}
		for _, vb := range vbl {
			if !vb.Name.HasPrefix(row) || vb.Value == EndOfMibView {
				s.Logger.Printf("bulk walk of %s completed in %d requests", row, requests)
				return nil
			}
			if err = fn(vb); err != nil {
				return err
			}
		}
		last := vbl[len(vbl)-1].Name
		if last.StrictCompare(seed) <= 0 {
			return fmt.Errorf("OID not increasing: %s after %s", last, seed)
		}
		seed = last
		pdu.SetRepeater(last)
	}
	s.Logger.Printf("bulk walk of %s completed in %d requests", row, requests)
	return nil
}

func (s *Session) nextWalk(row OID, fn WalkFunc) error {
	fetch := row
	requests := 0
	for {
		requests++
		vbl, err := s.GetNext(fetch)
		if err != nil {
			if s.NextWalkPolicy.swallow(err) {
				s.Logger.Printf("walk of %s ended by %v", row, err)
				return nil
			}
			return err
		}
		if len(vbl) == 0 {
			break
		}
		vb := vbl[0]
		if !vb.Name.HasPrefix(row) || vb.Value == EndOfMibView {
			break
		}
		if vb.Name.StrictCompare(fetch) <= 0 {
			return fmt.Errorf("OID not increasing: %s after %s", vb.Name, fetch)
		}
		if err = fn(vb); err != nil {
			return err
		}
		fetch = vb.Name
	}
	s.Logger.Printf("walk of %s completed in %d requests", row, requests)
	return nil
}
