// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
)

// GetFunc returns the current value of a managed object.
type GetFunc func(name OID) Value

// SetFunc changes a managed object. A returned error wrapping one of the
// error-status sentinels (ErrWrongType, ErrWrongValue...) selects the
// error-status of the response; any other error is reported as wrongValue.
type SetFunc func(name OID, v Value) error

type mibEntry struct {
	name OID
	get  GetFunc
	set  SetFunc
}

// Agent answers Get, GetNext, GetBulk and Set requests from an in-memory
// MIB over UDP. It is meant for tests and simulations.
type Agent struct {
	// Communities accepted; a request with any other community is dropped.
	Communities []Community

	// Allow, when not empty, lists the source IPs served.
	Allow []string

	// MaxVarBinds, when positive, answers tooBig to Get, GetNext and Set
	// requests with more varbinds, and truncates GetBulk responses.
	MaxVarBinds int

	// SupportSnmpMIB serves the agent's own snmp group counters
	// (1.3.6.1.2.1.11) when set before Start.
	SupportSnmpMIB bool

	Logger Logger

	mu       sync.RWMutex
	mib      []*mibEntry
	conn     *net.UDPConn
	done     chan struct{}
	counters agentCounters
}

// snmp group counters, RFC 3418
type agentCounters struct {
	inPkts            atomic.Uint32
	outPkts           atomic.Uint32
	inBadVersions     atomic.Uint32
	inBadCommunities  atomic.Uint32
	inASNParseErrs    atomic.Uint32
	inGetRequests     atomic.Uint32
	inGetNexts        atomic.Uint32
	inSetRequests     atomic.Uint32
	outNoSuchNames    atomic.Uint32
	outTooBigs        atomic.Uint32
	outGetResponses   atomic.Uint32
	inTotalReqVars    atomic.Uint32
	inTotalSetVars    atomic.Uint32
	outGenErrs        atomic.Uint32
	outBadValues      atomic.Uint32
	inBadCommunityUse atomic.Uint32
}

var snmpGroup = OID{1, 3, 6, 1, 2, 1, 11}

// AddObject registers name, replacing any object already there. A nil set
// makes the object read-only.
func (a *Agent) AddObject(name OID, get GetFunc, set SetFunc) {
	e := &mibEntry{name: name.Copy(), get: get, set: set}
	a.mu.Lock()
	defer a.mu.Unlock()
	pos := sort.Search(len(a.mib), func(i int) bool {
		return a.mib[i].name.StrictCompare(e.name) >= 0
	})
	if pos < len(a.mib) && a.mib[pos].name.Equal(e.name) {
		a.Logger.Printf("AddObject replace OID=%s", name)
		a.mib[pos] = e
		return
	}
	a.mib = slices.Insert(a.mib, pos, e)
}

// AddValue registers a stored value. When writable, a Set replaces it
// with any value of the same type.
func (a *Agent) AddValue(name OID, v Value, writable bool) {
	var mu sync.Mutex
	get := func(OID) Value {
		mu.Lock()
		defer mu.Unlock()
		return v
	}
	var set SetFunc
	if writable {
		set = func(_ OID, nv Value) error {
			if nv == nil || nv.Type() != v.Type() {
				return fmt.Errorf("%w: want %s", ErrWrongType, v.Type())
			}
			mu.Lock()
			defer mu.Unlock()
			v = nv
			return nil
		}
	}
	a.AddObject(name, get, set)
}

// RemoveObject drops name from the MIB.
func (a *Agent) RemoveObject(name OID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mib = slices.DeleteFunc(a.mib, func(e *mibEntry) bool { return e.name.Equal(name) })
}

// lookup finds name itself, or with next the first object after it.
func (a *Agent) lookup(name OID, next bool) *mibEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i := sort.Search(len(a.mib), func(i int) bool {
		return a.mib[i].name.StrictCompare(name) >= 0
	})
	if i < len(a.mib) && a.mib[i].name.Equal(name) {
		if !next {
			return a.mib[i]
		}
		i++
	}
	if next && i < len(a.mib) {
		return a.mib[i]
	}
	return nil
}

// Start binds addr, "127.0.0.1:0" picking a free port, and serves in the
// background until Stop.
func (a *Agent) Start(addr string) error {
	a.Stop()
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	if a.SupportSnmpMIB {
		a.addSnmpMIB()
	}
	done := make(chan struct{})
	a.mu.Lock()
	a.conn, a.done = conn, done
	a.mu.Unlock()
	go func() {
		defer close(done)
		a.serve(conn)
	}()
	return nil
}

// Addr is the bound address, nil when stopped.
func (a *Agent) Addr() *net.UDPAddr {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.conn == nil {
		return nil
	}
	return a.conn.LocalAddr().(*net.UDPAddr)
}

// Stop closes the socket and waits for the serving goroutine.
func (a *Agent) Stop() {
	a.mu.Lock()
	conn, done := a.conn, a.done
	a.conn, a.done = nil, nil
	a.mu.Unlock()
	if conn == nil {
		return
	}
	conn.Close()
	<-done
}

func (a *Agent) serve(conn *net.UDPConn) {
	buf := make([]byte, rxBufSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			a.Logger.Printf("ReadFromUDP err=%v", err)
			continue
		}
		if len(a.Allow) > 0 && !slices.Contains(a.Allow, addr.IP.String()) {
			a.Logger.Printf("Drop SNMP Pkt from %s by ACL", addr.IP)
			continue
		}
		out := a.handle(buf[:n])
		if out == nil {
			continue
		}
		if _, err = conn.WriteToUDP(out, addr); err != nil {
			a.Logger.Printf("WriteToUDP err=%v", err)
			continue
		}
		a.counters.outPkts.Add(1)
	}
}

// handle returns the encoded response to one request datagram, or nil
// when the request is dropped.
func (a *Agent) handle(data []byte) []byte {
	a.counters.inPkts.Add(1)
	msg, err := UnmarshalMessage(data)
	if err != nil {
		if errors.Is(err, ErrNotImplemented) || errors.Is(err, ErrBadVersion) {
			a.counters.inBadVersions.Add(1)
		} else {
			a.counters.inASNParseErrs.Add(1)
		}
		a.Logger.Printf("Drop request: %v", err)
		return nil
	}
	access, ok := a.access(msg.Community)
	if !ok {
		a.counters.inBadCommunities.Add(1)
		a.Logger.Print("Drop Invalid Community request")
		return nil
	}

	var resp *ImplicitPDU
	switch p := msg.PDU.(type) {
	case *BulkPDU:
		if msg.Version == Version1 {
			a.Logger.Print("Drop GetBulk in SNMPv1")
			return nil
		}
		a.counters.inGetNexts.Add(1)
		resp = a.getBulk(p)
	case *ImplicitPDU:
		switch p.Type {
		case GetRequest:
			a.counters.inGetRequests.Add(1)
			resp = a.get(msg.Version, p, false)
		case GetNextRequest:
			a.counters.inGetNexts.Add(1)
			resp = a.get(msg.Version, p, true)
		case SetRequest:
			a.counters.inSetRequests.Add(1)
			resp = a.set(msg.Version, p, access)
		default:
			a.Logger.Printf("Drop Bad PDU Type=%v", p.Type)
			return nil
		}
	default:
		a.Logger.Printf("Drop Bad PDU Type=%v", p.PDUType())
		return nil
	}

	if resp.ErrorStatus != NoError && msg.Version == Version1 {
		resp.ErrorStatus = v1Status(resp.ErrorStatus)
	}
	switch resp.ErrorStatus {
	case NoSuchName:
		a.counters.outNoSuchNames.Add(1)
	case TooBig:
		a.counters.outTooBigs.Add(1)
	case GenErr:
		a.counters.outGenErrs.Add(1)
	case BadValue:
		a.counters.outBadValues.Add(1)
	}
	out, err := (&Message{Version: msg.Version, Community: msg.Community, PDU: resp}).Marshal()
	if err != nil {
		a.Logger.Printf("encoding response: %v", err)
		return nil
	}
	a.counters.outGetResponses.Add(1)
	return out
}

func (a *Agent) access(community string) (Access, bool) {
	for _, c := range a.Communities {
		if c.Name == community {
			return c.Access, true
		}
	}
	return RO, false
}

func (a *Agent) tooBig(p *ImplicitPDU) *ImplicitPDU {
	return NewResponse(p.RequestID, TooBig, 0, VarBindList{})
}

func (a *Agent) get(version SnmpVersion, p *ImplicitPDU, next bool) *ImplicitPDU {
	if a.MaxVarBinds > 0 && len(p.VarBinds) > a.MaxVarBinds {
		return a.tooBig(p)
	}
	a.counters.inTotalReqVars.Add(uint32(len(p.VarBinds)))
	vbl := make(VarBindList, len(p.VarBinds))
	for i, vb := range p.VarBinds {
		e := a.lookup(vb.Name, next)
		switch {
		case e != nil:
			vbl[i] = VarBind{Name: e.name, Value: e.get(e.name)}
		case version == Version1:
			return NewResponse(p.RequestID, NoSuchName, i+1, p.VarBinds)
		case next:
			vbl[i] = VarBind{Name: vb.Name, Value: EndOfMibView}
		default:
			vbl[i] = VarBind{Name: vb.Name, Value: NoSuchObject}
		}
	}
	return NewResponse(p.RequestID, NoError, 0, vbl)
}

func (a *Agent) getBulk(p *BulkPDU) *ImplicitPDU {
	nonRepeaters := min(max(p.NonRepeaters, 0), len(p.VarBinds))
	vbl := VarBindList{}
	for _, vb := range p.VarBinds[:nonRepeaters] {
		vbl = append(vbl, a.next(vb.Name))
	}
	cursor := p.VarBinds[nonRepeaters:].Names()
	for rep := 0; rep < p.MaxRepetitions && len(cursor) > 0; rep++ {
		ended := 0
		for i, name := range cursor {
			vb := a.next(name)
			vbl = append(vbl, vb)
			cursor[i] = vb.Name
			if vb.Value == EndOfMibView {
				ended++
			}
		}
		if ended == len(cursor) {
			break
		}
	}
	if a.MaxVarBinds > 0 && len(vbl) > a.MaxVarBinds {
		vbl = vbl[:a.MaxVarBinds]
	}
	a.counters.inTotalReqVars.Add(uint32(len(p.VarBinds)))
	return NewResponse(p.RequestID, NoError, 0, vbl)
}

func (a *Agent) next(name OID) VarBind {
	if e := a.lookup(name, true); e != nil {
		return VarBind{Name: e.name, Value: e.get(e.name)}
	}
	return VarBind{Name: name, Value: EndOfMibView}
}

// set checks every varbind before changing anything, so a failed request
// leaves the MIB as it was unless a SetFunc itself fails part way.
func (a *Agent) set(version SnmpVersion, p *ImplicitPDU, access Access) *ImplicitPDU {
	if a.MaxVarBinds > 0 && len(p.VarBinds) > a.MaxVarBinds {
		return a.tooBig(p)
	}
	if access != RW {
		a.counters.inBadCommunityUse.Add(1)
		status := NoAccess
		if version == Version1 {
			status = ReadOnly
		}
		return NewResponse(p.RequestID, status, 1, p.VarBinds)
	}
	entries := make([]*mibEntry, len(p.VarBinds))
	for i, vb := range p.VarBinds {
		e := a.lookup(vb.Name, false)
		switch {
		case e == nil:
			return NewResponse(p.RequestID, NoCreation, i+1, p.VarBinds)
		case e.set == nil:
			return NewResponse(p.RequestID, NotWritable, i+1, p.VarBinds)
		}
		entries[i] = e
	}
	a.counters.inTotalSetVars.Add(uint32(len(p.VarBinds)))
	for i, vb := range p.VarBinds {
		if err := entries[i].set(vb.Name, vb.Value); err != nil {
			a.Logger.Printf("set %s: %v", vb.Name, err)
			return NewResponse(p.RequestID, statusOf(err, WrongValue), i+1, p.VarBinds)
		}
	}
	return NewResponse(p.RequestID, NoError, 0, p.VarBinds)
}

// statusOf finds the error-status whose sentinel err wraps.
func statusOf(err error, fallback ErrorStatus) ErrorStatus {
	for s := TooBig; s <= InconsistentName; s++ {
		if errors.Is(err, s.Err()) {
			return s
		}
	}
	return fallback
}

// v1Status maps SNMPv2 error-status values onto the SNMPv1 set, as
// RFC 2576 section 4.3 does.
func v1Status(s ErrorStatus) ErrorStatus {
	switch s {
	case WrongValue, WrongEncoding, WrongType, WrongLength, InconsistentValue:
		return BadValue
	case NoAccess, NotWritable, NoCreation, InconsistentName, AuthorizationError:
		return NoSuchName
	case ResourceUnavailable, CommitFailed, UndoFailed:
		return GenErr
	default:
		return s
	}
}

func (a *Agent) addSnmpMIB() {
	c := &a.counters
	counters := map[uint32]*atomic.Uint32{
		1: &c.inPkts, 2: &c.outPkts, 3: &c.inBadVersions, 4: &c.inBadCommunities,
		5: &c.inBadCommunityUse, 6: &c.inASNParseErrs, 8: &c.outTooBigs,
		9: &c.outNoSuchNames, 10: &c.outBadValues, 12: &c.outGenErrs,
		13: &c.inTotalReqVars, 14: &c.inTotalSetVars, 15: &c.inGetRequests,
		16: &c.inGetNexts, 17: &c.inSetRequests, 28: &c.outGetResponses,
	}
	for arc, p := range counters {
		a.AddObject(snmpGroup.Append(arc, 0), func(OID) Value { return Counter32(p.Load()) }, nil)
	}
	// snmpEnableAuthenTraps: disabled(2)
	a.AddObject(snmpGroup.Append(30, 0), func(OID) Value { return Integer32(2) }, nil)
}
