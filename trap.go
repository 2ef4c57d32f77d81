// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"fmt"
	"net"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	snmpTrapOID        = OID{1, 3, 6, 1, 6, 3, 1, 1, 4, 1, 0}
	snmpTrapEnterprise = OID{1, 3, 6, 1, 6, 3, 1, 1, 4, 3, 0}
	snmpTrapAddress    = OID{1, 3, 6, 1, 6, 3, 18, 1, 3, 0}
	snmpTrapCommunity  = OID{1, 3, 6, 1, 6, 3, 18, 1, 4, 0}
	snmpTraps          = OID{1, 3, 6, 1, 6, 3, 1, 1, 5}
)

// TrapOID is the snmpTrapOID.0 a v1 trap translates to: one of the
// snmpTraps for the generic traps, enterprise.0.specific otherwise.
func (p *TrapV1PDU) TrapOID() OID {
	if p.GenericTrap >= ColdStart && p.GenericTrap < EnterpriseSpecific {
		return snmpTraps.Append(uint32(p.GenericTrap) + 1)
	}
	return p.Enterprise.Append(0, uint32(p.SpecificTrap))
}

// TranslateV1Trap turns a v1 Trap into the SNMPv2-Trap a proxy would
// forward: sysUpTime.0 and snmpTrapOID.0 first, then the trap's own
// varbinds, then snmpTrapAddress.0, snmpTrapCommunity.0 and
// snmpTrapEnterprise.0. A zero agent-addr is replaced by src.
func TranslateV1Trap(src net.IP, community string, p *TrapV1PDU) *ImplicitPDU {
	addr := p.AgentAddress
	if addr == (IPAddress{}) {
		if ip4 := src.To4(); ip4 != nil {
			copy(addr[:], ip4)
		}
	}
	vbl := make(VarBindList, 0, len(p.VarBinds)+5)
	vbl = append(vbl,
		VarBind{Name: sysUpTimeOID, Value: p.Timestamp},
		VarBind{Name: snmpTrapOID, Value: p.TrapOID()},
	)
	vbl = append(vbl, p.VarBinds...)
	vbl = append(vbl,
		VarBind{Name: snmpTrapAddress, Value: addr},
		VarBind{Name: snmpTrapCommunity, Value: OctetString(community)},
		VarBind{Name: snmpTrapEnterprise, Value: p.Enterprise.Copy()},
	)
	return &ImplicitPDU{Type: SNMPv2Trap, VarBinds: vbl}
}

// TrapRecord is one received notification, v1 traps already translated.
type TrapRecord struct {
	Time      time.Time
	Source    *net.UDPAddr
	Version   SnmpVersion
	Community string
	PDU       *ImplicitPDU
}

// TrapOID returns the snmpTrapOID.0 value, or nil.
func (r *TrapRecord) TrapOID() OID {
	for _, vb := range r.PDU.VarBinds {
		if vb.Name.Equal(snmpTrapOID) {
			if oid, ok := vb.Value.(OID); ok {
				return oid
			}
		}
	}
	return nil
}

func (r *TrapRecord) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s from %s community %q\n", r.Time.Format(time.RFC3339), r.PDU.Type, r.Source, r.Community)
	for _, vb := range r.PDU.VarBinds {
		fmt.Fprintf(&sb, "  %s\n", vb)
	}
	return sb.String()
}

// TrapHandler receives a notification. Returning true stops the chain, so
// later handlers do not see it. Handlers must not keep rec after return.
type TrapHandler func(rec *TrapRecord) bool

// TrapListener receives Trap, SNMPv2-Trap and InformRequest PDUs on UDP
// and answers every Inform with a Response echoing its varbinds.
type TrapListener struct {
	sync.Mutex

	// Communities, when not empty, lists the communities accepted.
	Communities []string

	// CloseTimeout is the max wait time for the socket to gracefully
	// signal its closure.
	CloseTimeout time.Duration

	Logger Logger

	handlers  []TrapHandler
	conn      *net.UDPConn
	done      chan bool
	listening chan bool
	finish    atomic.Bool
	buffSize  int
}

const defaultCloseTimeout = 3 * time.Second

func NewTrapListener() *TrapListener {
	return &TrapListener{
		CloseTimeout: defaultCloseTimeout,
		buffSize:     rxBufSize,
		done:         make(chan bool, 1),
		listening:    make(chan bool, 1),
	}
}

// Handle appends h to the handler chain.
func (t *TrapListener) Handle(h TrapHandler) {
	t.Lock()
	defer t.Unlock()
	t.handlers = append(t.handlers, h)
}

// Listening returns a channel that receives once the socket is bound.
func (t *TrapListener) Listening() <-chan bool {
	return t.listening
}

// Addr is the bound address, nil before Listen.
func (t *TrapListener) Addr() net.Addr {
	t.Lock()
	defer t.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// Close stops Listen and waits up to CloseTimeout for it to return.
func (t *TrapListener) Close() {
	if !t.finish.CompareAndSwap(false, true) {
		return
	}
	t.Lock()
	conn := t.conn
	t.Unlock()
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		t.Logger.Printf("failed to close the TrapListener socket: %s", err)
	}
	select {
	case <-t.done:
	case <-time.After(t.CloseTimeout):
		t.Logger.Printf("timeout while awaiting done signal on TrapListener Close()")
	}
}

// Listen binds addr and dispatches notifications until Close. It returns
// nil after Close.
func (t *TrapListener) Listen(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	t.Lock()
	t.conn = conn
	t.Unlock()
	defer conn.Close()

	t.listening <- true

	buf := make([]byte, t.buffSize)
	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if t.finish.Load() {
				t.done <- true
				return nil
			}
			t.Logger.Printf("TrapListener: error in read %s", err)
			continue
		}
		t.receive(conn, buf[:n], remote)
	}
}

func (t *TrapListener) receive(conn *net.UDPConn, data []byte, remote *net.UDPAddr) {
	msg, err := UnmarshalMessage(data)
	if err != nil {
		t.Logger.Printf("TrapListener: discarding datagram from %s: %s", remote, err)
		return
	}
	if len(t.Communities) > 0 && !slices.Contains(t.Communities, msg.Community) {
		t.Logger.Printf("TrapListener: bad community from %s", remote)
		return
	}

	rec := &TrapRecord{Time: time.Now(), Source: remote, Version: msg.Version, Community: msg.Community}
	switch p := msg.PDU.(type) {
	case *TrapV1PDU:
		rec.PDU = TranslateV1Trap(remote.IP, msg.Community, p)
	case *ImplicitPDU:
		if p.Type != SNMPv2Trap && p.Type != InformRequest {
			t.Logger.Printf("TrapListener: ignoring %s from %s", p.Type, remote)
			return
		}
		rec.PDU = p
	default:
		t.Logger.Printf("TrapListener: ignoring %s from %s", p.PDUType(), remote)
		return
	}

	t.Lock()
	handlers := t.handlers
	t.Unlock()
	if len(handlers) == 0 {
		t.Logger.Printf("got trapdata from %s: %s", remote, rec)
	}
	for _, h := range handlers {
		if h(rec) {
			break
		}
	}

	if rec.PDU.Type == InformRequest {
		resp := &Message{
			Version:   msg.Version,
			Community: msg.Community,
			PDU:       NewResponse(rec.PDU.RequestID, NoError, 0, rec.PDU.VarBinds),
		}
		out, err := resp.Marshal()
		if err != nil {
			t.Logger.Printf("TrapListener: %s", err)
			return
		}
		if _, err = conn.WriteToUDP(out, remote); err != nil {
			t.Logger.Printf("TrapListener: error sending response: %s", err)
		}
	}
}
