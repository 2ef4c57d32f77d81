// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// rxBufSize bounds a received datagram; larger responses are avoided by
// splitting requests, not by a larger buffer.
const rxBufSize = 4096

var sysUpTimeOID = OID{1, 3, 6, 1, 2, 1, 1, 3, 0}

// Session is a community-based (v1/v2c) manager session with one agent.
//
// A Session is not safe for concurrent use: it owns one socket and one
// table of outstanding requests, and each call blocks until it has a
// response, a typed error, or has used up its retries. Use one Session per
// concurrent caller.
type Session struct {
	SessionData

	// Logger is used for debugging. The zero Logger discards output.
	Logger Logger

	// RequestIDs allocates request-ids; DefaultRequestIDs when nil.
	RequestIDs RequestIDSource

	// Dial opens the socket; DialUDP when nil.
	Dial Dialer

	// MaxRepetitions is used by GetBulk table walks; 25 when zero.
	MaxRepetitions int

	// NextWalkPolicy decides which error responses end a GetNext walk.
	NextWalkPolicy WalkErrorPolicy

	// Internal - used to sync up sent and received packets
	OnSent func(s *Session, msg *Message)

	// Internal - used to sync up sent and received packets
	OnRecv func(s *Session, msg *Message)

	// OnRetry is called before a request is sent again, attempt counting
	// from 1.
	OnRetry func(s *Session, attempt int)

	// OnFinish is called when a request completes, with its total
	// duration and outcome.
	OnFinish func(s *Session, elapsed time.Duration, err error)

	conn        Transport
	outstanding map[int32]*Message
	rxBuf       []byte
}

// NewSession picks the administrative framework from data: communities
// give a community-based session. The session is not opened.
func NewSession(data SessionData) (*Session, error) {
	switch {
	case len(data.Communities) > 0:
		return &Session{SessionData: data}, nil
	case data.User != "":
		return nil, fmt.Errorf("user-based session: %w", ErrNotImplemented)
	default:
		return nil, ErrNoFramework
	}
}

// GetSession builds and opens a session from the common parameters.
// writeCommunity may be empty.
func GetSession(agent, readCommunity, writeCommunity string, version SnmpVersion) (*Session, error) {
	data := DefaultSessionData(agent)
	data.Version = version
	data.AddCommunity(readCommunity, RO)
	if writeCommunity != "" {
		data.AddCommunity(writeCommunity, RW)
	}
	s, err := NewSession(data)
	if err != nil {
		return nil, err
	}
	if err = s.Open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open connects the socket. Opening an open session does nothing.
func (s *Session) Open() error {
	if s.conn != nil {
		return nil
	}
	if s.Agent == "" {
		return fmt.Errorf("open: no agent address")
	}
	if s.Port == 0 {
		s.Port = defaultPort
	}
	dial := s.Dial
	if dial == nil {
		dial = DialUDP
	}
	conn, err := dial("udp", s.Address())
	if err != nil {
		return fmt.Errorf("error establishing connection to host: %w", err)
	}
	s.conn = conn
	return nil
}

// Connected reports whether the session has a socket.
func (s *Session) Connected() bool {
	return s.conn != nil
}

// Close releases the socket. Closing a closed session does nothing.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// -- operations ---------------------------------------------------------------

// Get fetches oids. If the agent answers tooBig the list is halved and
// each half fetched in turn; the results keep the order of oids.
func (s *Session) Get(oids ...OID) (VarBindList, error) {
	return s.getVarBindList(GetRequest, NullVarBinds(oids...))
}

// GetNext fetches the successors of oids, splitting on tooBig like Get.
func (s *Session) GetNext(oids ...OID) (VarBindList, error) {
	return s.getVarBindList(GetNextRequest, NullVarBinds(oids...))
}

func (s *Session) getVarBindList(typ PDUType, vbl VarBindList) (VarBindList, error) {
	community, err := s.ReadCommunity()
	if err != nil {
		return nil, err
	}
	result, err := s.request(community, &ImplicitPDU{Type: typ, VarBinds: vbl})
	if err == nil || !errors.Is(err, ErrTooBig) || len(vbl) < 2 {
		return result, err
	}
	s.Logger.Printf("%s of %d varbinds is too big, splitting", typ, len(vbl))
	middle := len(vbl) / 2
	bottom, err := s.getVarBindList(typ, vbl[:middle])
	if err != nil {
		return nil, err
	}
	top, err := s.getVarBindList(typ, vbl[middle:])
	if err != nil {
		return nil, err
	}
	return append(bottom, top...), nil
}

// Set requires a read-write community.
func (s *Session) Set(vbl VarBindList) (VarBindList, error) {
	community, err := s.WriteCommunity()
	if err != nil {
		return nil, err
	}
	return s.request(community, NewSetRequest(vbl))
}

// GetBulk sends a caller-built GetBulkRequest, so the caller decides the
// non-repeaters and max-repetitions. The PDU's request-id is overwritten.
func (s *Session) GetBulk(pdu *BulkPDU) (VarBindList, error) {
	community, err := s.ReadCommunity()
	if err != nil {
		return nil, err
	}
	return s.request(community, pdu)
}

// GetTableRow fetches one row: every column OID with index appended.
func (s *Session) GetTableRow(index OID, columns ...OID) (VarBindList, error) {
	oids := make([]OID, len(columns))
	for i, column := range columns {
		oids[i] = column.Append(index...)
	}
	return s.Get(oids...)
}

// Inform sends a confirmed notification and waits for the receiver's
// response. sysUpTime.0 is put first when vbl does not start with it.
func (s *Session) Inform(vbl VarBindList) (VarBindList, error) {
	community, err := s.ReadCommunity()
	if err != nil {
		return nil, err
	}
	return s.request(community, &ImplicitPDU{Type: InformRequest, VarBinds: withUptime(vbl)})
}

// SendTrap sends an SNMPv2-Trap and does not wait for anything.
func (s *Session) SendTrap(vbl VarBindList) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	community, err := s.ReadCommunity()
	if err != nil {
		return err
	}
	pdu := &ImplicitPDU{Type: SNMPv2Trap, RequestID: s.nextRequestID(), VarBinds: withUptime(vbl)}
	msg := &Message{Version: s.Version, Community: community, PDU: pdu}
	out, err := msg.Marshal()
	if err != nil {
		return err
	}
	if _, err = s.conn.Write(out); err != nil {
		return fmt.Errorf("error writing to socket: %w", err)
	}
	if s.OnSent != nil {
		s.OnSent(s, msg)
	}
	return nil
}

var processStart = time.Now()

func withUptime(vbl VarBindList) VarBindList {
	if len(vbl) > 0 && vbl[0].Name.Equal(sysUpTimeOID) {
		return vbl
	}
	ticks := TimeTicks(time.Since(processStart) / (10 * time.Millisecond))
	return append(VarBindList{{Name: sysUpTimeOID, Value: ticks}}, vbl...)
}

// -- request/response ---------------------------------------------------------

func (s *Session) nextRequestID() int32 {
	if s.RequestIDs == nil {
		return DefaultRequestIDs.NextRequestID()
	}
	return s.RequestIDs.NextRequestID()
}

// request sends pdu and turns the response into varbinds or a typed error.
func (s *Session) request(community string, pdu PDU) (VarBindList, error) {
	resp, err := s.roundTrip(community, pdu)
	if err != nil {
		return nil, err
	}
	rpdu, ok := resp.PDU.(*ImplicitPDU)
	if !ok || rpdu.Type != GetResponse {
		return nil, fmt.Errorf("unexpected %s in reply to %s", resp.PDU.PDUType(), pdu.PDUType())
	}
	if rpdu.ErrorStatus != NoError {
		return rpdu.VarBinds, &ProtocolError{Status: rpdu.ErrorStatus, Index: rpdu.ErrorIndex}
	}
	return rpdu.VarBinds, nil
}

// roundTrip assigns a fresh request-id, encodes, and runs the retry loop.
// Encoding errors are returned before anything is sent.
func (s *Session) roundTrip(community string, pdu PDU) (*Message, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	id := s.nextRequestID()
	setRequestID(pdu, id)
	msg := &Message{Version: s.Version, Community: community, PDU: pdu}
	out, err := msg.Marshal()
	if err != nil {
		return nil, err
	}

	if s.outstanding == nil {
		s.outstanding = make(map[int32]*Message)
	}
	s.outstanding[id] = msg
	defer delete(s.outstanding, id)

	start := time.Now()
	resp, err := s.sendAndReceive(id, out, msg)
	if s.OnFinish != nil {
		s.OnFinish(s, time.Since(start), err)
	}
	return resp, err
}

func (s *Session) sendAndReceive(id int32, out []byte, msg *Message) (*Message, error) {
	tries := s.Retries
	if tries < 1 {
		tries = 1
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if s.rxBuf == nil {
		s.rxBuf = make([]byte, rxBufSize)
	}

	for attempt := 0; attempt < tries; attempt++ {
		if attempt > 0 {
			s.Logger.Printf("retry %d of request-id %d", attempt, id)
			if s.OnRetry != nil {
				s.OnRetry(s, attempt)
			}
		}
		if _, err := s.conn.Write(out); err != nil {
			return nil, fmt.Errorf("error writing to socket: %w", err)
		}
		if s.OnSent != nil {
			s.OnSent(s, msg)
		}

		resp, err := s.receive(id, time.Now().Add(timeout))
		switch {
		case err == nil:
			return resp, nil
		case errors.Is(err, errReceiveTimeout):
			continue
		case errors.Is(err, net.ErrClosed):
			return nil, fmt.Errorf("error reading from socket: %w", err)
		default:
			// e.g. ICMP port unreachable reported on a connected socket
			s.Logger.Printf("request-id %d: %v", id, err)
		}
	}
	return nil, fmt.Errorf("%w after %d tries", ErrNoResponse, tries)
}

var errReceiveTimeout = errors.New("receive timeout")

// receive waits until deadline for the response to id. Datagrams that do
// not decode, or belong to no outstanding request, are dropped and the
// wait goes on. A response to another outstanding request retires that
// request with a warning.
func (s *Session) receive(id int32, deadline time.Time) (*Message, error) {
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	for {
		n, err := s.conn.Read(s.rxBuf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return nil, errReceiveTimeout
			}
			return nil, err
		}
		resp, err := UnmarshalMessage(s.rxBuf[:n])
		if err != nil {
			s.Logger.Printf("discarding datagram: %v", err)
			continue
		}
		rid, ok := requestIDOf(resp.PDU)
		if !ok {
			s.Logger.Printf("discarding %s while waiting for request-id %d", resp.PDU.PDUType(), id)
			continue
		}
		if _, found := s.outstanding[rid]; !found {
			s.Logger.Printf("got strange response (request-id %d)", rid)
			continue
		}
		delete(s.outstanding, rid)
		if rid != id {
			s.Logger.Printf("warning: response for request-id %d while waiting for %d", rid, id)
			continue
		}
		if s.OnRecv != nil {
			s.OnRecv(s, resp)
		}
		return resp, nil
	}
}
