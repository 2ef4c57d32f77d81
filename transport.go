// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"net"
	"time"
)

//go:generate mockgen -destination=mock_transport_test.go -package=snmp github.com/netprobe/snmp Transport

// Transport is a connected datagram socket; every Write is one datagram and
// every Read returns one. A *net.UDPConn satisfies it.
type Transport interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens a Transport to address, given as host:port.
type Dialer func(network, address string) (Transport, error)

// DialUDP is the default Dialer. Connecting a UDP socket only sets the
// peer filter; nothing is sent.
func DialUDP(network, address string) (Transport, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
