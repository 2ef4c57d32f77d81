// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package capture records SNMP datagrams to pcap files and reads them
// back as decoded messages.
package capture

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/netprobe/snmp"
)

const snapLen = 65536

// Recorder writes datagrams as raw IP/UDP packets. It is safe for
// concurrent use.
type Recorder struct {
	mu  sync.Mutex
	w   *pcapgo.Writer
	err error

	// Now stamps packets; time.Now when nil.
	Now func() time.Time
}

// NewRecorder writes the pcap file header to w.
func NewRecorder(w io.Writer) (*Recorder, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeRaw); err != nil {
		return nil, fmt.Errorf("writing pcap header: %w", err)
	}
	return &Recorder{w: pw}, nil
}

// WriteDatagram records one UDP datagram from src to dst. Both addresses
// must be of the same family.
func (r *Recorder) WriteDatagram(src, dst *net.UDPAddr, payload []byte) error {
	var ip gopacket.NetworkLayer
	var ipLayer gopacket.SerializableLayer
	if src4, dst4 := src.IP.To4(), dst.IP.To4(); src4 != nil && dst4 != nil {
		l := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: src4, DstIP: dst4}
		ip, ipLayer = l, l
	} else {
		l := &layers.IPv6{Version: 6, HopLimit: 64, NextHeader: layers.IPProtocolUDP, SrcIP: src.IP.To16(), DstIP: dst.IP.To16()}
		ip, ipLayer = l, l
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(src.Port), DstPort: layers.UDPPort(dst.Port)}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ipLayer, udp, gopacket.Payload(payload)); err != nil {
		return fmt.Errorf("serializing packet: %w", err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	data := buf.Bytes()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     now(),
		CaptureLength: len(data),
		Length:        len(data),
	}, data)
}

// Err returns the first error met while recording for a Transport made
// by Dialer. Such errors never fail the session's own reads and writes.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) record(src, dst *net.UDPAddr, payload []byte) {
	err := r.WriteDatagram(src, dst, payload)
	if err == nil {
		return
	}
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// Dialer wraps dial so every datagram the resulting Transport writes or
// reads is also recorded.
func (r *Recorder) Dialer(dial snmp.Dialer) snmp.Dialer {
	if dial == nil {
		dial = snmp.DialUDP
	}
	return func(network, address string) (snmp.Transport, error) {
		t, err := dial(network, address)
		if err != nil {
			return nil, err
		}
		local, remote := endpoints(t, address)
		return &recordingTransport{Transport: t, rec: r, local: local, remote: remote}, nil
	}
}

type addrer interface {
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// endpoints uses the socket's own addresses when it has them.
func endpoints(t snmp.Transport, address string) (local, remote *net.UDPAddr) {
	local = &net.UDPAddr{IP: net.IPv4zero}
	remote = &net.UDPAddr{IP: net.IPv4zero}
	if a, ok := t.(addrer); ok {
		if l, ok := a.LocalAddr().(*net.UDPAddr); ok {
			local = l
		}
		if r, ok := a.RemoteAddr().(*net.UDPAddr); ok {
			return local, r
		}
	}
	if r, err := net.ResolveUDPAddr("udp", address); err == nil {
		remote = r
	}
	if remote.IP.To4() == nil && local.IP.To4() != nil {
		local = &net.UDPAddr{IP: net.IPv6zero, Port: local.Port}
	}
	return local, remote
}

type recordingTransport struct {
	snmp.Transport
	rec           *Recorder
	local, remote *net.UDPAddr
}

func (t *recordingTransport) Write(b []byte) (int, error) {
	n, err := t.Transport.Write(b)
	if err == nil {
		t.rec.record(t.local, t.remote, b[:n])
	}
	return n, err
}

func (t *recordingTransport) Read(b []byte) (int, error) {
	n, err := t.Transport.Read(b)
	if err == nil {
		t.rec.record(t.remote, t.local, b[:n])
	}
	return n, err
}

// Frame is one UDP packet from a capture. Err is set, and Message nil,
// when the payload is not an SNMP message this package can decode.
type Frame struct {
	Timestamp time.Time
	Src, Dst  *net.UDPAddr
	Payload   []byte
	Message   *snmp.Message
	Err       error
}

// Read decodes every UDP packet in a pcap stream. Packets that are not
// IP/UDP are skipped.
func Read(r io.Reader) ([]Frame, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create pcap reader: %w", err)
	}
	var frames []Frame
	for {
		data, ci, err := pr.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		packet := gopacket.NewPacket(data, pr.LinkType(), gopacket.Default)
		frame, ok := decodeFrame(packet)
		if !ok {
			continue
		}
		frame.Timestamp = ci.Timestamp
		frames = append(frames, frame)
	}
}

// ReadFile is Read on a named file.
func ReadFile(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func decodeFrame(packet gopacket.Packet) (Frame, bool) {
	var src, dst net.IP
	if l := packet.Layer(layers.LayerTypeIPv4); l != nil {
		ip := l.(*layers.IPv4)
		src, dst = ip.SrcIP, ip.DstIP
	} else if l := packet.Layer(layers.LayerTypeIPv6); l != nil {
		ip := l.(*layers.IPv6)
		src, dst = ip.SrcIP, ip.DstIP
	} else {
		return Frame{}, false
	}
	l := packet.Layer(layers.LayerTypeUDP)
	if l == nil {
		return Frame{}, false
	}
	udp := l.(*layers.UDP)
	frame := Frame{
		Src:     &net.UDPAddr{IP: src, Port: int(udp.SrcPort)},
		Dst:     &net.UDPAddr{IP: dst, Port: int(udp.DstPort)},
		Payload: udp.Payload,
	}
	frame.Message, frame.Err = snmp.UnmarshalMessage(udp.Payload)
	return frame, true
}
