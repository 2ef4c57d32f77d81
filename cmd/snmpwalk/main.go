// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// snmpwalk walks, gets or get-nexts OIDs on one agent.
//
//	snmpwalk [flags] host [oid...]
//	snmpwalk -config sessions.yaml -session core1 [oid...]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/netprobe/snmp"
	"github.com/netprobe/snmp/capture"
)

var (
	community  = flag.String("c", "public", "read community")
	version    = flag.String("v", "2c", "SNMP version: 1 or 2c")
	port       = flag.Uint("p", 161, "agent UDP port")
	retries    = flag.Int("r", 3, "attempts per request")
	timeout    = flag.Duration("t", 2*time.Second, "wait per attempt")
	mode       = flag.String("m", "walk", "walk, get or next")
	configPath = flag.String("config", "", "YAML session file; overrides -c -v -p -r -t")
	session    = flag.String("session", "", "session name in -config")
	pcapPath   = flag.String("pcap", "", "record datagrams to this pcap file")
	debug      = flag.Bool("d", false, "log the session's debugging output")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n\n   %s [flags] host [oid...]\n   %s [flags] -config file -session name [oid...]\n\n",
		filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	os.Exit(snmpwalk(flag.Args()))
}

// snmpwalk returns the exit code, after the session and pcap file are
// closed.
func snmpwalk(args []string) int {
	data, args, err := sessionData(args)
	if err != nil {
		log.Print(err)
		return 1
	}
	oids := make([]snmp.OID, 0, len(args))
	for _, a := range args {
		oid, err := snmp.ParseOID(a)
		if err != nil {
			log.Print(err)
			return 1
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		oids = append(oids, snmp.OID{1, 3, 6, 1, 2, 1})
	}

	s, err := snmp.NewSession(data)
	if err != nil {
		log.Print(err)
		return 1
	}
	if *debug {
		s.Logger = snmp.NewLogger(log.New(os.Stderr, "snmp: ", log.Lmicroseconds))
	}
	if *pcapPath != "" {
		f, err := os.Create(*pcapPath)
		if err != nil {
			log.Print(err)
			return 1
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("closing %s: %v", *pcapPath, err)
			}
		}()
		rec, err := capture.NewRecorder(f)
		if err != nil {
			log.Print(err)
			return 1
		}
		defer func() {
			if err := rec.Err(); err != nil {
				log.Printf("recording to %s: %v", *pcapPath, err)
			}
		}()
		s.Dial = rec.Dialer(nil)
	}
	if err = s.Open(); err != nil {
		log.Printf("Connect err: %v", err)
		return 1
	}
	defer s.Close()

	if err = run(s, oids); err != nil {
		log.Printf("%s error: %v", *mode, err)
		return 1
	}
	return 0
}

func sessionData(args []string) (snmp.SessionData, []string, error) {
	if *configPath != "" {
		cfg, err := snmp.LoadConfig(*configPath)
		if err != nil {
			return snmp.SessionData{}, nil, err
		}
		data, err := cfg.Session(*session)
		return data, args, err
	}
	if len(args) < 1 {
		usage()
	}
	data := snmp.DefaultSessionData(args[0])
	data.Port = uint16(*port)
	data.Retries = *retries
	data.Timeout = *timeout
	data.AddCommunity(*community, snmp.RO)
	switch *version {
	case "1", "v1":
		data.Version = snmp.Version1
	case "2", "2c", "v2c":
		data.Version = snmp.Version2c
	default:
		return data, nil, fmt.Errorf("unsupported version %s", strconv.Quote(*version))
	}
	return data, args[1:], nil
}

func run(s *snmp.Session, oids []snmp.OID) error {
	switch *mode {
	case "get", "next":
		get := s.Get
		if *mode == "next" {
			get = s.GetNext
		}
		vbl, err := get(oids...)
		if err != nil {
			return err
		}
		for _, vb := range vbl {
			printValue(vb)
		}
		return nil
	case "walk":
		for _, oid := range oids {
			err := s.GetTable(oid, func(vb snmp.VarBind) error {
				printValue(vb)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}
}

func printValue(vb snmp.VarBind) {
	if vb.Value == nil {
		fmt.Printf("%s = NULL\n", vb.Name)
		return
	}
	fmt.Printf("%s = %s: %s\n", vb.Name, vb.Value.Type(), vb.Value)
}
