// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Access is the right a community string grants.
type Access int

const (
	RO Access = iota
	RW
)

func (a Access) String() string {
	if a == RW {
		return "rw"
	}
	return "ro"
}

func (a *Access) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(value.Value) {
	case "ro", "read-only", "readonly":
		*a = RO
	case "rw", "read-write", "readwrite":
		*a = RW
	default:
		return fmt.Errorf("line %d: unknown access %q, want ro or rw", value.Line, value.Value)
	}
	return nil
}

func (a Access) MarshalYAML() (any, error) {
	return a.String(), nil
}

func (s *SnmpVersion) UnmarshalYAML(value *yaml.Node) error {
	// human version names, not wire values: "1" is SNMPv1
	switch strings.TrimPrefix(strings.ToLower(value.Value), "v") {
	case "1":
		*s = Version1
	case "2", "2c":
		*s = Version2c
	case "3":
		*s = Version3
	default:
		return fmt.Errorf("line %d: unknown SNMP version %q", value.Line, value.Value)
	}
	return nil
}

func (s SnmpVersion) MarshalYAML() (any, error) {
	return s.String(), nil
}

type Community struct {
	Name   string `yaml:"name"`
	Access Access `yaml:"access"`
}

// SessionData holds everything needed to talk to one agent.
type SessionData struct {
	Name        string        `yaml:"name"`
	Agent       string        `yaml:"agent"`
	Port        uint16        `yaml:"port"`
	Communities []Community   `yaml:"communities"`
	Retries     int           `yaml:"retries"`
	Timeout     time.Duration `yaml:"timeout"`
	Version     SnmpVersion   `yaml:"version"`

	// User selects the user-based framework, which is not implemented.
	User string `yaml:"user,omitempty"`
}

const (
	defaultPort    = 161
	defaultRetries = 3
	defaultTimeout = 10 * time.Second
)

// DefaultSessionData returns SNMPv2c, port 161, three tries and a ten
// second timeout, with no communities.
func DefaultSessionData(agent string) SessionData {
	return SessionData{
		Agent:   agent,
		Port:    defaultPort,
		Retries: defaultRetries,
		Timeout: defaultTimeout,
		Version: Version2c,
	}
}

// UnmarshalYAML starts from DefaultSessionData so omitted keys keep their
// defaults.
func (d *SessionData) UnmarshalYAML(value *yaml.Node) error {
	type plain SessionData
	p := plain(DefaultSessionData(""))
	if err := value.Decode(&p); err != nil {
		return err
	}
	*d = SessionData(p)
	return nil
}

func (d *SessionData) AddCommunity(name string, access Access) {
	d.Communities = append(d.Communities, Community{Name: name, Access: access})
}

// Community returns the first community with the given access.
func (d *SessionData) Community(access Access) (string, bool) {
	for _, c := range d.Communities {
		if c.Access == access {
			return c.Name, true
		}
	}
	return "", false
}

// ReadCommunity prefers a read-only community and falls back to a
// read-write one.
func (d *SessionData) ReadCommunity() (string, error) {
	if c, ok := d.Community(RO); ok {
		return c, nil
	}
	if c, ok := d.Community(RW); ok {
		return c, nil
	}
	return "", ErrNoCommunity
}

func (d *SessionData) WriteCommunity() (string, error) {
	if c, ok := d.Community(RW); ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: set needs a read-write community", ErrNoCommunity)
}

// Address is the agent's host:port.
func (d *SessionData) Address() string {
	return net.JoinHostPort(d.Agent, strconv.Itoa(int(d.Port)))
}

func (d SessionData) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Agent:         %s\n", d.Agent)
	fmt.Fprintf(&sb, "Communities:   %v\n", d.Communities)
	fmt.Fprintf(&sb, "SNMP retries:  %d\n", d.Retries)
	fmt.Fprintf(&sb, "SNMP timeout:  %s\n", d.Timeout)
	fmt.Fprintf(&sb, "SNMP port:     %d\n", d.Port)
	fmt.Fprintf(&sb, "SNMP version:  %s", d.Version)
	return sb.String()
}

// -- config file --------------------------------------------------------------

// Config is the YAML file format:
//
//	sessions:
//	  - name: core1
//	    agent: 192.0.2.1
//	    version: 2c
//	    timeout: 2s
//	    communities:
//	      - {name: public, access: ro}
//	      - {name: private, access: rw}
type Config struct {
	Sessions []SessionData `yaml:"sessions"`
}

func ParseConfig(b []byte) (*Config, error) {
	cfg := new(Config)
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	seen := make(map[string]bool)
	for i, sd := range cfg.Sessions {
		if sd.Agent == "" {
			return nil, fmt.Errorf("session %d (%q): agent is required", i, sd.Name)
		}
		if sd.Name == "" {
			cfg.Sessions[i].Name = sd.Agent
		}
		if seen[cfg.Sessions[i].Name] {
			return nil, fmt.Errorf("duplicate session name %q", cfg.Sessions[i].Name)
		}
		seen[cfg.Sessions[i].Name] = true
	}
	return cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

var errUnknownSession = errors.New("unknown session")

// Session looks a session up by name.
func (c *Config) Session(name string) (SessionData, error) {
	for _, sd := range c.Sessions {
		if sd.Name == name {
			return sd, nil
		}
	}
	return SessionData{}, fmt.Errorf("%w %q", errUnknownSession, name)
}
