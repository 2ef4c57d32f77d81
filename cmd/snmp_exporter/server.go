// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/netprobe/snmp"
	"github.com/netprobe/snmp/metrics"
)

// Server answers HTTP queries against the configured sessions. A Session
// serves one caller at a time, so each target has its own lock.
type Server struct {
	cfg       *snmp.Config
	registry  *prometheus.Registry
	collector *metrics.Collector
	logger    *slog.Logger

	// dial is handed to every session; nil dials UDP.
	dial snmp.Dialer

	mu      sync.Mutex
	targets map[string]*target
}

type target struct {
	sync.Mutex
	session *snmp.Session
}

func NewServer(cfg *snmp.Config, logger *slog.Logger) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		cfg:       cfg,
		registry:  reg,
		collector: metrics.NewCollector(reg, ""),
		logger:    logger,
		targets:   make(map[string]*target),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Heartbeat("/health"))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/api/v1/sessions", s.Sessions)
	r.Get("/api/v1/get/{session}", s.Get)
	r.Get("/api/v1/walk/{session}", s.Walk)
	return r
}

// Close releases every open session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.targets {
		t.Lock()
		if err := t.session.Close(); err != nil {
			s.logger.Warn("closing session", "session", name, "err", err)
		}
		t.Unlock()
	}
}

func (s *Server) target(name string) (*target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.targets[name]; ok {
		return t, nil
	}
	data, err := s.cfg.Session(name)
	if err != nil {
		return nil, err
	}
	session, err := snmp.NewSession(data)
	if err != nil {
		return nil, err
	}
	session.Dial = s.dial
	session.Logger = snmp.NewLogger(slog.NewLogLogger(s.logger.Handler().WithAttrs([]slog.Attr{slog.String("session", name)}), slog.LevelDebug))
	s.collector.Instrument(session)
	t := &target{session: session}
	s.targets[name] = t
	return t, nil
}

type sessionInfo struct {
	Name    string           `yaml:"name"`
	Agent   string           `yaml:"agent"`
	Version snmp.SnmpVersion `yaml:"version"`
}

// Sessions lists the configured sessions as YAML, without communities.
func (s *Server) Sessions(w http.ResponseWriter, r *http.Request) {
	infos := make([]sessionInfo, len(s.cfg.Sessions))
	for i, sd := range s.cfg.Sessions {
		infos[i] = sessionInfo{Name: sd.Name, Agent: sd.Address(), Version: sd.Version}
	}
	w.Header().Set("Content-Type", "application/yaml")
	if err := yaml.NewEncoder(w).Encode(infos); err != nil {
		s.logger.Error("encoding sessions", "err", err)
	}
}

// Get fetches the oid query parameters.
func (s *Server) Get(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, func(session *snmp.Session, oids []snmp.OID) (snmp.VarBindList, error) {
		return session.Get(oids...)
	})
}

// Walk walks every oid query parameter.
func (s *Server) Walk(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, func(session *snmp.Session, oids []snmp.OID) (snmp.VarBindList, error) {
		var vbl snmp.VarBindList
		for _, oid := range oids {
			found, err := session.WalkAll(oid)
			if err != nil {
				return nil, err
			}
			vbl = append(vbl, found...)
		}
		return vbl, nil
	})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request, fn func(*snmp.Session, []snmp.OID) (snmp.VarBindList, error)) {
	name := chi.URLParam(r, "session")
	oids, err := parseOIDs(r.URL.Query()["oid"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t, err := s.target(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	t.Lock()
	err = t.session.Open()
	var vbl snmp.VarBindList
	if err == nil {
		vbl, err = fn(t.session, oids)
	}
	t.Unlock()

	if err != nil {
		s.logger.Warn("query failed", "session", name, "err", err)
		http.Error(w, err.Error(), statusCode(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, vb := range vbl {
		fmt.Fprintln(w, vb)
	}
}

func parseOIDs(params []string) ([]snmp.OID, error) {
	if len(params) == 0 {
		return nil, errors.New("missing oid parameter")
	}
	oids := make([]snmp.OID, len(params))
	for i, p := range params {
		oid, err := snmp.ParseOID(p)
		if err != nil {
			return nil, err
		}
		oids[i] = oid
	}
	return oids, nil
}

func statusCode(err error) int {
	var perr *snmp.ProtocolError
	switch {
	case errors.Is(err, snmp.ErrNoResponse):
		return http.StatusGatewayTimeout
	case errors.As(err, &perr):
		return http.StatusBadGateway
	case errors.Is(err, snmp.ErrNoCommunity):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
