// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package metrics exports SNMP session activity as Prometheus metrics.
package metrics

import (
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netprobe/snmp"
)

// Collector holds the metric vectors shared by every instrumented session.
type Collector struct {
	requests  *prometheus.CounterVec
	retries   *prometheus.CounterVec
	responses *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewCollector creates the vectors and registers them with reg, which may
// be nil.
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snmp_requests_sent_total",
			Help:      "SNMP request datagrams sent, retries included.",
		}, []string{"target", "pdu"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snmp_retries_total",
			Help:      "SNMP requests sent again after a timeout.",
		}, []string{"target"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snmp_responses_total",
			Help:      "SNMP responses matched to a request, by error-status.",
		}, []string{"target", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snmp_request_failures_total",
			Help:      "SNMP requests that got no usable response.",
		}, []string{"target", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snmp_request_duration_seconds",
			Help:      "SNMP request latency, retries included.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"target"}),
	}
	if reg != nil {
		reg.MustRegister(c.requests, c.retries, c.responses, c.failures, c.duration)
	}
	return c
}

// Instrument chains the collector onto the session's hooks, keeping any
// hooks already set.
func (c *Collector) Instrument(s *snmp.Session) {
	target := Target(s)

	prevSent := s.OnSent
	s.OnSent = func(s *snmp.Session, msg *snmp.Message) {
		c.requests.WithLabelValues(target, msg.PDU.PDUType().String()).Inc()
		if prevSent != nil {
			prevSent(s, msg)
		}
	}

	prevRecv := s.OnRecv
	s.OnRecv = func(s *snmp.Session, msg *snmp.Message) {
		status := snmp.NoError
		if p, ok := msg.PDU.(*snmp.ImplicitPDU); ok {
			status = p.ErrorStatus
		}
		c.responses.WithLabelValues(target, status.String()).Inc()
		if prevRecv != nil {
			prevRecv(s, msg)
		}
	}

	prevRetry := s.OnRetry
	s.OnRetry = func(s *snmp.Session, attempt int) {
		c.retries.WithLabelValues(target).Inc()
		if prevRetry != nil {
			prevRetry(s, attempt)
		}
	}

	prevFinish := s.OnFinish
	s.OnFinish = func(s *snmp.Session, elapsed time.Duration, err error) {
		c.duration.WithLabelValues(target).Observe(elapsed.Seconds())
		if err != nil {
			c.failures.WithLabelValues(target, Reason(err)).Inc()
		}
		if prevFinish != nil {
			prevFinish(s, elapsed, err)
		}
	}
}

// Target is the label value for s: its name, or its agent address.
func Target(s *snmp.Session) string {
	if s.Name != "" {
		return s.Name
	}
	return s.Address()
}

// Reason is a short label value for a request error.
func Reason(err error) string {
	var perr *snmp.ProtocolError
	var nerr net.Error
	switch {
	case errors.Is(err, snmp.ErrNoResponse):
		return "timeout"
	case errors.As(err, &perr):
		return perr.Status.String()
	case errors.Is(err, snmp.ErrDecode):
		return "decode"
	case errors.Is(err, snmp.ErrOverflow), errors.Is(err, snmp.ErrBadVersion):
		return "encode"
	case errors.As(err, &nerr):
		return "network"
	default:
		return "other"
	}
}
