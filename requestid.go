// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
)

// RequestIDSource hands out request-ids. Sessions sharing a source never
// see the same id twice while a request is outstanding.
type RequestIDSource interface {
	NextRequestID() int32
}

// RequestIDs is an atomic counter. It skips zero and wraps from
// math.MaxInt32 back to 1.
type RequestIDs struct {
	last atomic.Int32
}

// NewRequestIDs returns a counter whose first id is seed+1.
func NewRequestIDs(seed int32) *RequestIDs {
	r := new(RequestIDs)
	r.last.Store(seed)
	return r
}

func (r *RequestIDs) NextRequestID() int32 {
	for {
		id := r.last.Add(1)
		if id > 0 {
			return id
		}
		r.last.CompareAndSwap(id, 0)
	}
}

// DefaultRequestIDs is used by sessions that do not set RequestIDs. It
// starts at a random point so ids from an earlier process are unlikely to
// be mistaken for current ones.
var DefaultRequestIDs = NewRequestIDs(rand.Int32N(math.MaxInt32 / 2))
