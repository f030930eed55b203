// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

import (
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy decides what a MessageStream does after observing
// ErrWouldBlock from its transport. It generalizes the teacher package's
// single RetryDelay knob into a pluggable strategy.
type RetryPolicy interface {
	// Wait is called once per ErrWouldBlock observation. It returns false
	// to stop retrying and surface ErrWouldBlock to the caller.
	Wait() bool
	// Reset is called on the read path when a transport read commits at
	// least one byte and then ends in an error (such as ErrWouldBlock), so
	// that policies with growing backoff start over. The write path does
	// not call Reset.
	Reset()
}

// YieldRetryPolicy cooperatively yields the goroutine and always retries.
// It is the direct analogue of the teacher package's RetryDelay == 0.
type YieldRetryPolicy struct{}

func (YieldRetryPolicy) Wait() bool { runtime.Gosched(); return true }
func (YieldRetryPolicy) Reset()     {}

// FixedDelayRetryPolicy sleeps for a fixed duration before each retry,
// analogous to the teacher package's RetryDelay > 0.
type FixedDelayRetryPolicy struct {
	Delay time.Duration
}

func (p FixedDelayRetryPolicy) Wait() bool {
	if p.Delay <= 0 {
		runtime.Gosched()
	} else {
		time.Sleep(p.Delay)
	}
	return true
}

func (p FixedDelayRetryPolicy) Reset() {}

// BackoffRetryPolicy waits with exponentially increasing delay between
// retries, using github.com/cenkalti/backoff/v5. It is useful for clients
// polling a transport that is expected to stay blocked for a while (e.g. a
// slow peer), where yield-and-retry would otherwise burn CPU.
type BackoffRetryPolicy struct {
	backOff *backoff.ExponentialBackOff
}

// NewBackoffRetryPolicy returns a BackoffRetryPolicy using the default
// exponential backoff curve.
func NewBackoffRetryPolicy() *BackoffRetryPolicy {
	return &BackoffRetryPolicy{backOff: backoff.NewExponentialBackOff()}
}

func (p *BackoffRetryPolicy) Wait() bool {
	d := p.backOff.NextBackOff()
	if d == backoff.Stop {
		return false
	}
	time.Sleep(d)
	return true
}

func (p *BackoffRetryPolicy) Reset() {
	p.backOff.Reset()
}
