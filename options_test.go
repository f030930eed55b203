// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	assert.Equal(t, uint64(64<<20/wordSize), defaultOptions.TraversalLimitWords)
	assert.Equal(t, defaultSlabCapacity, defaultOptions.SlabCapacity)
	assert.Nil(t, defaultOptions.RetryPolicy)
}

func TestOptionSetters(t *testing.T) {
	o := defaultOptions
	WithTraversalLimitWords(10)(&o)
	WithSlabCapacity(123)(&o)
	WithBlock()(&o)

	assert.EqualValues(t, 10, o.TraversalLimitWords)
	assert.Equal(t, 123, o.SlabCapacity)
	assert.Equal(t, YieldRetryPolicy{}, o.RetryPolicy)

	WithNonblock()(&o)
	assert.Nil(t, o.RetryPolicy)
}

func TestPresets(t *testing.T) {
	var o Options
	WithDefaultLimits()(&o)
	assert.Equal(t, uint64(defaultTraversalLimitWords), o.TraversalLimitWords)
	assert.Equal(t, defaultSlabCapacity, o.SlabCapacity)

	WithLargeMessageLimits()(&o)
	assert.Equal(t, uint64(512<<20/wordSize), o.TraversalLimitWords)
	assert.Equal(t, 1<<20, o.SlabCapacity)

	WithStrictLimits()(&o)
	assert.Equal(t, uint64(1<<20/wordSize), o.TraversalLimitWords)
	assert.Equal(t, 4096, o.SlabCapacity)
}

func TestNewMessageStreamAppliesOptions(t *testing.T) {
	ms := NewMessageStream(nil, WithSlabCapacity(64))
	assert.Equal(t, 64, ms.buf.Capacity())
}
