// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

// Options configures a MessageStream. It follows the teacher package's
// functional-options pattern (Option/Options/defaultOptions).
type Options struct {
	// TraversalLimitWords caps the total size, in words, of an inbound
	// message (spec.md §6). Exceeding it yields a *MessageTooLargeError.
	TraversalLimitWords uint64

	// SlabCapacity is the capacity, in bytes, of a freshly allocated Slab
	// when the active one lacks room for the next needed read (spec.md
	// §4.2). Growth is demand-sized, not exponential: a single read that
	// needs more than SlabCapacity gets a Slab sized to fit it.
	SlabCapacity int

	// RetryPolicy governs what PollRead/PollWrite do when the transport
	// reports ErrWouldBlock. nil means return ErrWouldBlock to the caller
	// immediately (pure non-blocking mode, matching spec.md's poll_read/
	// poll_write contract). A non-nil policy lets MessageStream emulate a
	// blocking API on top of a non-blocking transport, the way the teacher
	// package's RetryDelay does for framer.
	RetryPolicy RetryPolicy
}

// defaultTraversalLimitWords matches the Cap'n Proto reference
// implementations' default traversal limit of 64 MiB, expressed in words.
const defaultTraversalLimitWords = 64 << 20 / wordSize

var defaultOptions = Options{
	TraversalLimitWords: defaultTraversalLimitWords,
	SlabCapacity:         defaultSlabCapacity,
	RetryPolicy:          nil, // default: nonblock
}

// Option configures Options.
type Option func(*Options)

// WithTraversalLimitWords overrides the traversal limit (spec.md §6).
func WithTraversalLimitWords(words uint64) Option {
	return func(o *Options) { o.TraversalLimitWords = words }
}

// WithSlabCapacity overrides the default Slab capacity used for buffer
// growth (spec.md §4.2).
func WithSlabCapacity(bytes int) Option {
	return func(o *Options) { o.SlabCapacity = bytes }
}

// WithRetryPolicy sets the policy used when a transport reports
// ErrWouldBlock.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Options) { o.RetryPolicy = p }
}

// WithBlock enables cooperative blocking: on ErrWouldBlock, yield the
// goroutine and retry, rather than returning to the caller.
func WithBlock() Option {
	return func(o *Options) { o.RetryPolicy = YieldRetryPolicy{} }
}

// WithNonblock forces non-blocking behavior: ErrWouldBlock is returned to
// the caller immediately. This is the default.
func WithNonblock() Option {
	return func(o *Options) { o.RetryPolicy = nil }
}
