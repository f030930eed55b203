// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

// Named option presets, adapted from the teacher package's netopts.go: there,
// a transport kind (TCP/UDP/WebSocket/...) selected a (Protocol, ByteOrder)
// pair. Cap'n Proto's stream format has exactly one wire shape regardless of
// transport, so there is nothing to select there; instead these presets pick
// (TraversalLimitWords, SlabCapacity) pairs for common deployment shapes.

// WithDefaultLimits configures the traversal limit and Slab capacity used by
// the Cap'n Proto reference implementations: 64 MiB messages, 4 KiB Slabs.
func WithDefaultLimits() Option {
	return func(o *Options) {
		o.TraversalLimitWords = defaultTraversalLimitWords
		o.SlabCapacity = defaultSlabCapacity
	}
}

// WithLargeMessageLimits raises the traversal limit for workloads that
// legitimately exchange large messages (e.g. bulk data transfer), and grows
// the default Slab capacity accordingly so typical messages fit in one Slab.
func WithLargeMessageLimits() Option {
	return func(o *Options) {
		o.TraversalLimitWords = 512 << 20 / wordSize // 512 MiB
		o.SlabCapacity = 1 << 20                     // 1 MiB
	}
}

// WithStrictLimits tightens the traversal limit for untrusted peers, e.g. a
// server accepting connections from the public internet, at the cost of
// rejecting legitimately large messages.
func WithStrictLimits() Option {
	return func(o *Options) {
		o.TraversalLimitWords = 1 << 20 / wordSize // 1 MiB
		o.SlabCapacity = 4096
	}
}
