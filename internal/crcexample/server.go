// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crcexample

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"code.hybscloud.com/capnstream"
)

// ServerConfig is the on-disk configuration for the checksum server,
// decoded from YAML.
type ServerConfig struct {
	Address             string `yaml:"address"`
	TraversalLimitWords uint64 `yaml:"traversal_limit_words"`
	SlabCapacityBytes   int    `yaml:"slab_capacity_bytes"`
}

// LoadServerConfig parses a ServerConfig from YAML bytes, filling in the
// default address when none is given. Limits left at zero stay zero; the
// server then uses capnstream's defaults for them.
func LoadServerConfig(data []byte) (ServerConfig, error) {
	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("crcexample: decoding server config: %w", err)
	}
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8989"
	}
	return cfg, nil
}

// Server is a single-process checksum server: one goroutine per accepted
// connection, each driving a blocking-mode capnstream.MessageStream over
// its net.Conn (spec.md §9: "in a thread-per-connection language it is used
// in blocking mode by calling the same methods on a blocking transport").
type Server struct {
	cfg ServerConfig
	log *zap.Logger
}

// NewServer constructs a Server. log must not be nil.
func NewServer(cfg ServerConfig, log *zap.Logger) *Server {
	return &Server{cfg: cfg, log: log}
}

// Serve accepts connections on ln until ctx is cancelled or a connection
// handler returns a fatal error, at which point it stops accepting and
// waits for in-flight connections to drain.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return g.Wait()
			}
			return fmt.Errorf("crcexample: accept: %w", err)
		}

		connID := uuid.New()
		s.log.Info("connection accepted", zap.String("conn_id", connID.String()), zap.String("remote", conn.RemoteAddr().String()))
		g.Go(func() error {
			defer conn.Close()
			return s.handleConnection(connID, conn)
		})
	}
}

func (s *Server) handleConnection(connID uuid.UUID, conn net.Conn) error {
	log := s.log.With(zap.String("conn_id", connID.String()))

	opts := []capnstream.Option{capnstream.WithBlock()}
	if s.cfg.TraversalLimitWords > 0 {
		opts = append(opts, capnstream.WithTraversalLimitWords(s.cfg.TraversalLimitWords))
	}
	if s.cfg.SlabCapacityBytes > 0 {
		opts = append(opts, capnstream.WithSlabCapacity(s.cfg.SlabCapacityBytes))
	}
	ms := capnstream.NewMessageStream(conn, opts...)

	for {
		msg, err := ms.PollRead()
		if err != nil {
			if errors.Is(err, capnstream.ErrUnexpectedEOF) {
				log.Debug("connection closed by peer")
				return nil
			}
			return fmt.Errorf("crcexample: reading request: %w", err)
		}

		data, err := DecodeRequest(msg)
		msg.Release()
		if err != nil {
			return fmt.Errorf("crcexample: decoding request: %w", err)
		}

		crc := Checksum(data)
		log.Info("computed checksum", zap.Int("bytes", len(data)), zap.Uint32("crc32c", crc))

		if err := ms.Enqueue(EncodeResponse(crc)); err != nil {
			return fmt.Errorf("crcexample: writing response: %w", err)
		}
	}
}
