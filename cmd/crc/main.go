// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command crc is a checksum server and client built on capnstream, the Go
// analogue of the Rust origin's docopt-based crc-server example binary
// (server / checksum subcommands).
package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"

	"github.com/c2h5oh/datasize"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"code.hybscloud.com/capnstream/internal/crcexample"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crc",
		Short: "A checksum server and client built on capnstream",
	}
	root.AddCommand(newServeCmd(), newChecksumCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		address             string
		traversalLimitWords uint64
		slabCapacityStr     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a checksum server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var slabCapacity datasize.ByteSize
			if err := slabCapacity.UnmarshalText([]byte(slabCapacityStr)); err != nil {
				return fmt.Errorf("crc: parsing --slab-capacity %q: %w", slabCapacityStr, err)
			}

			log, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("crc: building logger: %w", err)
			}
			defer log.Sync()

			cfg := crcexample.ServerConfig{
				Address:             address,
				TraversalLimitWords: traversalLimitWords,
				SlabCapacityBytes:   int(slabCapacity.Bytes()),
			}

			ln, err := net.Listen("tcp", cfg.Address)
			if err != nil {
				return fmt.Errorf("crc: listening on %s: %w", cfg.Address, err)
			}
			log.Info("checksum server listening",
				zap.String("address", cfg.Address),
				zap.String("slab_capacity", humanize.Bytes(slabCapacity.Bytes())),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return crcexample.NewServer(cfg, log).Serve(ctx, ln)
		},
	}

	cmd.Flags().StringVar(&address, "address", "127.0.0.1:8989", "listen address")
	cmd.Flags().Uint64Var(&traversalLimitWords, "traversal-limit-words", 0, "maximum inbound message size, in words (0 = capnstream default)")
	cmd.Flags().StringVar(&slabCapacityStr, "slab-capacity", "4KiB", "buffer size used when growing the read Slab, e.g. 4KiB, 1MiB")

	return cmd
}

func newChecksumCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "checksum",
		Short: "Read data from stdin and request its checksum from a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("crc: reading stdin: %w", err)
			}

			crc, err := crcexample.ChecksumRemote(address, data)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "0x%X (%s processed)\n", crc, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "127.0.0.1:8989", "server address")
	return cmd
}
