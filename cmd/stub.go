package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/okian/vinylo/internal/adapters/http/stub"
	"github.com/okian/vinylo/internal/adapters/repository"
	"github.com/okian/vinylo/pkg/logger"
)

var serveStubCmd = &cobra.Command{
	Use:   "serve-stub",
	Short: "Run the in-memory development backend",
	Long:  "Serves the album ranking REST API from memory. Pools are seeded from a legacy {user}_data.json export or generated demo albums.",
	Args:  cobra.NoArgs,
	RunE:  runServeStub,
}

var (
	stubAddr      string
	stubSeedFile  string
	stubSeedDir   string
	stubThreshold int
	stubDemoSize  int
	stubDemoSeed  uint64
)

func init() {
	serveStubCmd.Flags().StringVar(&stubAddr, "addr", "", "Listen address (default from stub_addr)")
	serveStubCmd.Flags().StringVar(&stubSeedFile, "seed-file", "", "Legacy JSON export to import for every user (default from stub_seed_file)")
	serveStubCmd.Flags().StringVar(&stubSeedDir, "seed-dir", ".", "Directory searched for {user}_data.json")
	serveStubCmd.Flags().IntVar(&stubThreshold, "threshold", -1, "Default scrobble threshold (default from stub_scrobble_threshold)")
	serveStubCmd.Flags().IntVar(&stubDemoSize, "demo-size", stub.DefaultDemoSize, "Albums generated for users without an export")
	serveStubCmd.Flags().Uint64Var(&stubDemoSeed, "demo-seed", 1, "Seed for generated demo albums")
	rootCmd.AddCommand(serveStubCmd)
}

func runServeStub(cmd *cobra.Command, _ []string) error {
	addr := cfg.StubAddr
	if stubAddr != "" {
		addr = stubAddr
	}
	threshold := cfg.StubScrobbleThreshold
	if stubThreshold >= 0 {
		threshold = stubThreshold
	}
	seedFile := cfg.StubSeedFile
	if stubSeedFile != "" {
		seedFile = stubSeedFile
	}

	log := logger.Get().Named("stub")
	srv := stub.NewServer(
		repository.NewAlbumStore(repository.WithDefaultThreshold(threshold)),
		stub.WithLogger(log),
		stub.WithSeedFile(seedFile),
		stub.WithSeedDir(stubSeedDir),
		stub.WithDemoSize(stubDemoSize),
		stub.WithDemoSeed(stubDemoSeed),
	)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Development backend listening on http://%s/api\n", ln.Addr())
	return serve(cmd.Context(), newHTTPServer(addr, srv.Handler()), ln, log)
}
