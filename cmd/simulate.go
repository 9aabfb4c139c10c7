package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/vinylo/internal/adapters/backend"
	"github.com/okian/vinylo/internal/adapters/http/stub"
	"github.com/okian/vinylo/internal/adapters/repository"
	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/internal/simulate"
	"github.com/okian/vinylo/pkg/logger"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive many concurrent voting sessions against a backend",
	Long:  "Runs concurrent sessions that vote and ignore albums at random, then prints a summary. With --local the sessions run against an in-process development backend.",
	Args:  cobra.NoArgs,
	RunE:  runSimulate,
}

var (
	simSessions       int
	simRounds         int
	simExcludePercent int
	simUserPrefix     string
	simInit           bool
	simSeed           uint64
	simRoundTimeout   time.Duration
	simSettle         time.Duration
	simLocal          bool
)

func init() {
	f := simulateCmd.Flags()
	f.IntVarP(&simSessions, "sessions", "c", simulate.DefaultSessions, "Concurrent sessions")
	f.IntVarP(&simRounds, "rounds", "n", simulate.DefaultRounds, "Decisions per session")
	f.IntVar(&simExcludePercent, "exclude-percent", simulate.DefaultExcludePercent, "Chance in percent that a round ignores an album")
	f.StringVar(&simUserPrefix, "user-prefix", "sim", "Sessions vote as <prefix>-<n>")
	f.BoolVar(&simInit, "init", true, "Import each simulated user before voting")
	f.Uint64Var(&simSeed, "seed", 1, "Random seed for the choices sessions make")
	f.DurationVar(&simRoundTimeout, "round-timeout", simulate.DefaultRoundTimeout, "Upper bound for one round")
	f.DurationVar(&simSettle, "settle", simulate.DefaultSettleInterval, "Overlay time between pairs")
	f.BoolVar(&simLocal, "local", false, "Run against an in-process development backend")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logger.Get().Named("simulate")
	startMetrics(ctx, cfg.MetricsAddr)

	baseURL := cfg.BaseURL
	if simLocal {
		url, stop, err := startLocalBackend(ctx, log)
		if err != nil {
			return err
		}
		defer stop()
		baseURL = url
	}

	client, err := backend.New(baseURL,
		backend.WithTimeout(cfg.RequestTimeout()),
		backend.WithLogger(log.Named("backend")))
	if err != nil {
		return err
	}

	source := model.Source(cfg.Source)
	stats, err := simulate.Run(ctx, simulate.Config{
		Sessions:       simSessions,
		Rounds:         simRounds,
		ExcludePercent: simExcludePercent,
		UserPrefix:     simUserPrefix,
		Source:         source,
		Init:           simInit,
		Seed:           simSeed,
		RoundTimeout:   simRoundTimeout,
		SettleInterval: simSettle,
	}, client)
	fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
	return err
}

// startLocalBackend serves a fresh development backend on a loopback port.
func startLocalBackend(ctx context.Context, log logger.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen: %w", err)
	}
	srv := stub.NewServer(
		repository.NewAlbumStore(repository.WithDefaultThreshold(cfg.StubScrobbleThreshold)),
		stub.WithLogger(log.Named("stub")),
		stub.WithSeedFile(cfg.StubSeedFile),
	)

	ctx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, newHTTPServer(ln.Addr().String(), srv.Handler()), ln, log) }()
	stop := func() {
		cancel()
		<-errCh
	}
	return "http://" + ln.Addr().String() + "/api", stop, nil
}
