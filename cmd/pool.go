package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	service "github.com/okian/vinylo/internal/app"
	"github.com/okian/vinylo/internal/domain/model"
)

var ignoredCmd = &cobra.Command{
	Use:   "ignored",
	Short: "List albums excluded from matchups",
	Args:  cobra.NoArgs,
	RunE:  runIgnored,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <album-id>",
	Short: "Return an ignored album to the matchup pool",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the current ranking",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var thresholdCmd = &cobra.Command{
	Use:   "threshold [playcount]",
	Short: "Show or change the minimum playcount for matchups",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runThreshold,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every album and rating in the pool",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var (
	statsLimit int
	resetYes   bool
)

// ErrNotConfirmed is returned when a destructive command lacks --yes.
var ErrNotConfirmed = errors.New("refusing to reset without --yes")

func init() {
	statsCmd.Flags().IntVarP(&statsLimit, "limit", "n", 20, "Number of albums to show (0 for all)")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm deleting the pool")
	rootCmd.AddCommand(ignoredCmd, restoreCmd, statsCmd, thresholdCmd, resetCmd)
}

func runIgnored(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		user, err := currentUser(ctx, svc)
		if err != nil {
			return err
		}
		items, err := svc.Ignored(ctx, user)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No ignored albums.")
			return nil
		}
		return writeItems(out, items, false)
	})
}

func runRestore(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid album id %q", args[0])
	}
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		if err := svc.Restore(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Album %d restored.\n", id)
		return nil
	})
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		user, err := currentUser(ctx, svc)
		if err != nil {
			return err
		}
		items, err := svc.Ranking(ctx, user)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s albums ranked for %s (%s)\n", humanize.Comma(int64(len(items))), user.Username, user.Source)
		if statsLimit > 0 && len(items) > statsLimit {
			items = items[:statsLimit]
		}
		return writeItems(out, items, true)
	})
}

func runThreshold(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		user, err := currentUser(ctx, svc)
		if err != nil {
			return err
		}
		var n int
		if len(args) == 1 {
			v, perr := strconv.Atoi(args[0])
			if perr != nil || v < 0 {
				return fmt.Errorf("invalid playcount %q", args[0])
			}
			n, err = svc.SetThreshold(ctx, user, v)
		} else {
			n, err = svc.Threshold(ctx, user)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scrobble threshold: %s plays\n", humanize.Comma(int64(n)))
		return nil
	})
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return ErrNotConfirmed
	}
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		user, err := currentUser(ctx, svc)
		if err != nil {
			return err
		}
		n, err := svc.Reset(ctx, user)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s albums for %s.\n", humanize.Comma(int64(n)), user.Username)
		return nil
	})
}

// writeItems prints albums as an aligned table.
func writeItems(w io.Writer, items []model.Item, ranked bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if ranked {
		fmt.Fprintln(tw, "#\tID\tALBUM\tARTIST\tSCORE")
	} else {
		fmt.Fprintln(tw, "ID\tALBUM\tARTIST\tSCORE")
	}
	for i, it := range items {
		if ranked {
			fmt.Fprintf(tw, "%d\t", i+1)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", it.ID, it.Name, it.ArtistName, model.RoundScore(it.StrengthScore))
	}
	return tw.Flush()
}
