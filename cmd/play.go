package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/vinylo/internal/adapters/snapshot"
	service "github.com/okian/vinylo/internal/app"
	"github.com/okian/vinylo/internal/domain/session"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Vote on album matchups in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

var playOutDir string

func init() {
	playCmd.Flags().StringVarP(&playOutDir, "out", "o", ".", "Directory for saved matchup images")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		user, err := currentUser(ctx, svc)
		if err != nil {
			return err
		}
		startMetrics(ctx, cfg.MetricsAddr)

		id, c, err := svc.NewSession(ctx, user)
		if err != nil {
			return err
		}
		defer func() { _ = svc.CloseSession(id) }()

		p := &player{
			c:            c,
			hideTutorial: func(ctx context.Context) error { return svc.DismissTutorial(ctx, id) },
			in:           cmd.InOrStdin(),
			out:          cmd.OutOrStdout(),
			outDir:       playOutDir,
		}
		return p.run(ctx)
	})
}

// player connects one session to a line-oriented terminal.
type player struct {
	c            *session.Controller
	hideTutorial func(ctx context.Context) error
	in           io.Reader
	out          io.Writer
	outDir       string

	last string
}

// run renders every new view and applies input lines until quit, end of
// input, or the session closes.
func (p *player) run(ctx context.Context) error {
	views, stop := p.c.Subscribe()
	defer stop()

	done := make(chan struct{})
	defer close(done)
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(p.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-views:
			if !ok {
				return nil
			}
			p.render(v)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := p.handle(ctx, line)
			if err != nil {
				fmt.Fprintf(p.out, "! %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func (p *player) render(v session.View) {
	s := renderView(v)
	if s == p.last {
		return
	}
	p.last = s
	fmt.Fprint(p.out, "\n"+s)
}

func (p *player) handle(ctx context.Context, line string) (bool, error) {
	a, err := parseInput(line)
	if err != nil {
		return false, err
	}
	switch a.kind {
	case actQuit:
		return true, nil
	case actVote:
		return false, p.c.Vote(ctx, a.pos)
	case actExclude:
		m := p.c.View().Matchup
		if m.IsZero() {
			return false, session.ErrNoMatchup
		}
		return false, p.c.Exclude(ctx, m.Item(a.pos).ID)
	case actRetry:
		return false, p.c.Retry(ctx)
	case actDismiss:
		return false, p.c.DismissNotice(ctx)
	case actTutorial:
		if p.c.View().ShowTutorial {
			return false, p.hideTutorial(ctx)
		}
		return false, p.c.SetTutorialVisible(ctx, true)
	case actSnapshot:
		path, err := p.saveSnapshot(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(p.out, "Saved %s\n", path)
	}
	return false, nil
}

func (p *player) saveSnapshot(ctx context.Context) (string, error) {
	img, err := p.c.RequestSnapshot(ctx)
	if err != nil {
		return "", err
	}
	path := filepath.Join(p.outDir, snapshot.ShareFileName)
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
