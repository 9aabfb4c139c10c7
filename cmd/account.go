package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/vinylo/internal/app"
	"github.com/okian/vinylo/internal/domain/model"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Remember a user and import their collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the remembered user",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	user := model.UserContext{Username: args[0], Source: model.Source(cfg.Source)}
	if user.Source == "" {
		user.Source = model.SourceLastFM
	}
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		msg, err := svc.Login(ctx, user)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s). %s\n", user.Username, user.Source, msg)
		return nil
	})
}

func runLogout(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		if err := svc.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	})
}

// currentUser resolves the user for a command and explains how to set one.
func currentUser(ctx context.Context, svc *service.Service) (model.UserContext, error) {
	u, err := svc.ResolveUser(ctx)
	if errors.Is(err, service.ErrNoUser) {
		return u, fmt.Errorf("%w: run `vinylo login <username>` or pass --user", err)
	}
	return u, err
}
