package main

import (
	"context"
	"fmt"
	"io"

	"github.com/DenisKhanov/BookingBot/internal/booking/config"
	"github.com/DenisKhanov/BookingBot/internal/booking/directory"
	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/DenisKhanov/BookingBot/internal/booking/repository"
	"github.com/spf13/cobra"
)

// directoryOptions holds flags shared by the directory commands.
type directoryOptions struct {
	cooperator models.Cooperator
	service    models.Service
}

func newDirectoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Manage cooperators and services",
	}

	cmd.AddCommand(newAddCooperatorCommand())
	cmd.AddCommand(newAddServiceCommand())
	cmd.AddCommand(newListCommand())

	return cmd
}

func newAddCooperatorCommand() *cobra.Command {
	opts := &directoryOptions{}

	cmd := &cobra.Command{
		Use:     "add-cooperator",
		Short:   "Add a cooperator",
		Example: `  bookingbot directory add-cooperator --id 3 --branch 12 --name "Иванова Анна"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDirectory(cmd.Context(), func(ctx context.Context, d *directory.Directory) error {
				if err := d.AddCooperator(ctx, opts.cooperator); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cooperator %d added\n", opts.cooperator.ID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&opts.cooperator.ID, "id", 0, "cooperator id in Rubitime (required)")
	cmd.Flags().Int64Var(&opts.cooperator.BranchID, "branch", 0, "branch id (required)")
	cmd.Flags().StringVar(&opts.cooperator.Name, "name", "", "display name (required)")
	for _, name := range []string{"id", "branch", "name"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newAddServiceCommand() *cobra.Command {
	opts := &directoryOptions{}

	cmd := &cobra.Command{
		Use:     "add-service",
		Short:   "Add a service offered by a cooperator",
		Example: `  bookingbot directory add-service --id 7 --branch 12 --cooperator 3 --name "Осмотр" --price 1500 --duration 30`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDirectory(cmd.Context(), func(ctx context.Context, d *directory.Directory) error {
				if err := d.AddService(ctx, opts.service); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %d added to cooperator %d\n", opts.service.ID, opts.service.CooperatorID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&opts.service.ID, "id", 0, "service id in Rubitime (required)")
	cmd.Flags().Int64Var(&opts.service.BranchID, "branch", 0, "branch id (required)")
	cmd.Flags().Int64Var(&opts.service.CooperatorID, "cooperator", 0, "cooperator offering the service (required)")
	cmd.Flags().StringVar(&opts.service.Name, "name", "", "display name (required)")
	cmd.Flags().Float64Var(&opts.service.Price, "price", 0, "price")
	cmd.Flags().IntVar(&opts.service.Duration, "duration", 0, "duration in minutes (required)")
	for _, name := range []string{"id", "branch", "cooperator", "name", "duration"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cooperators with their services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDirectory(cmd.Context(), func(ctx context.Context, d *directory.Directory) error {
				cooperators, err := d.GetCooperators(ctx, true)
				if err != nil {
					return err
				}
				printDirectory(cmd.OutOrStdout(), cooperators)
				return nil
			})
		},
	}
}

func printDirectory(w io.Writer, cooperators []models.Cooperator) {
	if len(cooperators) == 0 {
		fmt.Fprintln(w, "directory is empty")
		return
	}
	for _, c := range cooperators {
		fmt.Fprintf(w, "%d\t%s\t(branch %d)\n", c.ID, c.Name, c.BranchID)
		for _, s := range c.Services {
			fmt.Fprintf(w, "\t%d\t%s\t%.2f\t%d min\n", s.ID, s.Name, s.Price, s.Duration)
		}
	}
}

// withDirectory opens the store described by the environment and runs fn against it.
func withDirectory(ctx context.Context, fn func(context.Context, *directory.Directory) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.NewStorageConfig()
	if err != nil {
		return err
	}
	workday, err := cfg.Workday()
	if err != nil {
		return err
	}

	db, err := repository.Open(ctx, cfg.EnvDBDriver, cfg.EnvDBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	d := directory.NewDirectory(repository.NewDirectoryRepository(db), 0, workday, nil)
	return fn(ctx, d)
}
