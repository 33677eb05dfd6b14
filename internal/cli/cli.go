package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/sistemact/internal/app"
	"github.com/Additional-Code/sistemact/internal/integration"
	"github.com/Additional-Code/sistemact/internal/migration"
	"github.com/Additional-Code/sistemact/internal/seeder"
	"github.com/Additional-Code/sistemact/internal/service/auth"
	"github.com/Additional-Code/sistemact/internal/service/salesync"
)

// NewRootCommand builds the root sistemact CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sistemact",
		Short:         "Sistema CT sales backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newAuthCmd())

	return root
}

// Execute runs the sistemact CLI until the command returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Module))
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed sample sales, tasks and incoming stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := seed.All(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data applied")
				return nil
			})
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Consume domain events (sync requests, sale notifications)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Worker))
		},
	})
	return cmd
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile platform orders into the sales board",
	}

	runCmd := &cobra.Command{
		Use:       "run <platform>",
		Short:     "Run a guarded sync now and wait for it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: platformSlugs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := integration.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			var engine *salesync.Engine
			opts := fx.Options(app.Sync, fx.Populate(&engine))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				res, err := engine.Run(ctx, platform)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.String())
				return nil
			})
		},
	}

	requestCmd := &cobra.Command{
		Use:       "request <platform>",
		Short:     "Publish a sync request for the worker",
		Args:      cobra.ExactArgs(1),
		ValidArgs: platformSlugs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := integration.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			var engine *salesync.Engine
			opts := fx.Options(app.Sync, fx.Populate(&engine))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := engine.RequestSync(ctx, platform); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sync requested for %s\n", platform)
				return nil
			})
		},
	}

	cmd.AddCommand(runCmd, requestCmd)
	return cmd
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Operator login helpers",
	}

	hashCmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print the bcrypt hash to use as AUTH_PASSWORD_HASH",
		Long:  "Reads the password from --password or, when omitted, from the first line of stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = line
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	hashCmd.Flags().String("password", "", "Password to hash")

	cmd.AddCommand(hashCmd)
	return cmd
}

func platformSlugs() []string {
	return []string{string(integration.MercadoLibre), string(integration.Tiendanube)}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runUntilDone(ctx context.Context, application *fx.App) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
