package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/caiinstall/caictl/internal/services"
	"github.com/caiinstall/caictl/internal/terminal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.1.0"

// presentedError is an error the presenter already printed
type presentedError struct {
	err error
}

func (e *presentedError) Error() string { return e.err.Error() }
func (e *presentedError) Unwrap() error { return e.err }

func main() {
	rootCmd := &cobra.Command{
		Use:   "caictl",
		Short: "Drive Cai Install tasks from the terminal",
		Long: `caictl submits game unlock and workshop download tasks to a running Cai Install
server, follows them until they finish and asks for a manifest source when the
server finds more than one. Configuration is read from the environment or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newUnlockCommand(),
		newWorkshopCommand(),
		newResumeCommand(),
		newPanelCommand(),
		newSourcesCommand(),
		newSearchCommand(),
		newInfoCommand(),
		newAdminCommand("restart-steam", "Restart the Steam client on the server host", func(ctx context.Context, a *app) (*models.ServerResponse, error) {
			return a.client.RestartSteam(ctx)
		}),
		newAdminCommand("shutdown-server", "Stop the task server", func(ctx context.Context, a *app) (*models.ServerResponse, error) {
			return a.client.Shutdown(ctx)
		}),
		newHistoryCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "caictl version %s\n", version)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		var presented *presentedError
		if !errors.As(err, &presented) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newUnlockCommand() *cobra.Command {
	var (
		source string
		flags  models.Flags
	)
	cmd := &cobra.Command{
		Use:   "unlock <appid|store-url>",
		Short: "Unlock a game by AppID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, func(ctx context.Context, c *services.TaskCoordinator) error {
				return c.Submit(ctx, taskFromArgs(models.ModeGame, args[0], source, flags))
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", models.DefaultSource, "manifest source, \"search\" tries every known repository")
	cmd.Flags().BoolVar(&flags.AutoUpdate, "auto-update", false, "let SteamTools update the manifest")
	cmd.Flags().BoolVar(&flags.AddAllDLC, "all-dlc", false, "unlock all DLC")
	cmd.Flags().BoolVar(&flags.PatchDepotKey, "patch-depot-key", false, "patch depot keys into the Steam config")
	return cmd
}

func newWorkshopCommand() *cobra.Command {
	var flags models.Flags
	cmd := &cobra.Command{
		Use:   "workshop <id|url>",
		Short: "Download a workshop item manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, func(ctx context.Context, c *services.TaskCoordinator) error {
				return c.Submit(ctx, taskFromArgs(models.ModeWorkshop, args[0], "", flags))
			})
		},
	}
	cmd.Flags().BoolVar(&flags.CopyToConfig, "copy-config", false, "copy the manifest into the Steam config depotcache")
	cmd.Flags().BoolVar(&flags.CopyToDepot, "copy-depot", false, "copy the manifest into the Steam depotcache")
	return cmd
}

func newResumeCommand() *cobra.Command {
	var workshop bool
	cmd := &cobra.Command{
		Use:   "resume <appid|workshop id>",
		Short: "Follow a task already running on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := models.ModeGame
			if workshop {
				mode = models.ModeWorkshop
			}
			return runTask(cmd, func(ctx context.Context, c *services.TaskCoordinator) error {
				return c.Resume(ctx, mode, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&workshop, "workshop", false, "the running task is a workshop download")
	return cmd
}

// runTask starts one attempt through start and blocks until it ends
func runTask(cmd *cobra.Command, start func(ctx context.Context, c *services.TaskCoordinator) error) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presenter := terminal.NewPresenter(cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)
	coordinator := a.newCoordinator(presenter)
	defer coordinator.Close()
	presenter.Bind(coordinator)
	a.startFeed(ctx, presenter.PrintEvent)

	if err := start(ctx, coordinator); err != nil {
		return &presentedError{err: err}
	}

	n, err := presenter.Wait(ctx)
	if err != nil {
		coordinator.Reset()
		return err
	}
	if err := services.OutcomeError(n); err != nil {
		return &presentedError{err: err}
	}
	return nil
}

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the manifest sources known to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, a *app) error {
				resp, err := a.client.Sources(ctx)
				if err != nil {
					return err
				}
				return printSources(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func printSources(out io.Writer, resp *models.SourcesResponse) error {
	names := make([]string, 0, len(resp.Sources))
	for name := range resp.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTOOL TYPE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", name, resp.Sources[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\ncustom GitHub repositories: %d, custom zip sources: %d\n", resp.CustomGithubCount, resp.CustomZipCount)
	return nil
}

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <name>",
		Short: "Find a game AppID by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, a *app) error {
				resp, err := a.client.SearchGame(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if !resp.Success {
					return errors.New(resp.Message)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "APPID\tNAME")
				for _, g := range resp.Games {
					fmt.Fprintf(w, "%s\t%s\n", g.AppID, g.Name)
				}
				return w.Flush()
			})
		},
	}
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the server environment and update status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				initResp, err := a.client.Initialize(ctx)
				if err != nil {
					return err
				}
				if !initResp.Success {
					return errors.New(initResp.Message)
				}
				fmt.Fprintf(out, "server:     %s\n", a.cfg.TaskServer.BaseURL)
				fmt.Fprintf(out, "unlocker:   %s\n", initResp.UnlockerType)
				fmt.Fprintf(out, "steam path: %s\n", initResp.SteamPath)
				fmt.Fprintf(out, "token:      %t\n", initResp.HasToken)

				updates, err := a.client.CheckUpdates(ctx)
				if err != nil {
					a.logger.Debug("update check failed", zap.Error(err))
					return nil
				}
				fmt.Fprintf(out, "update:     %t\n", updates.HasUpdate)
				return nil
			})
		},
	}
}

func newAdminCommand(use, short string, call func(ctx context.Context, a *app) (*models.ServerResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, a *app) error {
				resp, err := call(ctx, a)
				if err != nil {
					return err
				}
				if !resp.Success {
					return errors.New(resp.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newHistoryCommand() *cobra.Command {
	var (
		page, count   int
		mode, outcome string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished tasks (requires DB_HOST)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			history, err := a.history()
			if err != nil {
				return err
			}
			runs, err := history.GetAll(cmd.Context(), page, count, mode, outcome)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FINISHED\tMODE\tIDENTIFIER\tSOURCE\tOUTCOME\tMESSAGE")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					run.FinishedAt.Local().Format(time.DateTime), run.Mode, run.Identifier, run.SourceHint, run.Outcome, run.Message)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&count, "count", 20, "rows per page")
	cmd.Flags().StringVar(&mode, "mode", "", "filter by mode (game or workshop)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "filter by outcome")
	return cmd
}

// withClient runs fn with a client-only app and a request context bound to the command
func withClient(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(cmd.Context(), a)
}
