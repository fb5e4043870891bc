package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spec-kit/daily-status/internal/config"
	"github.com/spec-kit/daily-status/internal/feed"
	"github.com/spec-kit/daily-status/internal/worker"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = ""
)

func newRootCmd() *cobra.Command {
	base, loadErr := config.Load()
	if loadErr != nil {
		base = &config.Config{}
	}
	v := viper.New()

	root := &cobra.Command{
		Use:           "dailyctl",
		Short:         "dailyctl shows daily status updates in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindPersistentFlags(root, v, base)

	load := func() (*settings, error) {
		if loadErr != nil {
			return nil, loadErr
		}
		return resolve(v, base)
	}
	root.AddCommand(
		newLoginCmd(load),
		newDashboardCmd(load),
		newWatchCmd(load),
		newCacheCmd(load),
		newVersionCmd(),
	)
	return root
}

func newLoginCmd(load func() (*settings, error)) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv("DAILYCTL_PASSWORD")
			}
			if password == "" {
				if password, err = prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: "); err != nil {
					return err
				}
			}
			return withApp(cmd.Context(), s, func(ctx context.Context, a *app) error {
				user, err := a.api.Login(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Email, user.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or DAILYCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

type viewFlags struct {
	from   string
	to     string
	days   int
	team   string
	tab    string
	detail string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "first calendar date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last calendar date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.days, "days", 7, "days back from today when --from/--to are not set")
	cmd.Flags().StringVar(&f.team, "team", "", "team id")
	cmd.Flags().StringVar(&f.tab, "tab", string(feed.TabAll), "one of all, recent, blockers, completed, in-progress, blocked")
	cmd.Flags().StringVar(&f.detail, "detail", "", "show one update in full")
}

func (f *viewFlags) selection(loc *time.Location) (feed.Selection, error) {
	sel := feed.Selection{TeamID: f.team, Tab: feed.ParseTab(f.tab)}
	switch {
	case f.from == "" && f.to == "":
		sel.Range = feed.LastNDays(time.Now(), f.days, loc)
	case f.from == "" || f.to == "":
		return sel, errors.New("--from and --to must be given together")
	default:
		r, err := feed.ParseDateRange(f.from, f.to)
		if err != nil {
			return sel, err
		}
		sel.Range = r
	}
	return sel, nil
}

func newDashboardCmd(load func() (*settings, error)) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Load updates once and print the dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			sel, err := flags.selection(s.dashboard.Location())
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), s, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				ctrl := a.controller(cmd.ErrOrStderr(), sel)
				loadErr := ctrl.Load(ctx)
				if flags.detail != "" {
					detail, ok := ctrl.Detail(flags.detail)
					if !ok {
						return fmt.Errorf("update %s is not in the current view", flags.detail)
					}
					renderDetail(out, detail, s.dashboard.Location())
					return nil
				}
				renderView(out, ctrl.View(), s.dashboard.Location())
				return loadErr
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// watchTarget re-renders after every silent refresh.
type watchTarget struct {
	*feed.Controller
	render func()
}

func (w watchTarget) Refresh(ctx context.Context) error {
	err := w.Controller.Refresh(ctx)
	w.render()
	return err
}

func newWatchCmd(load func() (*settings, error)) *cobra.Command {
	var (
		flags    viewFlags
		interval time.Duration
		poll     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the dashboard open and refresh it silently",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			sel, err := flags.selection(s.dashboard.Location())
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = s.dashboard.RefreshInterval()
			}
			if poll <= 0 {
				poll = s.dashboard.RefreshPoll()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, s, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				ctrl := a.controller(cmd.ErrOrStderr(), sel)
				render := func() {
					fmt.Fprint(out, "\033[H\033[2J")
					renderView(out, ctrl.View(), s.dashboard.Location())
				}

				_ = ctrl.Load(ctx)
				render()

				refresher := feed.NewRefresher(watchTarget{Controller: ctrl, render: render}, interval, poll, a.logger)
				<-worker.StartRefreshWorker(ctx, refresher)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 0, "minimum time between refreshes")
	cmd.Flags().DurationVar(&poll, "poll", 0, "how often the refresh gate is checked")
	return cmd
}

func newCacheCmd(load func() (*settings, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local recovery cache",
	}

	var all bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached updates of the signed-in identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), s, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if all {
					removed, err := a.recovery.PurgeAll(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d cached entries\n", removed)
					return nil
				}
				email, ok, err := a.recovery.Identity(ctx)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Nothing cached")
					return nil
				}
				if err := a.recovery.Purge(ctx, email); err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared cached updates for %s\n", email)
				return nil
			})
		},
	}
	clearCmd.Flags().BoolVar(&all, "all", false, "remove every cached snapshot")
	cmd.AddCommand(clearCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			if commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "dailyctl %s (%s)\n", version, commit)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dailyctl %s\n", version)
		},
	}
}

func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
