package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"widget-dashboard/editor"
	"widget-dashboard/gateway"
	"widget-dashboard/notify"
	"widget-dashboard/preference"
	"widget-dashboard/render"
	"widget-dashboard/widget"
)

// dashboard wires one user's arrangement from the service through the
// preference store to a rendered view.
type dashboard struct {
	client  *gateway.Client
	store   *preference.Store
	channel *notify.Channel
	view    *render.View
	cred    preference.Credential
}

func newDashboard(server, token string) (*dashboard, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: log in and pass --token or set DASHBOARD_TOKEN", preference.ErrNoCredential)
	}
	client := gateway.New(server)
	return &dashboard{
		client:  client,
		store:   preference.NewStore(client),
		channel: notify.New(),
		view:    render.NewView(widget.Default(), nil),
		cred:    preference.Credential(token),
	}, nil
}

// refresh loads the arrangement and publishes it to the view.
func (d *dashboard) refresh(ctx context.Context) (preference.Committed, error) {
	if _, err := d.store.Load(ctx, d.cred); err != nil {
		return preference.Committed{}, err
	}
	cs, _ := d.store.Committed()
	d.channel.Publish(cs)
	return cs, nil
}

// edit runs one command in a fresh editor session and saves it.
func (d *dashboard) edit(ctx context.Context, apply func(*editor.Editor) error) (preference.Committed, error) {
	ed, err := editor.Open(ctx, d.store, d.channel, d.cred)
	if err != nil {
		return preference.Committed{}, fmt.Errorf("load arrangement: %w", err)
	}
	defer ed.Close()
	if err := apply(ed); err != nil {
		return preference.Committed{}, err
	}
	cs, err := ed.Save(ctx)
	if err != nil {
		return preference.Committed{}, fmt.Errorf("save failed, nothing changed: %w", err)
	}
	return cs, nil
}

func (d *dashboard) print(w io.Writer, cs preference.Committed) {
	latest, _, ok := d.channel.Latest()
	if ok {
		d.view.Show(latest)
	}
	printArrangement(w, cs.Descriptors())
	fmt.Fprintln(w)
	printItems(w, d.view.Items())
}

func printArrangement(w io.Writer, set preference.Set) {
	fmt.Fprintln(w, "Arrangement:")
	if len(set) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	for i, d := range set {
		state := color.New(color.FgGreen).Sprint("shown ")
		if !d.IsVisible {
			state = color.New(color.FgYellow).Sprint("hidden")
		}
		fmt.Fprintf(w, "  %2d. %s  [%s] %s\n", i+1, state, d.ID, d.Label)
	}
}

func printItems(w io.Writer, items []render.Item) {
	fmt.Fprintln(w, "Dashboard:")
	if len(items) == 0 {
		fmt.Fprintln(w, "  (nothing visible)")
		return
	}
	for _, it := range items {
		kind := color.New(color.FgCyan).Sprintf("%-6s", it.Kind)
		fmt.Fprintf(w, "  %s %s\n", kind, it.Caption)
	}
}

// LayoutCmd returns the layout command
func LayoutCmd() *cobra.Command {
	var server, token string

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show and rearrange your dashboard widgets",
		Long: `Show and rearrange the widgets on your dashboard.

Positions are the numbers printed by "layout show". Each edit is saved
immediately; a failed save leaves the stored arrangement untouched.`,
	}
	cmd.PersistentFlags().StringVar(&server, "server", defaultServer(), "preferences service URL")
	cmd.PersistentFlags().StringVar(&token, "token", os.Getenv("DASHBOARD_TOKEN"), "bearer token from the login command")

	open := func() (*dashboard, error) { return newDashboard(server, token) }

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the arrangement and the rendered dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := open()
			if err != nil {
				return err
			}
			cs, err := d.refresh(cmd.Context())
			if err != nil {
				return err
			}
			d.print(cmd.OutOrStdout(), cs)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "widgets",
		Short: "List every widget the service offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := gateway.New(server).Widgets(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, info := range infos {
				fmt.Fprintf(w, "  [%s] %-6s %s\n", info.ID, info.Kind, info.Label)
			}
			return nil
		},
	})

	cmd.AddCommand(editCmd("move-up", "Move the widget at a position one place up", open, (*editor.Editor).MoveUp))
	cmd.AddCommand(editCmd("move-down", "Move the widget at a position one place down", open, (*editor.Editor).MoveDown))
	cmd.AddCommand(editCmd("toggle", "Show or hide the widget at a position", open, (*editor.Editor).ToggleVisibility))
	cmd.AddCommand(watchCmd(open))
	return cmd
}

func editCmd(use, short string, open func() (*dashboard, error), op func(*editor.Editor, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <position>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("position %q is not a number", args[0])
			}
			d, err := open()
			if err != nil {
				return err
			}
			cs, err := d.edit(cmd.Context(), func(ed *editor.Editor) error {
				return op(ed, pos-1)
			})
			if errors.Is(err, preference.ErrOutOfRange) {
				return fmt.Errorf("no widget at position %d", pos)
			}
			if err != nil {
				return err
			}
			d.print(cmd.OutOrStdout(), cs)
			return nil
		},
	}
}

func watchCmd(open func() (*dashboard, error)) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Redraw the dashboard whenever the stored arrangement changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := open()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			d.view.OnShow(func(items []render.Item, _ uint64) {
				fmt.Fprintf(w, "--- %s\n", time.Now().Format(time.TimeOnly))
				printItems(w, items)
			})

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return d.view.Run(ctx, d.channel) })
			g.Go(func() error { return d.poll(ctx, interval) })
			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "how often to check for changes")
	return cmd
}

// poll reloads the arrangement every interval and publishes it when it
// differs from the last one shown.
func (d *dashboard) poll(ctx context.Context, interval time.Duration) error {
	var last preference.Set
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		set, err := d.store.Load(ctx, d.cred)
		switch {
		case errors.Is(err, preference.ErrUnauthorized):
			return err
		case err == nil && (last == nil || !slices.Equal(set, last)):
			last = set
			cs, _ := d.store.Committed()
			d.channel.Publish(cs)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
