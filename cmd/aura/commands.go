package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"aura-runtime/internal/di"
	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Open a page and assist on it until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, args[0])
		},
	}
	cmd.Flags().String("api-url", "", "backend base url")
	cmd.Flags().Bool("headless", true, "run the browser without a window")
	cmd.Flags().String("listen", "", "address of the local control API, empty disables it")
	cmd.Flags().Bool("auto-adapt", false, "adapt on struggle without asking")
	cmd.Flags().Int("width", 0, "viewport width")
	cmd.Flags().Int("height", 0, "viewport height")
	return cmd
}

func run(ctx context.Context, url string) error {
	settings := envService.Settings()
	container, err := di.NewContainer(ctx, settings)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer container.Close()
	log := container.Logger

	if err := container.Page.Navigate(ctx, url); err != nil {
		return err
	}

	vp := entity.Viewport{Width: settings.ViewportWidth, Height: settings.ViewportHeight}
	state, err := container.Window.Load(ctx, vp)
	if err != nil {
		log.Warn("window state unavailable", "error", err)
	} else {
		log.Info("assistant window", "x", state.X, "y", state.Y, "minimized", state.Minimized)
	}
	go func() {
		if err := container.Window.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Warn("window watch stopped", "error", err)
		}
	}()

	if settings.ListenAddr != "" {
		go func() {
			if err := container.API.ListenAndServe(ctx, settings.ListenAddr); err != nil {
				log.Error("control api failed", "error", err)
			}
		}()
	}

	return container.Session.Run(ctx)
}

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <file.html>",
		Short: "Print the page model of a saved page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := di.NewCore(envService.Settings())
			if err != nil {
				return err
			}
			defer core.Close()

			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), core.Scraper.Scrape(doc))
		},
	}
}

func newAdaptCmd() *cobra.Command {
	var (
		raw string
		out string
	)
	cmd := &cobra.Command{
		Use:   "adapt <file.html>",
		Short: "Apply an adaptation command to a saved page and write the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ac entity.AdaptationCommand
			if err := json.Unmarshal([]byte(raw), &ac); err != nil {
				return fmt.Errorf("invalid --command: %w", err)
			}

			core, err := di.NewCore(envService.Settings())
			if err != nil {
				return err
			}
			defer core.Close()

			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}
			core.Engine.Attach(doc)
			rep, err := core.Engine.Apply(cmd.Context(), ac)
			if err != nil {
				core.Logger.Warn("adaptation incomplete", "error", err)
			}
			if err := printJSON(cmd.ErrOrStderr(), rep); err != nil {
				return err
			}

			if out == "" {
				return doc.Render(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			return doc.Render(f)
		},
	}
	cmd.Flags().StringVar(&raw, "command", "{}", "adaptation command as JSON")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the adapted page here instead of stdout")
	return cmd
}

func newWindowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Show or change the persisted assistant window state",
	}
	cmd.PersistentFlags().Int("width", 0, "viewport width")
	cmd.PersistentFlags().Int("height", 0, "viewport height")

	withWindow := func(fn func(ctx context.Context, core *di.Core, args []int) (entity.WindowState, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			nums := make([]int, 0, len(args))
			for _, a := range args {
				n, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("not a number: %q", a)
				}
				nums = append(nums, n)
			}

			settings := envService.Settings()
			core, err := di.NewCore(settings)
			if err != nil {
				return err
			}
			defer core.Close()

			ctx := cmd.Context()
			vp := entity.Viewport{Width: settings.ViewportWidth, Height: settings.ViewportHeight}
			if _, err := core.Window.Load(ctx, vp); err != nil {
				return err
			}
			state, err := fn(ctx, core, nums)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:  "show",
			Args: cobra.NoArgs,
			RunE: withWindow(func(ctx context.Context, core *di.Core, _ []int) (entity.WindowState, error) {
				return core.Window.State(), nil
			}),
		},
		&cobra.Command{
			Use:  "toggle",
			Args: cobra.NoArgs,
			RunE: withWindow(func(ctx context.Context, core *di.Core, _ []int) (entity.WindowState, error) {
				return core.Window.Toggle(ctx)
			}),
		},
		&cobra.Command{
			Use:  "minimize",
			Args: cobra.NoArgs,
			RunE: withWindow(func(ctx context.Context, core *di.Core, _ []int) (entity.WindowState, error) {
				return core.Window.Minimize(ctx)
			}),
		},
		&cobra.Command{
			Use:  "expand",
			Args: cobra.NoArgs,
			RunE: withWindow(func(ctx context.Context, core *di.Core, _ []int) (entity.WindowState, error) {
				return core.Window.Expand(ctx)
			}),
		},
		&cobra.Command{
			Use:  "move <x> <y>",
			Args: cobra.ExactArgs(2),
			RunE: withWindow(func(ctx context.Context, core *di.Core, n []int) (entity.WindowState, error) {
				return core.Window.DragEnd(ctx, n[0], n[1])
			}),
		},
		&cobra.Command{
			Use:  "resize <width> <height>",
			Args: cobra.ExactArgs(2),
			RunE: withWindow(func(ctx context.Context, core *di.Core, n []int) (entity.WindowState, error) {
				return core.Window.ResizeEnd(ctx, n[0], n[1])
			}),
		},
	)
	return cmd
}

func openDocument(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vp := entity.Viewport{Width: envService.Settings().ViewportWidth, Height: envService.Settings().ViewportHeight}
	return dom.Parse(f, "file://"+path, vp)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
