package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/op"
	"gioui.org/unit"
	"github.com/spf13/cobra"

	"keycast/cmd/keycast/internal/runner"
	"keycast/cmd/keycast/internal/theme"
	"keycast/cmd/keycast/internal/ui"
	"keycast/internal/config"
	"keycast/internal/logging"
	"keycast/internal/notify"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	so := &sourceOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the overlay window and show global key combos",
		Long: `run reads key events from every keyboard (evdev on Linux, a low-level
hook on Windows) and draws the recent combos in a borderless window.
Press ctrl+alt+shift with the toggle key (F6 by default) to hide or show
the overlay.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOverlay(cmd.Context(), opts, so)
		},
	}
	so.register(cmd, 600*time.Millisecond)
	return cmd
}

// runOverlay hands the main thread to gio. It does not return: the window
// goroutine exits the process once the window is closed.
func runOverlay(ctx context.Context, opts *globalOptions, so *sourceOptions) error {
	s, err := opts.setup()
	if err != nil {
		return err
	}
	logger := s.log.Logger
	cfg := s.cfg

	src, err := so.source(cfg, logger, true)
	if err != nil {
		s.close(os.Stderr)
		return err
	}

	w := new(app.Window)
	w.Option(
		app.Title("keycast"),
		app.Size(unit.Dp(cfg.Overlay.Width), unit.Dp(cfg.Overlay.Height)),
		app.Decorated(false),
	)

	r, err := runner.New(runner.Options{
		Config:     cfg,
		Source:     src,
		Invalidate: w.Invalidate,
		Notifier:   notify.New(cfg.Notify.Enabled, s.log.WithComponent("notify")),
		Metrics:    s.metrics,
		Logger:     logger,
	})
	if err != nil {
		s.close(os.Stderr)
		return err
	}

	view := ui.New(theme.NewTheme(unit.Sp(cfg.Overlay.GlyphSize), unit.Sp(cfg.Overlay.LabelSize)))

	go func() {
		ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		loader := s.watch(opts, func(c *config.Config) error {
			if err := r.ApplyConfig(c); err != nil {
				return err
			}
			w.Invalidate()
			return nil
		})

		inputErr := make(chan error, 1)
		logging.Go(logger, "input", func() {
			if err := r.Run(ctx); err != nil {
				inputErr <- err
				w.Perform(system.ActionClose)
			}
		})

		closed := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				w.Perform(system.ActionClose)
			case <-closed:
			}
		}()

		err := loop(w, r, view)
		close(closed)
		cancel()

		select {
		case ierr := <-inputErr:
			err = errors.Join(err, ierr)
		default:
		}
		if loader != nil {
			loader.Close()
		}
		r.Close()

		code := 0
		if err != nil {
			logger.Error("keycast stopped", "error", err)
			code = 1
		}
		s.close(os.Stderr)
		os.Exit(code)
	}()
	app.Main()
	return nil
}

func loop(w *app.Window, r *runner.Runner, view *ui.Overlay) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			frame, params := r.Snapshot()
			view.Layout(gtx, frame, params)
			e.Frame(gtx.Ops)
		}
	}
}
