package main

import (
	"context"
	"errors"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"keycast/cmd/keycast/internal/runner"
	"keycast/cmd/keycast/internal/term"
	"keycast/internal/config"
	"keycast/internal/layout"
	"keycast/internal/logging"
	"keycast/internal/notify"
	"keycast/internal/overlay"
)

func newPreviewCmd(opts *globalOptions) *cobra.Command {
	so := &sourceOptions{}
	var once bool
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the overlay in the terminal",
		Long: `preview draws the overlay with terminal cells instead of a window. It
is handy for checking layout and fade settings over SSH or without a
compositor. Combine it with --demo to replay a chord script.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd.Context(), opts, so, !once)
		},
	}
	so.register(cmd, 800*time.Millisecond)
	cmd.Flags().BoolVar(&once, "once", false, "play the demo script a single time")
	return cmd
}

func runPreview(ctx context.Context, opts *globalOptions, so *sourceOptions, loop bool) error {
	s, err := opts.setup()
	if err != nil {
		return err
	}
	defer s.close(os.Stderr)

	src, err := so.source(s.cfg, s.log.Logger, loop)
	if err != nil {
		return err
	}

	redraw := make(chan struct{}, 1)
	r, err := runner.New(runner.Options{
		Config: s.cfg,
		Source: src,
		Invalidate: func() {
			select {
			case redraw <- struct{}{}:
			default:
			}
		},
		Notifier: notify.Nop{},
		Metrics:  s.metrics,
		Logger:   s.log.Logger,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	loader := s.watch(opts, func(c *config.Config) error {
		if err := r.ApplyConfig(c); err != nil {
			return err
		}
		select {
		case redraw <- struct{}{}:
		default:
		}
		return nil
	})
	if loader != nil {
		defer loader.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newPreviewModel(r, redraw), tea.WithAltScreen(), tea.WithContext(ctx))

	inputErr := make(chan error, 1)
	logging.Go(s.log.Logger, "input", func() {
		err := r.Run(ctx)
		inputErr <- err
		p.Send(inputDoneMsg{err: err})
	})

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}
	cancel()
	if ierr := <-inputErr; ierr != nil && !errors.Is(ierr, context.Canceled) {
		err = errors.Join(err, ierr)
	}
	return err
}

type (
	redrawMsg    struct{}
	inputDoneMsg struct{ err error }
)

// snapshotter is the part of the runner the preview model reads.
type snapshotter interface {
	Snapshot() (overlay.Frame, layout.Params)
}

var footerStyle = lipgloss.NewStyle().Faint(true)

// previewModel is the bubbletea model for the preview command.
type previewModel struct {
	r      snapshotter
	redraw <-chan struct{}
	width  int
	height int
	status string
}

func newPreviewModel(r snapshotter, redraw <-chan struct{}) previewModel {
	return previewModel{r: r, redraw: redraw, status: "q: quit"}
}

func (m previewModel) waitRedraw() tea.Msg {
	<-m.redraw
	return redrawMsg{}
}

func (m previewModel) Init() tea.Cmd {
	return m.waitRedraw
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case redrawMsg:
		return m, m.waitRedraw
	case inputDoneMsg:
		if msg.err != nil {
			m.status = "input stopped: " + msg.err.Error() + " | q: quit"
		} else {
			m.status = "input finished | q: quit"
		}
	}
	return m, nil
}

func (m previewModel) View() string {
	if m.width <= 0 || m.height <= 1 {
		return ""
	}
	frame, params := m.r.Snapshot()
	return term.Render(frame, params.Justify, m.width, m.height-1) + "\n" + footerStyle.Render(m.status)
}
