package cmd

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"

	"github.com/gravitrone/repack/cli/internal/ui"
)

// RunTUI opens the stored session and runs the interactive client until the
// user quits.
func RunTUI(ctx context.Context) error {
	if !isInteractiveTerminal(os.Stdin) || !isInteractiveTerminal(os.Stdout) {
		return errors.New("the interactive client needs a terminal; use a subcommand instead")
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	s.logger.WithField("base_url", s.client.BaseURL()).Info("tui started")
	app := ui.NewApp(ctx, s.client, s.cfg, s.logger)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "tui")
	}
	return nil
}

func isInteractiveTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
