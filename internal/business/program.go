package business

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/openkcm/storefront-client/internal/tui"
)

// runProgram runs model full screen until it quits or ctx is done.
// Messages sent through bridge reach the model while it runs.
func runProgram(ctx context.Context, bridge *tui.Bridge, model tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
	go bridge.Run(ctx, p)

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return final, nil
		}
		return final, fmt.Errorf("running the terminal program: %w", err)
	}

	return final, nil
}
