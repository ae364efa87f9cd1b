package ui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"ledgerc/internal/pipeline"
)

type compileOutcome struct {
	results []pipeline.UnitResult
	err     error
}

// RunCompile runs pipeline.Compile while rendering its progress to out.
func RunCompile(ctx context.Context, out io.Writer, title string, req *pipeline.Request) ([]pipeline.UnitResult, error) {
	if req == nil {
		return nil, fmt.Errorf("missing compile request")
	}
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan compileOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, err := pipeline.Compile(ctx, &reqCopy)
		outcomeCh <- compileOutcome{results: res, err: err}
		close(events)
	}()

	names := make([]string, len(req.Units))
	for i, u := range req.Units {
		names[i] = u.Name
	}
	model := NewProgressModel(title, names, events)
	_, uiErr := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx)).Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
