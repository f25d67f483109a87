package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/spo/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/spo/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/spo/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/spo/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
)

// App shows one optimisation session as it runs.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	task  domain.TaskContext
	name  string

	ctx    context.Context
	cancel context.CancelFunc

	// events carries rounds from the session goroutine to Update.
	events chan messages.RoundRecorded

	// done is closed once final holds the session outcome.
	done  chan struct{}
	final messages.SessionFinished

	styles    *styles.Styles
	keymap    *keymap.KeyMap
	spinner   spinner.Model
	statusBar *status.Bar

	rounds   []domain.Round
	selected int
	expanded bool
	showHelp bool
	finished bool
	result   *domain.Result
	err      error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a TUI for a session over task.
func NewApp(ports *Ports, task domain.TaskContext, name string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(s.Subtitle),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ports:     ports,
		task:      task,
		name:      name,
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan messages.RoundRecorded),
		done:      make(chan struct{}),
		styles:    s,
		keymap:    km,
		spinner:   sp,
		statusBar: status.NewBar(s, km),
		width:     80,
	}, nil
}

// WithContext derives the session context from ctx. Call before Start.
func (a *App) WithContext(ctx context.Context) *App {
	a.cancel()
	a.ctx, a.cancel = context.WithCancel(ctx)
	return a
}

// Start runs the session in the background.
func (a *App) Start() {
	go func() {
		result, err := a.ports.Optimizer.Optimize(a.ctx, a.task, driving.OptimizeOptions{
			Name:     a.name,
			Observer: a.observe,
		})
		a.final = messages.SessionFinished{Result: result, Err: err}
		close(a.done)
	}()
}

// observe forwards a round to the UI unless the session is being abandoned.
func (a *App) observe(round domain.Round) {
	select {
	case a.events <- messages.RoundRecorded{Round: round}:
	case <-a.ctx.Done():
	}
}

// Stop cancels the session.
func (a *App) Stop() {
	a.cancel()
}

// Wait blocks until the session has returned and reports its outcome.
func (a *App) Wait() (*domain.Result, error) {
	<-a.done
	a.cancel()
	return a.final.Result, a.final.Err
}

// waitForEvent delivers the next round, or the outcome once the session ends.
func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-a.events:
			return msg
		case <-a.done:
			return a.final
		}
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("spo"),
		a.spinner.Tick,
		a.waitForEvent(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.statusBar.SetWidth(msg.Width)
		return a, nil

	case spinner.TickMsg:
		if a.finished {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.RoundRecorded:
		following := a.selected == len(a.rounds)-1 || len(a.rounds) == 0
		a.rounds = append(a.rounds, msg.Round)
		if following {
			a.selected = len(a.rounds) - 1
		}
		a.updateCounts()
		return a, a.waitForEvent()

	case messages.SessionFinished:
		a.finish(msg)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) finish(msg messages.SessionFinished) {
	a.finished = true
	a.result = msg.Result
	a.err = msg.Err
	if msg.Result != nil {
		a.rounds = msg.Result.History
		if a.selected >= len(a.rounds) {
			a.selected = len(a.rounds) - 1
		}
	}
	a.updateCounts()

	switch {
	case msg.Err == nil:
		a.statusBar.SetState(status.StateDone)
	case msg.Partial():
		a.statusBar.SetState(status.StateStopped)
	default:
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		if !a.finished {
			a.cancel()
			a.statusBar.SetState(status.StateQuitting)
		}
		return a, tea.Quit
	case keymap.Matches(key, a.keymap.Help):
		a.showHelp = !a.showHelp
	case keymap.Matches(key, a.keymap.Up):
		if a.selected > 0 {
			a.selected--
		}
	case keymap.Matches(key, a.keymap.Down):
		if a.selected < len(a.rounds)-1 {
			a.selected++
		}
	case keymap.Matches(key, a.keymap.Expand):
		a.expanded = !a.expanded
	}
	return a, nil
}

func (a *App) updateCounts() {
	accepted := 0
	for _, r := range a.rounds {
		if r.Accepted {
			accepted++
		}
	}
	a.statusBar.SetCounts(len(a.rounds), accepted)
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	title := a.styles.Title.Render("spo")
	if a.name != "" {
		title += " " + a.styles.Subtitle.Render(a.name)
	}
	b.WriteString(title + "\n")
	b.WriteString(a.styles.Muted.Render(fmt.Sprintf("Round budget %d, %d exemplars",
		a.task.MaxRounds, len(a.task.Exemplars))) + "\n\n")

	for i, r := range a.rounds {
		b.WriteString(a.renderRound(i, r) + "\n")
	}

	if a.expanded && a.selected >= 0 && a.selected < len(a.rounds) {
		r := a.rounds[a.selected]
		text := r.Candidate.Instruction
		if r.Failed() {
			text = r.Failure
		}
		b.WriteString("\n" + a.styles.Border.Width(a.panelWidth()).Render(text) + "\n")
	}

	switch {
	case !a.finished:
		next := len(a.rounds)
		b.WriteString("\n" + a.spinner.View() + " " +
			a.styles.Normal.Render(fmt.Sprintf("Running round %d...", next)) + "\n")
	case a.result != nil:
		best := a.result.Best
		b.WriteString("\n" + a.styles.Subtitle.Render(
			fmt.Sprintf("Best instruction (round %d, score %d)", best.Index, best.Score)) + "\n")
		b.WriteString(a.styles.Border.Width(a.panelWidth()).Render(best.Candidate.Instruction) + "\n")
	}

	if a.showHelp {
		b.WriteString("\n")
		for _, group := range a.keymap.FullHelp() {
			hints := make([]string, 0, len(group))
			for _, binding := range group {
				h := binding.Help()
				hints = append(hints, h.Key+" "+h.Desc)
			}
			b.WriteString(a.styles.Help.Render(strings.Join(hints, "   ")) + "\n")
		}
	}

	b.WriteString("\n" + a.statusBar.View())
	return b.String()
}

func (a *App) renderRound(i int, r domain.Round) string {
	cursor := "  "
	if i == a.selected {
		cursor = a.styles.Selected.Render(">") + " "
	}

	label := r.Status()
	if r.Index == 0 {
		label = "seed"
	}
	line := fmt.Sprintf("#%-2d %s  score %d", r.Index,
		a.styles.RoundStatus(r.Status()).Render(fmt.Sprintf("%-8s", label)), r.Score)

	summary := firstLine(r.Candidate.Instruction)
	if r.Failed() {
		summary = r.Failure
	}
	return cursor + line + "  " + a.styles.Muted.Render(truncate(summary, a.width-30))
}

func (a *App) panelWidth() int {
	if a.width > 10 {
		return a.width - 4
	}
	return 76
}

// Rounds returns the rounds received so far.
func (a *App) Rounds() []domain.Round {
	return a.rounds
}

// Finished reports whether the session outcome has been received.
func (a *App) Finished() bool {
	return a.finished
}

// Err returns the session error, if any.
func (a *App) Err() error {
	return a.err
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func truncate(s string, limit int) string {
	if limit < 10 {
		limit = 10
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// Run shows the session in a full-screen program and returns its outcome
// after the user quits. Quitting early cancels the session and returns
// the partial result.
func Run(ctx context.Context, ports *Ports, task domain.TaskContext, name string) (*domain.Result, error) {
	app, err := NewApp(ports, task, name)
	if err != nil {
		return nil, err
	}
	app.WithContext(ctx)
	app.Start()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		app.Stop()
		_, _ = app.Wait()
		return nil, fmt.Errorf("TUI error: %w", err)
	}
	return app.Wait()
}
