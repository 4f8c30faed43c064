package cmd

import (
	"context"
	"fmt"
	"strings"

	"cfmods/catalog"
	"cfmods/db"
	"cfmods/downloader"
	"cfmods/pipeline"
	"cfmods/ui"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// eventMsg carries a pipeline event into the UI.
type eventMsg pipeline.Event

// transferMsg carries download progress into the UI.
type transferMsg downloader.Progress

// runDoneMsg is sent once the pipeline returned.
type runDoneMsg struct {
	summary pipeline.Summary
}

// DownloadModel controls the UI for the download command
type DownloadModel struct {
	spinner  spinner.Model
	bar      progress.Model
	activity <-chan tea.Msg
	cancel   context.CancelFunc

	// State
	status    string
	transfer  *downloader.Progress
	completed []string
	warnings  []string
	errors    []string
	summary   pipeline.Summary
	done      bool
}

func initialDownloadModel(activity <-chan tea.Msg, cancel context.CancelFunc) DownloadModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return DownloadModel{
		spinner:  s,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		activity: activity,
		cancel:   cancel,
		status:   "Resolving mods...",
	}
}

// chanObserver forwards transfer progress to the UI without blocking past
// the end of the run.
type chanObserver struct {
	ctx context.Context
	ch  chan<- tea.Msg
}

func (o chanObserver) send(msg tea.Msg) {
	select {
	case o.ch <- msg:
	case <-o.ctx.Done():
	}
}

func (o chanObserver) Start(label string, total int64) {
	o.send(transferMsg{Label: label, Total: total})
}

func (o chanObserver) Update(p downloader.Progress) { o.send(transferMsg(p)) }

func (o chanObserver) Finish(p downloader.Progress, _ error) { o.send(transferMsg(p)) }

// runDownloadTUI runs the pipeline in a goroutine and renders its events.
// Quitting the UI cancels the run; the summary covers whatever finished.
func runDownloadTUI(ctx context.Context, s *session, index *catalog.Index, opts pipeline.Options, store *db.Store, slugs []string) (pipeline.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	activity := make(chan tea.Msg, 100)
	obs := chanObserver{ctx: ctx, ch: activity}
	p := newPipeline(s, index, opts, store, obs).WithNotifier(func(e pipeline.Event) {
		obs.send(eventMsg(e))
	})

	result := make(chan pipeline.Summary, 1)
	go func() {
		sum := p.Run(ctx, slugs)
		result <- sum
		obs.send(runDoneMsg{summary: sum})
	}()

	_, err := tea.NewProgram(initialDownloadModel(activity, cancel)).Run()
	cancel()
	sum := <-result
	if err != nil {
		return sum, fmt.Errorf("running download view: %w", err)
	}
	return sum, nil
}

func (m DownloadModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForActivity(),
	)
}

func (m DownloadModel) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		return <-m.activity
	}
}

func (m DownloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case transferMsg:
		p := downloader.Progress(msg)
		m.transfer = &p
		return m, m.waitForActivity()

	case eventMsg:
		m.applyEvent(pipeline.Event(msg))
		return m, m.waitForActivity()

	case runDoneMsg:
		m.done = true
		m.transfer = nil
		m.summary = msg.summary
		m.status = "Finished"
		return m, tea.Quit
	}

	return m, nil
}

func (m *DownloadModel) applyEvent(e pipeline.Event) {
	switch e.Type {
	case pipeline.EventModStarted:
		m.status = fmt.Sprintf("Assembling %s...", e.Name)

	case pipeline.EventDownloadStarted:
		m.status = fmt.Sprintf("Downloading %s...", e.FileName)
		m.transfer = nil

	case pipeline.EventDownloadFinished:
		line := e.FileName
		if e.DependencyOf != "" {
			line += ui.MutedStyle.Render(" (for " + e.DependencyOf + ")")
		}
		m.completed = append(m.completed, line)
		m.transfer = nil

	case pipeline.EventWarning:
		m.warnings = append(m.warnings, fmt.Sprintf("%s: %v", e.Name, e.Err))

	case pipeline.EventModFailed:
		m.errors = append(m.errors, fmt.Sprintf("%s: %v", e.Name, e.Err))
	}
}

func (m DownloadModel) View() string {
	var symbol string
	if m.done {
		symbol = ui.SuccessStyle.Render("✓")
	} else {
		symbol = m.spinner.View()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n %s %s\n\n", symbol, m.status)

	if m.transfer != nil && m.transfer.Total > 0 {
		fmt.Fprintf(&b, "  %s  %s / %s  %s\n\n",
			m.bar.ViewAs(m.transfer.Fraction()),
			ui.Size(m.transfer.Written), ui.Size(m.transfer.Total),
			ui.Rate(m.transfer.BytesPerSecond))
	}

	if len(m.errors) > 0 {
		b.WriteString(ui.ErrorStyle.Render("Errors:") + "\n")
		for _, e := range m.errors {
			fmt.Fprintf(&b, "  • %s\n", e)
		}
		b.WriteString("\n")
	}

	if len(m.warnings) > 0 {
		b.WriteString(ui.WarnStyle.Render("Skipped dependencies:") + "\n")
		for _, w := range m.warnings {
			fmt.Fprintf(&b, "  • %s\n", w)
		}
		b.WriteString("\n")
	}

	// Show last few completed
	if len(m.completed) > 0 {
		b.WriteString(ui.SuccessStyle.Render("Downloaded:") + "\n")
		start := 0
		if len(m.completed) > 5 && !m.done {
			start = len(m.completed) - 5
		}
		for _, c := range m.completed[start:] {
			fmt.Fprintf(&b, "  • %s\n", c)
		}
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString(ui.HeaderStyle.Render(fmt.Sprintf("%d file(s) downloaded, %d mod(s) failed",
			m.summary.Files(), len(m.summary.Failed()))) + "\n")
	}

	return b.String()
}
