/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	progressTitle    = "Backing up devices..."
	progressMaxWidth = 60
	progressPadding  = 2
)

// ProgressMsg reports the number of completed devices.
type ProgressMsg struct {
	Completed int
	Total     int
}

type progressModel struct {
	bar       progress.Model
	completed int
	total     int
	title     lipgloss.Style
	count     lipgloss.Style
}

func newProgressModel(total int) *progressModel {
	bar := progress.New(
		progress.WithGradient(draculaPurple, draculaPink),
		progress.WithWidth(progressMaxWidth),
	)

	return &progressModel{
		bar:   bar,
		total: total,
		title: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan)),
		count: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment)),
	}
}

func (*progressModel) Init() tea.Cmd {
	return nil
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-progressPadding*2, progressMaxWidth)

		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		return m, nil
	case ProgressMsg:
		m.completed = msg.Completed
		if msg.Total > 0 {
			m.total = msg.Total
		}

		if m.completed >= m.total {
			return m, tea.Quit
		}

		return m, nil
	default:
		return m, nil
	}
}

func (m *progressModel) View() string {
	pad := strings.Repeat(" ", progressPadding)

	return fmt.Sprintf("%s%s\n%s%s %s\n",
		pad, m.title.Render(progressTitle),
		pad, m.bar.ViewAs(m.percent()),
		m.count.Render(fmt.Sprintf("%d/%d", m.completed, m.total)))
}

func (m *progressModel) percent() float64 {
	if m.total <= 0 {
		return 1
	}

	return float64(m.completed) / float64(m.total)
}

// Progress drives a progress bar on its own goroutine. A nil *Progress is
// valid and does nothing.
type Progress struct {
	program *tea.Program
	done    chan struct{}
}

// StartProgress starts a bar for total devices writing to out.
func StartProgress(ctx context.Context, out io.Writer, total int) *Progress {
	p := &Progress{
		program: tea.NewProgram(newProgressModel(total),
			tea.WithContext(ctx),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}

	go func() {
		defer close(p.done)

		_, _ = p.program.Run()
	}()

	return p
}

// Advance matches backup.ProgressFunc.
func (p *Progress) Advance(completed, total int) {
	if p == nil {
		return
	}

	p.program.Send(ProgressMsg{Completed: completed, Total: total})
}

// Stop ends the bar and waits for the final frame.
func (p *Progress) Stop() {
	if p == nil {
		return
	}

	p.program.Quit()
	<-p.done
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
