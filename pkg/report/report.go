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

// Package report renders backup runs for a terminal: the job header, a
// live progress bar and the result tables.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/carverauto/ncc/pkg/models"
)

// JobHeader describes a run before it starts.
type JobHeader struct {
	Devices       int
	Workers       int
	InventoryFile string
	Directory     string
	Tag           string
	UsingFallback bool
}

// Reporter writes human-readable output to a single writer.
type Reporter struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	styles   styles
	printer  *message.Printer
}

// New returns a reporter writing to out. Colors follow the terminal
// capabilities of out.
func New(out io.Writer) *Reporter {
	r := lipgloss.NewRenderer(out)

	return &Reporter{
		out:      out,
		renderer: r,
		styles:   newStyles(r),
		printer:  message.NewPrinter(language.English),
	}
}

// Header prints the job description shown before dispatch.
func (r *Reporter) Header(h JobHeader) {
	s := r.styles

	r.println(s.title.Render("Starting backup job..."))
	r.printf("Backing up %s devices using %s parallel tasks\n",
		s.accent.Render(strconv.Itoa(h.Devices)), s.accent.Render(strconv.Itoa(h.Workers)))
	r.printf("Device inventory file: %s\n", s.accent.Render(h.InventoryFile))
	r.printf("Backup directory: %s\n", s.accent.Render(h.Directory))

	if h.Tag != "" {
		r.printf("Using tag: %s\n", s.accent.Render(h.Tag))
	}

	if h.UsingFallback {
		r.println("Using provided username and password for devices missing credentials")
	}

	r.println("")
}

// Results prints the summary, per-vendor, failed and successful tables.
// Empty tables are skipped.
func (r *Reporter) Results(results []*models.BackupResult, summary models.Summary) {
	r.println("")
	r.render("Backup Summary", r.summaryTable(summary))

	if len(summary.ByVendor) > 0 {
		r.render("Backups by Vendor", r.vendorTable(summary))
	}

	sorted := sortedByHostname(results)

	if summary.Failed > 0 {
		r.render("Failed Backups", r.failedTable(sorted))
	}

	if summary.Successful > 0 {
		r.render("Successful Backups", r.successTable(sorted))
	}
}

// Complete prints the closing line of a run.
func (r *Reporter) Complete() {
	r.println(r.styles.success.Render("Backup job complete!"))
}

// Error prints err in the error style.
func (r *Reporter) Error(err error) {
	r.printf("%s %v\n", r.styles.failure.Render("Error:"), err)
}

// Vendors prints the vendor table. hasDriver marks the types a built-in
// driver can back up.
func (r *Reporter) Vendors(vendors map[string]string, hasDriver func(deviceType string) bool) {
	names := make([]string, 0, len(vendors))
	for name := range vendors {
		names = append(names, name)
	}

	sort.Strings(names)

	rows := make([][]string, 0, len(names))

	for _, name := range names {
		driver := "no"
		if hasDriver != nil && hasDriver(name) {
			driver = "yes"
		}

		rows = append(rows, []string{name, vendors[name], driver})
	}

	s := r.styles
	t := r.newTable().
		Headers("Device Type", "Description", "Driver").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}

			switch col {
			case 0:
				return s.hostname
			case 2:
				if rows[row][2] == "yes" {
					return s.filename
				}

				return s.error
			default:
				return plain(r.renderer)
			}
		})

	r.render("Supported Vendor Device Types", t)
	r.println(s.hint.Render("Device types without a driver are still attempted and fail as unsupported."))
	r.println("")
}

// KeyValues prints a titled two-column table.
func (r *Reporter) KeyValues(title string, rows [][]string) {
	s := r.styles

	t := r.newTable().
		Rows(rows...).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return s.label
			}

			return plain(r.renderer)
		})

	r.render(title, t)
}

func (r *Reporter) summaryTable(summary models.Summary) *table.Table {
	s := r.styles

	return r.newTable().
		Rows(
			[]string{"Total Devices", r.number(int64(summary.Total))},
			[]string{"Successful Backups", r.number(int64(summary.Successful))},
			[]string{"Failed Backups", r.number(int64(summary.Failed))},
		).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return s.label
			}

			return s.value
		})
}

func (r *Reporter) vendorTable(summary models.Summary) *table.Table {
	s := r.styles
	vendors := summary.Vendors()

	rows := make([][]string, 0, len(vendors))
	for _, v := range vendors {
		rows = append(rows, []string{v, r.number(int64(summary.ByVendor[v]))})
	}

	return r.newTable().
		Headers("Vendor", "Successful Backups").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header
			case col == 0:
				return s.label
			default:
				return s.value
			}
		})
}

func (r *Reporter) failedTable(results []*models.BackupResult) *table.Table {
	s := r.styles

	var rows [][]string

	for _, res := range results {
		if res.Success {
			continue
		}

		rows = append(rows, []string{res.Hostname, res.DeviceType, res.Error})
	}

	return r.newTable().
		Headers("Hostname", "Device Type", "Error").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header
			case col == 0:
				return s.hostname
			case col == 1:
				return s.deviceType
			default:
				return s.error
			}
		})
}

func (r *Reporter) successTable(results []*models.BackupResult) *table.Table {
	s := r.styles

	var rows [][]string

	for _, res := range results {
		if !res.Success {
			continue
		}

		rows = append(rows, []string{
			res.Hostname,
			res.DeviceType,
			filepath.Base(res.ArtifactPath),
			r.number(res.ArtifactSizeBytes),
		})
	}

	return r.newTable().
		Headers("Hostname", "Device Type", "Filename", "Size (bytes)").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header
			case col == 0:
				return s.hostname
			case col == 1:
				return s.deviceType
			case col == 2:
				return s.filename
			default:
				return s.size
			}
		})
}

func (r *Reporter) newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.styles.border).
		BorderRow(true)
}

func (r *Reporter) render(title string, t *table.Table) {
	r.println(r.styles.title.Render(title))
	r.println(t.Render())
	r.println("")
}

func (r *Reporter) number(n int64) string {
	return r.printer.Sprintf("%d", n)
}

func (r *Reporter) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *Reporter) println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

func sortedByHostname(results []*models.BackupResult) []*models.BackupResult {
	sorted := make([]*models.BackupResult, 0, len(results))

	for _, res := range results {
		if res != nil {
			sorted = append(sorted, res)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Hostname < sorted[j].Hostname
	})

	return sorted
}
