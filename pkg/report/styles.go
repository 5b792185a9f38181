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

import "github.com/charmbracelet/lipgloss"

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
)

type styles struct {
	title, header, border, label, value, accent lipgloss.Style
	hostname, deviceType, filename, size, error lipgloss.Style
	success, failure, hint                      lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)).
			Bold(true),
		header: r.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true).
			Padding(0, 1),
		border: r.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		label: r.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)).
			Padding(0, 1),
		value: r.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Padding(0, 1).
			Align(lipgloss.Right),
		accent: r.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		hostname: r.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)).
			Padding(0, 1),
		deviceType: r.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Padding(0, 1),
		filename: r.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)).
			Padding(0, 1),
		size: r.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)).
			Padding(0, 1).
			Align(lipgloss.Right),
		error: r.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Padding(0, 1),
		success: r.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)).
			Bold(true),
		failure: r.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		hint: r.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
	}
}

// plain returns s with only its padding, for columns without a color role.
func plain(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(lipgloss.Color(draculaForeground)).Padding(0, 1)
}
