// Package ui renders CLI output: a [lipgloss] palette for status lines and rounded
// go-pretty tables for run summaries.
package ui
