// Package ui renders ut181a command output for the terminal.
//
// Components:
//
//   - FormatMeasurement: a reading with its mode, range and flags
//   - FormatRecordInfo: a recording's metadata
//   - RenderTable: bordered tables for saves, records and ports
//   - Result: success, warning and failure boxes
//   - Header: banner for long-running commands
//   - Confirm: typed confirmation for destructive operations
//
// Styles come from lipgloss, which drops colors when output is not a
// terminal, so the same functions serve pipes and scripts.
package ui
