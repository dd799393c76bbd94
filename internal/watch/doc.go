// Package watch implements the full-screen live reading view behind
// 'ut181a watch'.
//
// It is a Bubble Tea model: meter I/O runs in tea.Cmd functions and its
// results come back to Update as messages, so the view never blocks on
// the serial port.
//
// # Flow
//
//  1. Init turns live reporting on (spinner shown until it answers)
//  2. Each reading schedules the next read, so exactly one read is pending
//  3. Key presses run meter commands (hold, min/max, save) as further Cmds
//  4. Quitting turns live reporting off before the program exits
//
// A read that times out turns live reporting on again, which recovers
// from the meter being switched off and on.
//
// # Usage
//
//	m := watch.New(client, time.Second)
//	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
//	    return err
//	}
package watch
