package watch

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ut181a/internal/dmm"
	"github.com/muurk/ut181a/internal/protocol"
)

// fakeMeter records calls and returns scripted readings
type fakeMeter struct {
	on, off, hold, save int
	minMax              []bool
	onErr               error
	readings            []protocol.Measurement
	readErr             error
}

func (f *fakeMeter) MonitorOn() error  { f.on++; return f.onErr }
func (f *fakeMeter) MonitorOff() error { f.off++; return nil }
func (f *fakeMeter) ToggleHold() error { f.hold++; return nil }
func (f *fakeMeter) SaveMeasurement() error {
	f.save++
	return dmm.NewCommandError("save measurement")
}
func (f *fakeMeter) SetMinMaxMode(on bool) error {
	f.minMax = append(f.minMax, on)
	return nil
}

func (f *fakeMeter) Measurement() (protocol.Measurement, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if len(f.readings) == 0 {
		return nil, dmm.NewTimeoutError("get measurement")
	}
	m := f.readings[0]
	f.readings = f.readings[1:]
	return m, nil
}

func vdc(v float32) *protocol.NormalMeasurement {
	return &protocol.NormalMeasurement{
		Header: protocol.Header{Mode: protocol.ModeVDC},
		Main:   protocol.Value{Value: v, Precision: 3, Unit: protocol.UnitExp{Unit: protocol.UnitVDC}},
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step applies msg and returns the new model and the message produced by
// the resulting command, if any
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	var out tea.Msg
	if cmd != nil {
		out = cmd()
	}
	return next.(Model), out
}

func TestModel_StartsAndReads(t *testing.T) {
	meter := &fakeMeter{readings: []protocol.Measurement{vdc(1.5), vdc(2.5), vdc(0.5)}}
	m := New(meter, time.Second)

	m, msg := step(t, m, startedMsg{err: meter.MonitorOn()})
	if !m.monitoring {
		t.Fatal("not monitoring after successful start")
	}

	for range 3 {
		if _, ok := msg.(readingMsg); !ok {
			t.Fatalf("expected readingMsg, got %T", msg)
		}
		m, msg = step(t, m, msg)
	}

	if m.readings != 3 {
		t.Errorf("readings = %d, want 3", m.readings)
	}
	if m.stats.min != 0.5 || m.stats.max != 2.5 {
		t.Errorf("stats = %+v, want min 0.5 max 2.5", m.stats)
	}

	view := m.View()
	for _, want := range []string{"UT181A LIVE", "0.500 VDC", "readings", "high"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_TimeoutRestartsMonitoring(t *testing.T) {
	meter := &fakeMeter{}
	m := New(meter, time.Millisecond)
	m, _ = step(t, m, startedMsg{})

	next, cmd := m.Update(readingMsg{err: dmm.NewTimeoutError("get measurement")})
	m = next.(Model)
	if m.monitoring {
		t.Error("still monitoring after timeout")
	}
	if cmd == nil {
		t.Fatal("no retry scheduled")
	}
	if _, ok := cmd().(retryMsg); !ok {
		t.Fatal("retry command did not produce retryMsg")
	}
	if !strings.Contains(m.View(), "timeout") {
		t.Errorf("view does not show the timeout:\n%s", m.View())
	}

	_, cmd = m.Update(retryMsg{})
	if cmd == nil {
		t.Fatal("retry did not restart monitoring")
	}
}

func TestModel_StartFailureRetries(t *testing.T) {
	meter := &fakeMeter{onErr: errors.New("port gone")}
	m := New(meter, time.Millisecond)

	m, msg := step(t, m, startedMsg{err: meter.MonitorOn()})
	if m.monitoring {
		t.Error("monitoring after failed start")
	}
	if _, ok := msg.(retryMsg); !ok {
		t.Errorf("expected retryMsg, got %T", msg)
	}
}

func TestModel_Keys(t *testing.T) {
	meter := &fakeMeter{}
	m := New(meter, time.Second)
	m, _ = step(t, m, startedMsg{})

	m, msg := step(t, m, keyPress("h"))
	m, _ = step(t, m, msg)
	if meter.hold != 1 || m.status != "Hold toggled" {
		t.Errorf("hold = %d, status = %q", meter.hold, m.status)
	}

	m, msg = step(t, m, keyPress("m"))
	m, _ = step(t, m, msg)
	m, msg = step(t, m, keyPress("m"))
	m, _ = step(t, m, msg)
	if len(meter.minMax) != 2 || !meter.minMax[0] || meter.minMax[1] {
		t.Errorf("min/max calls = %v, want [true false]", meter.minMax)
	}
	if m.minMax {
		t.Error("min/max should be off after two toggles")
	}

	m, msg = step(t, m, keyPress("s"))
	m, _ = step(t, m, msg)
	if !strings.Contains(m.status, "Reading saved failed") {
		t.Errorf("status = %q, want save failure", m.status)
	}

	m, _ = step(t, m, keyPress("?"))
	if !m.help.ShowAll {
		t.Error("? did not expand help")
	}
}

func TestModel_QuitStopsMonitoring(t *testing.T) {
	meter := &fakeMeter{}
	m := New(meter, time.Second)
	m, _ = step(t, m, startedMsg{})

	m, msg := step(t, m, keyPress("q"))
	if !m.quitting {
		t.Fatal("not quitting after q")
	}
	if _, ok := msg.(stoppedMsg); !ok {
		t.Fatalf("expected stoppedMsg, got %T", msg)
	}
	if meter.off != 1 {
		t.Errorf("MonitorOff calls = %d, want 1", meter.off)
	}

	// Readings arriving after quit are dropped
	next, cmd := m.Update(readingMsg{m: vdc(1)})
	if cmd != nil || next.(Model).readings != 0 {
		t.Error("reading handled after quit")
	}

	_, msg = step(t, m, msg)
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", msg)
	}
}

func TestStats(t *testing.T) {
	var s stats
	s.add(protocol.Value{Value: 3})
	s.add(protocol.Value{OverloadPos: true})
	s.add(protocol.Value{Value: -1})
	if s.count != 2 || s.min != -1 || s.max != 3 {
		t.Errorf("stats = %+v", s)
	}

	// A unit change starts over
	s.add(protocol.Value{Value: 7, Unit: protocol.UnitExp{Unit: protocol.UnitOhm, Exponent: 3}})
	if s.count != 1 || s.min != 7 || s.max != 7 {
		t.Errorf("stats after unit change = %+v", s)
	}
}
