package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muurk/ut181a/internal/config"
	"github.com/muurk/ut181a/internal/dmm"
	"github.com/muurk/ut181a/internal/protocol"
)

// execute runs the root command with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("UT181A_LOG_LEVEL", "")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		configPath, overwriteConf = "", false
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseSwitch(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"ON", true, false},
		{"1", true, false},
		{"off", false, false},
		{"disable", false, false},
		{"maybe", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSwitch(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSwitch(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSwitch(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseIndex(t *testing.T) {
	if n, err := parseIndex("12"); err != nil || n != 12 {
		t.Errorf("parseIndex(12) = %d, %v", n, err)
	}
	if _, err := parseIndex("first"); err == nil {
		t.Error("parseIndex(first) expected error")
	}
}

func TestApplyFlags(t *testing.T) {
	c := config.Default()
	cmd := rootCmd
	t.Cleanup(func() {
		for _, name := range []string{"port", "baud", "timeout"} {
			cmd.PersistentFlags().Lookup(name).Changed = false
		}
		portPath, baudRate, waitFlag = "", 0, 0
	})

	if err := cmd.ParseFlags([]string{"--port", "/dev/ttyUSB3", "--timeout", "2s"}); err != nil {
		t.Fatal(err)
	}
	applyFlags(cmd, c)

	if c.Serial.Port != "/dev/ttyUSB3" {
		t.Errorf("Port = %q", c.Serial.Port)
	}
	if c.Meter.WaitTimeout != 2*time.Second {
		t.Errorf("WaitTimeout = %v", c.Meter.WaitTimeout)
	}
	if c.Serial.BaudRate != 9600 {
		t.Errorf("BaudRate = %d, unset flag must keep the config value", c.Serial.BaudRate)
	}
}

func TestWriteRecordCSV(t *testing.T) {
	unit := protocol.UnitExp{Unit: protocol.UnitVDC, Exponent: -3}
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	items := []protocol.RecordItem{
		{Value: protocol.Value{Value: 1.5, Precision: 1}, Timestamp: at},
		{Value: protocol.Value{OverloadPos: true}, Timestamp: at.Add(time.Second)},
		{Value: protocol.Value{OverloadNeg: true}, Timestamp: at.Add(2 * time.Second)},
	}

	var buf bytes.Buffer
	if err := writeRecordCSV(&buf, &protocol.RecordInfo{Unit: unit}, items); err != nil {
		t.Fatalf("writeRecordCSV() error = %v", err)
	}

	want := "time,value,unit\n" +
		"2024-05-06T07:08:09Z,1.5,mVDC\n" +
		"2024-05-06T07:08:10Z,OL,mVDC\n" +
		"2024-05-06T07:08:11Z,-OL,mVDC\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestFail(t *testing.T) {
	var stderr bytes.Buffer
	cmd := versionCmd
	cmd.SetErr(&stderr)
	t.Cleanup(func() { cmd.SetErr(nil) })

	err := fail(cmd, "Mode change failed", dmm.NewTimeoutError("set mode"))

	var shown *shownError
	if !errors.As(err, &shown) {
		t.Fatalf("fail() = %T, want *shownError", err)
	}
	if !cmd.SilenceUsage {
		t.Error("usage not silenced")
	}
	out := stderr.String()
	for _, want := range []string{"Mode change failed", "timeout", "Troubleshooting"} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "ut181a ") || !strings.Contains(out, "commit:") {
		t.Errorf("version output = %q", out)
	}
}

func TestModeListCommand(t *testing.T) {
	out, _, err := execute(t, "mode", "list")
	if err != nil {
		t.Fatalf("mode list error = %v", err)
	}
	for _, want := range []string{"vdc-rel", "VDC/Rel", "0x3112"} {
		if !strings.Contains(out, want) {
			t.Errorf("mode list missing %q", want)
		}
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ut181a", "config.yaml")

	out, _, err := execute(t, "config", "init", "--config", path)
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !hasLine(out, path) {
		t.Errorf("config init output missing path line %q:\n%s", path, out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	_, stderr, err := execute(t, "config", "init", "--config", path)
	var shown *shownError
	if !errors.As(err, &shown) {
		t.Fatalf("second init error = %v, want shown failure", err)
	}
	if !strings.Contains(stderr, "--force") {
		t.Errorf("stderr missing --force hint:\n%s", stderr)
	}
	if !hasLine(stderr, path) {
		t.Errorf("stderr missing path line %q:\n%s", path, stderr)
	}

	out, _, err = execute(t, "config", "show", "--config", path, "--port", "/dev/ttyACM1")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"# UT181A Configuration File", "port: /dev/ttyACM1", "baud_rate: 9600"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestCommandArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"mode", "set", "kelvin"}},
		{"bad range", []string{"range", "set", "step9"}},
		{"bad reference", []string{"reference", "abc"}},
		{"bad switch", []string{"minmax", "sometimes"}},
		{"bad index", []string{"saves", "get", "x"}},
		{"bad interval", []string{"record", "start", "run", "fast", "10"}},
		{"missing args", []string{"record", "start", "run"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, tt.args...); err == nil {
				t.Errorf("%v: expected error", tt.args)
			}
		})
	}
}

func TestDecodeCapture(t *testing.T) {
	success := protocol.BuildFrame([]byte{0x01, 'O', 'K'})
	corrupt := protocol.BuildFrame([]byte{0x01, 'E', 'R'})
	corrupt[len(corrupt)-1] ^= 0xFF
	unknown := protocol.BuildFrame([]byte{0x42})

	var capture []byte
	capture = append(capture, 0x00, 0x11)
	capture = append(capture, corrupt...)
	capture = append(capture, success...)
	capture = append(capture, unknown...)
	capture = append(capture, 0xAB, 0xCD, 0x09)

	r := decodeCapture(capture)
	if len(r.frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(r.frames))
	}
	if r.resyncs != 1 {
		t.Errorf("resyncs = %d, want 1", r.resyncs)
	}
	if r.trailing != 3 {
		t.Errorf("trailing = %d, want 3", r.trailing)
	}
	if r.types["Success"] != 1 || r.types["undecodable"] != 1 {
		t.Errorf("types = %v", r.types)
	}
	if r.frames[1].offset != 2+len(corrupt)+len(success) {
		t.Errorf("second frame offset = %d", r.frames[1].offset)
	}
}

func TestReadHexCapture(t *testing.T) {
	got, err := readHexCapture(strings.NewReader("AB:CD 0x05,00\n01 4f"))
	if err != nil {
		t.Fatalf("readHexCapture() error = %v", err)
	}
	if !bytes.Equal(got, []byte{0xAB, 0xCD, 0x05, 0x00, 0x01, 0x4F}) {
		t.Errorf("readHexCapture() = % X", got)
	}

	if _, err := readHexCapture(strings.NewReader("abc")); err == nil {
		t.Error("odd-length capture should fail")
	}
}

// hasLine reports whether out has a line equal to want
func hasLine(out, want string) bool {
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == want {
			return true
		}
	}
	return false
}

func TestConfigInit_LongPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), strings.Repeat("nested-directory-", 6))
	path := filepath.Join(dir, "ut181a", "config.yaml")

	out, _, err := execute(t, "config", "init", "--config", path)
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !hasLine(out, path) {
		t.Errorf("long path was not printed whole:\n%s", out)
	}
}
