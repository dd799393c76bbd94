package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "debug", want: zapcore.DebugLevel},
		{in: "INFO", want: zapcore.InfoLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if DebugEnabled() {
		t.Error("DebugEnabled() = true for silent logger")
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("silent logger accepts error entries")
	}
}

func TestLogFrame(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := GetLogger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	LogFrame("tx", "monitor on", []byte{0xAB, 0xCD, 0x04, 0x00, 0x05, 0x01, 0x0A, 0x00})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["hex"] != "abcd040005010a00" {
		t.Errorf("hex = %v, want abcd040005010a00", fields["hex"])
	}
	if fields["command"] != "monitor on" {
		t.Errorf("command = %v, want monitor on", fields["command"])
	}
}

func TestDumps(t *testing.T) {
	if got := asciiDump([]byte("OK\x00\xff")); got != "OK.." {
		t.Errorf("asciiDump() = %q, want %q", got, "OK..")
	}

	long := make([]byte, maxDumpBytes+10)
	if got := hexDump(long); len(got) != 2*maxDumpBytes+3 {
		t.Errorf("hexDump() length = %d, want %d", len(got), 2*maxDumpBytes+3)
	}
}
