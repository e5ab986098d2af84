package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func fixClock(t *testing.T) {
	t.Helper()
	original := now
	now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() {
		now = original
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
}

func TestSetVerbose(t *testing.T) {
	fixClock(t)

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	fixClock(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	if got := buf.String(); got != "2026-10-14T09:30:00.000Z [DEBUG] test message arg\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	fixClock(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output when verbose is disabled, got %q", buf.String())
	}
}

func TestInfo(t *testing.T) {
	fixClock(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Info("listening on %s", ":8080")

	if !strings.Contains(buf.String(), "[INFO] listening on :8080") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestWarnAndError_AlwaysPrinted(t *testing.T) {
	fixClock(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("w %d", 1)
	Error("e %d", 2)

	got := buf.String()
	if !strings.Contains(got, "[WARN] w 1\n") {
		t.Errorf("missing warn line: %q", got)
	}
	if !strings.Contains(got, "[ERROR] e 2\n") {
		t.Errorf("missing error line: %q", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	fixClock(t)

	var buf bytes.Buffer
	SetOutput(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetVerbose(true)
		}()
		go func() {
			defer wg.Done()
			Debug("concurrent")
			_ = IsVerbose()
		}()
	}
	wg.Wait()
}
