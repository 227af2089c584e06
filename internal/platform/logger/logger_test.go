package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsRouteToWriters(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLogger(&out, &errOut, 0)

	l.Info("hello")
	l.Warnf("slow %d", 3)
	l.Errorf("boom: %s", "disk")
	l.Event("GAME_WON", "S1", "8x8")

	if got := out.String(); !strings.Contains(got, "[MINES-INFO] hello") ||
		!strings.Contains(got, "[MINES-WARN] slow 3") ||
		!strings.Contains(got, "[EVENT:GAME_WON] Actor:S1 | 8x8") {
		t.Errorf("unexpected stdout: %q", got)
	}
	if got := errOut.String(); got != "[MINES-ERROR] boom: disk\n" {
		t.Errorf("unexpected stderr: %q", got)
	}
}
