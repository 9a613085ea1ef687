package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{out: &buf, Every: 2}
	r.Start(3, "Parsing trades")
	for i := 1; i <= 3; i++ {
		r.Update(i)
	}
	r.Finish("Imported 3 trades")

	want := "Parsing trades: 3 rows\n[2/3] Parsing trades\n[3/3] Parsing trades\nImported 3 trades\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestCIReporterUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{out: &buf, Every: 1}
	r.Start(-1, "Parsing trades")
	r.Update(1)
	if !strings.Contains(buf.String(), "[1] Parsing trades") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter(&bytes.Buffer{}).(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestNewReporterTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	var buf bytes.Buffer
	r := NewReporter(&buf)
	if _, ok := r.(*TerminalReporter); !ok {
		t.Fatal("expected TerminalReporter")
	}
	r.Start(2, "Parsing trades")
	r.Update(2)
	r.Finish("done")
	if !strings.Contains(buf.String(), "done") {
		t.Errorf("output = %q", buf.String())
	}
}
