package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger_CallerOnlyAtDebug(t *testing.T) {
	tests := []struct {
		level      log.Level
		wantCaller bool
	}{
		{log.InfoLevel, false},
		{log.DebugLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			newLogger(&buf, tt.level).Info("loaded")
			if got := strings.Contains(buf.String(), "log_test.go:"); got != tt.wantCaller {
				t.Errorf("caller reported = %v, want %v: %q", got, tt.wantCaller, buf.String())
			}
		})
	}
}

func TestTimings(t *testing.T) {
	var buf bytes.Buffer
	tm := startTimings(newLogger(&buf, log.InfoLevel))
	tm.stage("read")
	tm.stage("build")
	tm.done("Loaded trace", "nodes", 6)

	out := buf.String()
	if strings.Contains(out, "stage finished") {
		t.Errorf("stage lines logged at info level: %q", out)
	}
	if n := strings.Count(out, "\n"); n != 1 {
		t.Errorf("got %d lines, want 1: %q", n, out)
	}
	for _, want := range []string{"Loaded trace", "nodes=6", "read=", "build=", "total="} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q: %q", want, out)
		}
	}
	if strings.Index(out, "read=") > strings.Index(out, "build=") {
		t.Errorf("stages out of order: %q", out)
	}
}

func TestTimings_StagesAtDebug(t *testing.T) {
	var buf bytes.Buffer
	tm := startTimings(newLogger(&buf, log.DebugLevel))
	tm.stage("resolve")
	if !strings.Contains(buf.String(), "stage=resolve") {
		t.Errorf("debug output = %q, want the finished stage", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should fall back to log.Default()")
	}
	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Error("loggerFromContext() lost the attached logger")
	}
}

func TestOpenSession_LogsStages(t *testing.T) {
	f := newFixture(t)
	var logs bytes.Buffer
	c := New(&logs, LogDebug)
	ctx := withLogger(context.Background(), c.Logger)

	sess, err := c.openSession(ctx, f.trace)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Graph().NodeCount() != 6 {
		t.Fatalf("NodeCount() = %d, want 6", sess.Graph().NodeCount())
	}

	out := logs.String()
	for _, want := range []string{
		"built instantiation graph", // from the session, through the context logger
		"stage=read",
		"stage=build",
		"Loaded trace",
		"file=run.json",
		"nodes=6",
		"edges=5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("logs miss %q:\n%s", want, out)
		}
	}
}

func TestFilterCommand_LogsView(t *testing.T) {
	f := newFixture(t)
	var logs bytes.Buffer
	c := New(&logs, LogDebug)
	root := c.RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", f.config, "filter", f.trace, "-d", "none"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	out := logs.String()
	for _, want := range []string{"applied view", "Applied view", "visible=6", "stage=apply"} {
		if !strings.Contains(out, want) {
			t.Errorf("logs miss %q:\n%s", want, out)
		}
	}
}
