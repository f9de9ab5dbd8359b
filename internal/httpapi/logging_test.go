package httpapi

import (
	"bytes"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	// query param ?log=debug
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	// shorthand ?log=1
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("shorthand query override failed: %v", got)
	}
	// header X-Log-Level
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
}

func TestSetRequestLogLevel(t *testing.T) {
	prev := defaultLogLevel
	defer func() { defaultLogLevel = prev }()
	SetRequestLogLevel("info")
	if got := requestLogLevel(httptest.NewRequest("GET", "/x", nil)); got != LevelInfo {
		t.Fatalf("default level not applied: %v", got)
	}
}

func TestLogOutcome_Thresholds(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())
	r := httptest.NewRequest("POST", "/process", nil)

	logOutcome(r, LevelError, "process", 202, time.Now(), nil)
	if buf.Len() != 0 {
		t.Fatalf("success must not log at error level: %q", buf.String())
	}
	logOutcome(r, LevelError, "process", 500, time.Now(), errTest)
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("failure should log at error level: %q", buf.String())
	}
	buf.Reset()
	logOutcome(r, LevelOff, "process", 500, time.Now(), errTest)
	if buf.Len() != 0 {
		t.Fatalf("off must not log: %q", buf.String())
	}
}

func TestLogOutcome_FallsBackToStdLog(t *testing.T) {
	prev := zlog
	zlog = nil
	defer func() { zlog = prev }()
	var buf bytes.Buffer
	orig := log.Writer()
	defer log.SetOutput(orig)
	log.SetOutput(&buf)

	logOutcome(httptest.NewRequest("POST", "/process", nil), LevelInfo, "process", 202, time.Now(), nil)
	if !strings.Contains(buf.String(), "process end status=202") {
		t.Fatalf("missing std log line: %q", buf.String())
	}
}

type testErr string

func (e testErr) Error() string { return string(e) }

const errTest = testErr("boom")
