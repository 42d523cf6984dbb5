package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestInfoVerbose(t *testing.T) {
	tests := []struct {
		name           string
		verbose        bool
		format         string
		args           []interface{}
		expectOutput   bool
		expectedSubstr string
	}{
		{
			name:           "verbose enabled - should output",
			verbose:        true,
			format:         "describing %s",
			args:           []interface{}{"Account"},
			expectOutput:   true,
			expectedSubstr: "describing Account",
		},
		{
			name:         "verbose disabled - should not output",
			verbose:      false,
			format:       "describing %s",
			args:         []interface{}{"Account"},
			expectOutput: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLoggerWithWriter(tt.verbose, false, false, buf)

			logger.InfoVerbose(tt.format, tt.args...)

			output := buf.String()
			if tt.expectOutput {
				if !strings.Contains(output, tt.expectedSubstr) {
					t.Errorf("expected output to contain %q, got %q", tt.expectedSubstr, output)
				}
			} else if output != "" {
				t.Errorf("expected no output, got %q", output)
			}
		})
	}
}

func TestWarningVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLoggerWithWriter(false, false, false, buf)

	logger.WarningVerbose("quiet")
	if buf.String() != "" {
		t.Errorf("expected no output, got %q", buf.String())
	}

	logger.SetVerbose(true)
	logger.WarningVerbose("loud %d", 1)
	if !strings.Contains(buf.String(), "loud 1") {
		t.Errorf("expected warning in verbose mode, got %q", buf.String())
	}
}

func TestNilLogger(t *testing.T) {
	var logger *Logger
	logger.Info("info")
	logger.InfoVerbose("info")
	logger.Warning("warn")
	logger.WarningVerbose("warn")
	logger.Error("error")
	logger.Success("ok")
	logger.Debug("debug")
	logger.Request("GET", "https://x")
	logger.Response("GET", "https://x", 200, time.Second)
	logger.SetVerbose(true)
	logger.SetWriter(&bytes.Buffer{})
	if logger.Verbose() {
		t.Error("nil logger should never be verbose")
	}
}

func TestLoggerBasicFunctions(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLoggerWithWriter(false, false, false, buf)

	cases := []struct {
		name string
		fn   func(string, ...interface{})
		want string
	}{
		{"Info", logger.Info, "INFO"},
		{"Error", logger.Error, "ERROR"},
		{"Success", logger.Success, "OK"},
		{"Warning", logger.Warning, "WARN"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf.Reset()
			c.fn("%s message", c.name)
			out := buf.String()
			if !strings.Contains(out, c.name+" message") || !strings.Contains(out, c.want) {
				t.Errorf("unexpected output %q", out)
			}
		})
	}

	t.Run("Debug verbose disabled", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if buf.String() != "" {
			t.Errorf("expected Debug to stay silent, got %q", buf.String())
		}
	})

	t.Run("Debug verbose enabled", func(t *testing.T) {
		buf.Reset()
		logger.SetVerbose(true)
		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Errorf("expected Debug output, got %q", buf.String())
		}
	})
}

func TestColorOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	NewLoggerWithWriter(false, true, false, buf).Error("boom")
	if !strings.Contains(buf.String(), colorRed) {
		t.Errorf("expected colored output, got %q", buf.String())
	}

	buf.Reset()
	NewLoggerWithWriter(false, false, false, buf).Error("boom")
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("expected plain output, got %q", buf.String())
	}
}

func TestHTTPTrace(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLoggerWithWriter(false, false, false, buf)
	logger.Request("GET", "https://x/services/data")
	if buf.String() != "" {
		t.Fatalf("expected no trace without traceHTTP, got %q", buf.String())
	}

	logger = NewLoggerWithWriter(false, false, true, buf)
	logger.Request("GET", "https://x/services/data")
	logger.Response("GET", "https://x/services/data", 401, 15*time.Millisecond)
	out := buf.String()
	if !strings.Contains(out, "GET https://x/services/data") || !strings.Contains(out, "401") {
		t.Errorf("unexpected trace output %q", out)
	}
}

func TestSetWriter(t *testing.T) {
	buf1 := &bytes.Buffer{}
	buf2 := &bytes.Buffer{}

	logger := NewLoggerWithWriter(false, false, false, buf1)
	logger.Info("message1")
	if !strings.Contains(buf1.String(), "message1") {
		t.Error("expected message to be written to buf1")
	}

	buf1.Reset()
	logger.SetWriter(buf2)
	logger.Info("message2")

	if buf1.String() != "" {
		t.Error("expected buf1 to be empty after changing writer")
	}
	if !strings.Contains(buf2.String(), "message2") {
		t.Error("expected message to be written to buf2")
	}
}
