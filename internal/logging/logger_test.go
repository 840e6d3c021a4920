package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"buildhooks/internal/config"
	"buildhooks/internal/logging"
)

func TestConsoleLoggerWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "delivery").Info("payload POST-ed",
		logging.String(logging.FieldDestination, "http://hook"),
		logging.Int("status", 200))

	line := buf.String()
	if !strings.Contains(line, "INFO delivery: payload POST-ed") {
		t.Fatalf("expected level, component and message, got %q", line)
	}
	if !strings.Contains(line, "destination=http://hook") || !strings.Contains(line, "status=200") {
		t.Fatalf("expected key=value fields, got %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no ANSI colour for non-terminal writer, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
}

func TestConsoleLoggerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Error("delivery failed", logging.Error(errors.New("connection refused")))

	if !strings.Contains(buf.String(), `error="connection refused"`) {
		t.Fatalf("expected quoted error value, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestLevelFiltersLowerRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("expected info record to be dropped, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn record, got %q", buf.String())
	}
}

func TestJSONLoggerAndLogFile(t *testing.T) {
	var buf bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "buildhooks.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf, FilePath: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithCorrelationID(context.Background(), "abc-123")
	logging.WithContext(ctx, logger).Info("operation finished", logging.Int64("elapsed_ms", 12))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode console json: %v (%q)", err, buf.String())
	}
	if record["msg"] != "operation finished" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
	if record[logging.FieldCorrelationID] != "abc-123" {
		t.Fatalf("expected correlation id, got %v", record[logging.FieldCorrelationID])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"operation finished"`) {
		t.Fatalf("expected record in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigCreatesLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	if _, err := os.Stat(cfg.LogPath()); err != nil {
		t.Fatalf("expected log file at %s: %v", cfg.LogPath(), err)
	}
}

func TestErrorWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.ErrorWithContext(logger, "remote listing failed", "remote_listing_failed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "remote_listing_failed" {
		t.Fatalf("expected event type, got %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatalf("expected default error hint, got %v", record)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored")
	if logger.Enabled(context.Background(), 8) {
		t.Fatal("expected nop logger to be disabled")
	}
}

func TestConsoleLoggerShowsShortCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithCorrelationID(context.Background(), "1f0c2a9e-5b7d-4c1e-9a55-0d3f1e2b7c44")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "notifications"))
	logger.Info("operation finished", logging.Elapsed(1500*time.Millisecond))

	line := buf.String()
	if !strings.Contains(line, "notifications[1f0c2a9e]: operation finished") {
		t.Fatalf("expected component with short id, got %q", line)
	}
	if !strings.Contains(line, "elapsed_ms=1500") || strings.Contains(line, "correlation_id=") {
		t.Fatalf("unexpected fields in %q", line)
	}
}

func TestConsoleLoggerQualifiesGroupedKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("scm").Info("payload built", logging.String("branch", "origin/main"))

	if !strings.Contains(buf.String(), "scm.branch=origin/main") {
		t.Fatalf("expected group-qualified key, got %q", buf.String())
	}
}

func TestWarnWithContextKeepsCallerHint(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
		logging.String(logging.FieldErrorHint, "free some disk space"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["level"] != "warn" || record[logging.FieldErrorHint] != "free some disk space" {
		t.Fatalf("unexpected record %v", record)
	}
}
