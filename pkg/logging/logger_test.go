package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerUsesJSONFormatter(t *testing.T) {
	logger := NewLogger()
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", logger.Formatter)
	}
}

func TestNewLoggerRespectsLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	logger := NewLogger()
	if logger.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", logger.GetLevel())
	}
}

func TestNewLoggerWithService(t *testing.T) {
	logger := NewLoggerWithService("siren")
	if logger == nil {
		t.Fatal("expected logger")
	}
}
