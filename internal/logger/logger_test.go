package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		dev       bool
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"development default", "", "text", true, logrus.DebugLevel, false},
		{"production default", "", "text", false, logrus.InfoLevel, true},
		{"explicit level", "WARN", "text", true, logrus.WarnLevel, false},
		{"json in development", "info", "json", true, logrus.InfoLevel, true},
		{"invalid level", "loud", "text", true, logrus.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.level, tt.format, tt.dev)
			assert.Equal(t, tt.wantLevel, log.GetLevel())
			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}
