package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLevelDefaults(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("", true).GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("", false).GetLevel())
	assert.Equal(t, logrus.WarnLevel, New("WARN", false).GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("loud", false).GetLevel())
}

func TestNewFormatterByEnvironment(t *testing.T) {
	_, isJSON := New("info", false).Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
	_, isText := New("info", true).Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}
