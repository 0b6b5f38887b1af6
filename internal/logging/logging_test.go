package logging_test

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"job-ledger/internal/logging"
)

func TestConfigure(t *testing.T) {
	defer logging.Configure("info", "text")

	logging.Configure("debug", "json")
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	logging.Configure("nonsense", "")
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)
}

func TestComponent(t *testing.T) {
	e := logging.Component("worker")
	assert.Equal(t, "worker", e.Data["component"])
}
