package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://localhost:8080", c.ServerURL)
	assert.Equal(t, "gophdrive.db", c.StateDB)
	assert.Equal(t, 300*time.Millisecond, c.SearchDebounce)
	assert.Equal(t, "downloads", c.DownloadDir)
}
