package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunRequiresTokenAndMic(t *testing.T) {
	assert.ErrorContains(t, run(nil), "usage")
	assert.ErrorContains(t, run([]string{"-token", "jwt"}), "usage")
}

func TestRunReportsConnectFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.ogg")
	err := run([]string{"-token", "jwt", "-mic", missing, "-out", filepath.Join(t.TempDir(), "reply.ogg")})
	assert.ErrorContains(t, err, "connect")
	assert.ErrorContains(t, err, "microphone")
}
