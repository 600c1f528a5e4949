package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetVersion(t *testing.T) {
	original := versionInfo
	t.Cleanup(func() { versionInfo = original })

	SetVersion("1.2.3", "abc123", "2025-01-01")

	if versionInfo.Version != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got '%s'", versionInfo.Version)
	}
	if versionInfo.Commit != "abc123" {
		t.Errorf("Expected commit 'abc123', got '%s'", versionInfo.Commit)
	}
	if versionInfo.Date != "2025-01-01" {
		t.Errorf("Expected date '2025-01-01', got '%s'", versionInfo.Date)
	}
}

func TestVersionCmd(t *testing.T) {
	original := versionInfo
	t.Cleanup(func() { versionInfo = original })
	SetVersion("0.4.0", "deadbeef", "2025-06-01")

	cmd := NewVersionCmd()
	if cmd.Use != "version" {
		t.Errorf("Expected Use to be 'version', got '%s'", cmd.Use)
	}

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, []string{})

	output := buf.String()
	for _, want := range []string{"HerHaq 0.4.0", "Commit: deadbeef", "Built:  2025-06-01"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %q", want, output)
		}
	}
}
