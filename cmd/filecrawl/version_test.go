package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildInfo(t *testing.T) {
	t.Parallel()

	if getVersion() == "" {
		t.Error("getVersion() returned empty string")
	}
	if getCommit() == "" {
		t.Error("getCommit() returned empty string")
	}
	if len(getCommit()) > 7 && getCommit() != commit {
		t.Errorf("getCommit() = %q, expected at most 7 characters", getCommit())
	}
	if getDate() == "" {
		t.Error("getDate() returned empty string")
	}
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	ua := userAgent()
	if !strings.HasPrefix(ua, "filecrawl/") {
		t.Errorf("userAgent() = %q, expected filecrawl/ prefix", ua)
	}
	if strings.Contains(ua, "(devel)") {
		t.Errorf("userAgent() = %q, expected no (devel) marker", ua)
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()
	if cmd.Use != "version" {
		t.Errorf("expected Use to be 'version', got %q", cmd.Use)
	}

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"filecrawl version", "commit:", "built:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}
