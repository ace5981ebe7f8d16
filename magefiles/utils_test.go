//go:build mage

package main

import (
	"strings"
	"testing"
)

func TestExecuteCmdEnv(t *testing.T) {
	out, err := executeCmd("sh", withArgs("-c", "echo $HEIFLOADER_BUILD_TAG"), withEnv("HEIFLOADER_BUILD_TAG=noheif"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "noheif" {
		t.Errorf("got %q, want the variable passed through withEnv", out)
	}
}

func TestExecuteCmdFailure(t *testing.T) {
	if _, err := executeCmd("sh", withArgs("-c", "exit 3")); err == nil {
		t.Errorf("expected an error for a non-zero exit status")
	}
}
