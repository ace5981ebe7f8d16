//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the heifloader binary linked against the system libheif.
func (Build) Binary() error {
	if _, err := executeCmd("pkg-config", withArgs("--exists", "libheif")); err != nil {
		return fmt.Errorf("libheif development files not found: %w", err)
	}
	_, err := executeCmd("go", withArgs("build", "-o", "bin/heifloader", "."), withStream())
	return err
}

// Builds the binary without libheif. Every decode fails with ErrUnavailable.
func (Build) NoHeif() error {
	_, err := executeCmd("go", withArgs("build", "-tags", "noheif", "-o", "bin/heifloader-noheif", "."), withEnv("CGO_ENABLED=0"), withStream())
	return err
}
