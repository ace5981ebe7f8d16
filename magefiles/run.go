//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

type Test mg.Namespace

// Decodes the file named by $HEIF_FILE and writes a PNG next to it.
func (Run) Decode() error {
	mg.Deps(Build.Binary)
	file := os.Getenv("HEIF_FILE")
	if file == "" {
		return fmt.Errorf("set HEIF_FILE to the image to decode")
	}
	fmt.Println("Decoding", file)
	_, err := executeCmd("bin/heifloader", withArgs("decode", file), withStream())
	return err
}

// Runs the unit tests against the fake codec. No libheif required.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "-tags", "noheif", "./..."), withEnv("CGO_ENABLED=0"), withStream())
	return err
}

// Runs the full test suite, including the libheif binding.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}
