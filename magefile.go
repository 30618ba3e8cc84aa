//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "linguist"

var Default = Build

// Build compiles the linguist binary into the repository root
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/linguist")
}

// Test runs all package tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestRace runs all package tests with the race detector
func TestRace() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install builds and copies the binary to ~/go/bin
func Install() error {
	mg.Deps(Build)

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dest := filepath.Join(home, "go", "bin", binary)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	fmt.Println("Installing to", dest)
	return sh.Copy(dest, binary)
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm(binary)
}
