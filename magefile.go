//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the addresspack binary into the bin/ directory.
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", "./bin/addresspack", "./cmd/addresspack")
}

// Install copies the addresspack binary to /usr/local/bin.
func Install() error {
	mg.Deps(Build)
	fmt.Println("Installing...")
	return sh.Run("cp", "bin/addresspack", "/usr/local/bin/addresspack")
}

// Test runs all tests in the project with verbose output.
func Test() error {
	fmt.Println("Running Tests...")
	return sh.Run("go", "test", "-v", "./...")
}

// TestSpecific runs the batching test of the ingest scheduler.
func TestSpecific() error {
	fmt.Println("Running Specific Test...")
	return sh.Run("go", "test", "-test.fullpath=true", "-timeout", "30s", "-run", "^TestSchedulerRun_TransactionsPerBatch$", "github.com/darianmavgo/addresspack/ingest")
}

// Load builds the binary and loads ./data into ./addresspack.sqlite.
func Load() error {
	mg.Deps(Build)
	fmt.Println("Loading...")
	return sh.RunV("./bin/addresspack", "load", "-v")
}

// Clean removes the bin directory and local databases.
func Clean() error {
	fmt.Println("Cleaning...")
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	for _, f := range []string{"addresspack.sqlite", "addresspack.sqlite-wal", "addresspack.sqlite-shm"} {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Running go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Check runs formatting and linting checks (fmt, vet).
func Check() error {
	mg.Deps(Fmt, Vet)
	return nil
}

// Fmt runs go fmt ./...
func Fmt() error {
	fmt.Println("Running go fmt...")
	return sh.Run("go", "fmt", "./...")
}

// Vet runs go vet ./...
func Vet() error {
	fmt.Println("Running go vet...")
	return sh.Run("go", "vet", "./...")
}
