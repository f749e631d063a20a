//go:build integration || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedDevscorePath holds the path to a shared devscore binary built once for all tests.
	sharedDevscorePath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getDevscoreBinary returns the path to the devscore binary, building it once if needed.
func getDevscoreBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "devscore-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		devscorePath := filepath.Join(tempDir, "devscore")
		buildCmd := exec.Command("go", "build", "-o", devscorePath, "./cmd/devscore")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build devscore: %v", err))
		}

		sharedDevscorePath = devscorePath
	})

	return sharedDevscorePath
}

// runDevscoreCommand runs the shared binary with the given arguments and
// returns its combined output.
func runDevscoreCommand(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	devscorePath := getDevscoreBinary()
	cmd := exec.Command(devscorePath, args...)
	cmd.Dir = "../" // Run from project root
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}
