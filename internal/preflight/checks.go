package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"gale8/internal/config"
	"gale8/internal/deps"
	"gale8/internal/recognizer"
	"gale8/internal/storage"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckModel verifies that the recognizer model directory is readable and
// that a speech backend is compiled in.
func CheckModel(path string) Result {
	const name = "Speech model"

	if path == "" {
		return Result{Name: name, Detail: "model_path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)}
	}
	if !recognizer.Available() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: built without vosk support)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckStore verifies that the blob store answers a listing.
func CheckStore(ctx context.Context, name string, store storage.Store, prefix string) Result {
	if store == nil {
		return Result{Name: name, Detail: "not configured"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	objects, err := store.List(checkCtx, prefix)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("list %q failed (%v)", prefix, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d objects under %q)", len(objects), prefix)}
}

// CheckSystemDeps evaluates the external programs gale8 runs.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		deps.FFmpegRequirement(cfg.FFmpegBinary()),
		deps.FFprobeRequirement(),
	})
}
