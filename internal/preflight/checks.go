package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"promptindex/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
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
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckFFprobe reports whether the configured ffprobe binary can be found
// and run. Without ffprobe, videos are indexed without container tags, so
// the check is optional.
func CheckFFprobe(ctx context.Context, binary string) Result {
	status := deps.CheckBinaries([]deps.Requirement{{
		Name:        "FFprobe",
		Command:     binary,
		Description: "Reads video container tags",
		Optional:    true,
	}})[0]

	result := Result{Name: status.Name, Optional: true}
	if !status.Available {
		result.Detail = status.Detail
		return result
	}
	version, err := deps.Version(ctx, status.Command)
	if err != nil {
		result.Detail = fmt.Sprintf("%s (error: %v)", status.Command, err)
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("%s (%s)", status.Command, version)
	return result
}
