// Package ffprobe provides a typed wrapper around ffprobe JSON output for
// video files: container and stream tags, geometry, frame rate, duration.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns the parsed Result
//
// Helper methods on Result expose the first video stream, its frame rate,
// the container duration, and the merged tag map that feeds extraction.
package ffprobe
