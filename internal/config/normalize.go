package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeFFprobe()
	c.normalizeLogging()
	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = defaultSearchLimit
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(indexDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.IndexDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.IndexDir) == "" {
		c.Paths.IndexDir = defaultIndexDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}

	var err error
	if c.Paths.IndexDir, err = expandPath(c.Paths.IndexDir); err != nil {
		return fmt.Errorf("paths.index_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	dirs := make([]string, 0, len(c.Paths.LibraryDirs))
	seen := make(map[string]struct{}, len(c.Paths.LibraryDirs))
	for _, dir := range c.Paths.LibraryDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(dir))
		if err != nil {
			return fmt.Errorf("paths.library_dirs: %w", err)
		}
		if _, dup := seen[expanded]; dup {
			continue
		}
		seen[expanded] = struct{}{}
		dirs = append(dirs, expanded)
	}
	c.Paths.LibraryDirs = dirs
	return nil
}

func (c *Config) normalizeScan() {
	if c.Scan.Workers == 0 {
		c.Scan.Workers = defaultWorkers()
	}
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = append([]string(nil), defaultExtensions...)
		return
	}
	exts := make([]string, 0, len(c.Scan.Extensions))
	seen := map[string]struct{}{}
	for _, ext := range c.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	c.Scan.Extensions = exts
}

func (c *Config) normalizeFFprobe() {
	c.FFprobe.Binary = strings.TrimSpace(c.FFprobe.Binary)
	if c.FFprobe.Binary == "" {
		c.FFprobe.Binary = defaultFFprobeBinary
	}
	if c.FFprobe.TimeoutSeconds == 0 {
		c.FFprobe.TimeoutSeconds = defaultFFprobeTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}
