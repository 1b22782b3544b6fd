package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	configFileName = "savannah.conf"
	defaultDirName = ".savannah"
)

type Config struct {
	RootDir     string
	ScanWorkers int
	LogLevel    string
	LogPretty   bool
	Hash        string
}

// DefaultDir returns the path to the store directory in the user's home directory.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, defaultDirName), nil
}

// DefaultPath returns the path of the configuration file inside the default directory.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the configuration file at path. A missing file yields the defaults; a root_dir
// that is not set defaults to the directory holding the file.
func Load(path string) (*Config, error) {
	config := &Config{
		RootDir:  filepath.Dir(path),
		LogLevel: "info",
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected key = value", lineNo)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "root_dir":
			config.RootDir = value
		case "scan_workers":
			config.ScanWorkers, err = strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid scan workers value: %w", err)
			}
		case "log_level":
			config.LogLevel = value
		case "log_pretty":
			config.LogPretty, err = strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("invalid log pretty value: %w", err)
			}
		case "hash":
			config.Hash = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	var errGrp []error
	if c.RootDir == "" {
		errGrp = append(errGrp, errors.New("root_dir must not be empty"))
	}
	if c.ScanWorkers < 0 {
		errGrp = append(errGrp, errors.New("scan_workers must not be negative"))
	}
	switch c.Hash {
	case "", "md5", "fnv":
	default:
		errGrp = append(errGrp, fmt.Errorf("unknown hash %q", c.Hash))
	}
	return errors.Join(errGrp...)
}
