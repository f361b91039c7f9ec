package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field documents one configuration key
type Field struct {
	Key         string `yaml:"key"`
	Type        string `yaml:"type"`
	Default     string `yaml:"default"`
	Description string `yaml:"description"`
}

// Schema lists every key understood in .nextaudit.yaml
func Schema() []Field {
	return []Field{
		{"project.router", "string", `""`, "Router flavour of the project (informational)"},
		{"project.target", "string", `""`, "Build target of the project (informational)"},
		{"ignore", "list of strings", "[" + strings.Join(DefaultIgnore(), ", ") + "]", "Base names of files and directories never scanned"},
		{"thresholds.large_file_kb", "integer > 0", fmt.Sprint(DefaultLargeFileKB), "Script size above which perf::large_file is reported; files over 10x this are skipped"},
		{"scan.workers", "integer >= 0", "0", "Evaluation workers (0 = number of CPUs)"},
		{"history.enabled", "boolean", "false", "Record every scan in the history database"},
		{"history.db_path", "string", DefaultHistoryDBPath, "History database, relative to the scanned directory"},
		{"log_level", "trace|debug|info|warn|error", DefaultLogLevel, "Console log verbosity"},
	}
}

// SchemaYAML renders Schema as a YAML document.
func SchemaYAML() ([]byte, error) {
	data, err := yaml.Marshal(map[string][]Field{"fields": Schema()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	return data, nil
}

// starterDocument is the file written by InitFile
type starterDocument struct {
	Project    ProjectConfig `yaml:"project"`
	Ignore     []string      `yaml:"ignore"`
	Thresholds struct {
		LargeFileKB uint `yaml:"large_file_kb"`
	} `yaml:"thresholds"`
	Scan struct {
		Workers int `yaml:"workers"`
	} `yaml:"scan"`
	History  HistoryConfig `yaml:"history"`
	LogLevel string        `yaml:"log_level"`
}

// StarterYAML returns a configuration file populated with the defaults.
func StarterYAML() ([]byte, error) {
	cfg := DefaultConfig()

	var doc starterDocument
	doc.Project = cfg.Project
	doc.Ignore = cfg.Ignore
	doc.Thresholds.LargeFileKB = cfg.LargeFileKB
	doc.Scan.Workers = cfg.Workers
	doc.History = cfg.History
	doc.LogLevel = cfg.LogLevel

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode starter config: %w", err)
	}
	return append([]byte("# nextaudit configuration\n"), data...), nil
}

// InitFile writes a starter .nextaudit.yaml into dir and returns its path.
// An existing file is only replaced when force is set.
func InitFile(dir string, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	data, err := StarterYAML()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
