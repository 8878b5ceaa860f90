package tasks

import (
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"startrails/internal/config"
	"startrails/internal/logging"
)

// ToolManager reports on the external programs a run may call.
type ToolManager struct {
	cfg *config.Config
	log *slog.Logger
}

// NewToolManager creates a new tool manager with configuration
func NewToolManager(cfg *config.Config, log *slog.Logger) *ToolManager {
	if log == nil {
		log = slog.Default()
	}
	return &ToolManager{cfg: cfg, log: log}
}

// ToolStatus represents the availability of a tool
type ToolStatus struct {
	Available bool
	Version   string
	Path      string
	Error     error
}

// CheckTool verifies if a tool is available and working
func (tm *ToolManager) CheckTool(toolName string) ToolStatus {
	var candidates []string
	var versionArgs []string
	switch toolName {
	case "ffmpeg":
		candidates = []string{tm.cfg.Video.Binary, "ffmpeg"}
		versionArgs = []string{"-version"}
	case "imagemagick":
		candidates = []string{"magick", "convert"}
		versionArgs = []string{"-version"}
	default:
		candidates = []string{toolName}
	}

	var path string
	var err error
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if path, err = exec.LookPath(c); err == nil {
			break
		}
	}
	if path == "" {
		if err == nil {
			err = fmt.Errorf("%s not found", toolName)
		}
		status := ToolStatus{Available: false, Error: err}
		logging.LogToolStatus(tm.log, toolName, false, "", "", err)
		return status
	}
	if versionArgs == nil {
		return ToolStatus{Available: true, Path: path}
	}

	output, err := exec.Command(path, versionArgs...).CombinedOutput()
	if err != nil && len(output) == 0 {
		logging.LogToolStatus(tm.log, toolName, false, "", path, err)
		return ToolStatus{Available: false, Path: path, Error: err}
	}
	version := extractVersion(string(output))
	logging.LogToolStatus(tm.log, toolName, true, version, path, nil)
	return ToolStatus{Available: true, Version: version, Path: path}
}

// GetToolStatus returns the status of every tool a run may need.
func (tm *ToolManager) GetToolStatus() map[string]ToolStatus {
	status := make(map[string]ToolStatus)
	for _, tool := range []string{"ffmpeg", "imagemagick"} {
		status[tool] = tm.CheckTool(tool)
	}
	return status
}

// ToolNames returns the keys of a status map in stable order.
func ToolNames(status map[string]ToolStatus) []string {
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// extractVersion extracts version information from tool output
func extractVersion(output string) string {
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "version") || strings.Contains(line, "Version") {
			return line
		}
	}
	if len(lines) > 0 {
		return strings.TrimSpace(lines[0])
	}
	return "unknown"
}
