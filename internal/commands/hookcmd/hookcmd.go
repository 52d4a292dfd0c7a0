// Package hookcmd installs and removes memhook's entries in the host
// settings.json while leaving every foreign entry untouched.
package hookcmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/memhook/internal/app"
	"github.com/dotcommander/memhook/internal/output"
)

const commandFallback = "memhook"

type hookHandler struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	// Timeout is in seconds; each sits above the hook's internal deadline.
	Timeout int `json:"timeout"`
}

type hookEntry struct {
	Matcher string        `json:"matcher"`
	Hooks   []hookHandler `json:"hooks"`
}

// subcommands maps host events to the memhook hook subcommand handling them.
//
//nolint:gochecknoglobals // read-only lookup table
var subcommands = map[string]string{
	"PreCompact":       "precompact",
	"UserPromptSubmit": "prompt",
	"Stop":             "stop",
}

//nolint:gochecknoglobals // read-only lookup table
var timeouts = map[string]int{
	"PreCompact":       15,
	"UserPromptSubmit": 12,
	"Stop":             15,
}

// SettingsPath returns the user-level settings file, or ./.claude/settings.json
// when projectScoped.
func SettingsPath(projectScoped bool) string {
	if !projectScoped {
		return app.HostSettingsPath()
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return filepath.Join(wd, ".claude", "settings.json")
}

func executable() string {
	exe, err := os.Executable()
	if err != nil || strings.TrimSpace(exe) == "" {
		return commandFallback
	}
	return exe
}

func buildCommand(exe, sub string) string {
	if exe == commandFallback {
		return fmt.Sprintf("memhook hook %s", sub)
	}
	return fmt.Sprintf("%q hook %s", exe, sub)
}

func buildHooks(exe string) map[string]hookEntry {
	out := make(map[string]hookEntry, len(subcommands))
	for event, sub := range subcommands {
		out[event] = hookEntry{
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildCommand(exe, sub),
				Timeout: timeouts[event],
			}},
		}
	}
	return out
}

// EventNames lists the host events memhook registers for, sorted.
func EventNames() []string {
	events := make([]string, 0, len(subcommands))
	for name := range subcommands {
		events = append(events, name)
	}
	sort.Strings(events)
	return events
}

// IsMemhookCommand reports whether a hook command string invokes one of
// memhook's hook entry points.
func IsMemhookCommand(command string) bool {
	exe, rest := splitExecutable(strings.TrimSpace(command))
	args := strings.Fields(rest)
	if filepath.Base(exe) != "memhook" || len(args) < 2 || args[0] != "hook" {
		return false
	}
	for _, sub := range subcommands {
		if args[1] == sub {
			return true
		}
	}
	return false
}

// splitExecutable separates the program from its arguments. A quoted program
// path may contain spaces.
func splitExecutable(command string) (string, string) {
	if command == "" {
		return "", ""
	}
	if q := command[0]; q == '"' || q == '\'' {
		if end := strings.IndexByte(command[1:], q); end >= 0 {
			return command[1 : end+1], command[end+2:]
		}
	}
	exe, rest, _ := strings.Cut(command, " ")
	return exe, rest
}

func isMemhookEntry(entry any) bool {
	entryMap, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	hooks, ok := entryMap["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		hMap, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, _ := hMap["command"].(string); IsMemhookCommand(cmd) {
			return true
		}
	}
	return false
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the host settings file
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

type outcome int

const (
	installed outcome = iota
	updated
	skipped
)

func entriesEqual(a, b any) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

// upsertEntry drops existing memhook entries and appends want, keeping
// foreign entries in their original order.
func upsertEntry(existing []any, want map[string]any) ([]any, outcome) {
	kept := make([]any, 0, len(existing)+1)
	had, same := false, false
	for _, entry := range existing {
		if isMemhookEntry(entry) {
			had = true
			if entriesEqual(entry, want) {
				same = true
			}
			continue
		}
		kept = append(kept, entry)
	}
	kept = append(kept, want)
	switch {
	case same:
		return kept, skipped
	case had:
		return kept, updated
	default:
		return kept, installed
	}
}

func removeEntries(existing []any) []any {
	var kept []any
	for _, entry := range existing {
		if !isMemhookEntry(entry) {
			kept = append(kept, entry)
		}
	}
	return kept
}

// InstallReport describes what Install changed.
type InstallReport struct {
	Path      string   `json:"path"`
	Installed []string `json:"installed"`
	Updated   []string `json:"updated,omitempty"`
	Skipped   []string `json:"skipped"`
}

// Install writes memhook's hook entries into the settings file at path.
func Install(path, exe string) (InstallReport, error) {
	report := InstallReport{Path: path, Installed: []string{}, Skipped: []string{}}

	settings, err := readSettings(path)
	if err != nil {
		return report, err
	}
	hooksObj, _ := settings["hooks"].(map[string]any)
	if hooksObj == nil {
		hooksObj = map[string]any{}
	}

	for event, entry := range buildHooks(exe) {
		existing, _ := hooksObj[event].([]any)

		entryJSON, _ := json.Marshal(entry)
		var entryMap map[string]any
		_ = json.Unmarshal(entryJSON, &entryMap)

		entries, result := upsertEntry(existing, entryMap)
		hooksObj[event] = entries
		switch result {
		case installed:
			report.Installed = append(report.Installed, event)
		case updated:
			report.Updated = append(report.Updated, event)
		case skipped:
			report.Skipped = append(report.Skipped, event)
		}
	}

	settings["hooks"] = hooksObj
	if err := writeSettings(path, settings); err != nil {
		return report, err
	}
	sort.Strings(report.Installed)
	sort.Strings(report.Updated)
	sort.Strings(report.Skipped)
	return report, nil
}

// UninstallReport describes what Uninstall removed.
type UninstallReport struct {
	Path    string   `json:"path"`
	Removed []string `json:"removed"`
}

// Uninstall removes memhook's hook entries from the settings file at path.
func Uninstall(path string) (UninstallReport, error) {
	report := UninstallReport{Path: path, Removed: []string{}}

	settings, err := readSettings(path)
	if err != nil {
		return report, err
	}
	hooksObj, _ := settings["hooks"].(map[string]any)
	if hooksObj == nil {
		return report, nil
	}

	for _, event := range EventNames() {
		entries, ok := hooksObj[event].([]any)
		if !ok {
			continue
		}
		kept := removeEntries(entries)
		if len(kept) != len(entries) {
			report.Removed = append(report.Removed, event)
		}
		if len(kept) == 0 {
			delete(hooksObj, event)
		} else {
			hooksObj[event] = kept
		}
	}
	if len(report.Removed) == 0 {
		return report, nil
	}

	settings["hooks"] = hooksObj
	return report, writeSettings(path, settings)
}

// Installed returns the events whose entries in path invoke memhook.
func Installed(path string) []string {
	settings, err := readSettings(path)
	if err != nil {
		return nil
	}
	hooksObj, _ := settings["hooks"].(map[string]any)
	var out []string
	for _, event := range EventNames() {
		entries, _ := hooksObj[event].([]any)
		for _, entry := range entries {
			if isMemhookEntry(entry) {
				out = append(out, event)
				break
			}
		}
	}
	return out
}

// NewInstallCmd creates the hook install command.
func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register memhook's PreCompact, UserPromptSubmit and Stop hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectScoped, _ := cmd.Flags().GetBool("project")
			report, err := Install(SettingsPath(projectScoped), executable())
			if err != nil {
				return err
			}

			type resp struct {
				Message string `json:"message"`
				InstallReport
			}
			msg := "hooks already installed"
			if len(report.Installed) > 0 || len(report.Updated) > 0 {
				var parts []string
				if len(report.Installed) > 0 {
					parts = append(parts, "installed "+strings.Join(report.Installed, ", "))
				}
				if len(report.Updated) > 0 {
					parts = append(parts, "updated "+strings.Join(report.Updated, ", "))
				}
				msg = strings.Join(parts, "; ")
			}
			return output.PrintSuccess(resp{Message: msg + ". Run 'memhook doctor' to verify.", InstallReport: report})
		},
	}
	cmd.Flags().Bool("project", false, "Install into ./.claude/settings.json instead of the user settings")
	return cmd
}

// NewUninstallCmd creates the hook uninstall command.
func NewUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove memhook's hook entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectScoped, _ := cmd.Flags().GetBool("project")
			report, err := Uninstall(SettingsPath(projectScoped))
			if err != nil {
				return err
			}
			return output.PrintSuccess(report)
		},
	}
	cmd.Flags().Bool("project", false, "Uninstall from ./.claude/settings.json")
	return cmd
}
