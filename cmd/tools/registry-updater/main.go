// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/pkg/registry"
)

const defaultRegistryPath = "pkg/registry/activities.json"

var implementationStatuses = map[string]bool{
	"planned":     true,
	"in-progress": true,
	"completed":   true,
	"verified":    true,
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("a command is required")
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "path to registry file")
		workers := fs.String("workers", "internal/workers", "worker source root; empty skips the directory check")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := validateRegistry(reg, *workers); err != nil {
			return err
		}
		fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "path to registry file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		for _, a := range reg.Activities {
			fmt.Fprintf(out, "%-20s %-10s %-8s %s\n", a.TaskType, a.Category, a.Timeout, a.ImplementationStatus)
		}
		return nil

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "path to registry file")
		id := fs.String("id", "", "activity id to update")
		field := fs.String("field", "", "field to update (status, version, displayName, description, timeout)")
		value := fs.String("value", "", "new value for the field")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" || *field == "" || *value == "" {
			return fmt.Errorf("id, field and value are required for update")
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := updateActivity(reg, *id, *field, *value); err != nil {
			return err
		}
		reg.LastUpdated = time.Now().UTC().Format("2006-01-02")
		if err := saveRegistry(reg, *path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated activity %s, field %s to %s\n", *id, *field, *value)
		return nil

	case "help":
		help(out)
		return nil
	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// validateRegistry checks what the workers rely on at runtime: an object input schema,
// a parseable timeout, known error codes and, when workersRoot is set, a handler
// package at <workersRoot>/<category>/<taskType>.
func validateRegistry(reg *registry.ActivityRegistry, workersRoot string) error {
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	var problems []string
	for _, a := range reg.Activities {
		if a.Category == "" {
			problems = append(problems, fmt.Sprintf("%s: category is required", a.ID))
		}
		if t, _ := a.InputSchema["type"].(string); t != "object" {
			problems = append(problems, fmt.Sprintf("%s: inputSchema must be an object schema", a.ID))
		}
		if d, err := time.ParseDuration(a.Timeout); err != nil || d <= 0 {
			problems = append(problems, fmt.Sprintf("%s: timeout %q is not a positive duration", a.ID, a.Timeout))
		}
		if !implementationStatuses[a.ImplementationStatus] {
			problems = append(problems, fmt.Sprintf("%s: unknown implementation status %q", a.ID, a.ImplementationStatus))
		}
		for _, code := range a.ErrorCodes {
			if !apperrors.IsKnownCode(apperrors.ErrorCode(code)) {
				problems = append(problems, fmt.Sprintf("%s: unknown error code %s", a.ID, code))
			}
		}
		if workersRoot != "" {
			dir := filepath.Join(workersRoot, a.Category, a.TaskType)
			if _, err := os.Stat(filepath.Join(dir, "handler.go")); err != nil {
				problems = append(problems, fmt.Sprintf("%s: no handler at %s", a.ID, dir))
			}
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("registry validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func updateActivity(reg *registry.ActivityRegistry, id, field, value string) error {
	for i := range reg.Activities {
		a := &reg.Activities[i]
		if a.ID != id {
			continue
		}
		switch field {
		case "status":
			if !implementationStatuses[value] {
				return fmt.Errorf("unknown implementation status %q", value)
			}
			a.ImplementationStatus = value
		case "version":
			a.Version = value
		case "displayName":
			a.DisplayName = value
		case "description":
			a.Description = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout: %w", err)
			}
			a.Timeout = value
		case "retries":
			return fmt.Errorf("retries are fixed at 0: jobs are never retried")
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		return nil
	}
	return fmt.Errorf("activity with ID %s not found", id)
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help(out io.Writer) {
	fmt.Fprint(out, `
Usage: registry-updater <command> [flags]

Commands:
  validate  Validate the registry against the worker sources
  list      List registered task types
  update    Update one field of an activity
  help      Show this help message

Examples:
  registry-updater validate
  registry-updater update -id invoke-contract -field timeout -value 10m
`)
}
