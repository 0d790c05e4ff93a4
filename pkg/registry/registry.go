// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

//go:embed activities.json
var embedded []byte

var (
	defaultOnce sync.Once
	defaultReg  *ActivityRegistry
	defaultErr  error
)

// Default returns the registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = parse(embedded)
	})
	return defaultReg, defaultErr
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks that ids and task types are present and unique and that no activity
// asks for engine retries.
func (r *ActivityRegistry) Validate() error {
	ids := make(map[string]bool)
	types := make(map[string]bool)
	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %q: id and taskType are required", a.DisplayName)
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity id %q", a.ID)
		}
		if types[a.TaskType] {
			return fmt.Errorf("duplicate task type %q", a.TaskType)
		}
		if a.Retries != 0 {
			return fmt.Errorf("activity %q: retries must be 0", a.ID)
		}
		ids[a.ID] = true
		types[a.TaskType] = true
	}
	return nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// InputSchema returns the input schema of taskType, or nil when it has none.
func InputSchema(taskType string) map[string]interface{} {
	reg, err := Default()
	if err != nil {
		return nil
	}
	if a, ok := reg.Find(taskType); ok {
		return a.InputSchema
	}
	return nil
}
