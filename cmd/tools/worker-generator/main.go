// cmd/tools/worker-generator/main.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"agentkit-workers/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	PackageName  string
	TaskType     string
	DisplayName  string
	Description  string
	InputFields  []Field
	OutputFields []Field
}

// Field is one struct field derived from a schema property.
type Field struct {
	Name    string
	Type    string
	Tag     string
	Comment string
}

func main() {
	taskType := flag.String("task-type", "", "task type from the registry (e.g. export-tabular)")
	outputDir := flag.String("output", "internal/workers", "root directory for generated workers")
	registryPath := flag.String("registry", "pkg/registry/activities.json", "path to the activity registry")
	force := flag.Bool("force", false, "overwrite existing files")
	flag.Parse()

	if *taskType == "" {
		fmt.Fprintln(os.Stderr, "Error: -task-type is required")
		flag.Usage()
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading registry: %v\n", err)
		os.Exit(1)
	}

	dir, err := generate(reg, *taskType, *outputDir, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated worker %s in %s\n", *taskType, dir)
}

// generate writes config.go, models.go and handler.go for the activity into
// <root>/<category>/<taskType> and returns that directory.
func generate(reg *registry.ActivityRegistry, taskType, root string, force bool) (string, error) {
	activity, ok := reg.Find(taskType)
	if !ok {
		return "", fmt.Errorf("task type %s not found in registry", taskType)
	}
	if activity.Category == "" {
		return "", fmt.Errorf("activity %s has no category", activity.ID)
	}

	data := WorkerData{
		PackageName:  packageName(activity.TaskType),
		TaskType:     activity.TaskType,
		DisplayName:  activity.DisplayName,
		Description:  activity.Description,
		InputFields:  schemaFields(activity.InputSchema),
		OutputFields: schemaFields(activity.OutputSchema),
	}

	dir := filepath.Join(root, activity.Category, activity.TaskType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	files := []struct {
		name string
		tpl  *template.Template
	}{
		{"config.go", configTemplate},
		{"models.go", modelsTemplate},
		{"handler.go", handlerTemplate},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil && !force {
			return "", fmt.Errorf("%s already exists (use -force to overwrite)", path)
		}
		src, err := render(f.tpl, data, path)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	return dir, nil
}

func render(tpl *template.Template, data WorkerData, path string) ([]byte, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, struct {
		WorkerData
		Path string
	}{data, filepath.ToSlash(path)}); err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", path, err)
	}
	return src, nil
}

// packageName drops the dashes of a task type: publish-results -> publishresults.
func packageName(taskType string) string {
	return strings.ReplaceAll(taskType, "-", "")
}

// schemaFields lists the properties of an object schema in name order.
func schemaFields(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	required := make(map[string]bool)
	if req, ok := schema["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		tag := name
		if !required[name] {
			tag += ",omitempty"
		}
		comment, _ := details["description"].(string)
		fields = append(fields, Field{
			Name:    exportedName(name),
			Type:    goType(details),
			Tag:     fmt.Sprintf("`json:\"%s\"`", tag),
			Comment: comment,
		})
	}
	return fields
}

// goType maps a JSON schema property to a Go type.
func goType(details map[string]interface{}) string {
	switch details["type"] {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		if items, ok := details["items"].(map[string]interface{}); ok {
			if t := goType(items); t != "interface{}" {
				return "[]" + t
			}
		}
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

var initialisms = map[string]string{"id": "ID", "url": "URL", "abi": "ABI", "csv": "CSV", "json": "JSON"}

// exportedName turns walletId or wallet_id into WalletID.
func exportedName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	var words []string
	for _, p := range parts {
		start := 0
		for i := 1; i < len(p); i++ {
			if p[i] >= 'A' && p[i] <= 'Z' {
				words = append(words, p[start:i])
				start = i
			}
		}
		words = append(words, p[start:])
	}

	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		if up, ok := initialisms[strings.ToLower(w)]; ok {
			b.WriteString(up)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return b.String()
}

var configTemplate = template.Must(template.New("config").Parse(`// {{ .Path }}
package {{ .PackageName }}

import (
	"time"

	"agentkit-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
`))

var modelsTemplate = template.Must(template.New("models").Parse(`// {{ .Path }}
package {{ .PackageName }}

type Input struct {
{{- range .InputFields }}
	{{ .Name }} {{ .Type }} {{ .Tag }}{{ if .Comment }} // {{ .Comment }}{{ end }}
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .Name }} {{ .Type }} {{ .Tag }}{{ if .Comment }} // {{ .Comment }}{{ end }}
{{- end }}
}
`))

var handlerTemplate = template.Must(template.New("handler").Parse(`// {{ .Path }}
package {{ .PackageName }}

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/metrics"
	"agentkit-workers/internal/common/validation"
	"agentkit-workers/pkg/registry"
)

const TaskType = "{{ .TaskType }}"

{{ if .Description }}// Handler runs {{ .TaskType }} jobs: {{ .Description }}
{{ end -}}
type Handler struct {
	config       *Config
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := validation.DecodeJob(registry.InputSchema(TaskType), job.Variables, &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(ctx, client, job, output)
}

// TODO: implement {{ .DisplayName }}.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	return &Output{}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
`))
