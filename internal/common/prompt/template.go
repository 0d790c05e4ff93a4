// Package prompt renders prompt templates with {name} placeholders.
package prompt

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/valyala/fasttemplate"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/models"
)

const (
	startTag = "{"
	endTag   = "}"
)

// Template is a parsed prompt. It is safe for concurrent use.
type Template struct {
	text         string
	tpl          *fasttemplate.Template
	placeholders []string
}

// Parse compiles text. Placeholder names are trimmed; an empty name is invalid.
func Parse(text string) (*Template, error) {
	tpl, err := fasttemplate.NewTemplate(text, startTag, endTag)
	if err != nil {
		return nil, apperrors.NewTemplateInvalidError(err)
	}

	seen := make(map[string]bool)
	var names []string
	var bad error
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		name := strings.TrimSpace(tag)
		if name == "" && bad == nil {
			bad = fmt.Errorf("empty placeholder in template")
		}
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return 0, nil
	})
	if bad != nil {
		return nil, apperrors.NewTemplateInvalidError(bad)
	}

	return &Template{text: text, tpl: tpl, placeholders: names}, nil
}

// Text returns the source of the template.
func (t *Template) Text() string {
	return t.text
}

// Placeholders returns the distinct placeholder names in order of first appearance.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// Validate fails with TEMPLATE_PLACEHOLDER_MISSING when a placeholder has no key in keys.
func (t *Template) Validate(keys []string) error {
	have := make(map[string]bool, len(keys))
	for _, k := range keys {
		have[k] = true
	}
	var missing []string
	for _, p := range t.placeholders {
		if !have[p] {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewTemplatePlaceholderMissingError(missing)
	}
	return nil
}

// Render substitutes values into the template. Strings are inserted verbatim, other
// values as JSON. Keys without a placeholder are ignored.
func (t *Template) Render(values map[string]interface{}) (string, error) {
	if err := t.Validate(keysOf(values)); err != nil {
		return "", err
	}
	return t.tpl.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		s, err := format(values[strings.TrimSpace(tag)])
		if err != nil {
			return 0, apperrors.NewTemplateInvalidError(fmt.Errorf("placeholder %s: %w", tag, err))
		}
		return w.Write([]byte(s))
	})
}

// RenderRequest parses req.Template and renders it with req.Values.
func RenderRequest(req models.GenerationRequest) (string, error) {
	tpl, err := Parse(req.Template)
	if err != nil {
		return "", err
	}
	return tpl.Render(req.Values)
}

func format(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		// encoding/json sorts map keys, so the output is stable.
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func keysOf(values map[string]interface{}) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
