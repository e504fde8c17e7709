// Package template renders Go text/template expressions over a workflow's
// memory snapshot, used by the data_transform executor for dynamic
// configuration and payload shaping.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/goalflow/goalflow/pkg/models"
)

// RenderWithSnapshot exposes the memory snapshot under .memory plus each key
// directly, so expressions can say either {{.memory.task_t1_result}} or
// {{.task_t1_result}}.
func RenderWithSnapshot(input string, mem models.MemorySnapshot) (any, error) {
	data := make(map[string]any, len(mem)+1)
	for k, v := range mem {
		data[k] = v
	}

	data["memory"] = map[string]any(mem)

	return Render(input, data)
}

// Render executes the template over data. When the rendered output parses as
// JSON it is returned structured; otherwise the raw string is returned, with
// numeric and boolean literals coerced.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("transform").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"json": func(v any) string {
				out, err := json.Marshal(v)
				if err != nil {
					return ""
				}

				return string(out)
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return coerce(buf.String()), nil
}

func coerce(rendered string) any {
	trimmed := strings.TrimSpace(rendered)

	if trimmed == "" {
		return rendered
	}

	switch trimmed[0] {
	case '{', '[', '"':
		var structured any
		if err := json.Unmarshal([]byte(trimmed), &structured); err == nil {
			return structured
		}
	}

	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}

	if b, err := strconv.ParseBool(trimmed); err == nil {
		return b
	}

	return rendered
}
