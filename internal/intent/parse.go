package intent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/arman-dogru/baklava-bot/internal/types"
)

// taskListSchema constrains the shape of the classifier's output. The
// function name is deliberately not an enum: unrecognized functions flow
// through to the executor, which logs them as no-ops instead of discarding
// the rest of the batch.
const taskListSchema = `{
	"type": "object",
	"required": ["tasks"],
	"properties": {
		"tasks": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["function"],
				"properties": {
					"function": {"type": "string"},
					"parameters": {"type": "object"}
				}
			}
		}
	}
}`

var taskSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()

	var doc any
	if err := json.Unmarshal([]byte(taskListSchema), &doc); err != nil {
		panic(fmt.Sprintf("intent: invalid task schema: %v", err))
	}
	if err := compiler.AddResource("tasks.json", doc); err != nil {
		panic(fmt.Sprintf("intent: invalid task schema: %v", err))
	}
	schema, err := compiler.Compile("tasks.json")
	if err != nil {
		panic(fmt.Sprintf("intent: compile task schema: %v", err))
	}
	return schema
}

// ParseError describes why a model response could not be turned into tasks
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return "parse tasks: " + e.Reason
}

// ExtractJSON pulls the JSON payload out of a model response. Fenced code
// blocks win over raw text; stray backticks are stripped either way.
func ExtractJSON(s string) string {
	if start := strings.Index(s, "```json"); start != -1 {
		start += 7
		if end := strings.Index(s[start:], "```"); end != -1 {
			s = s[start : start+end]
		}
	} else if start := strings.Index(s, "```"); start != -1 {
		start += 3
		if end := strings.Index(s[start:], "```"); end != -1 {
			content := s[start : start+end]
			// Skip language identifier line if present
			if idx := strings.Index(content, "\n"); idx != -1 {
				content = content[idx+1:]
			}
			s = content
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(s, "`", ""))
}

// ParseTasks validates and decodes a model response into an ordered task
// list. Callers are expected to treat any error as "no tasks".
func ParseTasks(raw string) ([]types.Task, error) {
	jsonStr := ExtractJSON(raw)

	var doc any
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, &ParseError{Reason: "invalid JSON: " + err.Error(), Raw: raw}
	}

	if err := taskSchema.Validate(doc); err != nil {
		return nil, &ParseError{Reason: "schema validation: " + err.Error(), Raw: raw}
	}

	obj := doc.(map[string]any)
	rawTasks := obj["tasks"].([]any)

	tasks := make([]types.Task, 0, len(rawTasks))
	for _, rt := range rawTasks {
		taskObj := rt.(map[string]any)
		task := types.Task{
			Function:   types.TaskFunc(taskObj["function"].(string)),
			Parameters: coerceParams(taskObj["parameters"]),
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// coerceParams flattens a parameters object into string values. Models
// occasionally emit numbers or booleans where we asked for strings;
// scalar values are coerced, anything structured is dropped.
func coerceParams(v any) map[string]string {
	params := make(map[string]string)
	obj, ok := v.(map[string]any)
	if !ok {
		return params
	}
	for key, val := range obj {
		switch tv := val.(type) {
		case string:
			params[key] = tv
		case float64:
			params[key] = strconv.FormatFloat(tv, 'f', -1, 64)
		case bool:
			params[key] = strconv.FormatBool(tv)
		}
	}
	return params
}
