package service

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// taskInputSchema describes a TaskRequestInput.
const taskInputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["user_input"],
  "properties": {
    "user_input": {"type": "string", "minLength": 1, "maxLength": 10000, "pattern": "\\S"},
    "domain_hint": {"type": "string", "pattern": "^$|^[a-z_]+(\\.[a-z_]+)?$"},
    "context": {"type": ["object", "null"]}
  }
}`

//nolint:gochecknoglobals // Compiled once, read-only
var taskInput = gojsonschema.NewStringLoader(taskInputSchema)

// ValidateInput checks in against the task input schema. The error lists
// every violation and wraps structerrors.ErrInvalidInput.
func ValidateInput(in domain.TaskRequestInput) error {
	result, err := gojsonschema.Validate(taskInput, gojsonschema.NewGoLoader(in))
	if err != nil {
		return fmt.Errorf("%w: %w", structerrors.ErrInvalidInput, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%w: %s", structerrors.ErrInvalidInput, strings.Join(problems, "; "))
}
