// Package validation schema-checks task payloads, raw user input and task-store
// responses before they cross a system boundary.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephgoksu/TodoChat/models"
	"github.com/josephgoksu/TodoChat/types"
)

const (
	MaxContentLength   = 500
	MaxUserInputLength = 1000
	MaxLabels          = 10
	MaxLabelLength     = 50
)

var (
	labelPattern      = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	taskPrefixPattern = regexp.MustCompile(`(?i)^\s*task:`)
)

// Validator validates the payload shapes of the pipeline. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so messages match what the user and the API see.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("notaskprefix", func(fl validator.FieldLevel) bool {
		return !taskPrefixPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("label", func(fl validator.FieldLevel) bool {
		return labelPattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// ValidateTaskCreation checks a create payload.
func (v *Validator) ValidateTaskCreation(in models.TaskInput) error {
	return v.check(in)
}

// ValidateTaskUpdate checks an update payload for the given task.
func (v *Validator) ValidateTaskUpdate(taskID string, upd models.TaskUpdate) error {
	var fieldErrs []types.FieldError
	if strings.TrimSpace(taskID) == "" {
		fieldErrs = append(fieldErrs, types.FieldError{Field: "taskId", Message: "is required", Code: "required"})
	}
	if upd.IsEmpty() {
		fieldErrs = append(fieldErrs, types.FieldError{Field: "updates", Message: "at least one field must change", Code: "empty_update"})
	}
	if err := v.check(upd); err != nil {
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			fieldErrs = append(fieldErrs, ve.Errors...)
		} else {
			return err
		}
	}
	if len(fieldErrs) > 0 {
		return types.NewValidationError(fieldErrs...)
	}
	return nil
}

type userInput struct {
	Input string `json:"input" validate:"required,max=1000,nonblank"`
}

// ValidateUserInput trims raw chat input, strips a literal "task:" prefix and
// checks the length bounds. The accepted value is returned.
func (v *Validator) ValidateUserInput(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if len(cleaned) >= 5 && strings.EqualFold(cleaned[:5], "task:") {
		cleaned = strings.TrimSpace(cleaned[5:])
	}
	if err := v.check(userInput{Input: cleaned}); err != nil {
		return "", err
	}
	return cleaned, nil
}

// ValidateEnvelope decodes and checks a task-store response envelope.
// A failed envelope must carry an error message.
func (v *Validator) ValidateEnvelope(raw []byte) (models.Envelope, error) {
	var env models.Envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&env); err != nil {
		return models.Envelope{}, types.NewValidationError(types.FieldError{Field: "envelope", Message: "is not a JSON object", Code: "json"})
	}
	if err := v.check(env); err != nil {
		return models.Envelope{}, err
	}
	if !env.OK() && strings.TrimSpace(env.Error) == "" {
		return models.Envelope{}, types.NewValidationError(types.FieldError{Field: "error", Message: "is required when success is false", Code: "required"})
	}
	return env, nil
}

// ValidateTask checks a task returned by the task store.
func (v *Validator) ValidateTask(t models.Task) error {
	return v.check(t)
}

// ValidateTasks checks every task of a list response.
func (v *Validator) ValidateTasks(tasks []models.Task) error {
	for i, t := range tasks {
		if err := v.check(t); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
	}
	return nil
}

// Struct validates any tagged struct, such as configuration.
func (v *Validator) Struct(s any) error {
	return v.check(s)
}

func (v *Validator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	fieldErrs := make([]types.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrs = append(fieldErrs, types.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
			Code:    fe.Tag(),
		})
	}
	return types.NewValidationError(fieldErrs...)
}

// fieldPath drops the root struct name: "TaskInput.labels[0]" -> "labels[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for this mode"
	case "nonblank":
		return "must not be empty or whitespace"
	case "notaskprefix":
		return `must not start with "task:"`
	case "label":
		return "must match [A-Za-z0-9_-]+"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed rule '%s'", fe.Tag())
	}
}
