package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrNoJSON          = errors.New("no JSON object found in response")
	ErrContract        = errors.New("response does not match the intent contract")
	ErrMissingEntities = errors.New("required entities missing")
)

// Parse extracts an intent result from raw model output. The output may be
// wrapped in markdown fences or surrounded by prose; only the first JSON
// object is considered.
func Parse(raw string) (Result, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return Result{}, err
	}

	action := gjson.Get(obj, "action")
	if action.Type != gjson.String {
		return Result{}, fmt.Errorf("%w: action must be a string", ErrContract)
	}
	if !Action(action.String()).IsKnown() {
		return Result{}, fmt.Errorf("%w: unknown action %q", ErrContract, action.String())
	}
	confidence := gjson.Get(obj, "confidence")
	if confidence.Type != gjson.Number {
		return Result{}, fmt.Errorf("%w: confidence must be a number", ErrContract)
	}
	if c := confidence.Float(); c < 0 || c > 1 {
		return Result{}, fmt.Errorf("%w: confidence %v out of range", ErrContract, c)
	}

	var res Result
	if err := json.Unmarshal([]byte(obj), &res); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrContract, err)
	}
	if err := checkEntities(res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func extractObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return "", ErrNoJSON
	}
	// Decode one value so trailing prose is ignored.
	var obj json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&obj); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return string(obj), nil
}

func checkEntities(r Result) error {
	e := r.Entities
	switch r.Action {
	case ActionCreate:
		if strings.TrimSpace(e.TaskContent) == "" {
			return fmt.Errorf("%w: create needs taskContent", ErrMissingEntities)
		}
	case ActionCreateMultiple:
		if len(e.Tasks) == 0 {
			return fmt.Errorf("%w: create_multiple needs tasks", ErrMissingEntities)
		}
		if e.TaskCount < 0 {
			return fmt.Errorf("%w: negative taskCount", ErrContract)
		}
	case ActionUpdate, ActionComplete:
		if strings.TrimSpace(e.TargetTask) == "" {
			return fmt.Errorf("%w: %s needs targetTask", ErrMissingEntities, r.Action)
		}
	}
	return nil
}
