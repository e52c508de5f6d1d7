// Package normalize turns raw server todo records into model.Todo.
//
// Servers disagree on the identifier field (`id` vs `_id`), its type
// (string, number, Mongo ObjectID) and on how timestamps are encoded. All
// of that coercion lives here and nowhere else.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/idilsaglam/tada/internal/model"
)

// ISOMillis matches JavaScript's Date.prototype.toISOString.
const ISOMillis = "2006-01-02T15:04:05.000Z"

// Decode parses a JSON body keeping number literals intact, so an id of 42
// stays "42" instead of going through float64.
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Unwrap accepts both `{"todo": {...}}` and a bare todo object.
func Unwrap(payload any) any {
	if m, ok := payload.(map[string]any); ok {
		if inner, ok := m["todo"]; ok && inner != nil {
			return inner
		}
	}
	return payload
}

// Todos normalizes a `{"todos": [...]}` wrapper. One bad record fails the
// whole list.
func Todos(payload any) ([]model.Todo, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, model.NewValidationError("todos", "expected an object wrapping a todos array")
	}
	raw, ok := m["todos"].([]any)
	if !ok {
		return nil, model.NewValidationError("todos", "expected an array")
	}
	out := make([]model.Todo, 0, len(raw))
	for i, rec := range raw {
		t, err := Todo(rec)
		if err != nil {
			return nil, fmt.Errorf("todos[%d]: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Todo maps one raw record to the canonical shape. It fails with a
// *model.ValidationError when title, completed or createdAt are missing or
// mistyped; the identifier never causes a failure.
func Todo(raw any) (model.Todo, error) {
	rec, ok := raw.(map[string]any)
	if !ok {
		return model.Todo{}, model.NewValidationError("todo", "expected an object")
	}

	verr := &model.ValidationError{Fields: map[string]string{}}

	title, ok := rec["title"].(string)
	if !ok {
		verr.Fields["title"] = fieldProblem(rec, "title", "a string")
	}
	completed, ok := rec["completed"].(bool)
	if !ok {
		verr.Fields["completed"] = fieldProblem(rec, "completed", "a boolean")
	}

	var description string
	switch v := rec["description"].(type) {
	case nil:
	case string:
		description = v
	default:
		verr.Fields["description"] = "expected a string"
	}

	createdAt, err := timestamp(rec["createdAt"])
	if err != nil {
		verr.Fields["createdAt"] = err.Error()
	}

	if len(verr.Fields) > 0 {
		return model.Todo{}, verr
	}
	return model.Todo{
		ID:          identifier(rec),
		Title:       title,
		Description: description,
		Completed:   completed,
		CreatedAt:   createdAt,
	}, nil
}

func fieldProblem(rec map[string]any, name, want string) string {
	if v, ok := rec[name]; !ok || v == nil {
		return "is required"
	}
	return "expected " + want
}

// identifier prefers string values, then `id` over `_id`.
func identifier(rec map[string]any) string {
	if s, ok := rec["id"].(string); ok {
		return s
	}
	if s, ok := rec["_id"].(string); ok {
		return s
	}
	if v, ok := rec["id"]; ok && v != nil {
		return stringify(v)
	}
	if v, ok := rec["_id"]; ok && v != nil {
		return stringify(v)
	}
	return ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return numberString(x)
	case float64:
		return jsNumber(x)
	case float32:
		return jsNumber(float64(x))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case fmt.Stringer:
		return x.String()
	case map[string]any:
		// Mongo extended JSON: {"$oid": "65a1..."}
		if oid, ok := x["$oid"].(string); ok {
			return oid
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func numberString(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil {
		return jsNumber(f)
	}
	return n.String()
}

// jsNumber formats like JavaScript's String(n) for the common cases.
func jsNumber(f float64) string {
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

type timestampError string

func (e timestampError) Error() string { return string(e) }

// timestamp keeps strings verbatim and renders date values as ISO-8601.
// Numbers are Unix epoch milliseconds.
func timestamp(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", timestampError("is required")
	case string:
		return x, nil
	case time.Time:
		return formatISO(x), nil
	case *time.Time:
		if x != nil {
			return formatISO(*x), nil
		}
	case json.Number:
		if ms, err := x.Int64(); err == nil {
			return formatISO(time.UnixMilli(ms)), nil
		}
		f, err := x.Float64()
		if err != nil {
			return "", timestampError("is out of range")
		}
		return millis(f)
	case float64:
		return millis(x)
	case int64:
		return formatISO(time.UnixMilli(x)), nil
	case int:
		return formatISO(time.UnixMilli(int64(x))), nil
	case map[string]any:
		// Mongo extended JSON: {"$date": ...}
		if d, ok := x["$date"]; ok {
			if inner, ok := d.(map[string]any); ok {
				if s, ok := inner["$numberLong"].(string); ok {
					ms, err := strconv.ParseInt(s, 10, 64)
					if err == nil {
						return formatISO(time.UnixMilli(ms)), nil
					}
				}
				break
			}
			return timestamp(d)
		}
	}
	return "", timestampError("expected a string or date")
}

func millis(f float64) (string, error) {
	if math.IsNaN(f) || math.Abs(f) >= math.MaxInt64 {
		return "", timestampError("is out of range")
	}
	return formatISO(time.UnixMilli(int64(f))), nil
}

func formatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}
