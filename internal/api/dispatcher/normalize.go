package dispatcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// Result is a tool result normalized into either a list of records or a
// single scalar text.
type Result struct {
	Records []types.Record
	Scalar  string
}

// Empty reports whether the tool found nothing.
func (r Result) Empty() bool {
	return len(r.Records) == 0 && strings.TrimSpace(r.Scalar) == ""
}

// normalizeResult turns the shapes a registry may return into a Result. A
// single object becomes a one-element list. Falsy values become an empty
// Result. A lone record carrying only an "error" key is a tool failure.
func normalizeResult(v any) (Result, error) {
	switch x := v.(type) {
	case nil:
		return Result{}, nil
	case bool:
		if !x {
			return Result{}, nil
		}
		return Result{Scalar: "yes"}, nil
	case string:
		return normalizeText(x)
	case []byte:
		return normalizeText(string(x))
	case types.Record:
		return fromRecords([]types.Record{x})
	case map[string]any:
		return fromRecords([]types.Record{x})
	case []types.Record:
		return fromRecords(x)
	case []map[string]any:
		recs := make([]types.Record, 0, len(x))
		for _, m := range x {
			recs = append(recs, m)
		}
		return fromRecords(recs)
	case []any:
		recs := make([]types.Record, 0, len(x))
		for _, item := range x {
			switch it := item.(type) {
			case nil:
			case map[string]any:
				recs = append(recs, it)
			case types.Record:
				recs = append(recs, it)
			default:
				recs = append(recs, types.Record{"value": it})
			}
		}
		return fromRecords(recs)
	case int, int32, int64, float32, float64:
		if fmt.Sprint(x) == "0" {
			return Result{}, nil
		}
		return Result{Scalar: fmt.Sprint(x)}, nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return Result{}, fmt.Errorf("%w: unsupported result type %T", types.ErrToolExecution, v)
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return Result{}, fmt.Errorf("%w: %w", types.ErrToolExecution, err)
		}
		return normalizeResult(generic)
	}
}

// normalizeText decodes JSON text results and keeps anything else as a scalar.
func normalizeText(s string) (Result, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Result{}, nil
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		var generic any
		if err := json.Unmarshal([]byte(s), &generic); err == nil {
			return normalizeResult(generic)
		}
	}
	return Result{Scalar: s}, nil
}

func fromRecords(recs []types.Record) (Result, error) {
	out := make([]types.Record, 0, len(recs))
	for _, r := range recs {
		if len(r) > 0 {
			out = append(out, r)
		}
	}
	if len(out) == 1 && len(out[0]) == 1 {
		if msg, ok := out[0]["error"]; ok {
			return Result{}, fmt.Errorf("%w: %v", types.ErrToolExecution, msg)
		}
	}
	return Result{Records: out}, nil
}
