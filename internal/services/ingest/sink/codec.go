package sink

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ghloader/internal/services/ingest/domain"
)

// Encode renders one row value as a CSV field
// nil becomes the empty field that COPY reads as NULL
func Encode(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case []int64:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return "{" + strings.Join(parts, ",") + "}", nil
	case []string:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = quoteElem(s)
		}
		return "{" + strings.Join(parts, ",") + "}", nil
	default:
		return "", fmt.Errorf("sink: unsupported value type %T", v)
	}
}

func quoteElem(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

// Decode turns a CSV field back into a typed value for the row appenders
// The empty field decodes to nil for every type
func Decode(field string, t domain.ColumnType) (any, error) {
	if field == "" {
		return nil, nil
	}
	switch t {
	case domain.Text:
		return field, nil
	case domain.BigInt:
		return strconv.ParseInt(field, 10, 64)
	case domain.Bool:
		return strconv.ParseBool(field)
	case domain.Timestamp:
		ts, err := time.Parse(time.RFC3339, field)
		if err != nil {
			return nil, err
		}
		return ts.UTC(), nil
	case domain.BigIntArray:
		elems, err := splitArray(field)
		if err != nil {
			return nil, err
		}
		out := make([]int64, len(elems))
		for i, e := range elems {
			n, err := strconv.ParseInt(e, 10, 64)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case domain.TextArray:
		return splitArray(field)
	default:
		return nil, fmt.Errorf("sink: unknown column type %d", t)
	}
}

// splitArray parses the array literals Encode produces
func splitArray(s string) ([]string, error) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("sink: bad array literal %q", s)
	}
	body := s[1 : len(s)-1]
	out := []string{}
	if body == "" {
		return out, nil
	}
	var cur strings.Builder
	esc, inQuotes := false, false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case esc:
			cur.WriteByte(c)
			esc = false
		case c == '\\' && inQuotes:
			esc = true
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuotes || esc {
		return nil, fmt.Errorf("sink: unterminated array literal %q", s)
	}
	out = append(out, cur.String())
	return out, nil
}
