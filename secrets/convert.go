package secrets

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

// ConvertJSON renders a JSON object, such as a service account key, as TOML so it
// can be pasted under a [connections.<name>] table. For gcs connections the resolver
// nests the whole section under the token param.
func ConvertJSON(r io.Reader, w io.Writer) error {
	var doc map[string]interface{}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	enc := toml.NewEncoder(w)
	if err := enc.Encode(numbersToValues(doc)); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}

func numbersToValues(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}:
		for k, item := range t {
			t[k] = numbersToValues(item)
		}
		return t
	case []interface{}:
		for i, item := range t {
			t[i] = numbersToValues(item)
		}
		return t
	default:
		return v
	}
}
