package queue

import (
	"encoding/json"
	"fmt"
	"strings"
)

func qualifiedStructName(v any) string {
	s := fmt.Sprintf("%T", v)
	s = strings.TrimLeft(s, "*")

	return s
}

// KeyValueArgs turns KEY:VALUE pairs into a JSON object of strings.
// Only the first colon separates key from value, so values may contain colons.
// No pairs yields "{}".
func KeyValueArgs(pairs []string) ([]byte, error) {
	args := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q: expected KEY:VALUE", p)
		}
		args[key] = value
	}
	return json.Marshal(args)
}
