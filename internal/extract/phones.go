package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// phoneEntry is one element of the phone lookup answer: [{"tel": "..."}].
// Some offices answer with a bare number instead of a string.
type phoneEntry struct {
	Tel json.RawMessage `json:"tel"`
}

// Phones decodes a phone lookup answer. Numbers are returned in answer
// order with blanks dropped.
func Phones(body []byte) ([]string, error) {
	var entries []phoneEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode phone list: %w", err)
	}

	phones := make([]string, 0, len(entries))
	for _, e := range entries {
		tel, err := telString(e.Tel)
		if err != nil {
			return nil, fmt.Errorf("failed to decode phone number: %w", err)
		}
		if tel != "" {
			phones = append(phones, tel)
		}
	}
	return phones, nil
}

// telString returns the number held by raw. Only JSON strings and numbers
// carry a phone number; anything else yields "".
func telString(raw json.RawMessage) (string, error) {
	v := strings.TrimSpace(string(raw))
	if v == "" {
		return "", nil
	}
	switch c := v[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", nil
	}
}
