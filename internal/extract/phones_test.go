package extract

import (
	"testing"
)

// TestPhones tests decoding of the phone lookup answer.
func TestPhones(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr bool
	}{
		{name: "string numbers in order", body: `[{"tel":"021-1"},{"tel":"021-2"}]`, want: []string{"021-1", "021-2"}},
		{name: "bare numeric value", body: `[{"tel":2188776655}]`, want: []string{"2188776655"}},
		{name: "blank and null entries dropped", body: `[{"tel":" "},{"tel":null},{},{"tel":"09120000000"}]`, want: []string{"09120000000"}},
		{name: "objects arrays and booleans dropped", body: `[{"tel":{"n":"1"}},{"tel":["021-9"]},{"tel":true},{"tel":"021-4"}]`, want: []string{"021-4"}},
		{name: "empty list", body: `[]`, want: []string{}},
		{name: "not a list", body: `{"error":"forbidden"}`, wantErr: true},
		{name: "html error page", body: `<html>500</html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Phones([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}
