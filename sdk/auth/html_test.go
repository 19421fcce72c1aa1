package auth

import (
	"strings"
	"testing"
)

func TestExtractHiddenInputs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want map[string]string
	}{
		{
			name: "auto submit form",
			doc: `<html><body>
				<form method="POST" action="https://example.com/token">
					<input type="hidden" name="code" value="1X1X1AUTHCODE1X1X1">
					<input type="hidden" name="state" value="xyz">
				</form>
				<script> document.forms[0].submit(); </script>
			</body></html>`,
			want: map[string]string{"code": "1X1X1AUTHCODE1X1X1", "state": "xyz"},
		},
		{
			name: "missing state",
			doc:  `<form><input type="hidden" name="code" value="abc"></form>`,
			want: map[string]string{"code": "abc"},
		},
		{
			name: "visible inputs ignored",
			doc:  `<form><input type="text" name="code" value="abc"><input name="state" value="xyz"></form>`,
			want: map[string]string{},
		},
		{
			name: "first occurrence wins",
			doc: `<form><input type="hidden" name="code" value="first"></form>
				<form><input type="hidden" name="code" value="second"></form>`,
			want: map[string]string{"code": "first"},
		},
		{
			name: "unrelated document",
			doc:  `<html><body><p>Sign-in moved.</p></body></html>`,
			want: map[string]string{},
		},
		{
			name: "not html at all",
			doc:  `{"error": "unexpected json"}`,
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractHiddenInputs(strings.NewReader(tt.doc), "code", "state")
			if err != nil {
				t.Fatalf("extractHiddenInputs: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("extracted %v, want %v", got, tt.want)
			}
			for name, value := range tt.want {
				if got[name] != value {
					t.Errorf("input %q = %q, want %q", name, got[name], value)
				}
			}
		})
	}
}
