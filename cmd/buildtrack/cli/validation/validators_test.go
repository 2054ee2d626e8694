package validation

import "testing"

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid style", "9f86d081-8842-4b1a-9d52-1fca84f6f9d1", false},
		{"simple", "default", false},
		{"underscores", "session_1", false},
		{"empty", "", true},
		{"path traversal", "../escape", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"dot", "v1.2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
