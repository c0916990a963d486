package errors

import (
	"testing"
)

func TestValidateGroupPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "grass", false},
		{"valid nested", "terrain/grass/edges", false},
		{"valid with dots", "props/v1.2", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"parent segment", "../outside", true},
		{"parent segment middle", "a/../b", true},
		{"dot segment", "a/./b", true},
		{"empty segment", "a//b", true},
		{"trailing slash", "a/b/", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroupPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGroupPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateGroupPath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestSanitizeBaseName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"grass", "grass"},
		{"Grass Edge", "grass_edge"},
		{"  Wall--Top!! ", "wall_top"},
		{"__x__", "x"},
		{"Tree #2", "tree_2"},
		{"", "tile"},
		{"!!!", "tile"},
	}

	for _, tt := range tests {
		if got := SanitizeBaseName(tt.input); got != tt.want {
			t.Errorf("SanitizeBaseName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBaseNameFromGroup(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"terrain/Grass Edges", "grass_edges"},
		{"door", "door"},
		{"a/b/c-d", "c_d"},
	}

	for _, tt := range tests {
		if got := BaseNameFromGroup(tt.input); got != tt.want {
			t.Errorf("BaseNameFromGroup(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateTilesetID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "dungeon_16x16", false},
		{"with dash", "1bit-pack", false},

		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"dotdot", "..", true},
		{"control", "a\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTilesetID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTilesetID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
