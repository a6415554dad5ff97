package errors

import (
	"testing"
)

func TestValidateNodeKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"stage node", "n_12", false},
		{"stage node zero", "n_0", false},
		{"start node", "s_-1", false},
		{"add placeholder", "a_-3", false},

		{"empty", "", true},
		{"too long", "n_" + string(make([]byte, 40)), true},
		{"unknown prefix", "x_1", true},
		{"positive placeholder", "a_2", true},
		{"other start id", "s_-2", true},
		{"path traversal", "../n_1", true},
		{"trailing junk", "n_1;drop", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidNodeKey) {
				t.Errorf("ValidateNodeKey(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidNodeKey)
			}
		})
	}
}

func TestValidateStageFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"json", "pipeline.json", false},
		{"yaml", "dir/pipeline.yaml", false},
		{"yml upper", "PIPELINE.YML", false},
		{"toml", "pipeline.toml", false},

		{"empty", "", true},
		{"no extension", "pipeline", true},
		{"wrong extension", "pipeline.xml", true},
		{"control char", "pipe\x01line.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStageFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStageFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "graph.svg", false},
		{"nested", "out/graph.svg", false},
		{"dots in name", "graph..svg", false},

		{"empty", "", true},
		{"parent dir", "../graph.svg", true},
		{"parent dir nested", "out/../../graph.svg", true},
		{"too long", string(make([]byte, 600)), true},
		{"newline", "graph\n.svg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
