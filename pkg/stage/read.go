package stage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

// Format identifies a stage file encoding.
type Format string

// Supported stage file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// file is the document shape shared by every format.
type file struct {
	Stages []Stage `json:"stages" yaml:"stages" toml:"stages"`
}

// FormatFromPath returns the format implied by a file extension.
func FormatFromPath(path string) (Format, error) {
	if err := errors.ValidateStageFilename(path); err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return FormatJSON, nil
	}
}

// Read decodes a stage list from r in the given format.
// Read does not close r.
func Read(r io.Reader, format Format) ([]Stage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stages")
	}

	var stages []Stage
	switch format {
	case FormatJSON:
		stages, err = decodeJSON(data)
	case FormatYAML:
		stages, err = decodeYAML(data)
	case FormatTOML:
		stages, err = decodeTOML(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown stage format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStages, err, "decode %s stages", format)
	}
	return stages, nil
}

// ReadFile reads a stage file, choosing the decoder from its extension.
func ReadFile(path string) ([]Stage, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	return Read(f, format)
}

// WriteJSON encodes stages as an indented {"stages": [...]} document.
func WriteJSON(w io.Writer, stages []Stage) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file{Stages: stages})
}

// MarshalJSON returns the canonical JSON encoding of a stage list, used
// for content hashing.
func MarshalJSON(stages []Stage) ([]byte, error) {
	if stages == nil {
		stages = []Stage{}
	}
	return json.Marshal(stages)
}

func decodeJSON(data []byte) ([]Stage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '[' {
		var stages []Stage
		if err := json.Unmarshal(trimmed, &stages); err != nil {
			return nil, err
		}
		return stages, nil
	}

	var doc file
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.Stages, nil
}

func decodeYAML(data []byte) ([]Stage, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	body := root.Content[0]
	if body.Kind == yaml.SequenceNode {
		var stages []Stage
		if err := body.Decode(&stages); err != nil {
			return nil, err
		}
		return stages, nil
	}

	var doc file
	if err := body.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Stages, nil
}

func decodeTOML(data []byte) ([]Stage, error) {
	var doc file
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys: %v", undecoded)
	}
	return doc.Stages, nil
}
