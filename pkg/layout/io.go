package layout

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

// MarshalModel serializes a model to pretty-printed JSON.
func MarshalModel(m *Model) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// UnmarshalModel decodes a model and checks its structural invariants.
// Every model produced by [Layout] is accepted, including one built from
// stages with repeated ids.
func UnmarshalModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "unmarshal layout")
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteModel writes m to w as JSON.
func WriteModel(w io.Writer, m *Model) error {
	data, err := MarshalModel(m)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadModel reads a JSON model from r.
func ReadModel(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read layout")
	}
	return UnmarshalModel(data)
}

// WriteModelFile writes a model to a JSON file.
func WriteModelFile(m *Model, path string) error {
	data, err := MarshalModel(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadModelFile reads a model from a JSON file.
func ReadModelFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return UnmarshalModel(data)
}

// check verifies the start/trailing invariants and that every connection
// and label refers to an existing node. Duplicate keys are accepted:
// [Layout] does not validate stage ids, and its output must read back.
func (m *Model) check() error {
	if len(m.Nodes) < 2 {
		return errors.New(errors.ErrCodeInvalidLayout, "layout must contain at least the start and trailing add nodes")
	}
	if first := m.Nodes[0]; first.Kind != KindStart || first.Key != StartKey {
		return errors.New(errors.ErrCodeInvalidLayout, "first node must be the start node, got %q", first.Key)
	}
	if last := m.Nodes[len(m.Nodes)-1]; last.Kind != KindAdd || last.HasParent {
		return errors.New(errors.ErrCodeInvalidLayout, "last node must be the trailing add node, got %q", last.Key)
	}

	idx := m.NodeIndex()
	for _, c := range m.Connections {
		if _, ok := idx[c.From]; !ok {
			return errors.New(errors.ErrCodeInvalidLayout, "connection %s: unknown node %q", c.Key(), c.From)
		}
		if _, ok := idx[c.To]; !ok {
			return errors.New(errors.ErrCodeInvalidLayout, "connection %s: unknown node %q", c.Key(), c.To)
		}
	}
	for _, labels := range [][]Label{m.BigLabels, m.SmallLabels} {
		for _, l := range labels {
			if _, ok := idx[l.NodeKey]; !ok {
				return errors.New(errors.ErrCodeInvalidLayout, "label %q: unknown node %q", l.Text, l.NodeKey)
			}
		}
	}
	return nil
}
