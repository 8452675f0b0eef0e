package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/slocmap/pkg/errors"
)

// rawNode mirrors Node for decoding. Children may be a list or, as written by
// the buildtree tool, an object keyed by child name. "Lang" is the key gocloc
// uses for the language.
type rawNode struct {
	Name     string          `json:"name"`
	Code     int             `json:"code"`
	Blank    int             `json:"blank"`
	Comment  int             `json:"comment"`
	Language string          `json:"language"`
	Lang     string          `json:"lang"`
	Children json.RawMessage `json:"children"`
}

// UnmarshalJSON accepts children either as an array or as a name-keyed object.
// Object children are ordered by key.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node{
		Name:     raw.Name,
		Code:     raw.Code,
		Blank:    raw.Blank,
		Comment:  raw.Comment,
		Language: raw.Language,
	}
	if n.Language == "" {
		n.Language = raw.Lang
	}

	children := bytes.TrimSpace(raw.Children)
	switch {
	case len(children) == 0 || bytes.Equal(children, []byte("null")):
		return nil
	case children[0] == '[':
		return json.Unmarshal(children, &n.Children)
	case children[0] == '{':
		var byName map[string]*Node
		if err := json.Unmarshal(children, &byName); err != nil {
			return err
		}
		n.Children = sortedChildren(byName)
		return nil
	default:
		return fmt.Errorf("children of %q must be an array or an object", raw.Name)
	}
}

// UnmarshalYAML accepts the same two children layouts as UnmarshalJSON.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name     string    `yaml:"name"`
		Code     int       `yaml:"code"`
		Blank    int       `yaml:"blank"`
		Comment  int       `yaml:"comment"`
		Language string    `yaml:"language"`
		Lang     string    `yaml:"lang"`
		Children yaml.Node `yaml:"children"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*n = Node{Name: raw.Name, Code: raw.Code, Blank: raw.Blank, Comment: raw.Comment, Language: raw.Language}
	if n.Language == "" {
		n.Language = raw.Lang
	}

	switch raw.Children.Kind {
	case 0:
		return nil
	case yaml.SequenceNode:
		return raw.Children.Decode(&n.Children)
	case yaml.MappingNode:
		var byName map[string]*Node
		if err := raw.Children.Decode(&byName); err != nil {
			return err
		}
		n.Children = sortedChildren(byName)
		return nil
	case yaml.ScalarNode:
		if raw.Children.Tag == "!!null" {
			return nil
		}
	}
	return fmt.Errorf("line %d: children of %q must be a sequence or a mapping", raw.Children.Line, raw.Name)
}

func sortedChildren(byName map[string]*Node) []*Node {
	if len(byName) == 0 {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*Node, 0, len(names))
	for _, name := range names {
		c := byName[name]
		if c == nil {
			continue
		}
		if c.Name == "" {
			c.Name = name
		}
		out = append(out, c)
	}
	return out
}

// ReadJSON decodes a tree from r and validates it.
//
// The input is a single node object:
//
//	{
//	  "name": "/",
//	  "children": [
//	    {"name": "main.go", "code": 120, "blank": 14, "comment": 9, "language": "Go"}
//	  ]
//	}
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Node, error) {
	var n Node
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "decode tree JSON")
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// ReadYAML decodes a tree from YAML and validates it.
func ReadYAML(r io.Reader) (*Node, error) {
	var n Node
	if err := yaml.NewDecoder(r).Decode(&n); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "decode tree YAML")
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Decode picks the decoder for the given file name extension (.yaml/.yml
// select YAML, anything else JSON).
func Decode(r io.Reader, name string) (*Node, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ReadYAML(r)
	default:
		return ReadJSON(r)
	}
}

// ReadFile reads a tree from path using [Decode].
func ReadFile(path string) (*Node, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, path)
}

// WriteJSON encodes n to w, indented when indent is true.
func WriteJSON(w io.Writer, n *Node, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(n)
}

// WriteFile writes n as indented JSON to path.
func WriteFile(path string, n *Node) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, n, true); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
