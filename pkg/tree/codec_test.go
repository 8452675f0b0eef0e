package tree

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	slerrors "github.com/matzehuels/slocmap/pkg/errors"
)

func TestReadJSONArrayChildren(t *testing.T) {
	in := `{"name":"/","children":[
		{"name":"a.go","code":10,"blank":1,"comment":2,"language":"Go"},
		{"name":"b.py","code":30,"Lang":"Python"}
	]}`
	n, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if len(n.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(n.Children))
	}
	if n.Children[0].Language != "Go" || n.Children[1].Language != "Python" {
		t.Errorf("languages = %q, %q", n.Children[0].Language, n.Children[1].Language)
	}
	if n.Value() != 40 {
		t.Errorf("Value() = %d, want 40", n.Value())
	}
}

func TestReadJSONMapChildren(t *testing.T) {
	// Layout written by the buildtree tool: children keyed by name,
	// files carry an empty children object.
	in := `{"name":"/","code":40,"comment":0,"blank":0,"children":{
		"zeta":{"name":"zeta","code":30,"comment":0,"blank":0,"children":{}},
		"alpha":{"name":"alpha","code":10,"comment":0,"blank":0,"children":{}}
	}}`
	n, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if got := []string{n.Children[0].Name, n.Children[1].Name}; got[0] != "alpha" || got[1] != "zeta" {
		t.Errorf("children order = %v, want [alpha zeta]", got)
	}
	for _, c := range n.Children {
		if !c.IsLeaf() {
			t.Errorf("%s should be a leaf", c.Name)
		}
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"name":`},
		{"scalar children", `{"name":"/","children":3}`},
		{"negative counts", `{"name":"/","children":[{"name":"a","code":-3}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.in))
			if !slerrors.Is(err, slerrors.ErrCodeInvalidTree) {
				t.Errorf("ReadJSON() error = %v, want code %s", err, slerrors.ErrCodeInvalidTree)
			}
		})
	}
}

func TestReadYAML(t *testing.T) {
	in := `
name: /
children:
  - name: src
    children:
      - {name: main.go, code: 12, blank: 2, comment: 1, language: Go}
  - name: docs
    children:
      guide.md: {code: 5, language: Markdown}
`
	n, err := ReadYAML(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadYAML() error: %v", err)
	}
	if n.Value() != 17 {
		t.Errorf("Value() = %d, want 17", n.Value())
	}
	guide, ok := n.Find("docs/guide.md")
	if !ok {
		t.Fatal("docs/guide.md not found (mapping children should take their key as name)")
	}
	if guide.Language != "Markdown" {
		t.Errorf("language = %q, want Markdown", guide.Language)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample(), false); err != nil {
		t.Fatal(err)
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if back.Value() != sample().Value() || back.Height() != sample().Height() {
		t.Error("round trip changed the tree")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "tree.json")
	if err := WriteFile(jsonPath, sample()); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(jsonPath); err != nil {
		t.Errorf("ReadFile(json) error: %v", err)
	}

	yamlPath := filepath.Join(dir, "tree.yml")
	if err := os.WriteFile(yamlPath, []byte("name: /\nchildren:\n  - {name: a, code: 1}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if n, err := ReadFile(yamlPath); err != nil || n.Value() != 1 {
		t.Errorf("ReadFile(yaml) = %v, %v", n, err)
	}

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	if !slerrors.Is(err, slerrors.ErrCodeFileNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want %s", err, slerrors.ErrCodeFileNotFound)
	}
}
