package tree

import (
	"encoding/json"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/matzehuels/slocmap/pkg/errors"
)

// DefaultRootName is the name given to the root of trees built from gocloc output.
const DefaultRootName = "/"

// GoclocReport is the JSON document written by `gocloc --output-type=json`.
type GoclocReport struct {
	Files []GoclocFile  `json:"files"`
	Total GoclocSummary `json:"total"`
}

// GoclocFile holds the statistics of a single file.
type GoclocFile struct {
	Name    string `json:"name"`
	Lang    string `json:"Lang"`
	Code    int    `json:"code"`
	Comment int    `json:"comment"`
	Blank   int    `json:"blank"`
}

// GoclocSummary holds the totals over all files.
type GoclocSummary struct {
	Files   int `json:"files"`
	Code    int `json:"code"`
	Comment int `json:"comment"`
	Blank   int `json:"blank"`
}

// FromGocloc decodes a gocloc JSON report and builds a tree from it.
// See [Build] for how file names become directories.
func FromGocloc(r io.Reader, rootName string) (*Node, error) {
	var report GoclocReport
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode gocloc report")
	}
	if len(report.Files) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "gocloc report lists no files")
	}
	return Build(report.Files, rootName)
}

// Build arranges files into a directory tree.
//
// File names are split on "/"; a leading "./" or "/" is ignored. Every file
// becomes a leaf carrying its counts and language, every directory carries
// the summed counts of the files below it. Children are ordered by name.
// An empty rootName defaults to [DefaultRootName].
//
// A path listed twice, or used both as a file and as a directory, fails
// with [errors.ErrCodeInvalidInput].
func Build(files []GoclocFile, rootName string) (*Node, error) {
	if rootName == "" {
		rootName = DefaultRootName
	}
	root := &Node{Name: rootName}
	index := map[string]*Node{"": root}
	leaves := make(map[string]bool, len(files))

	for _, f := range files {
		segs := SplitPath(path.Clean(strings.TrimPrefix(f.Name, "./")))
		if len(segs) == 0 || segs[0] == "." {
			segs = segs[min(1, len(segs)):]
		}
		if len(segs) == 0 {
			continue
		}

		root.accumulate(f)
		parent, dir := root, ""
		for _, seg := range segs[:len(segs)-1] {
			dir = joinPath(dir, seg)
			if leaves[dir] {
				return nil, errors.New(errors.ErrCodeInvalidInput, "%s is both a file and a directory", dir)
			}
			node, ok := index[dir]
			if !ok {
				node = &Node{Name: seg}
				parent.Children = append(parent.Children, node)
				index[dir] = node
			}
			node.accumulate(f)
			parent = node
		}
		file := joinPath(dir, segs[len(segs)-1])
		if _, ok := index[file]; ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s is both a file and a directory", file)
		}
		if leaves[file] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s is listed twice", file)
		}
		leaves[file] = true
		parent.Children = append(parent.Children, &Node{
			Name:     segs[len(segs)-1],
			Code:     f.Code,
			Blank:    f.Blank,
			Comment:  f.Comment,
			Language: f.Lang,
		})
	}

	_ = root.Walk(func(n *Node, _ []string) error {
		slices.SortStableFunc(n.Children, func(a, b *Node) int { return strings.Compare(a.Name, b.Name) })
		return nil
	})
	return root, nil
}

func (n *Node) accumulate(f GoclocFile) {
	n.Code += f.Code
	n.Blank += f.Blank
	n.Comment += f.Comment
}
