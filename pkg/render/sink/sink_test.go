package sink

import (
	"github.com/matzehuels/slocmap/pkg/tree"
	"github.com/matzehuels/slocmap/pkg/treemap"
)

func sampleTree() *tree.Node {
	return &tree.Node{Name: "repo", Children: []*tree.Node{
		{Name: "pkg", Children: []*tree.Node{
			{Name: "tree", Children: []*tree.Node{
				{Name: "node.go", Code: 100, Blank: 10, Comment: 20, Language: "Go"},
			}},
			{Name: "doc.go", Code: 20, Comment: 5, Language: "Go"},
		}},
		{Name: "cmd", Children: []*tree.Node{
			{Name: "tree", Children: []*tree.Node{
				{Name: "main.go", Code: 30, Language: "Go"},
			}},
		}},
		{Name: "README.md", Code: 15, Blank: 5, Language: "Markdown"},
	}}
}

func sampleLayout() *treemap.Cell {
	return treemap.Layout(sampleTree(), 400, 300)
}
