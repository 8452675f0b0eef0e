package view_test

import (
	"fmt"

	"github.com/matzehuels/slocmap/pkg/tree"
	"github.com/matzehuels/slocmap/pkg/treemap"
	"github.com/matzehuels/slocmap/pkg/view"
)

func ExampleState_ZoomIn() {
	root := treemap.Layout(&tree.Node{Name: "repo", Children: []*tree.Node{
		{Name: "pkg", Children: []*tree.Node{{Name: "a.go", Code: 10}}},
		{Name: "main.go", Code: 30},
	}}, 400, 300)
	st := view.New(root)

	pkg, _ := root.Find("pkg")
	t, _ := st.ZoomIn(pkg)
	_, err := st.ZoomIn(pkg)
	fmt.Println(err)

	st.Complete(t)
	fmt.Println(view.Header(st.Current(), "/"))
	// Output:
	// view: transition in progress
	// repo/pkg  -  Click to zoom out
}
