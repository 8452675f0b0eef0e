package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/tree"
)

func sampleTree() *tree.Node {
	return &tree.Node{Name: "repo", Children: []*tree.Node{
		{Name: "main.go", Language: "Go", Code: 10, Blank: 2, Comment: 1},
		{Name: "pkg", Children: []*tree.Node{
			{Name: "a.go", Language: "Go", Code: 20},
		}},
	}}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
	if uri := os.Getenv("SLOCMAP_MONGO_URI"); uri != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ms, err := NewMongoStore(ctx, MongoConfig{URI: uri, Collection: "snapshots_test"})
		if err != nil {
			t.Fatalf("NewMongoStore() error: %v", err)
		}
		out["mongo"] = ms
	}
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer st.Close()
			ctx := context.Background()

			s := New("repo", sampleTree(), "abc", time.Hour)
			if err := st.Put(ctx, s); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			got, err := st.Get(ctx, s.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got.Name != "repo" || got.Hash != "abc" {
				t.Errorf("Get() = %+v", got)
			}
			if got.Tree.Value() != 30 {
				t.Errorf("tree value = %d, want 30", got.Tree.Value())
			}

			list, err := st.List(ctx)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			found := false
			for _, l := range list {
				if l.ID == s.ID {
					found = true
					if l.Tree != nil {
						t.Error("List() should omit trees")
					}
				}
			}
			if !found {
				t.Errorf("List() missing %s", s.ID)
			}

			if err := st.Delete(ctx, s.ID); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := st.Get(ctx, s.ID); !slerrors.Is(err, slerrors.ErrCodeSnapshotNotFound) {
				t.Errorf("Get() after delete error = %v, want %s", err, slerrors.ErrCodeSnapshotNotFound)
			}
			if err := st.Delete(ctx, s.ID); err != nil {
				t.Errorf("second Delete() error: %v", err)
			}
		})
	}
}

func TestStoreExpired(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer st.Close()
			ctx := context.Background()

			s := New("old", sampleTree(), "", time.Hour)
			s.CreatedAt = time.Now().Add(-2 * time.Hour).UTC()
			s.ExpiresAt = time.Now().Add(-time.Hour).UTC()
			if err := st.Put(ctx, s); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			if _, err := st.Get(ctx, s.ID); !slerrors.Is(err, slerrors.ErrCodeSnapshotNotFound) {
				t.Errorf("Get() expired error = %v, want %s", err, slerrors.ErrCodeSnapshotNotFound)
			}
			list, _ := st.List(ctx)
			for _, l := range list {
				if l.ID == s.ID {
					t.Error("List() returned expired snapshot")
				}
			}
			if err := st.Cleanup(ctx); err != nil {
				t.Errorf("Cleanup() error: %v", err)
			}
		})
	}
}

func TestStoreRejects(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	tests := []struct {
		name string
		s    *Snapshot
		want slerrors.Code
	}{
		{"nil tree", &Snapshot{ID: New("x", nil, "", 0).ID}, slerrors.ErrCodeInvalidInput},
		{"bad id", &Snapshot{ID: "../../etc/passwd", Tree: sampleTree()}, slerrors.ErrCodeInvalidInput},
		{"invalid tree", New("x", &tree.Node{Name: "r", Code: -1}, "", 0), slerrors.ErrCodeInvalidTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := st.Put(ctx, tt.s); !slerrors.Is(err, tt.want) {
				t.Errorf("Put() error = %v, want %s", err, tt.want)
			}
		})
	}

	if _, err := st.Get(ctx, "not-a-uuid"); !slerrors.Is(err, slerrors.ErrCodeInvalidInput) {
		t.Errorf("Get(bad id) error = %v, want %s", err, slerrors.ErrCodeInvalidInput)
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return base.Add(time.Hour) }

	var ids []string
	for i := range 3 {
		s := New("s", sampleTree(), "", 0)
		s.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := st.Put(ctx, s); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, s.ID)
	}
	list, err := st.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != ids[2] || list[2].ID != ids[0] {
		t.Errorf("List() order wrong: got %v", list)
	}
}

func TestFileStoreSkipsJunk(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := New("ok", sampleTree(), "", 0)
	if err := st.Put(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	list, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 1 || list[0].ID != s.ID {
		t.Errorf("List() = %v, want only %s", list, s.ID)
	}
}
