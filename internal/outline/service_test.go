package outline_test

import (
	"context"
	"testing"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/outline"
	"github.com/starford/laguz/internal/remote"
	"github.com/starford/laguz/internal/testutil"
)

func TestSearchCaseInsensitive(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: []models.Node{
		{ID: "1", Name: "Rubric v2"},
		{ID: "2", Name: "unrelated", Note: "see rubric"},
		{ID: "3", Name: "nothing here"},
	}}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	list, err := svc.Search(context.Background(), "rubric", outline.DefaultSearchOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Nodes) != 2 {
		t.Fatalf("hits = %d, want 2", len(list.Nodes))
	}
	if list.Nodes[0].ID != "1" || list.Nodes[1].ID != "2" {
		t.Errorf("hits out of snapshot order: %v, %v", list.Nodes[0].ID, list.Nodes[1].ID)
	}
}

func TestSearchCaseSensitive(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: []models.Node{
		{ID: "1", Name: "rubric only"},
		{ID: "2", Name: "Rubric v2"},
	}}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	opts := outline.DefaultSearchOptions()
	opts.CaseSensitive = true
	list, err := svc.Search(context.Background(), "Rubric", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Nodes) != 1 || list.Nodes[0].ID != "2" {
		t.Errorf("case-sensitive search matched %v", list.Nodes)
	}
}

func TestSearchFieldToggles(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: []models.Node{
		{ID: "1", Name: "target"},
		{ID: "2", Name: "other", Note: "target"},
	}}
	svc, _ := testutil.TestService(t, fake, time.Hour)
	ctx := context.Background()

	opts := outline.DefaultSearchOptions()
	opts.MatchNote = false
	list, err := svc.Search(ctx, "target", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Nodes) != 1 || list.Nodes[0].ID != "1" {
		t.Errorf("name-only search matched %v", list.Nodes)
	}

	opts = outline.DefaultSearchOptions()
	opts.MatchName = false
	list, err = svc.Search(ctx, "target", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Nodes) != 1 || list.Nodes[0].ID != "2" {
		t.Errorf("note-only search matched %v", list.Nodes)
	}
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	var nodes []models.Node
	for i := 0; i < 10; i++ {
		nodes = append(nodes, models.Node{ID: string(rune('a' + i)), Name: "match"})
	}
	fake := &testutil.FakeAPI{Nodes: nodes}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	opts := outline.DefaultSearchOptions()
	opts.MaxResults = 3
	list, err := svc.Search(context.Background(), "match", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Nodes) != 3 {
		t.Fatalf("hits = %d, want 3", len(list.Nodes))
	}
	if list.Nodes[0].ID != "a" || list.Nodes[2].ID != "c" {
		t.Error("truncation should keep the first hits in scan order")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	_, err := svc.Search(context.Background(), "", outline.DefaultSearchOptions())
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if fake.Exports() != 0 {
		t.Error("validation failure must not reach the remote service")
	}
}

func TestGetWithChildrenDepthTwo(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	tree, err := svc.GetWithChildren(context.Background(), "root", 2)
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root
	if root.ID != "root" || len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}
	a, b := root.Children[0], root.Children[1]
	if a.ID != "a" || b.ID != "b" {
		t.Fatalf("children order = %s, %s; want a, b", a.ID, b.ID)
	}
	if len(a.Children) != 1 || a.Children[0].ID != "c" {
		t.Errorf("a children = %v, want [c]", a.Children)
	}
	if len(b.Children) != 0 {
		t.Errorf("b children = %v, want none", b.Children)
	}
}

func TestGetWithChildrenDepthZero(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	tree, err := svc.GetWithChildren(context.Background(), "root", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Root.Children) != 0 {
		t.Errorf("depth 0 attached children: %v", tree.Root.Children)
	}
}

func TestGetWithChildrenSelfCycleTerminates(t *testing.T) {
	x := "x"
	fake := &testutil.FakeAPI{Nodes: []models.Node{
		{ID: "x", ParentID: &x, Name: "ouroboros"},
	}}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	tree, err := svc.GetWithChildren(context.Background(), "x", 5)
	if err != nil {
		t.Fatal(err)
	}

	// The node is its own child, so expansion bottoms out after exactly
	// five levels.
	depth := 0
	for n := tree.Root; len(n.Children) > 0; n = n.Children[0] {
		if n.Children[0].ID != "x" {
			t.Fatalf("unexpected child %s", n.Children[0].ID)
		}
		depth++
	}
	if depth != 5 {
		t.Errorf("expansion depth = %d, want 5", depth)
	}
}

func TestGetWithChildrenDanglingParent(t *testing.T) {
	ghost := "ghost"
	fake := &testutil.FakeAPI{Nodes: []models.Node{
		{ID: "orphan", ParentID: &ghost, Name: "orphan"},
	}}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	tree, err := svc.GetWithChildren(context.Background(), "orphan", 3)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Root.ID != "orphan" {
		t.Errorf("root = %s, want orphan", tree.Root.ID)
	}
}

func TestGetWithChildrenDepthValidation(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)
	ctx := context.Background()

	for _, depth := range []int{-1, 6, 100} {
		if _, err := svc.GetWithChildren(ctx, "root", depth); !apperr.IsValidation(err) {
			t.Errorf("depth %d: err = %v, want ValidationError", depth, err)
		}
	}
	if fake.Exports() != 0 {
		t.Error("depth validation must reject before any remote call")
	}
}

func TestGetWithChildrenNotFound(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	_, err := svc.GetWithChildren(context.Background(), "missing", 1)
	if !apperr.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestListChildren(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)
	ctx := context.Background()

	roots, err := svc.ListChildren(ctx, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots.Nodes) != 1 || roots.Nodes[0].ID != "root" {
		t.Errorf("root listing = %v", roots.Nodes)
	}

	children, err := svc.ListChildren(ctx, "root", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(children.Nodes) != 2 {
		t.Errorf("children = %d, want 2", len(children.Nodes))
	}

	if _, err := svc.ListChildren(ctx, "missing", false); !apperr.IsNotFound(err) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}

func TestMutationInvalidatesCache(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)
	ctx := context.Background()

	if _, err := svc.Snapshot(ctx, false); err != nil {
		t.Fatal(err)
	}
	if fake.Exports() != 1 {
		t.Fatalf("export calls = %d, want 1", fake.Exports())
	}

	if _, err := svc.CreateNode(ctx, remote.CreateRequest{ParentID: "root", Name: "new"}); err != nil {
		t.Fatal(err)
	}

	// The next read must trigger exactly one fresh fetch.
	if _, err := svc.Snapshot(ctx, false); err != nil {
		t.Fatal(err)
	}
	if fake.Exports() != 2 {
		t.Errorf("export calls = %d, want 2 after mutation", fake.Exports())
	}
	if _, err := svc.Snapshot(ctx, false); err != nil {
		t.Fatal(err)
	}
	if fake.Exports() != 2 {
		t.Errorf("export calls = %d, want still 2", fake.Exports())
	}
}

func TestFailedMutationDoesNotInvalidate(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)
	ctx := context.Background()

	first, err := svc.Snapshot(ctx, false)
	if err != nil {
		t.Fatal(err)
	}

	fake.FailWith = &apperr.UpstreamError{Status: 500, Message: "boom"}
	if _, err := svc.CompleteNode(ctx, "a"); err == nil {
		t.Fatal("expected mutation failure")
	}
	fake.FailWith = nil

	second, err := svc.Snapshot(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if fake.Exports() != 1 {
		t.Errorf("export calls = %d, want 1 (no invalidation on failure)", fake.Exports())
	}
	if !second.Snapshot.FetchedAt.Equal(first.Snapshot.FetchedAt) {
		t.Error("snapshot timestamp changed after a failed mutation")
	}
}

func TestEveryMutationKindInvalidates(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)
	ctx := context.Background()

	mutations := []func() error{
		func() error {
			_, err := svc.CreateNode(ctx, remote.CreateRequest{ParentID: "root", Name: "n"})
			return err
		},
		func() error {
			_, err := svc.UpdateNode(ctx, "a", remote.UpdateRequest{Name: testutil.Ptr("renamed")})
			return err
		},
		func() error {
			_, err := svc.MoveNode(ctx, "c", remote.MoveRequest{ParentID: "b"})
			return err
		},
		func() error {
			_, err := svc.CompleteNode(ctx, "a")
			return err
		},
		func() error {
			_, err := svc.UncompleteNode(ctx, "a")
			return err
		},
		func() error { return svc.DeleteNode(ctx, "b") },
	}

	for i, mutate := range mutations {
		if _, err := svc.Snapshot(ctx, false); err != nil {
			t.Fatal(err)
		}
		before := fake.Exports()
		if err := mutate(); err != nil {
			t.Fatalf("mutation %d: %v", i, err)
		}
		if _, err := svc.Snapshot(ctx, false); err != nil {
			t.Fatal(err)
		}
		if got := fake.Exports(); got != before+1 {
			t.Errorf("mutation %d: export calls = %d, want %d", i, got, before+1)
		}
	}
}

func TestCreateNodeValidation(t *testing.T) {
	fake := &testutil.FakeAPI{}
	svc, _ := testutil.TestService(t, fake, time.Hour)
	ctx := context.Background()

	cases := []remote.CreateRequest{
		{Name: "no parent"},
		{ParentID: "root"},
		{ParentID: "root", Name: "bad layout", LayoutMode: testutil.Ptr("banner")},
	}
	for i, req := range cases {
		if _, err := svc.CreateNode(ctx, req); !apperr.IsValidation(err) {
			t.Errorf("case %d: err = %v, want ValidationError", i, err)
		}
	}
	if fake.MutationCalls != 0 {
		t.Error("invalid create reached the remote service")
	}
}

func TestUpdateNodeValidation(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, time.Hour)
	ctx := context.Background()

	if _, err := svc.UpdateNode(ctx, "a", remote.UpdateRequest{}); !apperr.IsValidation(err) {
		t.Errorf("empty update: err = %v, want ValidationError", err)
	}
	if _, err := svc.UpdateNode(ctx, "", remote.UpdateRequest{Name: testutil.Ptr("x")}); !apperr.IsValidation(err) {
		t.Errorf("missing id: err = %v, want ValidationError", err)
	}
}

func TestSearchServesStaleOnRateLimit(t *testing.T) {
	fake := &testutil.FakeAPI{Nodes: testutil.Outline()}
	svc, _ := testutil.TestService(t, fake, 30*time.Millisecond)
	ctx := context.Background()

	if _, err := svc.Search(ctx, "Alpha", outline.DefaultSearchOptions()); err != nil {
		t.Fatal(err)
	}

	fake.SetRateLimit(true)
	time.Sleep(50 * time.Millisecond)

	list, err := svc.Search(ctx, "Alpha", outline.DefaultSearchOptions())
	if err != nil {
		t.Fatalf("search should tolerate a rate-limited refresh: %v", err)
	}
	if !list.Snapshot.Stale {
		t.Error("stale-served search not flagged")
	}
	if len(list.Nodes) != 1 {
		t.Errorf("hits = %d, want 1", len(list.Nodes))
	}
}

func TestListTargets(t *testing.T) {
	fake := &testutil.FakeAPI{Targets: []models.Target{{ID: "t1", Name: "Inbox"}}}
	svc, _ := testutil.TestService(t, fake, time.Hour)

	targets, err := svc.ListTargets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].ID != "t1" {
		t.Errorf("targets = %v", targets)
	}
	if fake.Exports() != 0 {
		t.Error("target listing must not touch the snapshot cache")
	}
}
