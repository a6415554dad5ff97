package view

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/selection"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

func buildAndTest() []stage.Stage {
	return []stage.Stage{
		{ID: 1, Name: "Build"},
		{ID: 2, Name: "Test", Children: []stage.Stage{
			{ID: 3, Name: "Unit"},
			{ID: 4, Name: "Integration"},
		}},
	}
}

func TestNew(t *testing.T) {
	v := New(buildAndTest())
	if v.Relayouts() != 1 {
		t.Errorf("Relayouts() = %d, want 1", v.Relayouts())
	}
	if !v.Selection().None() {
		t.Errorf("Selection() = %+v, want none", v.Selection())
	}
	if len(v.Model().Nodes) != 7 {
		t.Errorf("got %d nodes, want 7", len(v.Model().Nodes))
	}
	if v.Constants() != layout.Defaults() {
		t.Errorf("Constants() = %+v, want defaults", v.Constants())
	}
}

func TestSetStagesRelayoutsOnlyOnChange(t *testing.T) {
	v := New(buildAndTest())

	if v.SetStages(buildAndTest()) {
		t.Error("SetStages() with equal stages recomputed the layout")
	}
	if v.Relayouts() != 1 {
		t.Errorf("Relayouts() = %d, want 1", v.Relayouts())
	}

	renamed := buildAndTest()
	renamed[0].Name = "Compile"
	if !v.SetStages(renamed) {
		t.Error("SetStages() with a renamed stage did not relayout")
	}
	if v.Relayouts() != 2 {
		t.Errorf("Relayouts() = %d, want 2", v.Relayouts())
	}
	n, _ := v.Model().Node("n_1")
	if n.Name != "Compile" {
		t.Errorf("n_1 name = %q, want Compile", n.Name)
	}
}

func TestSetOverrides(t *testing.T) {
	v := New(buildAndTest())

	same := 120.0
	if v.SetOverrides(layout.Overrides{NodeSpacingH: &same}) {
		t.Error("override equal to the default recomputed the layout")
	}

	wider := 200.0
	if !v.SetOverrides(layout.Overrides{NodeSpacingH: &wider}) {
		t.Fatal("SetOverrides() did not relayout")
	}
	if v.Model().MeasuredWidth != 800 {
		t.Errorf("MeasuredWidth = %v, want 800", v.Model().MeasuredWidth)
	}
	if v.Relayouts() != 2 {
		t.Errorf("Relayouts() = %d, want 2", v.Relayouts())
	}
}

func TestSelectionSurvivesRelayout(t *testing.T) {
	ctx := context.Background()
	v := New(buildAndTest())
	if err := v.SelectKey(ctx, "n_4"); err != nil {
		t.Fatal(err)
	}

	wider := 200.0
	v.SetOverrides(layout.Overrides{NodeSpacingH: &wider})
	if v.Selection().Key != "n_4" {
		t.Errorf("selection after relayout = %q, want n_4", v.Selection().Key)
	}

	v.SetStages([]stage.Stage{{ID: 1, Name: "Build"}})
	if !v.Selection().None() {
		t.Errorf("selection of a removed node = %q, want none", v.Selection().Key)
	}
}

func TestClick(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		key        string
		wantReport bool
		wantClick  selection.Click
		wantSel    string
	}{
		{"n_1", true, selection.Click{Name: "Build", ID: 1}, "n_1"},
		{"n_4", true, selection.Click{Name: "Integration", ID: 4}, "n_4"},
		{"s_-1", true, selection.Click{Name: "start", ID: -1}, "s_-1"},
		{"a_-2", false, selection.Click{}, ""},
		{"a_-4", false, selection.Click{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			var got []selection.Click
			v := New(buildAndTest(), WithListener(func(c selection.Click) { got = append(got, c) }))
			before := v.Relayouts()

			click, reported, err := v.Click(ctx, tt.key)
			if err != nil {
				t.Fatal(err)
			}
			if reported != tt.wantReport || click != tt.wantClick {
				t.Errorf("Click(%q) = %+v, %v; want %+v, %v", tt.key, click, reported, tt.wantClick, tt.wantReport)
			}
			if v.Selection().Key != tt.wantSel {
				t.Errorf("selection = %q, want %q", v.Selection().Key, tt.wantSel)
			}

			var want []selection.Click
			if tt.wantReport {
				want = []selection.Click{tt.wantClick}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("listener calls (-want +got):\n%s", diff)
			}
			if v.Relayouts() != before {
				t.Error("Click() recomputed the layout")
			}
		})
	}
}

func TestClickAddKeepsSelection(t *testing.T) {
	ctx := context.Background()
	v := New(buildAndTest())
	if _, _, err := v.Click(ctx, "n_3"); err != nil {
		t.Fatal(err)
	}
	if _, reported, _ := v.Click(ctx, "a_-3"); reported {
		t.Error("add placeholder click was reported")
	}
	if v.Selection().Key != "n_3" {
		t.Errorf("selection = %q, want n_3", v.Selection().Key)
	}
}

func TestClickUnknownNode(t *testing.T) {
	v := New(buildAndTest())
	_, _, err := v.Click(context.Background(), "n_99")
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("Click() error = %v, want NODE_NOT_FOUND", err)
	}
}

func TestSelectStage(t *testing.T) {
	ctx := context.Background()

	v := New(buildAndTest(), WithSelectedStage(2))
	if v.Selection().Key != "n_3" {
		t.Errorf("seeded selection = %q, want n_3", v.Selection().Key)
	}
	if v.Relayouts() != 1 {
		t.Errorf("Relayouts() = %d, want 1", v.Relayouts())
	}

	if !v.SelectStage(ctx, 1) || v.Selection().Key != "n_1" {
		t.Errorf("SelectStage(1) selected %q", v.Selection().Key)
	}
	if v.SelectStage(ctx, 42) {
		t.Error("SelectStage(42) reported success")
	}
	if v.Selection().Key != "n_1" {
		t.Error("failed SelectStage changed the selection")
	}

	v.ClearSelection(ctx)
	if !v.Selection().None() {
		t.Error("ClearSelection() kept a selection")
	}
}

func TestSceneFollowsSelection(t *testing.T) {
	ctx := context.Background()
	v := New(buildAndTest())
	if v.Scene().Highlight != nil {
		t.Error("highlight without selection")
	}
	v.Click(ctx, "n_1")
	if h := v.Scene().Highlight; h == nil || h.NodeKey != "n_1" {
		t.Errorf("Highlight = %+v, want n_1", h)
	}
}

func ExampleView_Click() {
	v := New([]stage.Stage{{ID: 1, Name: "Build"}})
	v.OnClick(func(c selection.Click) {
		fmt.Printf("clicked %s (%d)\n", c.Name, c.ID)
	})

	ctx := context.Background()
	v.Click(ctx, "n_1")
	v.Click(ctx, "s_-1")
	v.Click(ctx, "a_-2")
	fmt.Println("selected:", v.Selection().Key)
	// Output:
	// clicked Build (1)
	// clicked start (-1)
	// selected: s_-1
}
