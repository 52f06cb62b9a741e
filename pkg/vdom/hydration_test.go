package vdom

import (
	"testing"

	"github.com/vango-dev/treebridge/pkg/reconcile"
)

func TestHIDGenerator(t *testing.T) {
	gen := NewHIDGenerator()
	for i, want := range []string{"h1", "h2", "h3"} {
		if got := gen.Next(); got != want {
			t.Errorf("Next() #%d = %v, want %v", i, got, want)
		}
	}
	if gen.Current() != 3 {
		t.Errorf("Current() = %v, want 3", gen.Current())
	}
}

func TestCollectHIDs(t *testing.T) {
	handler := reconcile.NewHandler(nil, false, false, func(reconcile.Event) {})
	button := &VNode{Kind: KindElement, Tag: "button", HID: "h1", Props: Props{"onclick": handler}}
	input := &VNode{Kind: KindElement, Tag: "input", HID: "h2", Props: Props{"oninput": handler}}
	root := &VNode{Kind: KindElement, Tag: "div", Children: []*VNode{
		button,
		{Kind: KindElement, Tag: "p", Children: []*VNode{input, Text("x")}},
	}}

	hids := CollectHIDs(root)
	if len(hids) != 2 || hids["h1"] != button || hids["h2"] != input {
		t.Errorf("CollectHIDs() = %v", hids)
	}
	if n := CountInteractive(root); n != 2 {
		t.Errorf("CountInteractive() = %d, want 2", n)
	}
	if len(CollectHIDs(nil)) != 0 {
		t.Error("CollectHIDs(nil) should be empty")
	}
}
