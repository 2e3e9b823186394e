package schema

import "testing"

func TestClassMapping_Apply(t *testing.T) {
	cm := NewClassMapping(map[string]string{
		NodeImage:   "img-fluid",
		NodeHeading: "",
	})

	t.Run("no class empty base", func(t *testing.T) {
		attrs, ok := cm.Apply(Attrs{}, NodeParagraph)
		if ok || attrs != nil {
			t.Errorf("Apply = (%v, %v), want (nil, false)", attrs, ok)
		}
		attrs, ok = cm.Apply(nil, NodeHeading)
		if ok || attrs != nil {
			t.Errorf("empty configured class must count as absent, got (%v, %v)", attrs, ok)
		}
	})

	t.Run("class configured empty base", func(t *testing.T) {
		pm := NewClassMapping(map[string]string{NodeParagraph: "lead"})
		attrs, ok := pm.Apply(Attrs{}, NodeParagraph)
		if !ok {
			t.Fatal("expected attributes")
		}
		if len(attrs) != 1 || attrs["class"] != "lead" {
			t.Errorf("Apply = %v, want {class: lead}", attrs)
		}
	})

	t.Run("preserves other attributes", func(t *testing.T) {
		base := Attrs{"id": "x"}
		attrs, ok := cm.Apply(base, NodeImage)
		if !ok {
			t.Fatal("expected attributes")
		}
		if attrs["id"] != "x" || attrs["class"] != "img-fluid" || len(attrs) != 2 {
			t.Errorf("Apply = %v", attrs)
		}
		if _, mutated := base["class"]; mutated {
			t.Error("base attributes were mutated")
		}
	})

	t.Run("overwrites class", func(t *testing.T) {
		attrs, _ := cm.Apply(Attrs{"class": "old", "src": "a.png"}, NodeImage)
		if attrs["class"] != "img-fluid" || attrs["src"] != "a.png" {
			t.Errorf("Apply = %v", attrs)
		}
	})

	t.Run("no class non-empty base", func(t *testing.T) {
		base := Attrs{"start": 3.0}
		attrs, ok := cm.Apply(base, NodeOrderedList)
		if !ok || attrs["start"] != 3.0 || len(attrs) != 1 {
			t.Errorf("Apply = (%v, %v)", attrs, ok)
		}
		attrs["start"] = 1.0
		if base["start"] != 3.0 {
			t.Error("result shares storage with base")
		}
	})

	t.Run("nil mapping", func(t *testing.T) {
		var nilMap *ClassMapping
		if attrs, ok := nilMap.Apply(nil, NodeParagraph); ok || attrs != nil {
			t.Errorf("Apply = (%v, %v)", attrs, ok)
		}
	})
}

func TestClassMapping_Immutable(t *testing.T) {
	src := map[string]string{NodeParagraph: "a"}
	cm := NewClassMapping(src)
	src[NodeParagraph] = "b"
	if got := cm.Class(NodeParagraph); got != "a" {
		t.Errorf("Class = %q, mapping must not follow source map", got)
	}
}
