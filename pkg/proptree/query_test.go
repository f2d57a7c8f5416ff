package proptree

import "testing"

func fullTestTree() Value {
	return Map(map[string]Value{
		"uid":  String("dev1"),
		"name": String("Lamp"),
		"zone": String("living-room"),
		"outputs": Map(map[string]Value{
			"brightness": Double(42),
			"hue":        Double(180),
		}),
	})
}

func TestFilterQueryAbsentReturnsFull(t *testing.T) {
	got := FilterQuery(fullTestTree(), Null())
	m, _ := got.Map()
	if len(m) != 4 {
		t.Fatalf("expected all 4 fields, got %d", len(m))
	}
}

func TestFilterQueryEmptyMapReturnsFull(t *testing.T) {
	got := FilterQuery(fullTestTree(), Map(nil))
	m, _ := got.Map()
	if len(m) != 4 {
		t.Fatalf("expected all 4 fields, got %d", len(m))
	}
}

func TestFilterQuerySelectsNamedLeaves(t *testing.T) {
	query := Map(map[string]Value{
		"name": Null(),
	})
	got := FilterQuery(fullTestTree(), query)
	m, _ := got.Map()
	if len(m) != 1 {
		t.Fatalf("expected 1 field, got %d", len(m))
	}
	name, ok := m["name"].String()
	if !ok || name != "Lamp" {
		t.Fatalf("expected name to be selected, got %v", m)
	}
}

func TestFilterQueryRecursesIntoSubtree(t *testing.T) {
	query := Map(map[string]Value{
		"outputs": Map(map[string]Value{
			"brightness": Null(),
		}),
	})
	got := FilterQuery(fullTestTree(), query)
	m, _ := got.Map()
	outputs, ok := m["outputs"].Map()
	if !ok || len(outputs) != 1 {
		t.Fatalf("expected outputs narrowed to 1 field, got %v", outputs)
	}
	if _, ok := outputs["hue"]; ok {
		t.Fatalf("hue should have been excluded by the query")
	}
}

func TestFilterQuerySkipsKeysAbsentFromFull(t *testing.T) {
	query := Map(map[string]Value{
		"doesNotExist": Null(),
	})
	got := FilterQuery(fullTestTree(), query)
	m, _ := got.Map()
	if len(m) != 0 {
		t.Fatalf("expected no fields, got %v", m)
	}
}
