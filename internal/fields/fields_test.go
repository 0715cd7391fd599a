package fields

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		expected []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \t ", nil},
		{"single", "id", []string{"id"}},
		{"flat", "id,name,email", []string{"id", "name", "email"}},
		{"whitespace", " id , name ", []string{"id", "name"}},
		{"nested", "id,address(street,city)", []string{"id", "address.street", "address.city"}},
		{"deep", "a(b(c,d),e)", []string{"a.b.c", "a.b.d", "a.e"}},
		{"nested then flat", "a(b),c", []string{"a.b", "c"}},
		{"dotted passthrough", "a.b,c", []string{"a.b", "c"}},
		{"duplicates", "id,name,id", []string{"id", "name"}},
		{"empty segments", "id,,name,", []string{"id", "name"}},
		{"empty group", "a()", nil},
		{"stray close", "a),b", []string{"a", "b"}},
		{"unclosed group", "a(b,c", []string{"a.b", "a.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Split(tt.spec)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Split(%q): expected %#v, got %#v", tt.spec, tt.expected, result)
			}
		})
	}
}

func TestAlias_Empty(t *testing.T) {
	projection, names := Alias(nil)
	if projection != "" {
		t.Errorf("expected empty projection, got %q", projection)
	}
	if names != nil {
		t.Errorf("expected nil names, got %v", names)
	}
}

func TestAlias_Flat(t *testing.T) {
	projection, names := Alias([]string{"id", "name", "status"})

	if projection != "#F0, #F1, #F2" {
		t.Errorf("expected '#F0, #F1, #F2', got %q", projection)
	}
	expected := map[string]string{"#F0": "id", "#F1": "name", "#F2": "status"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("expected %v, got %v", expected, names)
	}
}

func TestAlias_NestedSharesSegments(t *testing.T) {
	projection, names := Alias([]string{"address.street", "address.city", "name"})

	if projection != "#F0.#F1, #F0.#F2, #F3" {
		t.Errorf("expected '#F0.#F1, #F0.#F2, #F3', got %q", projection)
	}
	if len(names) != 4 {
		t.Errorf("expected 4 aliases, got %d", len(names))
	}
	if names["#F0"] != "address" {
		t.Errorf("expected #F0 to alias 'address', got %q", names["#F0"])
	}
}

func TestAlias_ReservedWords(t *testing.T) {
	projection, names := Alias(Split("name,status,size"))

	for alias, name := range names {
		if alias[:2] != AliasPrefix {
			t.Errorf("alias %q for %q does not use prefix %q", alias, name, AliasPrefix)
		}
	}
	if projection != "#F0, #F1, #F2" {
		t.Errorf("unexpected projection %q", projection)
	}
}

func TestAlias_Deterministic(t *testing.T) {
	paths := []string{"b", "a.c", "a.b"}
	p1, n1 := Alias(paths)
	p2, n2 := Alias(paths)

	if p1 != p2 || !reflect.DeepEqual(n1, n2) {
		t.Error("expected identical output for identical input")
	}
	if p1 != "#F0, #F1.#F2, #F1.#F0" {
		t.Errorf("unexpected projection %q", p1)
	}
}
