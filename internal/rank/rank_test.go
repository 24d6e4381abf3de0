package rank

import "testing"

func TestResolve_FirstMatch(t *testing.T) {
	results := []string{"https://a.com", "https://b.com", "https://c.com"}

	if got := Resolve(results, "https://b.com"); got != 2 {
		t.Errorf("expected rank 2, got %d", got)
	}
	if got := Resolve(results, "https://a.com"); got != 1 {
		t.Errorf("expected rank 1, got %d", got)
	}
	if got := Resolve(results, "https://c.com"); got != 3 {
		t.Errorf("expected rank 3, got %d", got)
	}
}

func TestResolve_NotFound(t *testing.T) {
	if got := Resolve([]string{"https://a.com"}, "https://z.com"); got != NotFound {
		t.Errorf("expected NotFound, got %d", got)
	}
}

func TestResolve_Empty(t *testing.T) {
	if got := Resolve(nil, "https://a.com"); got != NotFound {
		t.Errorf("expected NotFound for nil results, got %d", got)
	}
	if got := Resolve([]string{}, ""); got != NotFound {
		t.Errorf("expected NotFound for empty results, got %d", got)
	}
}

func TestResolve_Duplicates(t *testing.T) {
	results := []string{"https://x.com", "https://dup.com", "https://y.com", "https://dup.com"}
	if got := Resolve(results, "https://dup.com"); got != 2 {
		t.Errorf("expected lowest position 2, got %d", got)
	}
}

func TestResolve_ExactOnly(t *testing.T) {
	// Trailing slash and scheme differences are distinct strings.
	results := []string{"https://a.com/", "http://a.com", "https://A.com"}
	if got := Resolve(results, "https://a.com"); got != NotFound {
		t.Errorf("expected NotFound for near matches, got %d", got)
	}
}

func TestResolve_IffAbsent(t *testing.T) {
	results := []string{"u1", "u2", "u3", "u2", "u4"}
	targets := []string{"u0", "u1", "u2", "u3", "u4", "u5"}

	for _, target := range targets {
		present := false
		first := 0
		for i, r := range results {
			if r == target {
				present = true
				first = i + 1
				break
			}
		}

		got := Resolve(results, target)
		if !present && got != NotFound {
			t.Errorf("%s: expected NotFound, got %d", target, got)
		}
		if present && int(got) != first {
			t.Errorf("%s: expected %d, got %d", target, first, got)
		}
	}
}

func TestValue(t *testing.T) {
	if NotFound.Found() {
		t.Errorf("NotFound should not report Found")
	}
	if !Value(4).Found() {
		t.Errorf("expected rank 4 to report Found")
	}
	if NotFound.String() != "-1" {
		t.Errorf("expected -1, got %s", NotFound.String())
	}
	if Value(12).String() != "12" {
		t.Errorf("expected 12, got %s", Value(12).String())
	}
}
