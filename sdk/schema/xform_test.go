package schema

import "testing"

func TestXformName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"camel case", "testCreate", "test_create"},
		{"leading capital", "TestCreate", "test_create"},
		{"all caps", "TESTCREATE", "testcreate"},
		{"trailing capital", "testcreatE", "testcreat_e"},
		{"capital run", "testCREATE", "test_create"},
		{"surrounding whitespace", "   TESTCREATE   ", "testcreate"},
		{"multiple words", "getDatasetTableProfilingRun", "get_dataset_table_profiling_run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := XformName(tt.in); got != tt.want {
				t.Errorf("XformName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestXformNameUnchanged(t *testing.T) {
	// Names that already contain the separator come back exactly as given,
	// including case and whitespace.
	tests := []string{
		"test_create",
		"TEST_CREATE",
		"Test_Create",
		"   TEST_CREATE   ",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if got := XformName(in); got != in {
				t.Errorf("XformName(%q) = %q, want input unchanged", in, got)
			}
		})
	}
}

func TestXformNameSep(t *testing.T) {
	tests := []struct {
		name string
		in   string
		sep  string
		want string
	}{
		{"camel case dot", "testCreate", ".", "test.create"},
		{"trailing capital dot", "testcreatE", ".", "testcreat.e"},
		{"capital run after underscore", "test_cREATE", ".", "test_c.reate"},
		{"already dotted", "Test.Create", ".", "Test.Create"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := XformNameSep(tt.in, tt.sep); got != tt.want {
				t.Errorf("XformNameSep(%q, %q) = %q, want %q", tt.in, tt.sep, got, tt.want)
			}
		})
	}
}

func TestXformNameCache(t *testing.T) {
	ResetXformCache()
	t.Cleanup(ResetXformCache)

	// A seeded cache entry short-circuits the transform entirely.
	xformMu.Lock()
	xformCache[xformKey{name: "testCreate", sep: "_"}] = "seeded_value"
	xformMu.Unlock()

	if got := XformName("testCreate"); got != "seeded_value" {
		t.Errorf("XformName with seeded cache = %q, want %q", got, "seeded_value")
	}

	// The same name under a different separator misses the seeded entry.
	if got := XformNameSep("testCreate", "."); got != "test.create" {
		t.Errorf("XformNameSep(%q, \".\") = %q, want %q", "testCreate", got, "test.create")
	}
}

func TestXformNameMemoizes(t *testing.T) {
	ResetXformCache()
	t.Cleanup(ResetXformCache)

	first := XformName("listDatasets")
	xformMu.Lock()
	cached, ok := xformCache[xformKey{name: "listDatasets", sep: "_"}]
	xformMu.Unlock()
	if !ok {
		t.Fatal("expected cache entry after first transform")
	}
	if cached != first {
		t.Errorf("cache entry = %q, want %q", cached, first)
	}
	if second := XformName("listDatasets"); second != first {
		t.Errorf("second transform = %q, want %q", second, first)
	}
}
