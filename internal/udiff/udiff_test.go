package udiff

import "testing"

func TestParse_SingleFileSimpleChange(t *testing.T) {
	input := `--- a/file.go
+++ b/file.go
@@ func SmallFunc @@
 func SmallFunc() {
-    oldLine1()
-    oldLine2()
+    newLine1()
+    newLine2()
 }
`
	diffs, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("got %d file diffs, want 1", len(diffs))
	}
	if diffs[0].Path != "file.go" {
		t.Errorf("path = %q, want file.go", diffs[0].Path)
	}
	if len(diffs[0].Hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(diffs[0].Hunks))
	}
	hunk := diffs[0].Hunks[0]
	if hunk.Context != "func SmallFunc" {
		t.Errorf("context = %q, want %q", hunk.Context, "func SmallFunc")
	}

	content := "func SmallFunc() {\n    oldLine1()\n    oldLine2()\n}\n"
	result, err := Apply(content, diffs[0].Hunks)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := "func SmallFunc() {\n    newLine1()\n    newLine2()\n}\n"
	if result != want {
		t.Errorf("Apply result = %q, want %q", result, want)
	}
}

func TestParse_MultipleFiles(t *testing.T) {
	input := `--- a/one.go
+++ b/one.go
@@ func One @@
-old one
+new one
--- a/two.go
+++ b/two.go
@@ func Two @@
-old two
+new two
`
	diffs, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(diffs) != 2 {
		t.Fatalf("got %d file diffs, want 2", len(diffs))
	}
	if diffs[0].Path != "one.go" || diffs[1].Path != "two.go" {
		t.Errorf("paths = %q, %q", diffs[0].Path, diffs[1].Path)
	}
}

func TestApplyWithWarnings_ElisionReplacesMiddleOfFunction(t *testing.T) {
	content := `func BigFunction() error {
	step1()
	step2()
	step3()
}
`
	hunk := Hunk{
		Context: "func BigFunction",
		Lines: []Line{
			{Type: Remove, Content: "func BigFunction() error {"},
			{Type: Elision},
			{Type: Remove, Content: "}"},
			{Type: Add, Content: "func BigFunction() error {"},
			{Type: Add, Content: "\treturn simplifiedImpl()"},
			{Type: Add, Content: "}"},
		},
	}

	result := ApplyWithWarnings(content, []Hunk{hunk})
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
	want := "func BigFunction() error {\n\treturn simplifiedImpl()\n}\n"
	if result.Content != want {
		t.Errorf("Content = %q, want %q", result.Content, want)
	}
}

func TestApplyWithWarnings_MissingContextProducesWarningNotError(t *testing.T) {
	content := "line one\nline two\n"
	hunk := Hunk{
		Context: "nowhere to be found",
		Lines: []Line{
			{Type: Remove, Content: "line one"},
			{Type: Add, Content: "line uno"},
		},
	}

	result := ApplyWithWarnings(content, []Hunk{hunk})
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(result.Warnings))
	}
	if result.Content != content {
		t.Errorf("Content changed despite failed hunk: %q", result.Content)
	}
}
