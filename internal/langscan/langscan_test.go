package langscan

import "testing"

func TestScanGoFunctionAndType(t *testing.T) {
	src := []string{
		`package sample`,
		``,
		`func Add(a, b int) int {`,
		`	return a + b`,
		`}`,
		``,
		`type Config struct {`,
		`	Name string`,
		`}`,
	}
	decls, ok := Scan(".go", src)
	if !ok {
		t.Fatal("expected .go to be supported")
	}
	if len(decls) != 2 {
		t.Fatalf("expected 2 decls, got %d: %+v", len(decls), decls)
	}
	if decls[0].Name != "Add" || decls[0].Kind != KindFunction || !decls[0].Exported {
		t.Errorf("unexpected first decl: %+v", decls[0])
	}
	if decls[0].StartLine != 3 || decls[0].EndLine != 5 {
		t.Errorf("unexpected Add line range: %d-%d", decls[0].StartLine, decls[0].EndLine)
	}
	if decls[1].Name != "Config" || decls[1].Kind != KindClass {
		t.Errorf("unexpected second decl: %+v", decls[1])
	}
}

func TestScanPythonIndentEnd(t *testing.T) {
	src := []string{
		`def greet(name):`,
		`    print("hi " + name)`,
		`    return None`,
		``,
		`def other():`,
		`    pass`,
	}
	decls, ok := Scan(".py", src)
	if !ok {
		t.Fatal("expected .py to be supported")
	}
	if len(decls) != 2 {
		t.Fatalf("expected 2 decls, got %d: %+v", len(decls), decls)
	}
	if decls[0].EndLine != 3 {
		t.Errorf("expected greet to end at line 3, got %d", decls[0].EndLine)
	}
}

func TestScanUnsupportedExtension(t *testing.T) {
	_, ok := Scan(".md", []string{"# Title"})
	if ok {
		t.Fatal("expected .md to be unsupported by langscan")
	}
}

func TestScanRustPubFn(t *testing.T) {
	src := []string{
		`pub fn run(x: i32) -> i32 {`,
		`    x + 1`,
		`}`,
	}
	decls, ok := Scan(".rs", src)
	if !ok {
		t.Fatal("expected .rs to be supported")
	}
	if len(decls) != 1 || decls[0].Name != "run" || !decls[0].Exported {
		t.Fatalf("unexpected decls: %+v", decls)
	}
}
