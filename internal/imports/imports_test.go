package imports

import (
	"testing"

	"github.com/contextkit/contextkit/internal/models"
)

func TestExtractJSRelativeAndPackage(t *testing.T) {
	content := `import { foo } from "./foo";
import bar from "../lib/bar";
import React from "react";
const x = require("./baz");
`
	raws := Extract(".js", content)
	if len(raws) != 4 {
		t.Fatalf("expected 4 raw imports, got %d: %+v", len(raws), raws)
	}
	if raws[0].Kind != KindRelative || raws[1].Kind != KindRelative {
		t.Errorf("expected first two relative, got %+v %+v", raws[0], raws[1])
	}
	if raws[2].Kind != KindPackage {
		t.Errorf("expected react to be package kind, got %+v", raws[2])
	}
}

func TestExtractPython(t *testing.T) {
	content := "from . import helpers\nimport os\nfrom .sub import thing\n"
	raws := Extract(".py", content)
	if len(raws) != 3 {
		t.Fatalf("expected 3 raw imports, got %d: %+v", len(raws), raws)
	}
	if raws[0].Kind != KindRelative || raws[2].Kind != KindRelative {
		t.Errorf("expected relative python imports, got %+v", raws)
	}
	if raws[1].Kind != KindPackage {
		t.Errorf("expected os to be package kind, got %+v", raws[1])
	}
}

func TestExtractGoImportBlock(t *testing.T) {
	content := `package main

import (
	"fmt"
	"github.com/contextkit/contextkit/internal/models"
)
`
	raws := Extract(".go", content)
	if len(raws) != 2 {
		t.Fatalf("expected 2 imports, got %d: %+v", len(raws), raws)
	}
}

func TestResolveRelativeJS(t *testing.T) {
	known := map[string]bool{"src/foo.ts": true, "src/index.ts": true}
	raws := []Raw{{Specifier: "./foo", Kind: KindRelative}}
	edges := Resolve("src/index.ts", raws, known)
	if len(edges) != 1 || edges[0].To != "src/foo.ts" {
		t.Fatalf("expected edge to src/foo.ts, got %+v", edges)
	}
}

func TestResolveDropsUnknownPackage(t *testing.T) {
	known := map[string]bool{"src/index.ts": true}
	raws := []Raw{{Specifier: "react", Kind: KindPackage}}
	edges := Resolve("src/index.ts", raws, known)
	if len(edges) != 0 {
		t.Errorf("expected no edges for unresolved package import, got %+v", edges)
	}
}

func TestBuildGraphAndReverse(t *testing.T) {
	edges := []models.ImportEdge{
		{From: "a.go", To: "b.go"},
		{From: "a.go", To: "c.go"},
		{From: "b.go", To: "c.go"},
	}
	g := BuildGraph(edges)
	if len(g["a.go"]) != 2 {
		t.Fatalf("expected a.go to import 2 files, got %v", g["a.go"])
	}

	rev := Reverse(g)
	if len(rev["c.go"]) != 2 {
		t.Fatalf("expected c.go to be imported by 2 files, got %v", rev["c.go"])
	}
}
