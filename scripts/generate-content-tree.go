//go:build ignore

// Package main generates a synthetic content tree for `ctxindex import`.
// Usage: go run scripts/generate-content-tree.go -items 5000 -depth 6 -output testdata/tree.yaml
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	numItems   = flag.Int("items", 1000, "Approximate number of items to generate")
	maxDepth   = flag.Int("depth", 5, "Maximum depth below /sitecore/content")
	database   = flag.String("db", "master", "Database name written to the tree")
	outputPath = flag.String("output", "testdata/tree.yaml", "Output file")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var templates = []string{"page", "folder", "article", "component", "media"}

type node struct {
	Name     string  `yaml:"name"`
	Template string  `yaml:"template,omitempty"`
	Children []*node `yaml:"children,omitempty"`
}

type tree struct {
	Database string  `yaml:"database"`
	Items    []*node `yaml:"items"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	content := &node{Name: "content", Template: "folder"}
	root := &node{
		Name: "sitecore",
		Children: []*node{
			content,
			{Name: "system", Template: "folder"},
			{Name: "templates", Template: "folder"},
		},
	}

	// Breadth-first so shallow levels fill before deep ones.
	generated := 5
	queue := []struct {
		n     *node
		depth int
	}{{content, 1}}
	for len(queue) > 0 && generated < *numItems {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > *maxDepth {
			continue
		}
		fanout := 2 + rng.Intn(6)
		for i := 0; i < fanout && generated < *numItems; i++ {
			child := &node{
				Name:     fmt.Sprintf("item-%d", generated),
				Template: templates[rng.Intn(len(templates))],
			}
			cur.n.Children = append(cur.n.Children, child)
			queue = append(queue, struct {
				n     *node
				depth int
			}{child, cur.depth + 1})
			generated++
		}
	}

	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(tree{Database: *database, Items: []*node{root}}); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing tree: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d items in %s\n", generated, *outputPath)
}
