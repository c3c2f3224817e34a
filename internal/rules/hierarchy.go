// Package rules implements embedded decision rules over a class hierarchy:
// network logits for leaf classes are threaded through an induced tree to
// produce tree-adjusted predictions.
package rules

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrHierarchy reports a malformed or incomplete class hierarchy.
var ErrHierarchy = errors.New("rules: invalid hierarchy")

// Node is one vertex of the class hierarchy. Leaves carry the label of a
// class (its name, or its WordNet id when ids are supplied).
type Node struct {
	Label    string  `yaml:"label"`
	Children []*Node `yaml:"children"`

	class  int
	leaves []int
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Class is the class index of a leaf, or -1 for inner nodes.
func (n *Node) Class() int { return n.class }

// Hierarchy is a resolved tree whose leaves cover every class exactly once.
type Hierarchy struct {
	Root       *Node
	NumClasses int
}

// Flat returns a depth-one hierarchy with every class directly under the root.
func Flat(labels []string) (*Hierarchy, error) {
	root := &Node{Label: "root"}
	for _, l := range labels {
		root.Children = append(root.Children, &Node{Label: l})
	}
	return Build(root, labels)
}

// DefaultGraphRoot holds per-dataset hierarchies named <dataset>.yaml.
const DefaultGraphRoot = "hierarchies"

// DefaultGraphPath is the hierarchy used for dataset when none is named.
// An empty root means DefaultGraphRoot.
func DefaultGraphPath(root, dataset string) string {
	if root == "" {
		root = DefaultGraphRoot
	}
	return filepath.Join(root, strings.ToLower(dataset)+".yaml")
}

// Load reads a YAML or JSON hierarchy from path and resolves it against labels.
func Load(path string, labels []string) (*Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}
	return Parse(data, labels)
}

// Parse decodes a hierarchy document and resolves it against labels.
func Parse(data []byte, labels []string) (*Hierarchy, error) {
	root := &Node{}
	if err := yaml.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("parse hierarchy: %w", err)
	}
	return Build(root, labels)
}

// Build assigns class indices to the leaves of root using labels, in class
// order, and checks that every class appears exactly once.
func Build(root *Node, labels []string) (*Hierarchy, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrHierarchy)
	}
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := index[l]; dup {
			return nil, fmt.Errorf("%w: duplicate class label %q", ErrHierarchy, l)
		}
		index[l] = i
	}
	seen := make([]bool, len(labels))
	if err := resolve(root, index, seen); err != nil {
		return nil, err
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: class %q has no leaf", ErrHierarchy, labels[i])
		}
	}
	return &Hierarchy{Root: root, NumClasses: len(labels)}, nil
}

func resolve(n *Node, index map[string]int, seen []bool) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrHierarchy)
	}
	n.leaves = n.leaves[:0]
	if n.IsLeaf() {
		c, ok := index[n.Label]
		if !ok {
			return fmt.Errorf("%w: leaf %q is not a known class", ErrHierarchy, n.Label)
		}
		if seen[c] {
			return fmt.Errorf("%w: class %q appears twice", ErrHierarchy, n.Label)
		}
		seen[c] = true
		n.class = c
		n.leaves = append(n.leaves, c)
		return nil
	}
	n.class = -1
	for _, child := range n.Children {
		if err := resolve(child, index, seen); err != nil {
			return err
		}
		n.leaves = append(n.leaves, child.leaves...)
	}
	return nil
}

// LoadWNIDs reads one WordNet id per line, in class order. Blank lines are skipped.
func LoadWNIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wnids: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wnids: %w", err)
	}
	return ids, nil
}
