// Package catalog provides completion candidates from a declarative command tree.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultData []byte

// Node is a command in the tree.
type Node struct {
	Name     string   `yaml:"name"`
	Args     []string `yaml:"args,omitempty"`
	Commands []Node   `yaml:"commands,omitempty"`
}

// Catalog is the root of a completion tree.
type Catalog struct {
	Commands []Node `yaml:"commands"`
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Validate reports every unnamed or duplicated command in the tree.
func (c *Catalog) Validate() error {
	var result *multierror.Error
	validateLevel(c.Commands, "", &result)
	return result.ErrorOrNil()
}

func validateLevel(nodes []Node, path string, result **multierror.Error) {
	seen := make(map[string]bool, len(nodes))
	for i, node := range nodes {
		if node.Name == "" {
			*result = multierror.Append(*result, fmt.Errorf("command %d under %q has no name", i, path))
			continue
		}
		if seen[node.Name] {
			*result = multierror.Append(*result, fmt.Errorf("duplicate command %q under %q", node.Name, path))
		}
		seen[node.Name] = true
		validateLevel(node.Commands, strings.TrimSpace(path+" "+node.Name), result)
	}
}

// Complete returns the names of subcommands and arguments that continue args.
// The last element of args is the prefix being completed; the elements before it
// select a path through the tree. Arguments that are not subcommands leave the
// current command selected, so flags and values may appear in any order.
func (c *Catalog) Complete(args []string) ([]string, error) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[len(args)-1]
		args = args[:len(args)-1]
	}

	var current *Node
	level := c.Commands
	used := make(map[string]bool)

	for _, arg := range args {
		if next := find(level, arg); next != nil {
			current = next
			level = next.Commands
			continue
		}
		if current == nil {
			return []string{}, nil
		}
		used[arg] = true
	}

	candidates := make([]string, 0)
	for _, node := range level {
		if strings.HasPrefix(node.Name, prefix) {
			candidates = append(candidates, node.Name)
		}
	}
	if current != nil {
		for _, arg := range current.Args {
			if used[arg] && strings.HasPrefix(arg, "-") {
				continue
			}
			if strings.HasPrefix(arg, prefix) {
				candidates = append(candidates, arg)
			}
		}
	}

	return candidates, nil
}

func find(nodes []Node, name string) *Node {
	for i := range nodes {
		if nodes[i].Name == name {
			return &nodes[i]
		}
	}
	return nil
}
