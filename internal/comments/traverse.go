package comments

import (
	"fmt"
	"strings"
)

// maxValidateDepth is the circuit breaker for Validate. Recursion deeper than
// this is reported as a suspected cycle. A node reachable twice through
// different parents is NOT detected below this depth; see ValidationReport.
const maxValidateDepth = 50

// Flatten walks the forest pre-order (each root, then its replies recursively)
// and returns all nodes in a single slice.
func Flatten(nodes []*Node) []*Node {
	out := []*Node{}

	var walk func([]*Node)
	walk = func(list []*Node) {
		for _, n := range list {
			out = append(out, n)
			if len(n.Replies) > 0 {
				walk(n.Replies)
			}
		}
	}

	walk(nodes)
	return out
}

// Depth returns the maximum nesting level of the forest. Root comments count
// as level 1; an empty forest has depth 0.
func Depth(nodes []*Node) int {
	if len(nodes) == 0 {
		return 0
	}

	max := 0
	var walk func([]*Node, int)
	walk = func(list []*Node, depth int) {
		if depth > max {
			max = depth
		}
		for _, n := range list {
			if len(n.Replies) > 0 {
				walk(n.Replies, depth+1)
			}
		}
	}

	walk(nodes, 1)
	return max
}

// FindByID returns the first node with the given id in depth-first order, or
// nil when no such node exists.
func FindByID(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
		if found := FindByID(n.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// PathTo returns the chain of comment ids from a root down to and including
// the target, or nil when the target is not in the forest.
func PathTo(nodes []*Node, targetID string) []string {
	return pathTo(nodes, targetID, nil)
}

func pathTo(nodes []*Node, targetID string, prefix []string) []string {
	for _, n := range nodes {
		path := append(append([]string{}, prefix...), n.ID)
		if n.ID == targetID {
			return path
		}
		if found := pathTo(n.Replies, targetID, path); found != nil {
			return found
		}
	}
	return nil
}

// ValidationReport lists structural problems found in a tree. Problems are
// diagnostics, never errors: a tree with duplicate ids still renders.
type ValidationReport struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate walks every node once and reports duplicate ids, empty content,
// missing author/post references, and suspected cycles.
//
// Cycle detection is a depth budget, not a visited set: recursion past
// maxValidateDepth is flagged and cut off. A genuine cycle shallower than the
// budget goes unnoticed. This mirrors the behavior the rest of the system was
// built against; switching to identity-based detection would change which
// trees are reported invalid.
func Validate(nodes []*Node) ValidationReport {
	errs := []string{}
	seen := make(map[string]bool)

	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if seen[n.ID] {
			errs = append(errs, fmt.Sprintf("Duplicate comment ID found: %s", n.ID))
		}
		seen[n.ID] = true

		if strings.TrimSpace(n.Content) == "" {
			errs = append(errs, fmt.Sprintf("Comment %s has empty content", n.ID))
		}
		if n.AuthorID == "" {
			errs = append(errs, fmt.Sprintf("Comment %s missing authorId", n.ID))
		}
		if n.PostID == "" {
			errs = append(errs, fmt.Sprintf("Comment %s missing postId", n.ID))
		}

		if depth > maxValidateDepth {
			errs = append(errs, fmt.Sprintf("Possible circular reference detected at comment %s", n.ID))
			return
		}

		for _, reply := range n.Replies {
			walk(reply, depth+1)
		}
	}

	for _, n := range nodes {
		walk(n, 0)
	}

	return ValidationReport{IsValid: len(errs) == 0, Errors: errs}
}
