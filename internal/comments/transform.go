package comments

import (
	"sort"
	"strings"
)

// SortCriterion selects the ordering for Sort
type SortCriterion string

const (
	SortNewest      SortCriterion = "newest"
	SortOldest      SortCriterion = "oldest"
	SortMostLiked   SortCriterion = "mostLiked"
	SortMostReplies SortCriterion = "mostReplies"
)

// ParseSortCriterion maps a query parameter to a criterion, defaulting to newest.
func ParseSortCriterion(s string) SortCriterion {
	switch SortCriterion(s) {
	case SortOldest, SortMostLiked, SortMostReplies:
		return SortCriterion(s)
	default:
		return SortNewest
	}
}

// Sort returns a new ordering of nodes by the given criterion. The sort is
// stable, so equal elements keep their original relative order. When recursive
// is true each node's replies are independently sorted the same way; the input
// forest is never mutated.
func Sort(nodes []*Node, by SortCriterion, recursive bool) []*Node {
	sorted := make([]*Node, len(nodes))
	copy(sorted, nodes)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch by {
		case SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortMostLiked:
			return a.Counts.Likes > b.Counts.Likes
		case SortMostReplies:
			return a.Counts.Replies > b.Counts.Replies
		default: // newest
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	if recursive {
		for i, n := range sorted {
			clone := *n
			clone.Replies = Sort(n.Replies, by, true)
			sorted[i] = &clone
		}
	}

	return sorted
}

// Filter is a predicate set for FilterTree. Zero values mean "not supplied":
// an empty string disables that match, MinLikes/MaxDepth of 0 disable the
// bounds. A node is kept only when every supplied predicate matches.
type Filter struct {
	Content    string
	AuthorID   string
	AuthorName string
	MinLikes   int
	MaxDepth   int
}

func (f Filter) empty() bool {
	return f.Content == "" && f.AuthorID == "" && f.AuthorName == "" &&
		f.MinLikes == 0 && f.MaxDepth == 0
}

func (f Filter) matches(n *Node, depth int) bool {
	if f.Content != "" && !strings.Contains(strings.ToLower(n.Content), strings.ToLower(f.Content)) {
		return false
	}
	if f.AuthorID != "" && n.AuthorID != f.AuthorID {
		return false
	}
	if f.AuthorName != "" && !strings.Contains(strings.ToLower(n.Author.Name), strings.ToLower(f.AuthorName)) {
		return false
	}
	if f.MinLikes > 0 && n.Counts.Likes < f.MinLikes {
		return false
	}
	if f.MaxDepth > 0 && depth > f.MaxDepth {
		return false
	}
	return true
}

// FilterTree keeps the nodes matching every supplied predicate. Replies of a
// kept node are filtered recursively while within MaxDepth; subtrees past the
// depth bound are dropped from the output entirely. Each call starts from the
// given forest, nothing accumulates across calls.
func FilterTree(nodes []*Node, f Filter) []*Node {
	return filterAt(nodes, f, 1)
}

func filterAt(nodes []*Node, f Filter, depth int) []*Node {
	out := []*Node{}

	for _, n := range nodes {
		if !f.matches(n, depth) {
			continue
		}

		kept := *n
		if f.MaxDepth == 0 || depth < f.MaxDepth {
			kept.Replies = filterAt(n.Replies, f, depth+1)
		} else {
			kept.Replies = []*Node{}
		}
		out = append(out, &kept)
	}

	return out
}

// Paginate slices the top-level comment list. Replies are never paginated
// here; a page past the end yields an empty slice with HasNext false.
func Paginate(roots []*Node, page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	total := len(roots)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Comments: roots[start:end],
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}

// DisplayOptions control FormatForDisplay. Zero values take the defaults.
type DisplayOptions struct {
	MaxDepth           int
	CollapseAfterDepth int
}

// DisplayComment is a tree node annotated for rendering
type DisplayComment struct {
	*Node
	DisplayDepth   int      `json:"displayDepth"`
	IsCollapsed    bool     `json:"isCollapsed"`
	HasMoreReplies bool     `json:"hasMoreReplies"`
	ThreadPath     []string `json:"threadPath"`
}

// FormatForDisplay flattens the forest into render-ready rows. Traversal does
// not descend into collapsed branches or past MaxDepth; those descendants are
// omitted from the output, with HasMoreReplies marking the cut.
func FormatForDisplay(nodes []*Node, opts DisplayOptions) []DisplayComment {
	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = 10
	}
	collapseAfter := opts.CollapseAfterDepth
	if collapseAfter == 0 {
		collapseAfter = 5
	}

	formatted := []DisplayComment{}

	var walk func(list []*Node, depth int, parentPath []string)
	walk = func(list []*Node, depth int, parentPath []string) {
		for _, n := range list {
			threadPath := append(append([]string{}, parentPath...), n.ID)
			collapsed := depth >= collapseAfter
			hasMore := len(n.Replies) > 0 && depth >= maxDepth

			formatted = append(formatted, DisplayComment{
				Node:           n,
				DisplayDepth:   depth,
				IsCollapsed:    collapsed,
				HasMoreReplies: hasMore,
				ThreadPath:     threadPath,
			})

			if len(n.Replies) > 0 && depth < maxDepth && !collapsed {
				walk(n.Replies, depth+1, threadPath)
			}
		}
	}

	walk(nodes, 0, nil)
	return formatted
}

// AuthorStat is one entry of the most-prolific-commenters ranking
type AuthorStat struct {
	AuthorID string `json:"authorId"`
	Count    int    `json:"count"`
	Name     string `json:"name"`
}

// TreeStats aggregates a comment forest for display
type TreeStats struct {
	TotalComments          int          `json:"totalComments"`
	TotalLikes             int          `json:"totalLikes"`
	MaxDepth               int          `json:"maxDepth"`
	TopLevelComments       int          `json:"topLevelComments"`
	AverageLikesPerComment float64      `json:"averageLikesPerComment"`
	TopAuthors             []AuthorStat `json:"topAuthors"`
}

// Stats computes aggregate statistics over the whole forest. TopAuthors holds
// at most five authors ordered by comment count; ties fall in map iteration
// order, which is fine for a display aid.
func Stats(nodes []*Node) TreeStats {
	flat := Flatten(nodes)

	totalLikes := 0
	byAuthor := make(map[string]*AuthorStat)
	for _, n := range flat {
		totalLikes += n.Counts.Likes
		if s, ok := byAuthor[n.AuthorID]; ok {
			s.Count++
		} else {
			byAuthor[n.AuthorID] = &AuthorStat{AuthorID: n.AuthorID, Count: 1, Name: n.Author.Name}
		}
	}

	authors := make([]AuthorStat, 0, len(byAuthor))
	for _, s := range byAuthor {
		authors = append(authors, *s)
	}
	sort.SliceStable(authors, func(i, j int) bool { return authors[i].Count > authors[j].Count })
	if len(authors) > 5 {
		authors = authors[:5]
	}

	avg := 0.0
	if len(flat) > 0 {
		avg = float64(totalLikes) / float64(len(flat))
	}

	return TreeStats{
		TotalComments:          len(flat),
		TotalLikes:             totalLikes,
		MaxDepth:               Depth(nodes),
		TopLevelComments:       len(nodes),
		AverageLikesPerComment: avg,
		TopAuthors:             authors,
	}
}
