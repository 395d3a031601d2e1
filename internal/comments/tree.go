package comments

// BuildTree converts the flat comment list for one post into a forest of root
// nodes with nested replies. The input is expected in ascending creation order;
// reply slices inherit that order.
//
// Two passes, O(n): the first indexes every comment by id, the second links
// each node under its parent. A node whose parent_id is not present in the
// input is kept as a root rather than dropped; that only happens when the
// caller supplies a partial slice.
func BuildTree(flat []Comment) []*Node {
	byID := make(map[string]*Node, len(flat))
	nodes := make([]*Node, 0, len(flat))

	for i := range flat {
		n := &Node{
			Comment: flat[i],
			Replies: []*Node{},
			Counts:  Counts{Likes: len(flat[i].Likes)},
		}
		byID[n.ID] = n
		nodes = append(nodes, n)
	}

	roots := []*Node{}
	for _, n := range nodes {
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				parent.Replies = append(parent.Replies, n)
				parent.Counts.Replies = len(parent.Replies)
				continue
			}
		}
		roots = append(roots, n)
	}

	return roots
}
