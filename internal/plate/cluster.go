package plate

import (
	"fmt"
	"math"
)

// group is an open cluster: member IDs in append order and the rectangle of
// the member appended last.
type group struct {
	members []int
	anchor  Rect
}

// matchErrors are the three relative deviations of a candidate from an anchor.
type matchErrors struct {
	size float64
	x    float64
	y    float64
}

func (e matchErrors) combined() float64 {
	return e.size + e.x + e.y
}

// compare measures cand against anchor and reports whether all three
// deviations are inside the configured ratios.
func (c Config) compare(anchor, cand Rect) (matchErrors, bool) {
	h := float64(cand.Height)
	charWidth := h * c.CharAspectRatio

	e := matchErrors{
		size: math.Abs(float64(anchor.Height)/h - 1),
		x:    math.Abs(cand.NormalizedCenterX(c.CharAspectRatio)-anchor.NormalizedCenterX(c.CharAspectRatio))/charWidth - 1,
		y:    math.Abs(float64(cand.Y-anchor.Y)) / h,
	}
	ok := e.size < c.CharSizeErrorRatio &&
		e.x < c.CharXErrorRatio &&
		e.y < c.CharYErrorRatio
	return e, ok
}

// admit folds a matching candidate into g.
//
// The candidate's parent leaves the group, and the candidate joins only if no
// current member is one of its children. An anchor sitting at the exact same
// corner as the candidate is treated as the candidate's own duplicate and
// leaves g untouched.
func (g *group) admit(c Outline, parents map[int]int) {
	if g.anchor.X == c.Rect.X && g.anchor.Y == c.Rect.Y {
		return
	}

	if c.HasParent() {
		for i, id := range g.members {
			if id == c.Parent {
				g.members = append(g.members[:i], g.members[i+1:]...)
				break
			}
		}
	}

	for _, id := range g.members {
		if parents[id] == c.ID {
			return
		}
	}

	g.members = append(g.members, c.ID)
	g.anchor = c.Rect
}

// assign runs the greedy grouping over candidates that are already sorted
// left to right.
func assign(sorted []Outline, cfg Config) []*group {
	parents := make(map[int]int, len(sorted))
	for _, c := range sorted {
		parents[c.ID] = c.Parent
	}

	var groups []*group
	for _, c := range sorted {
		if !assignOne(groups, c, cfg, parents) {
			groups = append(groups, &group{
				members: []int{c.ID},
				anchor:  c.Rect,
			})
		}
	}
	return groups
}

// assignOne offers c to the open groups according to cfg.MatchPolicy and
// reports whether any group matched.
func assignOne(groups []*group, c Outline, cfg Config, parents map[int]int) bool {
	switch cfg.MatchPolicy {
	case MatchFirst:
		for _, g := range groups {
			if _, ok := cfg.compare(g.anchor, c.Rect); ok {
				g.admit(c, parents)
				return true
			}
		}
		return false

	case MatchBest:
		var best *group
		bestErr := math.Inf(1)
		for _, g := range groups {
			e, ok := cfg.compare(g.anchor, c.Rect)
			if ok && e.combined() < bestErr {
				best, bestErr = g, e.combined()
			}
		}
		if best == nil {
			return false
		}
		best.admit(c, parents)
		return true

	default:
		matched := false
		for _, g := range groups {
			if _, ok := cfg.compare(g.anchor, c.Rect); ok {
				g.admit(c, parents)
				matched = true
			}
		}
		return matched
	}
}

// Member is one character box of an accepted cluster.
type Member struct {
	// ID is the outline the box was taken from.
	ID int `json:"id"`

	// Rect is the outline's measured bounding rectangle.
	Rect Rect `json:"rect"`

	// Display is Rect redrawn at the canonical character width.
	Display Rect `json:"display"`
}

// Cluster is a group that reached the minimum member count.
type Cluster struct {
	// Members are listed in the order they joined the group.
	Members []Member `json:"members"`

	// Color is the annotation colour as "#RRGGBB".
	Color string `json:"color"`
}

// Rects returns the measured rectangles of the cluster's members.
func (c Cluster) Rects() []Rect {
	rects := make([]Rect, len(c.Members))
	for i, m := range c.Members {
		rects[i] = m.Rect
	}
	return rects
}

// Result summarises one clustering pass.
type Result struct {
	// Outlines is the number of outlines offered.
	Outlines int `json:"outlines"`

	// Candidates is the number of outlines that passed the admission filter.
	Candidates int `json:"candidates"`

	// Groups is the number of groups formed before acceptance.
	Groups int `json:"groups"`

	// Clusters are the accepted groups in creation order.
	Clusters []Cluster `json:"clusters"`
}

// CharacterCount returns the number of member boxes over all clusters.
func (r *Result) CharacterCount() int {
	n := 0
	for _, c := range r.Clusters {
		n += len(c.Members)
	}
	return n
}

// Analyze runs the full pass over the outlines of one image.
//
// Outline IDs must be unique. An empty result is not an error.
func Analyze(outlines []Outline, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rects := make(map[int]Rect, len(outlines))
	for _, o := range outlines {
		if o.ID < 0 {
			return nil, fmt.Errorf("negative outline id %d", o.ID)
		}
		if _, dup := rects[o.ID]; dup {
			return nil, fmt.Errorf("duplicate outline id %d", o.ID)
		}
		rects[o.ID] = o.Rect
	}

	candidates := FilterCandidates(outlines, cfg)
	groups := assign(SortLeftToRight(candidates), cfg)

	return &Result{
		Outlines:   len(outlines),
		Candidates: len(candidates),
		Groups:     len(groups),
		Clusters:   accept(groups, rects, cfg),
	}, nil
}

// ClusterCharacters returns the accepted clusters of one image.
func ClusterCharacters(outlines []Outline, cfg Config) ([]Cluster, error) {
	res, err := Analyze(outlines, cfg)
	if err != nil {
		return nil, err
	}
	return res.Clusters, nil
}

// accept keeps the groups with at least cfg.MinCharNum members and attaches
// normalized display boxes and a colour to each.
func accept(groups []*group, rects map[int]Rect, cfg Config) []Cluster {
	palette := NewPalette(cfg.PaletteSeed)
	clusters := make([]Cluster, 0)
	for _, g := range groups {
		if len(g.members) < cfg.MinCharNum {
			continue
		}
		members := make([]Member, len(g.members))
		for i, id := range g.members {
			r := rects[id]
			members[i] = Member{
				ID:      id,
				Rect:    r,
				Display: Normalize(r, cfg.CharAspectRatio),
			}
		}
		clusters = append(clusters, Cluster{
			Members: members,
			Color:   palette.Next().Hex(),
		})
	}
	return clusters
}
