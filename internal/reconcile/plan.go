// Package reconcile diffs two project snapshots and applies the resulting
// file operations in a chosen direction.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/leanctl/leanctl/internal/snapshot"
)

// Direction selects which side wins a sync. It is always an explicit
// parameter, never inferred.
type Direction int

const (
	// Push makes the cloud match the local project.
	Push Direction = iota
	// Pull makes the local project match the cloud.
	Pull
)

func (d Direction) String() string {
	if d == Push {
		return "push"
	}
	return "pull"
}

// OpKind is the kind of a single file operation.
type OpKind int

const (
	Create OpKind = iota
	Update
	Delete
)

func (k OpKind) String() string {
	switch k {
	case Create:
		return "create"
	case Update:
		return "update"
	default:
		return "delete"
	}
}

// Operation is one file operation against the destination side.
type Operation struct {
	Kind OpKind
	Path string
}

// Plan is the ordered set of operations that makes the destination match the
// source. Operations are sorted by path; each path appears at most once.
type Plan struct {
	Direction Direction
	Ops       []Operation
}

// Empty reports whether the plan has no operations.
func (p *Plan) Empty() bool {
	return len(p.Ops) == 0
}

// Counts returns the number of creates, updates, and deletes.
func (p *Plan) Counts() (creates, updates, deletes int) {
	for _, op := range p.Ops {
		switch op.Kind {
		case Create:
			creates++
		case Update:
			updates++
		case Delete:
			deletes++
		}
	}
	return
}

// Diff computes the minimal plan that makes dest match source.
//
// Files present only on the source side are created on the destination.
// Files present on both sides with differing hashes are updated; the source
// wins unconditionally, there is no conflict detection beyond hash equality.
// Files present only on the destination are left alone unless forceDelete is
// set, in which case they are deleted.
func Diff(source, dest *snapshot.Snapshot, direction Direction, forceDelete bool) *Plan {
	plan := &Plan{Direction: direction}

	for path, src := range source.Files {
		dst, exists := dest.Files[path]
		switch {
		case !exists:
			plan.Ops = append(plan.Ops, Operation{Kind: Create, Path: path})
		case src.Hash != dst.Hash:
			plan.Ops = append(plan.Ops, Operation{Kind: Update, Path: path})
		}
	}

	if forceDelete {
		for path := range dest.Files {
			if _, exists := source.Files[path]; !exists {
				plan.Ops = append(plan.Ops, Operation{Kind: Delete, Path: path})
			}
		}
	}

	sort.Slice(plan.Ops, func(i, j int) bool {
		return plan.Ops[i].Path < plan.Ops[j].Path
	})
	return plan
}

// Describe returns a one-line human summary of the plan.
func (p *Plan) Describe() string {
	c, u, d := p.Counts()
	return fmt.Sprintf("%d to create, %d to update, %d to delete", c, u, d)
}
