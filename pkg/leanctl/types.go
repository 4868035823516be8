package leanctl

import "github.com/leanctl/leanctl/internal/reconcile"

// Type aliases re-export reconciliation types as the public API.

type Plan = reconcile.Plan
type Operation = reconcile.Operation
type OpKind = reconcile.OpKind
type Result = reconcile.Result
type Action = reconcile.Action

const (
	Create = reconcile.Create
	Update = reconcile.Update
	Delete = reconcile.Delete
)
