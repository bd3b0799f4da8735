// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package colexecop defines the interface implemented by the operators of a
// query tree and a few helpers shared by them.
package colexecop

import (
	"context"
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/errors"
)

// Operator is a node of a query tree. Execute demands the tables of the
// children, if any, and returns the realized result of the node. Operators
// own their children exclusively; subtrees are shared only through the
// result cache of the ExecutionContext.
type Operator interface {
	OpNode
	fmt.Stringer
	// Execute evaluates the subtree rooted at the operator. The returned
	// table is owned by the caller.
	Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error)
}

// OpNode allows walking a tree of operators.
type OpNode interface {
	// ChildCount returns the number of children of the node.
	ChildCount() int
	// Child returns the nth child, for 0 <= nth < ChildCount().
	Child(nth int) Operator
}

// ZeroInputNode is an OpNode with no children.
type ZeroInputNode struct{}

// ChildCount implements the OpNode interface.
func (ZeroInputNode) ChildCount() int {
	return 0
}

// Child implements the OpNode interface.
func (ZeroInputNode) Child(nth int) Operator {
	panic(errors.AssertionFailedf("invalid index %d", nth))
}

// OneInputNode is an OpNode with a single child.
type OneInputNode struct {
	Input Operator
}

// NewOneInputNode returns an OpNode with a single child.
func NewOneInputNode(input Operator) OneInputNode {
	return OneInputNode{Input: input}
}

// ChildCount implements the OpNode interface.
func (OneInputNode) ChildCount() int {
	return 1
}

// Child implements the OpNode interface.
func (n OneInputNode) Child(nth int) Operator {
	if nth == 0 {
		return n.Input
	}
	panic(errors.AssertionFailedf("invalid index %d", nth))
}

// TwoInputNode is an OpNode with two children.
type TwoInputNode struct {
	InputOne Operator
	InputTwo Operator
}

// NewTwoInputNode returns an OpNode with two children.
func NewTwoInputNode(inputOne, inputTwo Operator) TwoInputNode {
	return TwoInputNode{InputOne: inputOne, InputTwo: inputTwo}
}

// ChildCount implements the OpNode interface.
func (TwoInputNode) ChildCount() int {
	return 2
}

// Child implements the OpNode interface.
func (n TwoInputNode) Child(nth int) Operator {
	switch nth {
	case 0:
		return n.InputOne
	case 1:
		return n.InputTwo
	}
	panic(errors.AssertionFailedf("invalid index %d", nth))
}

// Walk calls fn on op and every operator below it, parents before children,
// passing the depth of each operator.
func Walk(op Operator, fn func(op Operator, depth int)) {
	var walk func(op Operator, depth int)
	walk = func(op Operator, depth int) {
		fn(op, depth)
		for i := 0; i < op.ChildCount(); i++ {
			walk(op.Child(i), depth+1)
		}
	}
	walk(op, 0)
}
