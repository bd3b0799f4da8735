// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
)

// Cache materializes its input at most once per ExecutionContext. Subplans
// referenced more than once, such as both sides of a self-join, are wrapped
// in Cache operators with the same key.
type Cache struct {
	colexecop.OneInputNode
	Key string
}

var _ colexecop.Operator = &Cache{}

// NewCache returns a Cache operator storing the table of input under key.
func NewCache(input colexecop.Operator, key string) *Cache {
	return &Cache{OneInputNode: colexecop.NewOneInputNode(input), Key: key}
}

// Execute implements the colexecop.Operator interface. On a hit the input is
// not executed.
func (c *Cache) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	ctx = opContext(ctx, "cache")
	if t, ok := ec.CacheLookup(ctx, c.Key); ok {
		return t, nil
	}
	t, err := c.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	ec.CacheStore(ctx, c.Key, t)
	return t, nil
}

func (c *Cache) String() string {
	return fmt.Sprintf("cache %q", c.Key)
}
