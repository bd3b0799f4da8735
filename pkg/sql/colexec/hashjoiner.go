// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecjoin"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/colquery/pkg/util/humanizeutil"
	"github.com/cockroachdb/redact"
	"golang.org/x/sync/errgroup"
)

// InputEvaluation says whether the two inputs of a join are executed
// concurrently.
type InputEvaluation int

const (
	// InputEvaluationDefault follows Config.ParallelJoin.
	InputEvaluationDefault InputEvaluation = iota
	// InputEvaluationParallel executes both inputs concurrently.
	InputEvaluationParallel
	// InputEvaluationSequential executes the left input, then the right one.
	InputEvaluationSequential
)

// HashJoin joins the tables of its two inputs on equal keys. The key
// expressions are evaluated against the table of their side and their
// results are added to it, replacing the column of the same name; the join
// is then made on the columns named after the expressions.
type HashJoin struct {
	colexecop.TwoInputNode
	LeftOn     []colexecexpr.Expr
	RightOn    []colexecexpr.Expr
	How        colexecjoin.JoinType
	Evaluation InputEvaluation
}

var _ colexecop.Operator = &HashJoin{}

// NewHashJoin returns a HashJoin operator.
func NewHashJoin(
	left, right colexecop.Operator,
	leftOn, rightOn []colexecexpr.Expr,
	how colexecjoin.JoinType,
) *HashJoin {
	return &HashJoin{
		TwoInputNode: colexecop.NewTwoInputNode(left, right),
		LeftOn:       leftOn,
		RightOn:      rightOn,
		How:          how,
	}
}

func (j *HashJoin) parallel(ec *execinfra.ExecutionContext) bool {
	switch j.Evaluation {
	case InputEvaluationParallel:
		return true
	case InputEvaluationSequential:
		return false
	default:
		return ec.Config.ParallelJoin
	}
}

// Execute implements the colexecop.Operator interface.
func (j *HashJoin) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	left, right, err := j.executeInputs(ctx, ec)
	if err != nil {
		return nil, err
	}
	ctx = opContext(ctx, redact.SafeString(j.How.String()+" join"))

	left, leftNames, err := addKeyColumns(ec, left, j.LeftOn)
	if err != nil {
		return nil, wrapOpError(err, "join left keys")
	}
	right, rightNames, err := addKeyColumns(ec, right, j.RightOn)
	if err != nil {
		return nil, wrapOpError(err, "join right keys")
	}
	hj := colexecjoin.NewHashJoiner(ec.Pool, ec.Config.NumWorkers, ec.Config.NumJoinPartitions)
	res, err := hj.JoinTables(ctx, left, right, leftNames, rightNames, j.How)
	if err != nil {
		return nil, wrapOpError(err, "join")
	}
	ec.Metrics.JoinOutputRows.Add(float64(res.Height()))
	ec.Eventf(ctx, "%s join of %s and %s rows finished, %s rows",
		redact.SafeString(j.How.String()),
		redact.SafeString(humanizeutil.Count(left.Height())),
		redact.SafeString(humanizeutil.Count(right.Height())),
		redact.SafeString(humanizeutil.Count(res.Height())))
	return res, nil
}

// executeInputs executes both inputs. When they run concurrently each gets
// its own fork of ec, which carries the row-limit override along.
func (j *HashJoin) executeInputs(
	ctx context.Context, ec *execinfra.ExecutionContext,
) (left, right *coldata.Table, _ error) {
	if !j.parallel(ec) {
		var err error
		if left, err = j.InputOne.Execute(ctx, ec); err != nil {
			return nil, nil, err
		}
		if right, err = j.InputTwo.Execute(ctx, ec); err != nil {
			return nil, nil, err
		}
		return left, right, nil
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(executeInput(gCtx, ec.Fork(), j.InputOne, &left))
	g.Go(executeInput(gCtx, ec.Fork(), j.InputTwo, &right))
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func executeInput(
	ctx context.Context, ec *execinfra.ExecutionContext, op colexecop.Operator, out **coldata.Table,
) func() error {
	return func() error {
		var err error
		if panicErr := colexecerror.CatchVectorizedRuntimeError(func() {
			*out, err = op.Execute(ctx, ec)
		}); panicErr != nil {
			return panicErr
		}
		return err
	}
}

func addKeyColumns(
	ec *execinfra.ExecutionContext, t *coldata.Table, exprs []colexecexpr.Expr,
) (*coldata.Table, []string, error) {
	keys, err := evalColumns(ec, t, exprs)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		if t, err = t.ReplaceOrAppend(k); err != nil {
			return nil, nil, err
		}
		names[i] = k.Name()
	}
	return t, names, nil
}

func (j *HashJoin) String() string {
	return fmt.Sprintf("%s join left=%s right=%s", j.How, exprsString(j.LeftOn), exprsString(j.RightOn))
}
