// Package report materializes Pareto fronts as tabular data and
// supports re-evaluating selected front points for extended
// diagnostics.
package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/ppadillaq/sammoo/internal/design"
	"github.com/ppadillaq/sammoo/internal/errors"
	"github.com/ppadillaq/sammoo/internal/moo"
)

// Table is an ordered view of the Pareto front: one column per design
// variable followed by one per objective, one row per front member.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// FrontTable builds the result table for the problem's current front.
// Objective columns hold raw oracle values, so maximize objectives
// read in their natural direction.
func FrontTable(p *moo.Problem) Table {
	vars := p.Space().Variables()
	objs := p.Space().Objectives()

	cols := make([]string, 0, len(vars)+len(objs))
	for _, v := range vars {
		cols = append(cols, v.Name)
	}
	for _, o := range objs {
		cols = append(cols, o.Name)
	}

	front := p.ParetoFront()
	rows := make([][]float64, 0, len(front))
	for _, obs := range front {
		row := make([]float64, 0, len(cols))
		for _, v := range vars {
			row = append(row, obs.Point[v.Name])
		}
		// Observations archived after a debug-output extension carry
		// extra trailing values; only the objective prefix is tabular.
		row = append(row, obs.Raw[:len(objs)]...)
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}
}

// Export writes the table as CSV. A destination failure is fatal to
// this call only, never to the campaign.
func (t Table) Export(path string) error {
	const op = "Table.Export"

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "create %q", path).
			WithOp(op).WithComponent("report")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return errors.Wrap(err, errors.KindIO, "write header").
			WithOp(op).WithComponent("report")
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, errors.KindIO, "write row").
				WithOp(op).WithComponent("report")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.KindIO, "flush").
			WithOp(op).WithComponent("report")
	}
	return nil
}

// DebugOracle is an oracle whose extraction list can be extended at
// run time without invalidating earlier archive entries.
type DebugOracle interface {
	moo.Oracle
	SetDebugOutputs(extra []string)
	SelectedOutputs() []string
}

// Reevaluate reruns the oracle directly on one front row, bypassing
// the search strategy, with extra output names appended to the
// extraction list. Returns the extended vector and the output names
// aligned to it.
func Reevaluate(p *moo.Problem, row int, extra []string, log *zap.Logger) ([]float64, []string, error) {
	const op = "Reevaluate"
	if log == nil {
		log = zap.NewNop()
	}

	front := p.ParetoFront()
	if row < 0 || row >= len(front) {
		return nil, nil, errors.Newf(errors.KindConfiguration,
			"row %d out of range, front has %d members", row, len(front)).
			WithOp(op).WithComponent("report")
	}

	oracle, ok := p.OracleAdapter().(DebugOracle)
	if !ok {
		return nil, nil, errors.New(errors.KindConfiguration,
			"oracle does not support run-time output extension").
			WithOp(op).WithComponent("report")
	}
	if len(extra) > 0 {
		oracle.SetDebugOutputs(extra)
	}

	pt := front[row].Point
	log.Info("re-evaluating front point",
		zap.Int("row", row),
		zap.Int("extra_outputs", len(extra)),
	)
	values := oracle.Evaluate(pt)
	return values, oracle.SelectedOutputs(), nil
}

// Points extracts the design points of the current front, in table
// row order.
func Points(p *moo.Problem) []design.Point {
	front := p.ParetoFront()
	out := make([]design.Point, len(front))
	for i, obs := range front {
		out[i] = obs.Point.Clone()
	}
	return out
}
