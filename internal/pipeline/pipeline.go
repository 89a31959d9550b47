package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/adreport/internal/advisor"
	"github.com/AngelCh415/adreport/internal/aggregate"
	"github.com/AngelCh415/adreport/internal/metrics"
	"github.com/AngelCh415/adreport/internal/models"
	"github.com/AngelCh415/adreport/internal/schema"
	"github.com/AngelCh415/adreport/internal/telemetry"
	"github.com/AngelCh415/adreport/internal/utils"
)

var ErrInvalidParams = errors.New("unit_price, unit_cost and discount must be >= 0")

type Pipeline struct {
	log *slog.Logger
	th  advisor.Thresholds
	rec telemetry.Recorder
}

func New(log *slog.Logger, th advisor.Thresholds, rec telemetry.Recorder) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = (*telemetry.Prom)(nil)
	}
	return &Pipeline{log: log, th: th, rec: rec}
}

func (p *Pipeline) Thresholds() advisor.Thresholds { return p.th }

// Run executes resolve -> aggregate -> derive -> advise over one table. It
// returns a complete Result or an error; a *schema.SchemaError is the only
// failure that depends on the table itself.
func (p *Pipeline) Run(ctx context.Context, t models.Table, params models.Params) (models.Result, error) {
	start := time.Now()
	if params.UnitPrice < 0 || params.UnitCost < 0 || params.Discount < 0 {
		p.rec.Run("invalid_params", time.Since(start))
		return models.Result{}, ErrInvalidParams
	}
	runID := uuid.NewString()
	log := p.log.With(slog.String("run_id", runID), slog.String("rid", utils.RID(ctx)))

	cm, err := schema.Resolve(t.Columns, schema.Options{
		RequireRevenue: params.UnitPrice <= 0,
		GroupBy:        params.GroupBy,
	})
	if err != nil {
		var se *schema.SchemaError
		if errors.As(err, &se) {
			log.Warn("schema resolution failed", slog.Any("missing", se.Missing))
		}
		p.rec.Run("schema_error", time.Since(start))
		return models.Result{}, err
	}

	res := models.Result{RunID: runID, ColumnMap: cm}
	for _, lm := range cm.Loose {
		msg := looseWarning(lm)
		res.Warnings = append(res.Warnings, msg)
		log.Warn("loose column match", slog.String("field", lm.Field), slog.String("column", lm.Column), slog.String("mode", string(lm.Mode)))
	}
	p.rec.LooseMatches(len(cm.Loose))

	groups, st, err := aggregate.ByDimension(t, cm, models.FieldGroup)
	if err != nil {
		p.rec.Run("error", time.Since(start))
		return models.Result{}, err
	}
	res.CoercedCells = st.CoercedCells
	if st.CoercedCells > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d numeric cells could not be parsed and were counted as 0", st.CoercedCells))
		log.Warn("numeric coercion", slog.Int("cells", st.CoercedCells), slog.Any("samples", st.Samples))
	}
	p.rec.Coerced(st.CoercedCells)

	d := metrics.Derive(groups, params)
	res.RevenueMode = d.Mode
	res.GroupRows = d.Rows
	res.Totals = d.Totals

	// desperdicio a nivel keyword; si no hay columna de keyword se usa la dimensión principal
	kwGroups, kwRows := groups, d.Rows
	if kwCol, ok := cm.Column(models.FieldKeyword); ok && kwCol != cm.Fields[models.FieldGroup] {
		kg, _, err := aggregate.ByDimension(t, cm, models.FieldKeyword)
		if err != nil {
			p.rec.Run("error", time.Since(start))
			return models.Result{}, err
		}
		kwGroups = kg
		kwRows = metrics.Derive(kg, params).Rows
	}
	res.WasteRows, res.TotalWasted = advisor.Waste(kwGroups, p.th)
	res.ProfitableRows = advisor.Profitable(kwRows, d.Mode)
	res.Recommendations = advisor.Advise(d.Totals, p.th, d.Mode)
	p.rec.Wasted(res.TotalWasted)

	p.rec.Run("ok", time.Since(start))
	log.Info("analysis complete",
		slog.Int("rows", st.Rows),
		slog.Int("groups", len(res.GroupRows)),
		slog.Int("waste_rows", len(res.WasteRows)),
		slog.Float64("total_wasted_spend", res.TotalWasted),
		slog.String("roas_band", res.Recommendations.ROASBand),
		slog.Duration("took", time.Since(start)))
	return res, nil
}

func looseWarning(lm models.LooseMatch) string {
	switch lm.Mode {
	case models.MatchContains:
		return fmt.Sprintf("%s resolved loosely to column %q (contains %q)", lm.Field, lm.Column, lm.Keyword)
	case models.MatchFirstCol:
		return fmt.Sprintf("no known grouping column; grouping by first column %q", lm.Column)
	default:
		return fmt.Sprintf("%s resolved to %q", lm.Field, lm.Column)
	}
}
