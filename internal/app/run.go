package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/touchline/internal/domain/catalog"
	"github.com/okian/touchline/internal/domain/derive"
	"github.com/okian/touchline/internal/domain/export"
	"github.com/okian/touchline/internal/domain/merge"
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/table"
	"github.com/okian/touchline/internal/domain/team"
	"github.com/okian/touchline/pkg/logger"
	"github.com/okian/touchline/pkg/metrics"
)

const previewSize = 10

// Run fetches every source, builds each class and team export, writes the
// files, and publishes the results. It fails only when no player class
// produced an export, or when ctx ends during acquisition.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	sum := Summary{RunID: s.newID(), Started: s.now()}
	log := s.logger.With(logger.String("run_id", sum.RunID))
	log.Info(ctx, "pipeline run started", logger.Int("sources", len(s.sources)), logger.Int("classes", len(s.classes)))

	if err := s.Err(); err != nil {
		return s.finish(ctx, log, sum, err)
	}

	tables, err := s.acquire(ctx, log, &sum)
	if err != nil {
		return s.finish(ctx, log, sum, err)
	}

	var classErrs []error
	for _, class := range s.classes {
		res, err := s.runClass(ctx, log, class, tables)
		sum.Exports = append(sum.Exports, res)
		if err != nil {
			classErrs = append(classErrs, err)
		}
	}
	for _, te := range s.teamExports() {
		sum.Exports = append(sum.Exports, s.runTeam(ctx, log, te, tables))
	}

	if len(s.classes) > 0 && len(classErrs) == len(s.classes) {
		err = errors.Join(classErrs...)
	}
	return s.finish(ctx, log, sum, err)
}

func (s *Service) finish(ctx context.Context, log logger.Logger, sum Summary, err error) (Summary, error) {
	sum.Finished = s.now()
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
		sum.Error = err.Error()
	}
	metrics.RecordRun(outcome, sum.Finished, sum.Duration())

	written := 0
	for _, e := range sum.Exports {
		if e.Written() {
			written++
		}
	}
	fields := []logger.Field{
		logger.String("outcome", outcome),
		logger.Int("exports_written", written),
		logger.Duration("duration", sum.Duration()),
	}
	if err != nil {
		log.Error(ctx, "pipeline run failed", append(fields, logger.Error(err))...)
	} else {
		log.Info(ctx, "pipeline run finished", fields...)
	}

	s.mu.Lock()
	last := sum
	s.last = &last
	s.mu.Unlock()
	return sum, err
}

// acquire fetches and normalizes every source. A failed source is logged and
// stands as an empty table.
func (s *Service) acquire(ctx context.Context, log logger.Logger, sum *Summary) (map[string]table.Table, error) {
	start := time.Now()
	defer func() { metrics.RecordStageDuration("acquire", time.Since(start)) }()

	tables := make(map[string]table.Table, len(s.sources))
	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("acquire: %w", err)
		}
		name := src.Name()
		res := SourceResult{Name: name}
		t, err := s.fetch(ctx, src)
		switch {
		case err != nil:
			res.Outcome, res.Error = OutcomeFailed, err.Error()
			t = table.Table{Name: name}
			log.Warn(ctx, "source unavailable", logger.String("source", name), logger.Error(err))
		case t.Empty():
			res.Outcome = OutcomeEmpty
			log.Warn(ctx, "source has no rows", logger.String("source", name))
		default:
			res.Outcome, res.Rows = OutcomeOK, t.Len()
			log.Info(ctx, "source loaded",
				logger.String("source", name),
				logger.Int("rows", t.Len()),
				logger.Int("columns", len(t.Columns)))
		}
		metrics.RecordSourceFetch(name, res.Outcome)
		metrics.UpdateTableRows(name, res.Rows)
		tables[name] = t
		sum.Sources = append(sum.Sources, res)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire: %w", err)
	}
	return tables, nil
}

func (s *Service) fetch(ctx context.Context, src Source) (table.Table, error) {
	raw, err := src.Fetch(ctx)
	if err != nil {
		return table.Table{}, err
	}
	return table.Normalize(raw, table.WithIdentityColumn(catalog.IdentityColumn(src.Name())))
}

// runClass turns the class tables into ranked records and writes them.
func (s *Service) runClass(ctx context.Context, log logger.Logger, class catalog.Class, tables map[string]table.Table) (ExportResult, error) {
	res := ExportResult{Name: class.Name, File: class.File}
	log = log.With(logger.String("class", class.Name))

	fail := func(reason string, err error) (ExportResult, error) {
		res.Error = err.Error()
		metrics.RecordClassFailure(class.Name, reason)
		log.Warn(ctx, "class skipped", logger.String("reason", reason), logger.Error(err))
		return res, err
	}

	start := time.Now()
	base := class.Position.Apply(tables[class.Base])
	metrics.UpdateClassRecords(class.Name, "base", base.Len())
	supplements := make([]table.Table, 0, len(class.Supplements))
	for _, name := range class.Supplements {
		supplements = append(supplements, tables[name])
	}
	merged, err := merge.Merge(base, supplements, merge.DefaultKey)
	metrics.RecordStageDuration("merge", time.Since(start))
	if err != nil {
		return fail("missing_base", fmt.Errorf("%s: %w", class.Name, err))
	}

	start = time.Now()
	records := model.FromTable(merged)
	for _, rec := range records {
		class.Canonicalize(rec)
	}
	d := class.Deriver()
	records = d.DropUnplayed(records)
	metrics.UpdateClassRecords(class.Name, "played", len(records))
	d.Derive(records)
	metrics.RecordStageDuration("derive", time.Since(start))

	start = time.Now()
	for _, sc := range class.Scores {
		if sc.PreScore != "" {
			s.scorer.ScorePreScores(records, sc.PreScore, sc.Target)
			continue
		}
		if err := s.scorer.ScoreComposite(records, sc.Set, sc.Target); err != nil {
			return fail("weights", fmt.Errorf("%s: %w", class.Name, err))
		}
	}
	metrics.RecordStageDuration("score", time.Since(start))

	out, err := export.New(
		export.WithThreshold(derive.ExposureField, s.min90s),
		export.WithSortKey(class.SortKey),
		export.WithColumns(class.Columns...),
	).Export(records)
	if err != nil {
		return fail("empty", fmt.Errorf("%s: %w", class.Name, err))
	}
	metrics.UpdateClassRecords(class.Name, "exported", out.Len())

	if res, err = s.write(ctx, res, class.Name, class.SortKey, out); err != nil {
		return fail("write", fmt.Errorf("%s: %w", class.Name, err))
	}
	log.Info(ctx, "class exported", logger.String("path", res.Path), logger.Int("rows", res.Rows))
	for _, p := range class.Previews {
		s.preview(ctx, log, p, out.Records)
	}
	return res, nil
}

func (s *Service) write(ctx context.Context, res ExportResult, class, sortKey string, out export.Result) (ExportResult, error) {
	start := time.Now()
	defer func() { metrics.RecordStageDuration("export", time.Since(start)) }()

	path, err := s.writer.Write(res.File, out.Columns, out.Rows())
	if err != nil {
		return res, err
	}
	res.Path, res.Rows = path, out.Len()
	if sortKey != "" {
		s.store.Publish(ctx, class, sortKey, out)
	}
	return res, nil
}

// preview logs the top records of p.
func (s *Service) preview(ctx context.Context, log logger.Logger, p catalog.Preview, records []*model.Record) {
	top := append([]*model.Record(nil), records...)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Metric(p.SortKey) > top[j].Metric(p.SortKey)
	})
	if len(top) > previewSize {
		top = top[:previewSize]
	}
	for i, rec := range top {
		fields := []logger.Field{logger.String("preview", p.Title), logger.Int("position", i+1)}
		for _, col := range p.Columns {
			fields = append(fields, logger.String(col, rec.Text(col)))
		}
		log.Info(ctx, "preview", fields...)
	}
}

type teamExport struct {
	name    string
	sortKey string
	columns []string
	build   func(tables map[string]table.Table) ([]*model.Record, error)
}

func (s *Service) teamExports() []teamExport {
	return []teamExport{
		{
			name:    team.Stats,
			sortKey: "Team_Efficiency",
			columns: team.StatsColumns(),
			build: func(t map[string]table.Table) ([]*model.Record, error) {
				return team.BuildStats(t[catalog.SourceTeamXGoals], t[catalog.SourceTeamXPass], s.teamSet, s.scorer)
			},
		},
		{
			name:    team.XPass,
			columns: team.XPassColumns(),
			build: func(t map[string]table.Table) ([]*model.Record, error) {
				return team.BuildXPass(t[catalog.SourceTeamXPass])
			},
		},
		{
			name:    team.GoalsAdded,
			columns: team.GoalsAddedColumns(),
			build: func(t map[string]table.Table) ([]*model.Record, error) {
				return team.BuildGoalsAdded(t[catalog.SourceTeamGoalsAdded])
			},
		},
		{
			name:    team.Trajectory,
			columns: team.TrajectoryColumns(),
			build: func(t map[string]table.Table) ([]*model.Record, error) {
				return team.BuildTrajectory(t[catalog.SourceGames])
			},
		},
	}
}

// runTeam builds one squad-level export. Failures are reported but never
// fail the run.
func (s *Service) runTeam(ctx context.Context, log logger.Logger, te teamExport, tables map[string]table.Table) ExportResult {
	res := ExportResult{Name: te.name, File: "mls_" + te.name + ".csv"}
	records, err := te.build(tables)
	if err == nil {
		var out export.Result
		out, err = export.New(export.WithSortKey(te.sortKey), export.WithColumns(te.columns...)).Export(records)
		if err == nil {
			res, err = s.write(ctx, res, te.name, te.sortKey, out)
		}
	}
	if err != nil {
		res.Error = err.Error()
		log.Warn(ctx, "team export skipped", logger.String("export", te.name), logger.Error(err))
		return res
	}
	log.Info(ctx, "team export written", logger.String("export", te.name), logger.Int("rows", res.Rows))
	return res
}
