// Package panel holds the stage that joins sentiment aggregates with market
// observations into the trading-day panel.
package panel

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/dustin/go-humanize"

	"wsbpanel/internal/domain/market_data"
	"wsbpanel/internal/domain/panel"
	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/domain/social"
	"wsbpanel/internal/services/aggregation"
	"wsbpanel/internal/services/calendar"
	panelsvc "wsbpanel/internal/services/panel"
	"wsbpanel/internal/services/timenorm"
	"wsbpanel/internal/workers"
	"wsbpanel/pkg/errors"
)

// StagePanel is the stage name as accepted by PIPELINE_STAGES
const StagePanel = "panel"

// DatasetStore reads the collected datasets and writes the derived ones
type DatasetStore interface {
	ReadSubmissions() ([]social.PostRow, error)
	ReadComments() ([]social.CommentRow, error)
	ReadObservations() ([]market_data.Observation, error)
	WriteDailySentiment(rows []sentiment.DailyAggregate) error
	WriteGeneralSentiment(rows []sentiment.GeneralSentiment) error
	WritePanel(rows []panel.Row) error
}

// HolidaySource lists exchange closures the rule based calendar may not know
type HolidaySource interface {
	ExchangeHolidays(ctx context.Context, from, to civil.Date) ([]civil.Date, error)
}

// Sinks are the optional destinations beyond the CSV files
type Sinks struct {
	Sentiment sentiment.Repository
	Panel     panel.Repository
	Publisher panel.Publisher
}

// BuildStage labels mentions, aggregates them per day and ticker, and
// builds the panel over the trading days covered by the observations
type BuildStage struct {
	*workers.BaseWorker
	store         DatasetStore
	norm          *timenorm.Normalizer
	postLabels    sentiment.LabelSource
	commentLabels sentiment.LabelSource
	holidays      HolidaySource
	sinks         Sinks
	rsiPeriod     int
	runID         string
}

// NewBuildStage creates the panel stage. holidays may be nil.
func NewBuildStage(
	store DatasetStore,
	norm *timenorm.Normalizer,
	postLabels, commentLabels sentiment.LabelSource,
	holidays HolidaySource,
	sinks Sinks,
	rsiPeriod int,
	runID string,
	enabled bool,
) *BuildStage {
	return &BuildStage{
		BaseWorker:    workers.NewBaseWorker(StagePanel, enabled),
		store:         store,
		norm:          norm,
		postLabels:    postLabels,
		commentLabels: commentLabels,
		holidays:      holidays,
		sinks:         sinks,
		rsiPeriod:     rsiPeriod,
		runID:         runID,
	}
}

// Run implements workers.Stage
func (s *BuildStage) Run(ctx context.Context) error {
	posts, err := s.store.ReadSubmissions()
	if err != nil {
		return errors.Wrap(err, "read submissions")
	}
	comments, err := s.store.ReadComments()
	if err != nil {
		return errors.Wrap(err, "read comments")
	}
	observations, err := s.store.ReadObservations()
	if err != nil {
		return errors.Wrap(err, "read observations")
	}

	postLabels, err := s.loadLabels(ctx, s.postLabels, "posts")
	if err != nil {
		return err
	}
	commentLabels, err := s.loadLabels(ctx, s.commentLabels, "comments")
	if err != nil {
		return err
	}

	mentions := aggregation.PostMentions(s.norm, posts, postLabels)
	mentions = append(mentions, aggregation.CommentMentions(s.norm, comments, commentLabels)...)
	aggregates := aggregation.Aggregate(mentions)
	general := aggregation.General(aggregation.GeneralRecords(s.norm, posts, comments, postLabels, commentLabels))

	if err := s.store.WriteDailySentiment(aggregates); err != nil {
		return errors.Wrap(err, "write daily sentiment")
	}
	if err := s.store.WriteGeneralSentiment(general); err != nil {
		return errors.Wrap(err, "write general sentiment")
	}

	builder := panelsvc.NewBuilder(s.calendar(ctx, observations), s.rsiPeriod)
	rows, err := builder.Build(ctx, observations, aggregates, general)
	if err != nil {
		return errors.Wrap(err, "build panel")
	}
	if err := s.store.WritePanel(rows); err != nil {
		return errors.Wrap(err, "write panel")
	}

	s.Log().Infow("Panel built",
		"mentions", humanize.Comma(int64(len(mentions))),
		"aggregates", humanize.Comma(int64(len(aggregates))),
		"general_days", len(general),
		"rows", humanize.Comma(int64(len(rows))),
	)

	return s.deliver(ctx, aggregates, rows)
}

// deliver copies the results to the optional sinks; failures do not undo the CSV output
func (s *BuildStage) deliver(ctx context.Context, aggregates []sentiment.DailyAggregate, rows []panel.Row) error {
	var errs errors.MultiError

	if s.sinks.Sentiment != nil && len(aggregates) > 0 {
		errs.Add(errors.Wrap(s.sinks.Sentiment.InsertDailyAggregates(ctx, s.runID, aggregates), "store daily sentiment"))
	}
	if s.sinks.Panel != nil && len(rows) > 0 {
		errs.Add(errors.Wrap(s.sinks.Panel.InsertRows(ctx, s.runID, rows), "store panel rows"))
	}
	if s.sinks.Publisher != nil && len(rows) > 0 {
		errs.Add(errors.Wrap(s.sinks.Publisher.PublishRows(ctx, s.runID, rows), "publish panel rows"))
	}
	return errs.ToError()
}

// loadLabels treats a missing label file as "nothing labeled yet"
func (s *BuildStage) loadLabels(ctx context.Context, src sentiment.LabelSource, kind string) (map[string]sentiment.Label, error) {
	if src == nil {
		return map[string]sentiment.Label{}, nil
	}
	labels, err := src.LoadLabels(ctx)
	if errors.Is(err, errors.ErrNotFound) {
		s.Log().Warnw("No label file, every record counts as unlabeled", "records", kind)
		return map[string]sentiment.Label{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s labels", kind)
	}
	return labels, nil
}

// calendar returns the NYSE calendar, extended with the provider's holiday
// list over the observed range when a holiday source is configured
func (s *BuildStage) calendar(ctx context.Context, observations []market_data.Observation) calendar.Provider {
	if s.holidays == nil || len(observations) == 0 {
		return calendar.NewNYSE()
	}

	first, last := observations[0].Date, observations[0].Date
	for _, o := range observations[1:] {
		if o.Date.Before(first) {
			first = o.Date
		}
		if o.Date.After(last) {
			last = o.Date
		}
	}

	extra, err := s.holidays.ExchangeHolidays(ctx, first, last)
	if err != nil {
		s.Log().Warnw("Exchange holidays unavailable, using rule based calendar only", "error", err)
		return calendar.NewNYSE()
	}
	s.Log().Debugw("Extra exchange closures", "count", len(extra))
	return calendar.NewNYSE(calendar.WithExtraClosures(extra...))
}
