package bootstrap

import (
	"context"
	"time"

	"wsbpanel/internal/adapters/csvstore"
	"wsbpanel/internal/adapters/kafka"
	"wsbpanel/internal/services/collection"
	"wsbpanel/internal/workers"
	collectionworkers "wsbpanel/internal/workers/collection"
	"wsbpanel/internal/workers/marketdata"
	panelworkers "wsbpanel/internal/workers/panel"
	"wsbpanel/pkg/logger"
)

const runLockTTL = 24 * time.Hour

// MustInitStages builds the runner with every pipeline stage in execution order
func (c *Container) MustInitStages() {
	cfg := c.Config
	start, err := cfg.Pipeline.Start()
	if err != nil {
		c.Log.Fatalf("invalid start date: %v", err)
	}
	end, err := cfg.Pipeline.End()
	if err != nil {
		c.Log.Fatalf("invalid end date: %v", err)
	}

	opts := []workers.RunnerOption{workers.WithErrorTracker(c.ErrorTracker)}
	if c.Redis != nil {
		opts = append(opts, workers.WithLocker(c.Redis, "wsbpanel:run:"+cfg.Source.Subreddit, runLockTTL))
	}
	if c.Adapters.KafkaProducer != nil {
		opts = append(opts, workers.WithStageHook(stageEventHook(c.Adapters.KafkaProducer, c.Log)))
	}
	c.Runner = workers.NewRunner(opts...)

	// nil repositories must stay untyped nil interfaces
	var (
		anchors collection.AnchorCache
		cursors collection.CursorStore
	)
	if c.Repos.Checkpoints != nil {
		anchors = c.Repos.Checkpoints
		cursors = c.Repos.Checkpoints
	} else {
		anchors = collection.NewMemoryAnchorCache()
	}

	c.Runner.Register(collectionworkers.NewSubmissionsStage(
		c.Adapters.Source,
		c.Adapters.Store,
		c.Adapters.Normalizer,
		c.Adapters.Matcher,
		cursors,
		collectionworkers.SubmissionsConfig{
			Subreddit:      cfg.Source.Subreddit,
			Start:          start,
			End:            end,
			PageDelay:      cfg.Source.PageDelay,
			RequestTimeout: cfg.Source.RequestTimeout,
		},
		cfg.Pipeline.StageEnabled(collectionworkers.StageSubmissions),
	))

	c.Runner.Register(collectionworkers.NewCommentsStage(
		c.Adapters.Source,
		c.Adapters.Store,
		c.Adapters.Normalizer,
		c.Adapters.Matcher,
		anchors,
		cursors,
		collectionworkers.CommentsConfig{
			Start:          start,
			End:            end,
			PageDelay:      cfg.Source.PageDelay,
			RequestTimeout: cfg.Source.RequestTimeout,
			PageSize:       cfg.Source.CommentPage,
			MaxComments:    cfg.Source.MaxComments,
			TopPerParent:   cfg.Source.TopPerParent,
			Anchor: collection.AnchorConfig{
				Subreddit:   cfg.Source.Subreddit,
				Author:      cfg.Source.AnchorAuthor,
				TitleMarker: cfg.Source.AnchorMarker,
			},
		},
		cfg.Pipeline.StageEnabled(collectionworkers.StageComments),
	))

	c.Runner.Register(marketdata.NewObservationsStage(
		c.Adapters.Market,
		c.Adapters.Store,
		c.Repos.MarketData,
		c.RunID,
		marketdata.ObservationsConfig{
			Start:      start,
			End:        end,
			ChunkSize:  cfg.Market.ChunkSize,
			Tickers:    cfg.Market.Tickers,
			TopTickers: cfg.Market.TopTickers,
		},
		cfg.Pipeline.StageEnabled(marketdata.StageMarket),
	))

	var holidays panelworkers.HolidaySource
	if cfg.Market.CalendarFromAPI {
		holidays = c.Adapters.Market
	}
	sinks := panelworkers.Sinks{
		Sentiment: c.Repos.Sentiment,
		Panel:     c.Repos.Panel,
	}
	if c.Adapters.KafkaProducer != nil {
		sinks.Publisher = c.Adapters.KafkaProducer
	}

	c.Runner.Register(panelworkers.NewBuildStage(
		c.Adapters.Store,
		c.Adapters.Normalizer,
		csvstore.NewLabelFile(cfg.Output.PostLabelsPath),
		csvstore.NewLabelFile(cfg.Output.CommentLabelsPath),
		holidays,
		sinks,
		cfg.Pipeline.RSIPeriod,
		c.RunID,
		cfg.Pipeline.StageEnabled(panelworkers.StagePanel),
	))

	c.Log.Infow("✓ Stages initialized", "stages", len(c.Runner.Stages()))
}

// stageEventHook announces every finished stage on the stage events topic
func stageEventHook(producer *kafka.Producer, log *logger.Logger) func(ctx context.Context, report workers.StageReport) {
	return func(ctx context.Context, report workers.StageReport) {
		event := kafka.StageEvent{
			RunID:      report.RunID,
			Stage:      report.Stage,
			Status:     "success",
			DurationMS: report.Duration.Milliseconds(),
			FinishedAt: report.Finished,
		}
		if report.Err != nil {
			event.Status = "failed"
			event.Error = report.Err.Error()
		}
		// a cancelled run still reports its last stage
		if err := producer.PublishStageEvent(context.WithoutCancel(ctx), event); err != nil {
			log.Warnw("Failed to publish stage event", "stage", report.Stage, "error", err)
		}
	}
}
