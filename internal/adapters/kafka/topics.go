package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicPanelRows carries one message per finished (date, ticker) panel row
	TopicPanelRows = "panel.rows"

	// TopicStageEvents carries one message per finished pipeline stage
	TopicStageEvents = "pipeline.stages"
)
