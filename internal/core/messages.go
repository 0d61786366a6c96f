package core

// TrainMessage is the durable work item for one training job.
type TrainMessage struct {
	JobID          string   `json:"job_id"`
	BotID          string   `json:"bot_id"`
	OrganizationID string   `json:"organization_id"`
	SourceIDs      []string `json:"source_ids"`
}

// PurgeMessage is the durable work item for one source deletion.
type PurgeMessage struct {
	JobID          string `json:"job_id"`
	SourceID       string `json:"source_id"`
	OrganizationID string `json:"organization_id"`
	BotID          string `json:"bot_id"`
}

// ChunkConfig tunes the splitter. Measured in characters, matching the
// recursive character splitter.
type ChunkConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// DefaultChunkConfig returns the standard 800/100 configuration.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{ChunkSize: 800, ChunkOverlap: 100}
}
