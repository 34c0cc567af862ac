package scorejobs

// RecalculateScoresJob asks a worker to rerun the challenge point recalculation.
type RecalculateScoresJob struct {
	// Trigger records what enqueued the job (periodic, admin).
	Trigger string `json:"trigger"`
}

// Kind returns the job type identifier for River
func (RecalculateScoresJob) Kind() string { return "score_recalculate" }
