// Package collection holds the stages that pull posts and comments from the
// archive source into the social datasets.
package collection

// Stage names as accepted by PIPELINE_STAGES
const (
	StageSubmissions = "submissions"
	StageComments    = "comments"
)
