package social

import "strings"

// Post is a submission fetched from the archive source.
// Optional source fields are defaulted at ingestion (score 0, author "").
type Post struct {
	ID                string  `json:"id"`
	CreatedUTC        int64   `json:"created_utc"`
	Author            string  `json:"author"`
	Title             string  `json:"title"`
	SelfText          string  `json:"selftext"`
	LinkFlairText     string  `json:"link_flair_text"`
	NumComments       int     `json:"num_comments"`
	Score             int     `json:"score"`
	UpvoteRatio       float64 `json:"upvote_ratio"`
	Permalink         string  `json:"permalink"`
	URL               string  `json:"url"`
	NoFollow          bool    `json:"no_follow"`
	RemovedByCategory string  `json:"removed_by_category"`
}

// Key returns the natural dedup key
func (p Post) Key() string { return p.ID }

// CreatedAt returns the cursor timestamp (epoch seconds)
func (p Post) CreatedAt() int64 { return p.CreatedUTC }

// Removed reports whether moderators or the author removed the post
func (p Post) Removed() bool { return p.RemovedByCategory != "" }

// Comment is a reply attached to a post via LinkID
type Comment struct {
	ID         string `json:"id"`
	CreatedUTC int64  `json:"created_utc"`
	Author     string `json:"author"`
	Body       string `json:"body"`
	Score      int    `json:"score"`
	LinkID     string `json:"link_id"`
}

// Key returns the natural dedup key
func (c Comment) Key() string { return c.ID }

// CreatedAt returns the cursor timestamp (epoch seconds)
func (c Comment) CreatedAt() int64 { return c.CreatedUTC }

// ParentKey returns the id of the post the comment belongs to
func (c Comment) ParentKey() string { return c.LinkID }

// Text returns the comment body
func (c Comment) Text() string { return c.Body }

// Rank returns the ranking score used when capping comments per post
func (c Comment) Rank() int { return c.Score }

// PostLinkPrefix is the fullname prefix the source puts in front of post ids
const PostLinkPrefix = "t3_"

// StripLinkPrefix turns a "t3_abc" fullname into "abc"
func StripLinkPrefix(linkID string) string {
	return strings.TrimPrefix(linkID, PostLinkPrefix)
}

// PostRow is a processed submission as persisted in submissions.csv
type PostRow struct {
	Post
	DateTime string   // civil datetime in the pipeline zone
	Date     string   // civil date in the pipeline zone
	Tickers  []string // companies_mentioned
}

// CommentRow is a comment joined to its parent post, as persisted in comments.csv
type CommentRow struct {
	CommentID         string
	PostID            string
	PostCreatedUTC    int64
	CommentCreatedUTC int64
	PostTitle         string
	Author            string
	Score             int
	Tickers           []string // tickers_mentioned
	Body              string
}
