package csvstore

import (
	"strconv"

	"wsbpanel/internal/domain/social"
)

var submissionsHeader = []string{
	"id", "created_utc", "author", "link_flair_text", "no_follow", "num_comments",
	"permalink", "score", "selftext", "title", "upvote_ratio", "url",
	"datetime_est", "date_est", "companies_mentioned",
}

// WriteSubmissions writes processed posts
func (s *Store) WriteSubmissions(rows []social.PostRow) error {
	return writeTable(s.Path(SubmissionsFile), submissionsHeader, rows, func(p social.PostRow) []string {
		return []string{
			p.ID, strconv.FormatInt(p.CreatedUTC, 10), p.Author, p.LinkFlairText,
			strconv.FormatBool(p.NoFollow), itoa(p.NumComments), p.Permalink, itoa(p.Score),
			p.SelfText, p.Title, formatFloat(p.UpvoteRatio), p.URL,
			p.DateTime, p.Date, formatList(p.Tickers),
		}
	})
}

// ReadSubmissions reads processed posts back
func (s *Store) ReadSubmissions() ([]social.PostRow, error) {
	var rows []social.PostRow
	err := readTable(s.Path(SubmissionsFile), ',', []string{"id", "created_utc", "companies_mentioned"}, func(r record) error {
		created, err := r.int64("created_utc")
		if err != nil {
			return err
		}
		numComments, err := r.int("num_comments")
		if err != nil {
			return err
		}
		score, err := r.int("score")
		if err != nil {
			return err
		}
		ratio, err := r.float("upvote_ratio")
		if err != nil {
			return err
		}

		rows = append(rows, social.PostRow{
			Post: social.Post{
				ID:            r.get("id"),
				CreatedUTC:    created,
				Author:        r.get("author"),
				Title:         r.get("title"),
				SelfText:      r.get("selftext"),
				LinkFlairText: r.get("link_flair_text"),
				NumComments:   numComments,
				Score:         score,
				UpvoteRatio:   ratio,
				Permalink:     r.get("permalink"),
				URL:           r.get("url"),
				NoFollow:      r.bool("no_follow"),
			},
			DateTime: r.get("datetime_est"),
			Date:     r.get("date_est"),
			Tickers:  parseList(r.get("companies_mentioned")),
		})
		return nil
	})
	return rows, err
}

var commentsHeader = []string{
	"comment_id", "post_id", "post_created_utc", "comment_created_utc",
	"post_title", "author", "comment_score", "tickers_mentioned", "body",
}

// WriteComments writes comments joined to their parent posts
func (s *Store) WriteComments(rows []social.CommentRow) error {
	return writeTable(s.Path(CommentsFile), commentsHeader, rows, func(c social.CommentRow) []string {
		return []string{
			c.CommentID, c.PostID,
			strconv.FormatInt(c.PostCreatedUTC, 10), strconv.FormatInt(c.CommentCreatedUTC, 10),
			c.PostTitle, c.Author, itoa(c.Score), formatList(c.Tickers), c.Body,
		}
	})
}

// ReadComments reads joined comments back
func (s *Store) ReadComments() ([]social.CommentRow, error) {
	var rows []social.CommentRow
	required := []string{"post_id", "post_created_utc", "comment_created_utc", "tickers_mentioned"}
	err := readTable(s.Path(CommentsFile), ',', required, func(r record) error {
		postCreated, err := r.int64("post_created_utc")
		if err != nil {
			return err
		}
		commentCreated, err := r.int64("comment_created_utc")
		if err != nil {
			return err
		}
		score, err := r.int("comment_score")
		if err != nil {
			return err
		}

		rows = append(rows, social.CommentRow{
			CommentID:         r.get("comment_id"),
			PostID:            r.get("post_id"),
			PostCreatedUTC:    postCreated,
			CommentCreatedUTC: commentCreated,
			PostTitle:         r.get("post_title"),
			Author:            r.get("author"),
			Score:             score,
			Tickers:           parseList(r.get("tickers_mentioned")),
			Body:              r.get("body"),
		})
		return nil
	})
	return rows, err
}
