package arcticshift

import (
	"encoding/json"

	"wsbpanel/internal/domain/social"
	"wsbpanel/pkg/errors"
)

type searchResponse[T any] struct {
	Data []T `json:"data"`
}

// rawPost mirrors the archived submission; optional fields are pointers so
// absent and null values can be told apart from zero values.
type rawPost struct {
	ID                string      `json:"id"`
	CreatedUTC        json.Number `json:"created_utc"`
	Author            *string     `json:"author"`
	Title             *string     `json:"title"`
	SelfText          *string     `json:"selftext"`
	LinkFlairText     *string     `json:"link_flair_text"`
	NumComments       *int        `json:"num_comments"`
	Score             *int        `json:"score"`
	UpvoteRatio       *float64    `json:"upvote_ratio"`
	Permalink         *string     `json:"permalink"`
	URL               *string     `json:"url"`
	NoFollow          *bool       `json:"no_follow"`
	RemovedByCategory *string     `json:"removed_by_category"`
}

type rawComment struct {
	ID         string      `json:"id"`
	CreatedUTC json.Number `json:"created_utc"`
	Author     *string     `json:"author"`
	Body       *string     `json:"body"`
	Score      *int        `json:"score"`
	LinkID     *string     `json:"link_id"`
}

func (r rawPost) toPost() (social.Post, error) {
	if r.ID == "" {
		return social.Post{}, errors.Wrap(errors.ErrMalformedField, "id")
	}
	created, err := epoch(r.CreatedUTC)
	if err != nil {
		return social.Post{}, err
	}

	return social.Post{
		ID:                r.ID,
		CreatedUTC:        created,
		Author:            deref(r.Author),
		Title:             deref(r.Title),
		SelfText:          deref(r.SelfText),
		LinkFlairText:     deref(r.LinkFlairText),
		NumComments:       deref(r.NumComments),
		Score:             deref(r.Score),
		UpvoteRatio:       deref(r.UpvoteRatio),
		Permalink:         deref(r.Permalink),
		URL:               deref(r.URL),
		NoFollow:          deref(r.NoFollow),
		RemovedByCategory: deref(r.RemovedByCategory),
	}, nil
}

func (r rawComment) toComment() (social.Comment, error) {
	if r.ID == "" {
		return social.Comment{}, errors.Wrap(errors.ErrMalformedField, "id")
	}
	created, err := epoch(r.CreatedUTC)
	if err != nil {
		return social.Comment{}, err
	}

	return social.Comment{
		ID:         r.ID,
		CreatedUTC: created,
		Author:     deref(r.Author),
		Body:       deref(r.Body),
		Score:      deref(r.Score),
		LinkID:     social.StripLinkPrefix(deref(r.LinkID)),
	}, nil
}

// epoch accepts integer and fractional epoch seconds
func epoch(n json.Number) (int64, error) {
	if n == "" {
		return 0, errors.Wrap(errors.ErrMalformedField, "created_utc missing")
	}
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, errors.Wrapf(errors.ErrMalformedField, "created_utc %q", n)
	}
	return int64(f), nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
