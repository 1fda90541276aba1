package backend

import (
	"context"
	"net/url"
	"strconv"

	"worthit/internal/videoid"
)

const defaultCommentLimit = 50

type commentsResponse struct {
	Comments []string `json:"comments"`
}

// Comments fetches up to limit crowd comments for id. A limit of zero uses
// the configured default.
func (c *Client) Comments(ctx context.Context, id videoid.ID, limit int) ([]string, error) {
	if limit <= 0 {
		limit = c.cfg.CommentLimit
	}
	if limit <= 0 {
		limit = defaultCommentLimit
	}

	query := url.Values{}
	query.Set("id", id.String())
	query.Set("limit", strconv.Itoa(limit))

	var decoded commentsResponse
	if err := c.getJSON(ctx, "comments", "/comments", query, &decoded); err != nil {
		return nil, err
	}
	return decoded.Comments, nil
}
