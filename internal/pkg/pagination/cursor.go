package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor is an opaque continuation token for list queries. It encodes the
// (createdAt, id) position of the last row of the previous page.
type Cursor struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
}

// Encode encodes the cursor to a string
func (c *Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor decodes a cursor string
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}

	return &cursor, nil
}

// NewCursor creates a new cursor from an ID and timestamp
func NewCursor(id string, timestamp time.Time) *Cursor {
	return &Cursor{
		ID:        id,
		Timestamp: timestamp,
	}
}

// Page wraps one page of results plus the continuation token for the next
// page. NextCursor is empty when there are no further rows.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPage builds a Page from items fetched with limit+1 semantics: callers
// fetch one extra row to detect a further page, and cursorOf extracts the
// cursor position of the last returned item.
func NewPage[T any](items []T, limit int, cursorOf func(T) *Cursor) Page[T] {
	page := Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
		if c := cursorOf(page.Items[len(page.Items)-1]); c != nil {
			page.NextCursor = c.Encode()
		}
	}
	return page
}
