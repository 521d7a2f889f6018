package appwrite

import (
	"encoding/json"
	"strings"
	"time"

	"lijstje/internal/gateway"
)

// timestamp decodes Appwrite's ISO 8601 datetimes.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

type user struct {
	ID        string    `json:"$id"`
	CreatedAt timestamp `json:"$createdAt"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

func (u user) identity() gateway.Identity {
	return gateway.Identity{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt.Time}
}

type sessionResponse struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
}

type document struct {
	ID        string    `json:"$id"`
	CreatedAt timestamp `json:"$createdAt"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UserID    string    `json:"user_id"`
}

func (d document) task() gateway.Task {
	return gateway.Task{
		ID:        d.ID,
		Title:     d.Title,
		Completed: d.Completed,
		OwnerID:   d.UserID,
		CreatedAt: d.CreatedAt.Time,
	}
}

type documentList struct {
	Total     int        `json:"total"`
	Documents []document `json:"documents"`
}

// query is the JSON query syntax of Appwrite 1.5 and later.
type query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

func encodeQueries(qs ...query) ([]string, error) {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		data, err := json.Marshal(q)
		if err != nil {
			return nil, err
		}
		out = append(out, string(data))
	}
	return out, nil
}
