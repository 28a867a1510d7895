package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageKind tells the UI how to render an assistant message.
type MessageKind string

const (
	KindQuestion MessageKind = "question"
	KindResult   MessageKind = "result"
	KindEmpty    MessageKind = "empty"
	KindError    MessageKind = "error"
	KindSecurity MessageKind = "security"
)

// Message is one transcript entry of a chat session.
type Message struct {
	ID        string       `json:"id"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Kind      MessageKind  `json:"kind"`
	SQL       string       `json:"sql,omitempty"`
	Table     *ResultTable `json:"table,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ResultTable holds the rows returned by an executed query.
type ResultTable struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Truncated bool     `json:"truncated"`
}

func (t *ResultTable) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
