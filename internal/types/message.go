package types

import "time"

type MessageAuthor string

const (
	MessageAuthorUser   MessageAuthor = "user"
	MessageAuthorSystem MessageAuthor = "system"
)

type Message struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Author    MessageAuthor `json:"author"`
	CreatedAt time.Time     `json:"created_at"`
}

func (m Message) IsUser() bool {
	return m.Author == MessageAuthorUser
}
