package application

// ChatMessage is a new message seen in a channel. ThreadTS is set when the
// message was posted as a thread reply.
type ChatMessage struct {
	Channel   string
	Timestamp string
	ThreadTS  string
	UserID    string
	Text      string
}

// ReplyThread returns the timestamp replies to this message should use.
func (m ChatMessage) ReplyThread() string {
	if m.ThreadTS != "" {
		return m.ThreadTS
	}
	return m.Timestamp
}

// ReactionAdded is a reaction placed on a message.
type ReactionAdded struct {
	Channel   string
	Timestamp string
	UserID    string
	Reaction  string
}
