package model

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Document is an ingested source. Immutable after creation except for
// cascading deletion of its chunks.
type Document struct {
	Id        string    `json:"document_id"`
	Name      string    `json:"doc_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is a bounded fragment of a document plus its embedding vector.
type Chunk struct {
	Id         string    `json:"chunk_id"`
	DocumentId string    `json:"document_id"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// Turn is one message of a conversation log. The store assigns Id;
// ascending Id is chronological order within a conversation.
type Turn struct {
	Id             int64     `json:"id"`
	ConversationId string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Message is the shape the generation backend consumes.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Counts is the observational aggregate behind /stats.
type Counts struct {
	Documents int64 `json:"documents"`
	Chunks    int64 `json:"chunks"`
	Messages  int64 `json:"messages"`
}
