package interfaces

import "context"

// AnswerGenerator produces an answer to question grounded in the given
// context documents. Documents are ordered by retrieval rank.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, contexts []string) (string, error)
}
