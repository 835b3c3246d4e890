package utils

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	IDSize     = 21
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewID returns a row id for surveys, responses, rewards and claims.
func NewID() string {
	return gonanoid.MustGenerate(idAlphabet, IDSize)
}

// NewQuestionID matches the uuid form browsers generate for new questions.
func NewQuestionID() string {
	return uuid.NewString()
}
