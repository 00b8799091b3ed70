package extension

import (
	"eliteapply/internal/coverletter"
	"eliteapply/internal/scraper"
)

// MessageType discriminates the extension message union.
type MessageType string

const (
	TypeExtractJobDescription MessageType = "EXTRACT_JOB_DESCRIPTION"
	TypeJobDescriptionResult  MessageType = "JOB_DESCRIPTION_RESULT"
	TypeGenerateCoverLetters  MessageType = "GENERATE_COVER_LETTERS"
	TypeGenerationResult      MessageType = "GENERATION_RESULT"
	TypeGenerationError       MessageType = "GENERATION_ERROR"
)

// Request is an inbound message. Only the fields of its Type are read.
type Request struct {
	Type MessageType `json:"type"`

	// EXTRACT_JOB_DESCRIPTION
	Page *scraper.Page `json:"page,omitempty"`

	// GENERATE_COVER_LETTERS
	JobDescription     string   `json:"jobDescription,omitempty"`
	ScreeningQuestions []string `json:"screeningQuestions,omitempty"`
}

// Response is any outbound message.
type Response interface {
	MessageType() MessageType
}

type JobDescriptionResult struct {
	Type      MessageType `json:"type"`
	Data      *string     `json:"data"`
	Error     string      `json:"error,omitempty"`
	Questions []string    `json:"questions,omitempty"`
}

func (m JobDescriptionResult) MessageType() MessageType { return m.Type }

type GenerationResult struct {
	Type   MessageType         `json:"type"`
	Result *coverletter.Result `json:"result"`
}

func (m GenerationResult) MessageType() MessageType { return m.Type }

type GenerationError struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error"`
}

func (m GenerationError) MessageType() MessageType { return m.Type }

func generationError(msg string) GenerationError {
	return GenerationError{Type: TypeGenerationError, Error: msg}
}
