package coverletter

import (
	"fmt"
	"strings"
)

const basePrompt = `You are a professional cover letter writer. Based on the following job description, write a compelling cover letter.

Requirements:
- Professional but personable tone
- Highlight relevant skills that match the job requirements
- Keep it concise (250-350 words)
- Use a standard cover letter format (greeting, body paragraphs, closing)
- Do NOT use placeholder names - write as if from a qualified candidate
- Do NOT include addresses or dates - just the letter body

Job Description:
`

const (
	coverLetterMarker     = "[COVER_LETTER]"
	questionAnswersMarker = "[QUESTION_ANSWERS]"
)

// BuildPrompt renders the single user prompt sent to every model.
func BuildPrompt(jobDescription string, questions []string) string {
	prompt := basePrompt + jobDescription
	if len(questions) == 0 {
		return prompt + "\n\nWrite the cover letter now:"
	}

	numbered := make([]string, len(questions))
	for i, q := range questions {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, q)
	}

	return prompt + `

---

The job posting also includes screening questions that need separate answers.
After writing the cover letter, provide answers to each question below.

Use this exact format:
[COVER_LETTER]
(your cover letter here)

[QUESTION_ANSWERS]
[Q1] (answer to question 1)
[Q2] (answer to question 2)

Screening Questions:
` + strings.Join(numbered, "\n") + `

Requirements for question answers:
- Answer each question directly and specifically
- Keep each answer 50-150 words
- Reference relevant experience
- Be professional but conversational

Write the cover letter and answers now:`
}

// QuestionAnswer pairs a screening question with the model's answer.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParseResponse splits a model reply into the letter and the answers.
// Without questions, or without the answers marker, the whole reply is the letter.
func ParseResponse(content string, questions []string) (string, []QuestionAnswer) {
	if len(questions) == 0 {
		return content, nil
	}

	letter, answers, found := strings.Cut(content, questionAnswersMarker)
	if !found {
		return content, nil
	}
	letter = strings.TrimSpace(strings.Replace(letter, coverLetterMarker, "", 1))

	var out []QuestionAnswer
	for i, q := range questions {
		marker := fmt.Sprintf("[Q%d]", i+1)
		start := strings.Index(answers, marker)
		if start == -1 {
			continue
		}
		end := strings.Index(answers, fmt.Sprintf("[Q%d]", i+2))
		if end == -1 || end < start {
			end = len(answers)
		}
		answer := strings.TrimSpace(answers[start+len(marker) : end])
		if answer != "" {
			out = append(out, QuestionAnswer{Question: q, Answer: answer})
		}
	}
	return letter, out
}
