package tutor

import (
	"fmt"
	"strings"

	"github.com/abhisek/medquiz/internal/bank"
)

const chatSystemPrompt = `You are an experienced medical educator, a professor with international recognition. Your job is to help medical students understand difficult concepts through questions and answers.

Your teaching style:
1. Start explanations from the basics (school level).
2. Use analogies and real examples from clinical practice.
3. Find gaps in the student's knowledge and fill them.
4. Be patient and supportive.
5. Ask guiding questions to check understanding.
6. Explain not only "what" but also "why".
7. Structure answers: a short answer first, then the details.
8. Use medical terminology, but explain difficult terms.`

func chatSystem(language string) string {
	if language == "" {
		return chatSystemPrompt
	}
	return chatSystemPrompt + fmt.Sprintf("\n\nAnswer in %s. Be precise with medical facts.", language)
}

// questionContextBlock renders the current question for the model.
func questionContextBlock(q *QuestionContext) string {
	var b strings.Builder
	b.WriteString("Current question context:\n")
	fmt.Fprintf(&b, "Question: %s\n", q.Question)

	if q.UserAnswer == nil {
		b.WriteString("Student answer: don't know\n")
	} else {
		fmt.Fprintf(&b, "Student answer: option %d\n", *q.UserAnswer+1)
	}

	switch {
	case q.IsCorrect == nil:
		b.WriteString("Correctness: not checked")
	case *q.IsCorrect:
		b.WriteString("Correctness: correct")
	default:
		b.WriteString("Correctness: incorrect")
	}
	return b.String()
}

const explainSystemPrompt = `You are a medical professor reviewing a multiple-choice exam question with a student. Be accurate, concise and concrete.`

func buildExplainUserMessage(q bank.Question, choice *int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Category: %s\n", q.Category)
	fmt.Fprintf(&b, "Question: %s\n", q.Question)
	b.WriteString("\nOptions:\n")
	for i, a := range q.Answers {
		marker := ""
		if a.Correct {
			marker = " (correct)"
		}
		fmt.Fprintf(&b, "%d. %s%s\n", i+1, a.Text, marker)
	}

	b.WriteString("\nStudent answer: ")
	if choice == nil {
		b.WriteString("don't know\n")
	} else {
		fmt.Fprintf(&b, "option %d\n", *choice+1)
	}

	b.WriteString(`
Instructions:
1. Summarize what the question tests.
2. State the correct option and explain why it is right.
3. If the student picked a wrong option, explain the specific misconception behind it. Otherwise leave why_wrong empty.
4. List a few key facts worth memorizing.`)

	return b.String()
}
