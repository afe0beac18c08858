package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/csheth/chromaseek/internal/api"
	"github.com/csheth/chromaseek/internal/render"
	"github.com/csheth/chromaseek/internal/telemetry"
)

const (
	// DefaultTopK is used when the passage count control is unset.
	DefaultTopK = 6
	// MaxTopK is the upper bound of the passage count control.
	MaxTopK = 20

	msgTypeQuestion = "Type a question"
	msgAskFailed    = "Ask failed"
	msgAnswerReady  = "Answer ready"
	msgCopied       = "Copied"
	msgCopyFailed   = "Copy failed"
	workflowAsk     = "ask"
)

// ErrEmptyQuestion is returned by Ask when the question is blank. Nothing on
// screen changes apart from the prompt notification.
var ErrEmptyQuestion = errors.New("question is empty")

// ClampTopK coerces the passage count into 1..MaxTopK, using DefaultTopK for
// unset values.
func ClampTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// QuestionEmpty reports whether q is blank after trimming.
func QuestionEmpty(q string) bool {
	return strings.TrimSpace(q) == ""
}

// SetQuestion records the question input.
func (c *Controller) SetQuestion(q string) {
	c.view.update(func(r *Regions) {
		r.Question = q
	})
}

// Ask sends question and renders the answer, citations and passages. Request
// failures are reported through a notification; only a blank question
// returns an error.
func (c *Controller) Ask(ctx context.Context, question string, topK int) error {
	q := strings.TrimSpace(question)
	if q == "" {
		c.notifier.Notify(msgTypeQuestion, true)
		c.recorder.Observe(workflowAsk, telemetry.OutcomeSkipped, 0)
		return ErrEmptyQuestion
	}
	req := api.AskRequest{Question: q, TopK: ClampTopK(topK)}

	c.view.update(func(r *Regions) {
		r.clearResults()
		r.Answer = render.Pending
	})

	c.withPhase(PhaseAnswering, func() {
		started := c.now()
		res, err := c.backend.Ask(ctx, req)
		elapsed := c.now().Sub(started)
		c.observe(workflowAsk, started, err)
		if err != nil {
			log.Printf("[controller] ask failed: %v", err)
			c.view.update(func(r *Regions) {
				r.Answer = ""
			})
			c.notifier.Notify(msgAskFailed, false)
			return
		}

		latency := fmt.Sprintf("Latency: %d ms", millis(elapsed))
		answer := render.Markdown(res.Answer)
		sources := render.Citations(res.Sources)
		retrieved := fmt.Sprintf("%d passages", res.RetrievedCount())
		passages := render.Passages(res.Passages)
		c.view.update(func(r *Regions) {
			r.Latency = latency
			r.Answer = answer
			r.AnswerSource = res.Answer
			r.Sources = sources
			r.SourceNames = append([]string(nil), res.Sources...)
			r.RetrievedCount = retrieved
			r.Passages = passages
			r.PassageItems = append([]api.Passage(nil), res.Passages...)
		})
		c.notifier.Notify(msgAnswerReady, true)
	})
	return nil
}

// CopyAnswer puts the rendered answer's text on the clipboard. It does
// nothing when the answer region is empty.
func (c *Controller) CopyAnswer() {
	text := render.PlainText(c.view.snapshot().Answer)
	if text == "" {
		return
	}
	if err := c.clipboard.WriteAll(text); err != nil {
		log.Printf("[controller] copy failed: %v", err)
		c.notifier.Notify(msgCopyFailed, false)
		return
	}
	c.notifier.Notify(msgCopied, true)
}

// Clear empties the result regions and the question. A request still in
// flight is not cancelled and renders into the cleared regions when it
// settles.
func (c *Controller) Clear() {
	c.view.update(func(r *Regions) {
		r.clearResults()
		r.Question = ""
	})
}
