package controller

import (
	"context"
	"fmt"
	"log"
	"strconv"
)

const (
	msgIngestFailed = "Ingest failed"
	msgResetFailed  = "Reset failed"
	msgResetDone    = "Index cleared"
	workflowIngest  = "ingest"
	workflowReset   = "reset_index"
)

// Ingest asks the backend to index uploaded documents and shows the new
// vector count. On failure the previous count stays on screen.
func (c *Controller) Ingest(ctx context.Context) {
	succeeded := false
	c.withPhase(PhaseIndexing, func() {
		started := c.now()
		res, err := c.backend.Ingest(ctx)
		elapsed := c.now().Sub(started)
		c.observe(workflowIngest, started, err)
		if err != nil {
			log.Printf("[controller] ingest failed: %v", err)
			c.notifier.Notify(msgIngestFailed, false)
			return
		}
		count := strconv.Itoa(res.DisplayCount())
		c.view.update(func(r *Regions) {
			r.VectorCount = count
		})
		c.notifier.Notify(fmt.Sprintf("Indexed %d chunks in %d ms", res.ChunkCount(), millis(elapsed)), true)
		succeeded = true
	})
	if succeeded {
		c.RefreshStats(ctx)
	}
}

// ResetIndex clears the backend vector store, then reloads stats.
func (c *Controller) ResetIndex(ctx context.Context) {
	succeeded := false
	c.withPhase(PhaseResetting, func() {
		started := c.now()
		message, err := c.backend.ResetIndex(ctx)
		c.observe(workflowReset, started, err)
		if err != nil {
			log.Printf("[controller] reset index failed: %v", err)
			c.notifier.Notify(msgResetFailed, false)
			return
		}
		log.Printf("[controller] reset index: %s", message)
		c.notifier.Notify(msgResetDone, true)
		succeeded = true
	})
	if succeeded {
		c.RefreshStats(ctx)
	}
}
