package upscale

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Poll asks for the job status every interval until the job is done.
// onUpdate, if set, sees every status response. A failed job is returned
// together with an error carrying the service's message.
func Poll(ctx context.Context, c Client, id JobID, interval time.Duration, onUpdate func(Job)) (Job, error) {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := c.Status(ctx, id)
		if err != nil {
			return Job{}, fmt.Errorf("status of job %s: %w", id, err)
		}
		if onUpdate != nil {
			onUpdate(job)
		}

		switch job.Status {
		case StatusSucceeded:
			return job, nil
		case StatusFailed:
			msg := job.Error
			if msg == "" {
				msg = "no reason given"
			}
			return job, fmt.Errorf("upscale job %s failed: %s", id, msg)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return job, fmt.Errorf("upscale job %s timed out: %w", id, ctx.Err())
			}
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}
