// Package worker runs the counter reconciliation consumer. It listens on
// the comments.votes.* subjects and re-derives like/dislike counters from
// the vote ledger, so a drifted counter heals as soon as the next vote
// event for that comment arrives.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/comment-platform/internal/platform/events"
	"github.com/example/comment-platform/internal/service"
)

const (
	voteSubjects  = "comments.votes.*"
	durableName   = "comments_resync"
	batchSize     = 100
	batchInterval = 2 * time.Second
)

// StartResyncConsumer subscribes to vote events and reconciles the counters
// of every comment mentioned in a batch. Reconcile is idempotent, so the
// consumer acks unconditionally after a successful pass and relies on
// redelivery only for transport failures.
func StartResyncConsumer(ctx context.Context, nc *nats.Conn, ledger *service.VoteLedger, log *zap.Logger) error {
	js, err := nc.JetStream()
	if err != nil {
		return err
	}
	sub, err := js.PullSubscribe(voteSubjects, durableName)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msgs, err := sub.Fetch(batchSize, nats.MaxWait(batchInterval))
			if err != nil {
				if err == nats.ErrTimeout {
					continue
				}
				log.Warn("resync consumer: fetch failed", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(msgs) == 0 {
				continue
			}

			// Dedupe so a burst of votes on one comment costs one recount.
			seen := make(map[string]struct{}, len(msgs))
			for _, m := range msgs {
				var ev events.Event
				if err := json.Unmarshal(m.Data, &ev); err != nil {
					log.Warn("resync consumer: invalid event", zap.String("subject", m.Subject), zap.Error(err))
					_ = m.Ack()
					continue
				}
				if ev.CommentID != "" {
					seen[ev.CommentID] = struct{}{}
				}
				_ = m.Ack()
			}

			for commentID := range seen {
				if _, err := ledger.Reconcile(ctx, commentID); err != nil {
					log.Warn("resync consumer: reconcile failed",
						zap.String("comment_id", commentID), zap.Error(err))
				}
			}
		}
	}()
	return nil
}
