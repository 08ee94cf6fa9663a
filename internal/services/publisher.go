package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	pubnub "github.com/pubnub/go"
)

// ErrPublishQueueFull is returned when the realtime queue cannot take another message.
var ErrPublishQueueFull = errors.New("publish queue is full")

type publishJob struct {
	event   string
	message map[string]any
}

// PubNubPublisher pushes booking activity to the admin channel. Publish only
// enqueues; a background worker talks to PubNub.
type PubNubPublisher struct {
	channel string
	send    func(channel string, message any) error
	now     func() time.Time
	queue   chan publishJob
	wg      sync.WaitGroup
}

func NewPubNubPublisher(pn *pubnub.PubNub, channel string, queueSize int) *PubNubPublisher {
	return newPublisher(channel, queueSize, func(channel string, message any) error {
		_, _, err := pn.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return err
	})
}

func newPublisher(channel string, queueSize int, send func(channel string, message any) error) *PubNubPublisher {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &PubNubPublisher{
		channel: channel,
		send:    send,
		now:     time.Now,
		queue:   make(chan publishJob, queueSize),
	}
}

// Publish queues a message for the admin channel without waiting for PubNub.
func (p *PubNubPublisher) Publish(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	job := publishJob{
		event: event,
		message: map[string]any{
			"type":      event,
			"data":      payload,
			"timestamp": p.now().Unix(),
		},
	}
	select {
	case p.queue <- job:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

// Start launches the worker. It runs until ctx is cancelled.
func (p *PubNubPublisher) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.worker(ctx)
	slog.Info("Realtime publisher started", "channel", p.channel, "queue", cap(p.queue))
}

// Wait blocks until the worker has stopped.
func (p *PubNubPublisher) Wait() {
	p.wg.Wait()
}

func (p *PubNubPublisher) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.queue:
			if err := p.send(p.channel, job.message); err != nil {
				slog.Error("Failed to publish to PubNub", "channel", p.channel, "event", job.event, "error", err)
			}
		}
	}
}
