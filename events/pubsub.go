package events

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger zerolog.Logger
}

var _ Publisher = (*PubSubPublisher)(nil)

func NewPubSubPublisher(ctx context.Context, projectID, topicID string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &PubSubPublisher{
		client: client,
		topic:  client.Topic(topicID),
		logger: log.With().Str("serviceName", "pubsubPublisher").Logger(),
	}, nil
}

// Publish hands the message to the topic and returns immediately. The
// delivery result is drained in the background and only logged; retries, if
// any, belong to the caller.
func (p *PubSubPublisher) Publish(ctx context.Context, data []byte) error {
	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	go func() {
		if _, err := result.Get(context.Background()); err != nil {
			p.logger.Error().Err(err).Msg("publishing training event failed")
		}
	}()
	return nil
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
