package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// SQSAPI is the subset of the SQS client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// FileHandler processes one file reference. *core.Processor satisfies it.
type FileHandler interface {
	Process(ctx context.Context, ref entity.FileReference) error
}

type SQSConfig struct {
	QueueURL          string
	MaxMessages       int32
	WaitTime          time.Duration
	VisibilityTimeout time.Duration
	// RetryDelay is the pause after a failed receive.
	RetryDelay time.Duration
}

// SQSConsumer long-polls a queue of S3 notifications. Every message is
// deleted once its files have been handled, whatever their outcome.
type SQSConsumer struct {
	client  SQSAPI
	handler FileHandler
	cfg     SQSConfig
	logger  *slog.Logger
}

func NewSQSConsumer(client SQSAPI, handler FileHandler, cfg SQSConfig, logger *slog.Logger) *SQSConsumer {
	if cfg.MaxMessages <= 0 || cfg.MaxMessages > 10 {
		cfg.MaxMessages = 10
	}
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = 20 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &SQSConsumer{client: client, handler: handler, cfg: cfg, logger: logger}
}

// Run polls until ctx is cancelled.
func (c *SQSConsumer) Run(ctx context.Context) error {
	c.logger.Info("polling sqs queue", "queue_url", c.cfg.QueueURL)
	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("sqs consumer stopped")
			return nil
		}
		if err := c.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("failed to receive messages from sqs", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.cfg.RetryDelay):
			}
		}
	}
}

// PollOnce receives one batch and handles its messages concurrently.
func (c *SQSConsumer) PollOnce(ctx context.Context) error {
	in := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.cfg.QueueURL),
		MaxNumberOfMessages: c.cfg.MaxMessages,
		WaitTimeSeconds:     int32(c.cfg.WaitTime / time.Second),
	}
	if c.cfg.VisibilityTimeout > 0 {
		in.VisibilityTimeout = int32(c.cfg.VisibilityTimeout / time.Second)
	}
	out, err := c.client.ReceiveMessage(ctx, in)
	if err != nil {
		return err
	}
	if len(out.Messages) == 0 {
		c.logger.Debug("no messages received from sqs")
		return nil
	}
	c.logger.Info("received messages from sqs", "count", len(out.Messages))

	var g errgroup.Group
	for _, m := range out.Messages {
		g.Go(func() error {
			c.handleMessage(ctx, m)
			return nil
		})
	}
	return g.Wait()
}

func (c *SQSConsumer) handleMessage(ctx context.Context, m types.Message) {
	ctx = common.WithTraceID(ctx, aws.ToString(m.MessageId))
	log := common.LoggerFrom(ctx, c.logger)

	if m.Body == nil {
		log.Warn("received message without body")
		return
	}
	refs, err := ParseNotification([]byte(*m.Body), log)
	if err != nil {
		log.Error("failed to parse message", "error", err)
	}
	for _, ref := range refs {
		if err := c.handler.Process(ctx, ref); err != nil {
			log.Error("failed to process file", "file_name", ref.FileName(), "kind", common.KindOf(err), "error", err)
			continue
		}
	}

	if m.ReceiptHandle == nil {
		return
	}
	if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.cfg.QueueURL),
		ReceiptHandle: m.ReceiptHandle,
	}); err != nil {
		log.Error("failed to delete message from sqs", "error", err)
		return
	}
	log.Debug("message deleted from queue")
}
