package sqslistener

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/pkg/errors"

	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
)

const (
	receiveWaitSeconds = 20
	receiveBatchSize   = 10
	receiveErrorPause  = time.Second * 5
)

// Live long-polls the integration's AWS SQS queue and delivers decoded
// events to the registered callback. Messages are deleted after
// delivery; unparseable messages are deleted too so they do not
// redeliver forever.
type Live struct {
	accessKey string
	secretKey string
	queueName string
	region    string

	baseURL string

	mu       sync.Mutex
	cb       Callback
	client   *sqs.Client
	queueURL string
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewLiveListener(accessKey, secretKey, queueName, region string) *Live {
	return &Live{
		accessKey: accessKey,
		secretKey: secretKey,
		queueName: queueName,
		region:    region,
	}
}

// WithBaseURL overrides the SQS endpoint; for tests.
func (l *Live) WithBaseURL(u string) *Live {
	l.baseURL = u
	return l
}

func (l *Live) SetEventCallback(cb Callback) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cb = cb
}

// Start resolves the queue URL and launches the background receive
// loop. Calling Start on a running listener is a no-op.
func (l *Live) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		return nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(l.region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(l.accessKey, l.secretKey, ""),
		),
	)
	if err != nil {
		return errors.Wrap(err, "loading AWS configuration")
	}

	var sqsOpts []func(*sqs.Options)
	if l.baseURL != "" {
		sqsOpts = append(sqsOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(l.baseURL)
		})
	}
	l.client = sqs.NewFromConfig(cfg, sqsOpts...)

	urlOut, err := l.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(l.queueName),
	})
	if err != nil {
		return errors.Wrapf(err, "resolving queue URL for %s", l.queueName)
	}
	l.queueURL = aws.ToString(urlOut.QueueUrl)

	loopCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	// The goroutine closes its own local copy: Stop nils l.done, and
	// the loop must not lose the channel Stop is waiting on
	done := make(chan struct{})
	l.done = done

	go func() {
		defer close(done)
		l.receiveLoop(loopCtx)
	}()

	logging.Logger(ctx).Infof("SQS listener started on queue %s", l.queueName)
	return nil
}

// Stop terminates the receive loop and waits for it to finish, bounded
// by ctx. Calling Stop on a stopped listener is a no-op.
func (l *Live) Stop(ctx context.Context) error {
	l.mu.Lock()
	cancel := l.cancel
	done := l.done
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		logging.Logger(ctx).Info("SQS listener stopped")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for SQS receive loop to stop")
	}
}

func (l *Live) receiveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		out, err := l.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(l.queueURL),
			MaxNumberOfMessages: receiveBatchSize,
			WaitTimeSeconds:     receiveWaitSeconds,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			logging.Logger(nil).WithError(err).Errorf("receive-loop: polling queue, sleeping %s", receiveErrorPause)
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveErrorPause):
			}
			continue
		}

		for _, msg := range out.Messages {
			ev, err := DecodeEvent([]byte(aws.ToString(msg.Body)))
			if err != nil {
				// Drop it; the vendor is free to publish formats we
				// don't understand yet
				logging.Logger(nil).WithError(err).Warn("receive-loop: dropping unparseable message")
				l.deleteMessage(ctx, msg.ReceiptHandle)
				continue
			}

			l.mu.Lock()
			cb := l.cb
			l.mu.Unlock()

			if cb != nil {
				cb(ev)
			}

			l.deleteMessage(ctx, msg.ReceiptHandle)
		}
	}
}

func (l *Live) deleteMessage(ctx context.Context, receiptHandle *string) {
	_, err := l.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(l.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil && ctx.Err() == nil {
		logging.Logger(nil).WithError(err).Warn("receive-loop: deleting message")
	}
}
