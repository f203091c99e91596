package transport

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"courier-delivery-service/internal/email"
)

const (
	maxRetries     = 3
	baseRetryDelay = 1 * time.Second
)

// SESConfig holds the settings for the AWS SESv2 transport.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SendEmailAPI is the slice of the SESv2 client used by the transport.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESTransport delivers through the AWS SESv2 API. The composed message is
// always submitted as raw MIME so custom headers, reply-to lists, and
// attachments survive untouched.
type SESTransport struct {
	client SendEmailAPI
}

// NewSES creates a SESTransport from AWS configuration.
func NewSES(ctx context.Context, cfg SESConfig) (*SESTransport, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESTransport{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// NewSESWithClient creates a SESTransport with a custom client, used for testing.
func NewSESWithClient(client SendEmailAPI) *SESTransport {
	return &SESTransport{client: client}
}

func (t *SESTransport) Name() string { return "ses" }

// Deliver submits the raw message, retrying transient API failures with
// exponential backoff until the context is cancelled or retries run out.
func (t *SESTransport) Deliver(ctx context.Context, e *email.Email) error {
	if e.Msg() == nil {
		if err := e.Build(); err != nil {
			return err
		}
	}

	input, err := buildRawInput(e)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, backoffDelay(attempt)); err != nil {
				return fmt.Errorf("cancelled during retry wait: %w", err)
			}
		}

		_, err := t.client.SendEmail(ctx, input)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Printf("[SES] send attempt %d failed: %v", attempt, err)
	}

	return fmt.Errorf("SES send failed after %d retries: %w", maxRetries, lastErr)
}

func buildRawInput(e *email.Email) (*sesv2.SendEmailInput, error) {
	var buf bytes.Buffer
	if _, err := e.Msg().WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render raw message: %w", err)
	}

	// BCC recipients never appear in the rendered headers, so the envelope
	// destination is passed explicitly.
	dest := &types.Destination{
		ToAddresses:  addressList(e.Msg().GetToString()),
		CcAddresses:  addressList(e.Msg().GetCcString()),
		BccAddresses: addressList(e.Msg().GetBccString()),
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.From().Address),
		Destination:      dest,
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: buf.Bytes()},
		},
	}, nil
}

func addressList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return in
}

func backoffDelay(attempt int) time.Duration {
	delay := baseRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
