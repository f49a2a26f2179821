package notification

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"go.uber.org/zap"
)

// SNS rejects subjects longer than this.
const maxSubjectLen = 100

// SNSAlerter publishes operator alerts, such as a run of negative feedback,
// to an SNS topic.
type SNSAlerter struct {
	api      snsiface.SNSAPI
	topicARN string
}

func NewSNSAlerter(sess *session.Session, topicARN string) *SNSAlerter {
	return &SNSAlerter{api: sns.New(sess), topicARN: topicARN}
}

func (a *SNSAlerter) Alert(ctx context.Context, subject, message string) error {
	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}
	_, err := a.api.PublishWithContext(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	return err
}

type LogAlerter struct {
	Logger *zap.Logger
}

func (a LogAlerter) Alert(_ context.Context, subject, message string) error {
	if a.Logger != nil {
		a.Logger.Warn("alert", zap.String("subject", subject), zap.String("message", message))
	}
	return nil
}
