package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of *sesv2.Client used by SES.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES delivers messages as Amazon SES v2 templated emails. Message.Template
// names a template stored in SES; Message.Params becomes its TemplateData.
type SES struct {
	Client SESAPI
	From   string
}

// NewSES builds an SES provider from the default AWS credential chain.
func NewSES(ctx context.Context, region, from string) (*SES, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify.NewSES: load aws config: %w", err)
	}
	return &SES{Client: sesv2.NewFromConfig(cfg), From: from}, nil
}

// Send dispatches msg to msg.To.
func (s *SES) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("ses: message has no recipient")
	}
	data, err := json.Marshal(msg.Params)
	if err != nil {
		return err
	}
	_, err = s.Client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.From),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Template: &types.Template{
				TemplateName: aws.String(msg.Template),
				TemplateData: aws.String(string(data)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses: send %s: %w", msg.Template, err)
	}
	return nil
}
