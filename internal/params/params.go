// Package params resolves secrets and runtime parameters. Production runs
// read from AWS SSM Parameter Store; local runs read from the process
// environment (populated by godotenv in main).
package params

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Well-known parameter names.
const (
	ChannelID     = "TICKET_LINE_CHANNEL_ID"
	ChannelSecret = "TICKET_LINE_CHANNEL_SECRET"
	AdminUserID   = "TICKET_ADMIN_LINE_USER_ID"
)

// Source looks up a named parameter. A missing parameter is an error, never
// an empty value.
type Source interface {
	Get(ctx context.Context, name string) (string, error)
}

// Env resolves parameters from the process environment.
type Env struct{}

func (Env) Get(_ context.Context, name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("parameter %s is not set", name)
	}
	return v, nil
}

// SSM resolves parameters from AWS SSM Parameter Store with decryption.
type SSM struct {
	client *ssm.Client
}

// NewSSM builds an SSM source using the default AWS credential chain.
func NewSSM(ctx context.Context) (*SSM, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SSM{client: ssm.NewFromConfig(cfg)}, nil
}

func (s *SSM) Get(ctx context.Context, name string) (string, error) {
	decrypt := true
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return *out.Parameter.Value, nil
}

// FromEnv picks the SSM source when AWS_REGION is present, the env source
// otherwise. Keeps main free of AWS wiring during local development.
func FromEnv(ctx context.Context) (Source, error) {
	if os.Getenv("AWS_REGION") == "" {
		return Env{}, nil
	}
	return NewSSM(ctx)
}
