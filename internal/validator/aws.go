package validator

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// STSClient is the slice of the STS API the validator needs; a fake
// stands in during tests.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Rules the AWS validator claims. An access key id match can be
// validated when its secret key appears in the surrounding snippet; a
// bare secret key match has no key id to pair with and degrades to
// Undetermined.
const (
	ruleAWSAccessKeyID     = "kingfisher.aws.access_key_id"
	ruleAWSSecretAccessKey = "kingfisher.aws.secret_access_key"
)

// AWSValidator validates a captured AWS key pair by calling STS
// GetCallerIdentity with the credentials themselves. AWS requests are
// SigV4-signed, so this probe cannot be expressed as a declarative
// HTTP template; it runs as a provider-specific Validator alongside
// HTTPValidator.
type AWSValidator struct {
	stsClient STSClient // nil means build a client per validation from the captured credentials
}

// NewAWSValidator creates a validator that builds an STS client from
// each match's captured credentials.
func NewAWSValidator() *AWSValidator {
	return &AWSValidator{}
}

// NewAWSValidatorWithClient creates a validator with a fixed STS
// client, for tests.
func NewAWSValidatorWithClient(client STSClient) *AWSValidator {
	return &AWSValidator{stsClient: client}
}

func (v *AWSValidator) CanValidate(ruleID string) bool {
	return ruleID == ruleAWSAccessKeyID || ruleID == ruleAWSSecretAccessKey
}

func (v *AWSValidator) Validate(ctx context.Context, match *types.Match) (*types.ValidationResult, error) {
	keyID, secret, sessionToken, err := v.extractCredentials(match)
	if err != nil {
		return types.NewValidationResult(types.StatusUndetermined, 0, fmt.Sprintf("cannot validate: %v", err)), nil
	}

	client := v.stsClient
	if client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(keyID, secret, sessionToken),
			),
			awsconfig.WithRegion("us-east-1"),
		)
		if err != nil {
			return types.NewValidationResult(types.StatusUndetermined, 0, fmt.Sprintf("failed to create AWS config: %v", err)), nil
		}
		client = sts.NewFromConfig(cfg)
	}

	identity, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return types.NewValidationResult(types.StatusInvalid, 1.0, fmt.Sprintf("credentials rejected: %v", err)), nil
	}

	return types.NewValidationResult(types.StatusValid, 1.0,
		fmt.Sprintf("valid AWS credentials for account %s, principal %s",
			aws.ToString(identity.Account), aws.ToString(identity.Arn))), nil
}

var (
	awsSecretKeyNearby    = regexp.MustCompile(`(?i)aws_secret_access_key[^A-Za-z0-9/+=]{0,10}([A-Za-z0-9/+=]{40})`)
	awsSessionTokenNearby = regexp.MustCompile(`(?i)aws_session_token[^A-Za-z0-9/+=]{0,10}([A-Za-z0-9/+=]+)`)
)

// extractCredentials pairs a captured access key id with the secret
// key (and optional session token) found in the match's surrounding
// snippet. Partial credentials are an error the caller turns into
// Undetermined, never a guess.
func (v *AWSValidator) extractCredentials(match *types.Match) (keyID, secret, sessionToken string, err error) {
	switch match.RuleID {
	case ruleAWSAccessKeyID:
		keyID = string(match.CanonicalSecret())
		if keyID == "" {
			return "", "", "", fmt.Errorf("no access key id captured")
		}

		window := append(append([]byte{}, match.Snippet.After...), match.Snippet.Before...)
		secretMatch := awsSecretKeyNearby.FindSubmatch(window)
		if len(secretMatch) < 2 {
			return "", "", "", fmt.Errorf("partial credentials: no secret access key near %s", match.RuleID)
		}
		secret = string(secretMatch[1])

		if tokenMatch := awsSessionTokenNearby.FindSubmatch(window); len(tokenMatch) >= 2 {
			sessionToken = string(tokenMatch[1])
		}
		return keyID, secret, sessionToken, nil

	case ruleAWSSecretAccessKey:
		return "", "", "", fmt.Errorf("partial credentials: %s captures only the secret key", match.RuleID)

	default:
		return "", "", "", fmt.Errorf("unsupported rule id: %s", match.RuleID)
	}
}
