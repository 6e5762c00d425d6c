// Package polly implements the tts.Synthesizer interface on top of AWS
// Polly via the aws-sdk-go-v2 service client.
//
// Credentials come from the standard AWS resolution chain (environment,
// shared config profile, instance role). The profile name is configuration,
// not a hardcoded constant, so deployments can pin a dedicated credential
// profile without code changes.
package polly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	pollysvc "github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts"
)

// defaultRegion is the fallback region when none is configured.
const defaultRegion = "us-east-1"

// api is the subset of the Polly client used by this package. It exists so
// tests can substitute a scripted implementation.
type api interface {
	SynthesizeSpeech(ctx context.Context, in *pollysvc.SynthesizeSpeechInput, optFns ...func(*pollysvc.Options)) (*pollysvc.SynthesizeSpeechOutput, error)
	DescribeVoices(ctx context.Context, in *pollysvc.DescribeVoicesInput, optFns ...func(*pollysvc.Options)) (*pollysvc.DescribeVoicesOutput, error)
}

// Compile-time assertion that Client satisfies tts.Synthesizer.
var _ tts.Synthesizer = (*Client)(nil)

// Config holds the settings needed to build a Client.
type Config struct {
	// Profile is the shared-config credential profile name. Empty means the
	// default AWS resolution chain.
	Profile string

	// Region is the AWS region for the Polly endpoint. Empty means
	// us-east-1.
	Region string

	// Voices is the static language → voice identifier mapping, fixed at
	// construction.
	Voices map[string]string
}

// Client implements tts.Synthesizer backed by AWS Polly.
type Client struct {
	api    api
	voices map[string]string
}

// New loads the AWS configuration for cfg.Profile/cfg.Region and returns a
// ready Client. Loading the configuration does not validate credentials;
// authentication failures surface on the first API call as
// [tts.ErrCredentials].
func New(ctx context.Context, cfg Config) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("polly: load aws config: %w", err)
	}

	return newWithAPI(pollysvc.NewFromConfig(awsCfg), cfg.Voices), nil
}

// newWithAPI wires a Client around an arbitrary api implementation.
// Tests use this to avoid real AWS calls.
func newWithAPI(a api, voices map[string]string) *Client {
	v := make(map[string]string, len(voices))
	for lang, id := range voices {
		v[lang] = id
	}
	return &Client{api: a, voices: v}
}

// Synthesize renders text with the voice mapped to lang. The neural engine
// is requested by default; slow routes through the standard engine with an
// SSML prosody wrapper, because neural voices reject the slow rate.
func (c *Client) Synthesize(ctx context.Context, text, lang string, slow bool) ([]byte, error) {
	voiceID, ok := c.voices[lang]
	if !ok {
		return nil, fmt.Errorf("polly: language %q: %w", lang, tts.ErrUnknownLanguage)
	}

	in := &pollysvc.SynthesizeSpeechInput{
		OutputFormat: pollytypes.OutputFormatMp3,
		VoiceId:      pollytypes.VoiceId(voiceID),
		LanguageCode: pollytypes.LanguageCode(lang),
		Engine:       pollytypes.EngineNeural,
		Text:         aws.String(text),
		TextType:     pollytypes.TextTypeText,
	}
	if slow {
		in.Engine = pollytypes.EngineStandard
		in.Text = aws.String(ssmlSlow(text))
		in.TextType = pollytypes.TextTypeSsml
	}

	out, err := c.api.SynthesizeSpeech(ctx, in)
	if err != nil {
		return nil, classify(err)
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("polly: read audio stream: %w: %w", tts.ErrSynthesis, err)
	}
	return audio, nil
}

// Voices lists the Polly catalogue for lang, following pagination.
func (c *Client) Voices(ctx context.Context, lang string) ([]tts.Voice, error) {
	var (
		voices []tts.Voice
		token  *string
	)
	for {
		out, err := c.api.DescribeVoices(ctx, &pollysvc.DescribeVoicesInput{
			LanguageCode: pollytypes.LanguageCode(lang),
			NextToken:    token,
		})
		if err != nil {
			return nil, classify(err)
		}
		for _, v := range out.Voices {
			engines := make([]string, 0, len(v.SupportedEngines))
			for _, e := range v.SupportedEngines {
				engines = append(engines, string(e))
			}
			voices = append(voices, tts.Voice{
				ID:       string(v.Id),
				Name:     aws.ToString(v.Name),
				Language: string(v.LanguageCode),
				Engines:  engines,
			})
		}
		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return voices, nil
}

// credentialErrorCodes are the Polly/STS error codes that indicate the
// caller's credentials are the problem, not the request.
var credentialErrorCodes = map[string]bool{
	"UnrecognizedClientException":    true,
	"ExpiredTokenException":          true,
	"InvalidSignatureException":      true,
	"AccessDeniedException":          true,
	"MissingAuthenticationToken":     true,
	"IncompleteSignatureException":   true,
	"SignatureDoesNotMatchException": true,
}

// classify maps an AWS SDK error onto the tts error kinds. Credential
// problems become ErrCredentials; everything else (throttling, invalid SSML,
// network failure) becomes ErrSynthesis.
func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && credentialErrorCodes[apiErr.ErrorCode()] {
		return fmt.Errorf("polly: %w: %w", tts.ErrCredentials, err)
	}
	return fmt.Errorf("polly: %w: %w", tts.ErrSynthesis, err)
}

// ssmlReplacer escapes the characters with meaning inside an SSML document.
var ssmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// ssmlSlow wraps plain text in an SSML prosody element at the slow rate.
func ssmlSlow(text string) string {
	return `<speak><prosody rate="slow">` + ssmlReplacer.Replace(text) + `</prosody></speak>`
}
