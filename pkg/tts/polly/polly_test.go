package polly

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	pollysvc "github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"

	"github.com/ramiroarionkoder/ArionVoicer-Skillet/pkg/tts"
)

// fakeAPI is a scripted implementation of the api interface.
type fakeAPI struct {
	synthErr  error
	audio     []byte
	synthIn   []*pollysvc.SynthesizeSpeechInput
	voicesErr error
	pages     []*pollysvc.DescribeVoicesOutput
	page      int
}

func (f *fakeAPI) SynthesizeSpeech(_ context.Context, in *pollysvc.SynthesizeSpeechInput, _ ...func(*pollysvc.Options)) (*pollysvc.SynthesizeSpeechOutput, error) {
	f.synthIn = append(f.synthIn, in)
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return &pollysvc.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(strings.NewReader(string(f.audio))),
	}, nil
}

func (f *fakeAPI) DescribeVoices(_ context.Context, _ *pollysvc.DescribeVoicesInput, _ ...func(*pollysvc.Options)) (*pollysvc.DescribeVoicesOutput, error) {
	if f.voicesErr != nil {
		return nil, f.voicesErr
	}
	out := f.pages[f.page]
	f.page++
	return out, nil
}

// apiError builds a smithy.APIError with the given code.
func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "boom"}
}

var testVoices = map[string]string{
	"es-ES": "Lucia",
	"pt-BR": "Camila",
	"it-IT": "Bianca",
}

func TestSynthesize_UnknownLanguage(t *testing.T) {
	f := &fakeAPI{audio: []byte("mp3")}
	c := newWithAPI(f, testVoices)

	_, err := c.Synthesize(context.Background(), "Hola", "xx-XX", false)
	if !errors.Is(err, tts.ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
	if len(f.synthIn) != 0 {
		t.Errorf("expected no API call for unmapped language, got %d", len(f.synthIn))
	}
}

func TestSynthesize_NeuralByDefault(t *testing.T) {
	f := &fakeAPI{audio: []byte("mp3-bytes")}
	c := newWithAPI(f, testVoices)

	audio, err := c.Synthesize(context.Background(), "Hola", "es-ES", false)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(audio) == 0 {
		t.Fatal("expected non-empty audio bytes")
	}

	in := f.synthIn[0]
	if in.Engine != pollytypes.EngineNeural {
		t.Errorf("expected neural engine, got %q", in.Engine)
	}
	if in.TextType != pollytypes.TextTypeText {
		t.Errorf("expected plain text type, got %q", in.TextType)
	}
	if got := string(in.VoiceId); got != "Lucia" {
		t.Errorf("expected voice Lucia, got %q", got)
	}
	if got := aws.ToString(in.Text); got != "Hola" {
		t.Errorf("expected text to pass through unchanged, got %q", got)
	}
}

func TestSynthesize_SlowRoutesStandardEngine(t *testing.T) {
	// The standard engine must be selected for slow requests in every
	// registered language, never neural.
	for lang := range testVoices {
		f := &fakeAPI{audio: []byte("mp3")}
		c := newWithAPI(f, testVoices)

		if _, err := c.Synthesize(context.Background(), "despacio", lang, true); err != nil {
			t.Fatalf("%s: Synthesize: %v", lang, err)
		}

		in := f.synthIn[0]
		if in.Engine != pollytypes.EngineStandard {
			t.Errorf("%s: expected standard engine for slow=true, got %q", lang, in.Engine)
		}
		if in.TextType != pollytypes.TextTypeSsml {
			t.Errorf("%s: expected SSML text type for slow=true, got %q", lang, in.TextType)
		}
		if text := aws.ToString(in.Text); !strings.Contains(text, `rate="slow"`) {
			t.Errorf("%s: expected slow prosody wrapper, got %q", lang, text)
		}
	}
}

func TestSynthesize_CredentialError(t *testing.T) {
	f := &fakeAPI{synthErr: apiError("ExpiredTokenException")}
	c := newWithAPI(f, testVoices)

	_, err := c.Synthesize(context.Background(), "Hola", "es-ES", false)
	if !errors.Is(err, tts.ErrCredentials) {
		t.Fatalf("expected ErrCredentials, got %v", err)
	}
	if errors.Is(err, tts.ErrSynthesis) {
		t.Error("credential failures must not also match ErrSynthesis")
	}
}

func TestSynthesize_APIFailureIsSynthesisError(t *testing.T) {
	f := &fakeAPI{synthErr: apiError("ThrottlingException")}
	c := newWithAPI(f, testVoices)

	_, err := c.Synthesize(context.Background(), "Hola", "es-ES", false)
	if !errors.Is(err, tts.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestSynthesize_NetworkFailureIsSynthesisError(t *testing.T) {
	f := &fakeAPI{synthErr: errors.New("dial tcp: connection refused")}
	c := newWithAPI(f, testVoices)

	_, err := c.Synthesize(context.Background(), "Hola", "es-ES", false)
	if !errors.Is(err, tts.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis for transport error, got %v", err)
	}
}

func TestVoices_Pagination(t *testing.T) {
	f := &fakeAPI{
		pages: []*pollysvc.DescribeVoicesOutput{
			{
				Voices: []pollytypes.Voice{
					{Id: "Lucia", Name: aws.String("Lucia"), LanguageCode: "es-ES",
						SupportedEngines: []pollytypes.Engine{pollytypes.EngineNeural, pollytypes.EngineStandard}},
				},
				NextToken: aws.String("page2"),
			},
			{
				Voices: []pollytypes.Voice{
					{Id: "Conchita", Name: aws.String("Conchita"), LanguageCode: "es-ES",
						SupportedEngines: []pollytypes.Engine{pollytypes.EngineStandard}},
				},
			},
		},
	}
	c := newWithAPI(f, testVoices)

	voices, err := c.Voices(context.Background(), "es-ES")
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices across pages, got %d", len(voices))
	}
	if voices[0].ID != "Lucia" || voices[1].ID != "Conchita" {
		t.Errorf("unexpected voice order: %+v", voices)
	}
	if len(voices[0].Engines) != 2 {
		t.Errorf("expected both engines for Lucia, got %v", voices[0].Engines)
	}
}

func TestSSMLSlow_EscapesText(t *testing.T) {
	got := ssmlSlow(`Tom & <Jerry>`)
	if strings.Contains(got, "<Jerry>") {
		t.Errorf("markup must be escaped, got %q", got)
	}
	if !strings.Contains(got, "Tom &amp; &lt;Jerry&gt;") {
		t.Errorf("expected escaped entities, got %q", got)
	}
	if !strings.HasPrefix(got, "<speak>") || !strings.HasSuffix(got, "</speak>") {
		t.Errorf("expected speak envelope, got %q", got)
	}
}
