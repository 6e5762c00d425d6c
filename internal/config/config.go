// Package config provides the configuration schema and loader for the
// ArionVoicer recognition service.
package config

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
//
// Everything the original deployment hardcoded — credential profile, default
// language, model/grammar/voice mappings — is an explicit field here.
type Config struct {
	Server ServerConfig `yaml:"server"`
	AWS    AWSConfig    `yaml:"aws"`

	// DefaultLanguage is the language selected at startup. Must match the
	// code of one configured language.
	DefaultLanguage string `yaml:"default_language"`

	// Languages lists every supported language with its model, grammar, and
	// cloud voice binding.
	Languages []LanguageConfig `yaml:"languages"`

	Audio AudioConfig `yaml:"audio"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the web UI listens on. Default ":8501".
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// AWSConfig selects the cloud credential profile and region used for
// synthesis.
type AWSConfig struct {
	// Profile is the shared-config credential profile name. Empty uses the
	// default AWS resolution chain.
	Profile string `yaml:"profile"`

	// Region is the AWS region for the Polly endpoint (e.g. "us-east-1").
	Region string `yaml:"region"`
}

// LanguageConfig binds one language to its acoustic model, name list, and
// cloud voice.
type LanguageConfig struct {
	// Code is the BCP-47 language tag (e.g. "es-ES", "pt-BR").
	Code string `yaml:"code"`

	// ModelDir is the path to the acoustic model bundle for this language.
	ModelDir string `yaml:"model_dir"`

	// GrammarFile is the path to the newline-delimited name list.
	GrammarFile string `yaml:"grammar_file"`

	// VoiceID is the cloud provider's voice identifier for this language
	// (e.g. "Lucia").
	VoiceID string `yaml:"voice_id"`
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	// Cycles are the capture parameter sets tried across recognition
	// attempts, in order. When empty, [DefaultCycles] applies.
	Cycles []CaptureCycle `yaml:"cycles"`
}

// CaptureCycle is one capture parameter set: a retry with a different
// sample rate and block size sometimes succeeds where the previous attempt
// misheard.
type CaptureCycle struct {
	// SampleRate is the capture rate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// BlockSize is the number of samples per frame.
	BlockSize int `yaml:"block_size"`
}

// DefaultCycles are the capture parameter sets used when audio.cycles is not
// configured.
var DefaultCycles = []CaptureCycle{
	{SampleRate: 16000, BlockSize: 2048},
	{SampleRate: 32000, BlockSize: 4096},
	{SampleRate: 44100, BlockSize: 8192},
}

// DefaultListenAddr is the address the web UI binds when server.listen_addr
// is not set.
const DefaultListenAddr = ":8501"

// VoiceMap returns the static language → voice identifier mapping.
func (c *Config) VoiceMap() map[string]string {
	m := make(map[string]string, len(c.Languages))
	for _, l := range c.Languages {
		m[l.Code] = l.VoiceID
	}
	return m
}

// Language returns the configuration for code, or false when unregistered.
func (c *Config) Language(code string) (LanguageConfig, bool) {
	for _, l := range c.Languages {
		if l.Code == code {
			return l, true
		}
	}
	return LanguageConfig{}, false
}

// Cycles returns the configured capture cycles, falling back to
// [DefaultCycles].
func (c *Config) Cycles() []CaptureCycle {
	if len(c.Audio.Cycles) > 0 {
		return c.Audio.Cycles
	}
	return DefaultCycles
}

// ListenAddr returns the configured listen address, falling back to
// [DefaultListenAddr].
func (c *Config) ListenAddr() string {
	if c.Server.ListenAddr != "" {
		return c.Server.ListenAddr
	}
	return DefaultListenAddr
}
