package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/avandyck/rostrum/internal/debate"
)

// Manifest is the YAML description of a debate accepted by `rostrum run
// --file` and `rostrum new --file`. Credentials can be given inline or, more
// usually, pulled from the environment via api_key_env. Top-level api_key_env
// and model act as fallbacks for every participant that does not set its own.
type Manifest struct {
	Topic      string          `yaml:"topic"`
	Background string          `yaml:"background"`
	Rounds     int             `yaml:"rounds"`
	APIKeyEnv  string          `yaml:"api_key_env"`
	Model      string          `yaml:"model"`
	Pro        ManifestEntry   `yaml:"pro"`
	Con        ManifestEntry   `yaml:"con"`
	Judges     []ManifestJudge `yaml:"judges"`
}

// ManifestEntry holds one participant's credential source.
type ManifestEntry struct {
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// ManifestJudge names a panel member.
type ManifestJudge struct {
	Name          string `yaml:"name"`
	ManifestEntry `yaml:",inline"`
}

// LoadManifest reads and parses a debate manifest. Unknown fields are
// rejected so a typo like "topci" fails loudly instead of silently producing
// an invalid request.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Request turns the manifest into a session request, resolving env-sourced
// credentials. defaultRounds applies when the manifest sets no round count;
// a missing judges section gets a default panel named judge-1 through
// judge-6 on the fallback credential.
func (m *Manifest) Request(defaultRounds int) (debate.NewSessionRequest, error) {
	req := debate.NewSessionRequest{
		Topic:      m.Topic,
		Background: m.Background,
		MaxRounds:  m.Rounds,
	}
	if req.MaxRounds == 0 {
		req.MaxRounds = defaultRounds
	}

	var err error
	if req.Pro, err = m.resolve(m.Pro, "pro"); err != nil {
		return req, err
	}
	if req.Con, err = m.resolve(m.Con, "con"); err != nil {
		return req, err
	}

	judges := m.Judges
	if len(judges) == 0 {
		judges = make([]ManifestJudge, debate.PanelSize)
		for i := range judges {
			judges[i].Name = fmt.Sprintf("judge-%d", i+1)
		}
	}
	req.Judges = make([]debate.JudgeConfig, len(judges))
	for i, judge := range judges {
		cred, err := m.resolve(judge.ManifestEntry, fmt.Sprintf("judge %q", judge.Name))
		if err != nil {
			return req, err
		}
		req.Judges[i] = debate.JudgeConfig{Name: judge.Name, Credential: cred}
	}
	return req, nil
}

// resolve produces a credential for one participant: an inline key wins,
// then the participant's env var, then the manifest-wide fallback env var.
func (m *Manifest) resolve(entry ManifestEntry, who string) (debate.Credential, error) {
	cred := debate.Credential{APIKey: entry.APIKey, Model: entry.Model}
	if cred.Model == "" {
		cred.Model = m.Model
	}
	if cred.APIKey != "" {
		return cred, nil
	}

	envName := entry.APIKeyEnv
	if envName == "" {
		envName = m.APIKeyEnv
	}
	if envName == "" {
		return cred, fmt.Errorf("no api_key or api_key_env for %s", who)
	}
	cred.APIKey = os.Getenv(envName)
	if cred.APIKey == "" {
		return cred, fmt.Errorf("environment variable %s for %s is empty", envName, who)
	}
	return cred, nil
}
