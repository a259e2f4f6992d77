package config

import (
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/psirt-checker/utils"
)

const (
	DefaultTokenURL    = "https://cloudsso.cisco.com/as/token.oauth2"
	DefaultAdvisoryURL = "https://api.cisco.com/security/advisories/ios/"
	DefaultInput       = "vuln_checker_input.csv"
	DefaultOutput      = "vuln_checker_output.csv"

	CompareLexical  = "lexical"
	CompareSemantic = "semantic"
)

// Config holds everything the token acquirer, fetcher and reporters need.
// Values are layered: defaults, then the YAML file, then environment.
type Config struct {
	TokenURL       string `yaml:"token_url"`
	AdvisoryURL    string `yaml:"advisory_url"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	Proxy          string `yaml:"proxy"`
	VerifyTLS      bool   `yaml:"verify_tls"`
	Debug          bool   `yaml:"debug"`
	Detail         bool   `yaml:"detail"`
	Concurrency    int    `yaml:"concurrency"`
	Progress       bool   `yaml:"progress"`
	Input          string `yaml:"input"`
	Output         string `yaml:"output"`
	JSONOutput     string `yaml:"json_output"`
	VersionCompare string `yaml:"version_compare"`
}

func Default() Config {
	return Config{
		TokenURL:       DefaultTokenURL,
		AdvisoryURL:    DefaultAdvisoryURL,
		VerifyTLS:      true,
		Detail:         true,
		Concurrency:    1,
		Input:          DefaultInput,
		Output:         DefaultOutput,
		VersionCompare: CompareLexical,
	}
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. An empty path skips the file.
func Load(fs afero.Fs, path string) (Config, error) {
	c := Default()

	if path != "" {
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return Config{}, xerrors.Errorf("unable to read config %s: %w", path, err)
		}
		if err = yaml.UnmarshalStrict(b, &c); err != nil {
			return Config{}, xerrors.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	c.TokenURL = utils.LookupEnv("PSIRT_TOKEN_URL", c.TokenURL)
	c.AdvisoryURL = utils.LookupEnv("PSIRT_ADVISORY_URL", c.AdvisoryURL)
	c.ClientID = utils.LookupEnv("PSIRT_CLIENT_ID", c.ClientID)
	c.ClientSecret = utils.LookupEnv("PSIRT_CLIENT_SECRET", c.ClientSecret)
	c.Proxy = utils.LookupEnv("PSIRT_PROXY", c.Proxy)
	c.VerifyTLS = utils.LookupEnvBool("PSIRT_VERIFY_TLS", c.VerifyTLS)
	c.Debug = utils.LookupEnvBool("PSIRT_DEBUG", c.Debug)
	if v := utils.LookupEnv("PSIRT_CONCURRENCY", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Warnf("Ignoring PSIRT_CONCURRENCY=%q: not an integer", v)
		} else {
			c.Concurrency = n
		}
	}
}

func (c Config) Validate() error {
	switch {
	case c.ClientID == "" || c.ClientSecret == "":
		return xerrors.New("client_id and client_secret must be set (PSIRT_CLIENT_ID, PSIRT_CLIENT_SECRET)")
	case c.TokenURL == "":
		return xerrors.New("token_url must not be empty")
	case c.AdvisoryURL == "":
		return xerrors.New("advisory_url must not be empty")
	case c.Concurrency < 1:
		return xerrors.Errorf("concurrency must be positive: %d", c.Concurrency)
	case c.Input == "" || c.Output == "":
		return xerrors.New("input and output must not be empty")
	}

	if c.VersionCompare != CompareLexical && c.VersionCompare != CompareSemantic {
		return xerrors.Errorf("unknown version_compare %q (lexical, semantic)", c.VersionCompare)
	}
	return nil
}
