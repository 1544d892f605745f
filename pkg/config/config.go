package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
)

// Environment variables recognized by confgen.
const (
	ConfigFileKey      = "CONFGEN_CONFIG"
	ServerURLKey       = "SERVER_URL"
	TokenKey           = "NGINX_TOKEN"
	BaseDomainKey      = "BASE_DOMAIN"
	StorageURLKey      = "STORAGE_URL"
	StorageBucketKey   = "STORAGE_BUCKET"
	PollIntervalKey    = "POLL_INTERVAL"
	FetchTimeoutKey    = "FETCH_TIMEOUT"
	OutputDirKey       = "OUTPUT_DIR"
	TemplatePathKey    = "TEMPLATE_PATH"
	ProtectedPrefixKey = "PROTECTED_PREFIX"
)

// Defaults for the optional settings.
const (
	DefaultPollInterval    = 10 * time.Second
	DefaultFetchTimeout    = 5 * time.Second
	DefaultOutputDir       = "/etc/nginx/conf.d"
	DefaultProtectedPrefix = "00-"
)

const missingSettingTemplate = "Required setting %s is not set.\n" +
	"Set the %s environment variable, or %q in the file named by %s."

// Config contains everything confgen needs to run. It's built once at
// startup and never changes afterwards.
type Config struct {
	// ServerURL is the base URL of the doc-thor server, without a trailing
	// slash.
	ServerURL string

	// Token authenticates confgen against the server.
	Token string

	BaseDomain    string
	StorageURL    string
	StorageBucket string

	PollInterval time.Duration
	FetchTimeout time.Duration

	// OutputDir is the directory the generated files are written to. It must
	// already exist.
	OutputDir string

	// TemplatePath is the template used to render each project. If empty,
	// the built-in server-block template is used.
	TemplatePath string

	// ProtectedPrefix marks files in OutputDir that are managed by someone
	// else.
	ProtectedPrefix string
}

// Mocked out for unit testing. Tests replace fs with afero.NewMemMapFs().
var (
	fs            = afero.NewOsFs()
	lookupEnv     = os.LookupEnv
	homedirExpand = homedir.Expand
)

// Load builds the Config from the optional config file and the environment.
// Environment variables take precedence over the file.
func Load() (Config, error) {
	var file File
	if path, ok := lookupEnv(ConfigFileKey); ok && path != "" {
		expanded, err := homedirExpand(path)
		if err != nil {
			return Config{}, errors.WithContext(err, "expand config path")
		}

		file, err = ParseFile(expanded)
		if err != nil {
			return Config{}, errors.WithContext(err, "parse config file")
		}
	}

	cfg := Config{
		ServerURL:       strings.TrimRight(stringSetting(ServerURLKey, file.ServerURL), "/"),
		Token:           stringSetting(TokenKey, file.Token),
		BaseDomain:      stringSetting(BaseDomainKey, file.BaseDomain),
		StorageURL:      strings.TrimRight(stringSetting(StorageURLKey, file.StorageURL), "/"),
		StorageBucket:   stringSetting(StorageBucketKey, file.StorageBucket),
		OutputDir:       stringSetting(OutputDirKey, file.OutputDir),
		TemplatePath:    stringSetting(TemplatePathKey, file.TemplatePath),
		ProtectedPrefix: stringSetting(ProtectedPrefixKey, file.ProtectedPrefix),
	}

	var err error
	cfg.PollInterval, err = secondsSetting(PollIntervalKey, file.PollInterval, DefaultPollInterval)
	if err != nil {
		return Config{}, err
	}

	cfg.FetchTimeout, err = secondsSetting(FetchTimeoutKey, file.FetchTimeout, DefaultFetchTimeout)
	if err != nil {
		return Config{}, err
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if _, ok := lookupEnv(ProtectedPrefixKey); !ok && file.ProtectedPrefix == "" {
		cfg.ProtectedPrefix = DefaultProtectedPrefix
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	required := []struct {
		envKey, fileKey, value string
	}{
		{ServerURLKey, "serverURL", cfg.ServerURL},
		{TokenKey, "token", cfg.Token},
		{BaseDomainKey, "baseDomain", cfg.BaseDomain},
		{StorageURLKey, "storageURL", cfg.StorageURL},
		{StorageBucketKey, "storageBucket", cfg.StorageBucket},
	}
	for _, setting := range required {
		if setting.value == "" {
			return errors.NewFriendlyError(missingSettingTemplate, setting.envKey,
				setting.envKey, setting.fileKey, ConfigFileKey)
		}
	}

	if cfg.ProtectedPrefix == "" {
		return errors.NewFriendlyError("%s must not be empty. "+
			"Without it, externally managed files can't be told apart.", ProtectedPrefixKey)
	}

	isDir, err := afero.DirExists(fs, cfg.OutputDir)
	if err != nil {
		return errors.WithContext(err, "stat output directory")
	}
	if !isDir {
		return errors.WithContext(errors.FileNotFound{Path: cfg.OutputDir}, "output directory")
	}
	return nil
}

func stringSetting(envKey, fromFile string) string {
	if v, ok := lookupEnv(envKey); ok {
		return v
	}
	return fromFile
}

func secondsSetting(envKey string, fromFile int, fallback time.Duration) (time.Duration, error) {
	seconds := fromFile
	if v, ok := lookupEnv(envKey); ok && v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, errors.NewFriendlyError("%s must be a whole number of seconds, got %q.", envKey, v)
		}
		seconds = parsed
	} else if fromFile == 0 {
		return fallback, nil
	}

	if seconds <= 0 {
		return 0, errors.NewFriendlyError("%s must be positive, got %d.", envKey, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// String describes the configuration without the token, for logging.
func (cfg Config) String() string {
	return fmt.Sprintf("server=%s domain=%s storage=%s/%s dir=%s interval=%s",
		cfg.ServerURL, cfg.BaseDomain, cfg.StorageURL, cfg.StorageBucket,
		cfg.OutputDir, cfg.PollInterval)
}
