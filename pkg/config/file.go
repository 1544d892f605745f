package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
)

const (
	// InitialFileVersion is the first version of the confgen config file.
	// Files that do not specify a version default to this version.
	InitialFileVersion = "v1alpha1"

	// SupportedFileVersion is the config file version understood by this
	// binary.
	SupportedFileVersion = "v1alpha1"
)

// parseConfigErrTemplate is a template for when confgen fails to parse its
// config file. The yaml library constructs errors in a way that loses
// context, so we can only pass the error message on.
const parseConfigErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the config file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// File is the optional YAML config file. Every field mirrors an environment
// variable, and the environment variable wins when both are set. Intervals
// are in seconds.
type File struct {
	Version         string `json:"version,omitempty"`
	ServerURL       string `json:"serverURL,omitempty"`
	Token           string `json:"token,omitempty"`
	BaseDomain      string `json:"baseDomain,omitempty"`
	StorageURL      string `json:"storageURL,omitempty"`
	StorageBucket   string `json:"storageBucket,omitempty"`
	PollInterval    int    `json:"pollInterval,omitempty"`
	FetchTimeout    int    `json:"fetchTimeout,omitempty"`
	OutputDir       string `json:"outputDir,omitempty"`
	TemplatePath    string `json:"templatePath,omitempty"`
	ProtectedPrefix string `json:"protectedPrefix,omitempty"`
}

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The configuration file %q is incompatible "+
		"with this version of confgen.\n"+
		"Expected version %q, but got %q.", err.path, err.exp, err.actual)
}

// ParseFile reads the config file at `path`.
func ParseFile(path string) (File, error) {
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, errors.FileNotFound{Path: path}
		}
		return File{}, errors.WithContext(err, "read file")
	}

	file := File{Version: InitialFileVersion}
	if err := yaml.Unmarshal(configBytes, &file); err != nil {
		return File{}, errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	if file.Version != SupportedFileVersion {
		return File{}, incompatibleVersionError{path, SupportedFileVersion, file.Version}
	}

	// Do a strict unmarshal to check for any extra fields. We do a non-strict
	// unmarshal first so that we can catch version errors before erroring on
	// extra fields.
	if err := yaml.UnmarshalStrict(configBytes, &file, yaml.DisallowUnknownFields); err != nil {
		return File{}, errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}
	return file, nil
}
