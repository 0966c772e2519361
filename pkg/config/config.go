// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/pkg/auth"
	"github.com/livekit/recording-gateway/pkg/recording"
	"github.com/livekit/recording-gateway/pkg/utils"
)

const (
	generatedCLIFlagUsage = "generated"
	generatedEnvPrefix    = "GATEWAY_"

	loggerName = "recording-gateway"
)

var (
	ErrKeyFileIncorrectPermission = errors.New("key file others permissions must be set to 0")
	ErrSigningNotConfigured       = errors.New("api key and secret are not configured")
	ErrRecordingNotConfigured     = errors.New("recording is not configured")
)

type Config struct {
	Port           uint32            `yaml:"port,omitempty"`
	BindAddresses  []string          `yaml:"bind_addresses,omitempty"`
	PrometheusPort uint32            `yaml:"prometheus_port,omitempty"`
	APIKey         string            `yaml:"api_key,omitempty"`
	APISecret      string            `yaml:"api_secret,omitempty"`
	KeyFile        string            `yaml:"key_file,omitempty"`
	Keys           map[string]string `yaml:"keys,omitempty"`
	// url of the LiveKit deployment, ws(s):// or http(s)://
	LiveKitURL string          `yaml:"livekit_url,omitempty"`
	Recording  RecordingConfig `yaml:"recording,omitempty"`
	Redis      RedisConfig     `yaml:"redis,omitempty"`
	CORS       CORSConfig      `yaml:"cors,omitempty"`
	Logging    LoggingConfig   `yaml:"logging,omitempty"`

	Development bool `yaml:"development,omitempty"`
}

type RecordingConfig struct {
	// prefix of the blob path recordings are written to
	FilePrefix string `yaml:"file_prefix,omitempty"`
	// timeout for a single call to the egress API
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	// require a join token for the room on recording requests
	RequireToken bool        `yaml:"require_token,omitempty"`
	Azure        AzureConfig `yaml:"azure,omitempty"`
}

type AzureConfig struct {
	AccountName   string `yaml:"account_name,omitempty"`
	AccountKey    string `yaml:"account_key,omitempty"`
	ContainerName string `yaml:"container_name,omitempty"`
}

type RedisConfig struct {
	Address  string `yaml:"address,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

type LoggingConfig struct {
	logger.Config `yaml:",inline"`
}

var DefaultConfig = Config{
	Port: 7880,
	Recording: RecordingConfig{
		FilePrefix:     recording.DefaultFilePrefix,
		RequestTimeout: 30 * time.Second,
	},
	CORS: CORSConfig{
		AllowedOrigins: []string{"*"},
	},
	Keys: map[string]string{},
}

func NewConfig(confString string, strictMode bool, c *cli.Context, baseFlags []cli.Flag) (*Config, error) {
	// start with defaults
	marshalled, err := yaml.Marshal(&DefaultConfig)
	if err != nil {
		return nil, err
	}

	var conf Config
	err = yaml.Unmarshal(marshalled, &conf)
	if err != nil {
		return nil, err
	}

	if confString != "" {
		decoder := yaml.NewDecoder(strings.NewReader(confString))
		decoder.KnownFields(strictMode)
		if err := decoder.Decode(&conf); err != nil {
			return nil, fmt.Errorf("could not parse config: %v", err)
		}
	}

	if c != nil {
		if err := conf.updateFromCLI(c, baseFlags); err != nil {
			return nil, err
		}
	}

	// expand env vars in filenames
	file, err := homedir.Expand(os.ExpandEnv(conf.KeyFile))
	if err != nil {
		return nil, err
	}
	conf.KeyFile = file

	if conf.Logging.Level == "" && conf.Development {
		conf.Logging.Level = "debug"
	}
	if conf.Keys == nil {
		conf.Keys = map[string]string{}
	}

	return &conf, nil
}

// ResolveKeys loads the key file and settles on the key pair used for signing. An
// incomplete pair is not an error here, it is reported on each request that needs it.
func (conf *Config) ResolveKeys() error {
	if conf.KeyFile != "" {
		var otherFilter os.FileMode = 0o007
		if st, err := os.Stat(conf.KeyFile); err != nil {
			return err
		} else if st.Mode().Perm()&otherFilter != 0o000 {
			return ErrKeyFileIncorrectPermission
		}
		f, err := os.Open(conf.KeyFile)
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		p, err := auth.NewFileBasedKeyProvider(f)
		if err != nil {
			return err
		}
		for key, secret := range p.Keys() {
			conf.Keys[key] = secret
		}
	}

	if conf.APIKey != "" && conf.APISecret != "" {
		conf.Keys[conf.APIKey] = conf.APISecret
	}
	if conf.APIKey == "" && len(conf.Keys) == 1 {
		for key := range conf.Keys {
			conf.APIKey = key
		}
	}
	if conf.APIKey != "" && conf.APISecret == "" {
		conf.APISecret = conf.Keys[conf.APIKey]
	}

	if !conf.Development && len(conf.APISecret) > 0 && len(conf.APISecret) < 32 {
		logger.Warnw("secret is too short, should be at least 32 characters for security", nil, "apiKey", conf.APIKey)
	}
	return nil
}

// SigningConfigured reports whether join tokens can be issued.
func (conf *Config) SigningConfigured() error {
	if conf.APIKey == "" || conf.APISecret == "" {
		return ErrSigningNotConfigured
	}
	return nil
}

// RecordingConfigured reports whether egress requests can be made. The returned error
// names the missing settings, never their values.
func (conf *Config) RecordingConfigured() error {
	var missing []string
	if conf.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if conf.APISecret == "" {
		missing = append(missing, "api_secret")
	}
	if conf.LiveKitURL == "" {
		missing = append(missing, "livekit_url")
	}
	if conf.Recording.Azure.AccountName == "" {
		missing = append(missing, "recording.azure.account_name")
	}
	if conf.Recording.Azure.AccountKey == "" {
		missing = append(missing, "recording.azure.account_key")
	}
	if conf.Recording.Azure.ContainerName == "" {
		missing = append(missing, "recording.azure.container_name")
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrRecordingNotConfigured, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (conf *Config) KeyProvider() auth.KeyProvider {
	return auth.NewFileBasedKeyProviderFromMap(conf.Keys)
}

// ClientURL is the url browsers connect to with an issued token.
func (conf *Config) ClientURL() string {
	return utils.ToWebSocketURL(conf.LiveKitURL)
}

func (conf *Config) APIURL() string {
	return utils.ToHttpURL(conf.LiveKitURL)
}

type configNode struct {
	TypeNode  reflect.Value
	TagPrefix string
}

func (conf *Config) ToCLIFlagNames(existingFlags []cli.Flag) map[string]reflect.Value {
	existingFlagNames := map[string]bool{}
	for _, flag := range existingFlags {
		for _, flagName := range flag.Names() {
			existingFlagNames[flagName] = true
		}
	}

	flagNames := map[string]reflect.Value{}
	var currNode configNode
	nodes := []configNode{{reflect.ValueOf(conf).Elem(), ""}}
	for len(nodes) > 0 {
		currNode, nodes = nodes[0], nodes[1:]
		for i := 0; i < currNode.TypeNode.NumField(); i++ {
			// inspect yaml tag from struct field to get path
			field := currNode.TypeNode.Type().Field(i)
			yamlTagArray := strings.SplitN(field.Tag.Get("yaml"), ",", 2)
			yamlTag := yamlTagArray[0]
			isInline := false
			if len(yamlTagArray) > 1 && yamlTagArray[1] == "inline" {
				isInline = true
			}
			if (yamlTag == "" && (!isInline || currNode.TagPrefix == "")) || yamlTag == "-" {
				continue
			}
			yamlPath := yamlTag
			if currNode.TagPrefix != "" {
				if isInline {
					yamlPath = currNode.TagPrefix
				} else {
					yamlPath = fmt.Sprintf("%s.%s", currNode.TagPrefix, yamlTag)
				}
			}
			if existingFlagNames[yamlPath] {
				continue
			}

			// map flag name to value
			value := currNode.TypeNode.Field(i)
			if value.Kind() == reflect.Struct {
				nodes = append(nodes, configNode{value, yamlPath})
			} else {
				flagNames[yamlPath] = value
			}
		}
	}

	return flagNames
}

func GenerateCLIFlags(existingFlags []cli.Flag, hidden bool) ([]cli.Flag, error) {
	blankConfig := &Config{}
	flagNames := blankConfig.ToCLIFlagNames(existingFlags)
	names := make([]string, 0, len(flagNames))
	for name := range flagNames {
		names = append(names, name)
	}
	sort.Strings(names)

	flags := make([]cli.Flag, 0, len(names))
	for _, name := range names {
		value := flagNames[name]
		kind := value.Kind()
		if kind == reflect.Ptr {
			kind = value.Type().Elem().Kind()
		}

		var flag cli.Flag
		envVar := generatedEnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_").Replace(name))

		switch kind {
		case reflect.Bool:
			flag = &cli.BoolFlag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.String:
			flag = &cli.StringFlag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Int, reflect.Int32:
			flag = &cli.IntFlag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Int64:
			if value.Type() == reflect.TypeOf(time.Duration(0)) {
				flag = &cli.DurationFlag{
					Name:    name,
					EnvVars: []string{envVar},
					Usage:   generatedCLIFlagUsage,
					Hidden:  hidden,
				}
				break
			}
			flag = &cli.Int64Flag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Uint8, reflect.Uint16, reflect.Uint32:
			flag = &cli.UintFlag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Uint64:
			flag = &cli.Uint64Flag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Float32, reflect.Float64:
			flag = &cli.Float64Flag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Slice, reflect.Map, reflect.Struct, reflect.Interface:
			continue
		default:
			return flags, fmt.Errorf("cli flag generation unsupported for config type: %s is a %s", name, kind.String())
		}

		flags = append(flags, flag)
	}

	return flags, nil
}

func (conf *Config) updateFromCLI(c *cli.Context, baseFlags []cli.Flag) error {
	generatedFlagNames := conf.ToCLIFlagNames(baseFlags)
	for _, flag := range c.App.Flags {
		flagName := flag.Names()[0]
		if !c.IsSet(flagName) {
			continue
		}

		configValue, ok := generatedFlagNames[flagName]
		if !ok {
			continue
		}

		kind := configValue.Kind()
		if kind == reflect.Ptr {
			// instantiate value to be set
			configValue.Set(reflect.New(configValue.Type().Elem()))

			kind = configValue.Type().Elem().Kind()
			configValue = configValue.Elem()
		}

		switch kind {
		case reflect.Bool:
			configValue.SetBool(c.Bool(flagName))
		case reflect.String:
			configValue.SetString(c.String(flagName))
		case reflect.Int, reflect.Int32:
			configValue.SetInt(int64(c.Int(flagName)))
		case reflect.Int64:
			if configValue.Type() == reflect.TypeOf(time.Duration(0)) {
				configValue.SetInt(int64(c.Duration(flagName)))
			} else {
				configValue.SetInt(c.Int64(flagName))
			}
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			configValue.SetUint(c.Uint64(flagName))
		case reflect.Float32, reflect.Float64:
			configValue.SetFloat(c.Float64(flagName))
		default:
			return fmt.Errorf("unsupported generated cli flag type for config: %s is a %s", flagName, kind.String())
		}
	}

	if c.IsSet("dev") {
		conf.Development = c.Bool("dev")
	}
	if c.IsSet("bind") {
		conf.BindAddresses = c.StringSlice("bind")
	}
	if c.IsSet("key-file") {
		conf.KeyFile = c.String("key-file")
	}
	if c.IsSet("keys") {
		if err := conf.unmarshalKeys(c.String("keys")); err != nil {
			return errors.New("could not parse keys, it needs to be exactly, \"key: secret\", including the space")
		}
	}
	if c.IsSet("api-key") {
		conf.APIKey = c.String("api-key")
	}
	if c.IsSet("api-secret") {
		conf.APISecret = c.String("api-secret")
	}
	if c.IsSet("livekit-url") {
		conf.LiveKitURL = c.String("livekit-url")
	}
	if c.IsSet("azure-account-name") {
		conf.Recording.Azure.AccountName = c.String("azure-account-name")
	}
	if c.IsSet("azure-account-key") {
		conf.Recording.Azure.AccountKey = c.String("azure-account-key")
	}
	if c.IsSet("azure-container") {
		conf.Recording.Azure.ContainerName = c.String("azure-container")
	}
	if c.IsSet("redis-host") {
		conf.Redis.Address = c.String("redis-host")
	}
	if c.IsSet("redis-password") {
		conf.Redis.Password = c.String("redis-password")
	}
	if c.IsSet("allowed-origin") {
		conf.CORS.AllowedOrigins = c.StringSlice("allowed-origin")
	}
	return nil
}

func (conf *Config) unmarshalKeys(keys string) error {
	temp := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(keys), temp); err != nil {
		return err
	}

	conf.Keys = make(map[string]string, len(temp))

	for key, val := range temp {
		if secret, ok := val.(string); ok {
			conf.Keys[key] = secret
		}
	}
	return nil
}

func InitLoggerFromConfig(config *LoggingConfig) {
	logger.InitFromConfig(config.Config, loggerName)
}
