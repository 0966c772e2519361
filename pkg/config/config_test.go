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
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/pkg/config/configtest"
)

func TestConfig_UnmarshalKeys(t *testing.T) {
	conf, err := NewConfig("", true, nil, nil)
	require.NoError(t, err)

	require.NoError(t, conf.unmarshalKeys("key1: secret1"))
	require.Equal(t, "secret1", conf.Keys["key1"])
}

func TestConfig_DefaultsKept(t *testing.T) {
	const content = `recording:
  file_prefix: calls`
	conf, err := NewConfig(content, true, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "calls", conf.Recording.FilePrefix)
	require.Equal(t, 30*time.Second, conf.Recording.RequestTimeout)
	require.Equal(t, uint32(7880), conf.Port)
	require.Equal(t, []string{"*"}, conf.CORS.AllowedOrigins)
}

func TestConfig_UnknownKeys(t *testing.T) {
	const content = `unknown: 10
recording:
  file_prefix: calls`
	_, err := NewConfig(content, true, nil, nil)
	require.Error(t, err)

	_, err = NewConfig(content, false, nil, nil)
	require.NoError(t, err)
}

func TestConfig_TokenValidityFixed(t *testing.T) {
	_, err := NewConfig("token:\n  valid_for: 1h", true, nil, nil)
	require.Error(t, err)
}

func TestInitLoggerFromConfig(t *testing.T) {
	conf, err := NewConfig("logging:\n  level: debug", true, nil, nil)
	require.NoError(t, err)
	InitLoggerFromConfig(&conf.Logging)
	require.NotNil(t, logger.GetLogger())
}

func TestConfig_YAMLTags(t *testing.T) {
	require.NoError(t, configtest.CheckYAMLTags(Config{}))
}

func TestGeneratedFlags(t *testing.T) {
	generatedFlags, err := GenerateCLIFlags(nil, false)
	require.NoError(t, err)

	app := cli.NewApp()
	app.Flags = append(app.Flags, generatedFlags...)

	set := flag.NewFlagSet("test", 0)
	set.Bool("development", false, "")                   // bool
	set.String("redis.address", "", "")                  // string
	set.Uint("prometheus_port", 0, "")                   // uint32
	set.Duration("recording.request_timeout", 0, "")     // duration
	set.String("recording.azure.container_name", "", "") // nested
	require.NoError(t, set.Parse([]string{
		"--development",
		"--redis.address", "localhost:6379",
		"--prometheus_port", "9999",
		"--recording.request_timeout", "5s",
		"--recording.azure.container_name", "calls",
	}))

	c := cli.NewContext(app, set, nil)
	conf, err := NewConfig("", true, c, nil)
	require.NoError(t, err)

	require.True(t, conf.Development)
	require.Equal(t, "localhost:6379", conf.Redis.Address)
	require.Equal(t, uint32(9999), conf.PrometheusPort)
	require.Equal(t, 5*time.Second, conf.Recording.RequestTimeout)
	require.Equal(t, "calls", conf.Recording.Azure.ContainerName)
	require.Equal(t, "debug", conf.Logging.Level)
}

func TestBaseFlagsOverride(t *testing.T) {
	app := cli.NewApp()
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "api-key"},
		&cli.StringFlag{Name: "api-secret"},
		&cli.StringFlag{Name: "livekit-url"},
	}
	set := flag.NewFlagSet("test", 0)
	set.String("api-key", "", "")
	set.String("api-secret", "", "")
	set.String("livekit-url", "", "")
	require.NoError(t, set.Parse([]string{
		"--api-key", "cli-key",
		"--api-secret", "cli-secret",
		"--livekit-url", "wss://lk.example.com",
	}))

	c := cli.NewContext(app, set, nil)
	conf, err := NewConfig("api_key: file-key\napi_secret: file-secret", true, c, app.Flags)
	require.NoError(t, err)
	require.Equal(t, "cli-key", conf.APIKey)
	require.Equal(t, "cli-secret", conf.APISecret)
	require.Equal(t, "wss://lk.example.com", conf.ClientURL())
	require.Equal(t, "https://lk.example.com", conf.APIURL())
}

func TestResolveKeys(t *testing.T) {
	t.Run("single key from map", func(t *testing.T) {
		conf, err := NewConfig("keys:\n  key1: secret1", true, nil, nil)
		require.NoError(t, err)
		require.NoError(t, conf.ResolveKeys())
		require.Equal(t, "key1", conf.APIKey)
		require.Equal(t, "secret1", conf.APISecret)
		require.NoError(t, conf.SigningConfigured())
	})

	t.Run("key file", func(t *testing.T) {
		keyFile := filepath.Join(t.TempDir(), "keys.yaml")
		require.NoError(t, os.WriteFile(keyFile, []byte("key2: secret2\n"), 0o600))

		conf, err := NewConfig("key_file: "+keyFile, true, nil, nil)
		require.NoError(t, err)
		require.NoError(t, conf.ResolveKeys())
		require.Equal(t, "secret2", conf.KeyProvider().GetSecret("key2"))
		require.Equal(t, "key2", conf.APIKey)
	})

	t.Run("key file readable by others", func(t *testing.T) {
		keyFile := filepath.Join(t.TempDir(), "keys.yaml")
		require.NoError(t, os.WriteFile(keyFile, []byte("key2: secret2\n"), 0o644))

		conf, err := NewConfig("key_file: "+keyFile, true, nil, nil)
		require.NoError(t, err)
		require.ErrorIs(t, conf.ResolveKeys(), ErrKeyFileIncorrectPermission)
	})

	t.Run("nothing configured", func(t *testing.T) {
		conf, err := NewConfig("", true, nil, nil)
		require.NoError(t, err)
		require.NoError(t, conf.ResolveKeys())
		require.ErrorIs(t, conf.SigningConfigured(), ErrSigningNotConfigured)
	})
}

func TestRecordingConfigured(t *testing.T) {
	conf, err := NewConfig(`api_key: key
api_secret: secret
livekit_url: wss://lk.example.com
recording:
  azure:
    account_name: acct`, true, nil, nil)
	require.NoError(t, err)

	err = conf.RecordingConfigured()
	require.ErrorIs(t, err, ErrRecordingNotConfigured)
	require.Contains(t, err.Error(), "recording.azure.account_key")
	require.Contains(t, err.Error(), "recording.azure.container_name")
	require.NotContains(t, err.Error(), "acct")

	conf.Recording.Azure.AccountKey = "akey"
	conf.Recording.Azure.ContainerName = "calls"
	require.NoError(t, conf.RecordingConfigured())
}
