package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/mjoin/internal/config"
	"github.com/calvinalkan/mjoin/pkg/mergejoin"
)

func Test_LoadConfig_Returns_Defaults_When_No_Files_Exist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := config.LoadConfig(config.LoadConfigInput{WorkDirOverride: dir, Env: map[string]string{}})
	require.NoError(t, err)

	want := config.Config{
		Left:          mergejoin.DefaultSideOptions(),
		Right:         mergejoin.DefaultSideOptions(),
		OutDelimiter:  ',',
		OutTerminator: '\n',
		Policy:        mergejoin.DefaultPolicy(),
		EffectiveCwd:  dir,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func Test_LoadConfig_Layers_Global_Project_And_Overrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	writeFile(t, filepath.Join(xdg, "mjoin", "config.json"), `{
		// global defaults
		"delimiter": ";",
		"show": ["left"],
		"buffer_size": 1024,
	}`)
	writeFile(t, filepath.Join(dir, ".mjoin.json"), `{"delimiter": "\\t", "header": true}`)

	cfg, err := config.LoadConfig(config.LoadConfigInput{
		WorkDirOverride: dir,
		Env:             map[string]string{"XDG_CONFIG_HOME": xdg},
		Overrides:       config.File{Show: []string{"matched", "right"}},
	})
	require.NoError(t, err)

	assert.Equal(t, byte('\t'), cfg.Left.Delimiter)
	assert.Equal(t, byte('\t'), cfg.OutDelimiter)
	assert.True(t, cfg.Header)
	assert.Equal(t, 1024, cfg.BufferSize)
	assert.Equal(t, mergejoin.NewPolicy(true, false, true), cfg.Policy)
	assert.Equal(t, filepath.Join(xdg, "mjoin", "config.json"), cfg.Sources.Global)
	assert.Equal(t, filepath.Join(dir, ".mjoin.json"), cfg.Sources.Project)
}

func Test_LoadConfig_Prefers_Specific_Separators_Over_Later_Shared_Ones(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".mjoin.json"), `{
		"left": {"delimiter": "|"},
		"input": {"terminator": "\\0"},
	}`)

	cfg, err := config.LoadConfig(config.LoadConfigInput{
		WorkDirOverride: dir,
		Overrides:       config.File{Delimiter: ";", Terminator: "\\r"},
	})
	require.NoError(t, err)

	assert.Equal(t, byte('|'), cfg.Left.Delimiter)
	assert.Equal(t, byte(';'), cfg.Right.Delimiter)
	assert.Equal(t, byte(0), cfg.Left.Terminator)
	assert.Equal(t, byte(0), cfg.Right.Terminator)
	assert.Equal(t, byte(';'), cfg.OutDelimiter)
	assert.Equal(t, byte('\r'), cfg.OutTerminator)
}

func Test_LoadConfig_Uses_Explicit_File_Instead_Of_Project_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".mjoin.json"), `{"key": [2]}`)
	writeFile(t, filepath.Join(dir, "custom.json"), `{"left": {"key": [3, 1]}, "right": {"key": [1, 2]}}`)

	cfg, err := config.LoadConfig(config.LoadConfigInput{WorkDirOverride: dir, ConfigPath: "custom.json"})
	require.NoError(t, err)

	want := config.Config{
		Left:          mergejoin.SideOptions{Delimiter: ',', Terminator: '\n', Key: []int{3, 1}},
		Right:         mergejoin.SideOptions{Delimiter: ',', Terminator: '\n', Key: []int{1, 2}},
		OutDelimiter:  ',',
		OutTerminator: '\n',
		Policy:        mergejoin.DefaultPolicy(),
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreFields(config.Config{}, "EffectiveCwd", "Sources")); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, filepath.Join(dir, "custom.json"), cfg.Sources.Project)
}

func Test_LoadConfig_Uses_Default_Buffer_Size_When_Unset(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(config.LoadConfigInput{WorkDirOverride: t.TempDir(), DefaultBufferSize: 4096})
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.BufferSize)
}

func Test_LoadConfig_Fails_When_Config_Is_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		path    string
		wantErr error
	}{
		{name: "MissingExplicit", path: "nope.json", wantErr: config.ErrConfigFileNotFound},
		{name: "BadJSON", content: `{invalid}`, wantErr: config.ErrConfigInvalid},
		{name: "UnknownField", content: `{"delimeter": ";"}`, wantErr: config.ErrConfigInvalid},
		{name: "LongDelimiter", content: `{"delimiter": ";;"}`, wantErr: config.ErrInvalidByte},
		{name: "BadShow", content: `{"show": ["inner"]}`, wantErr: config.ErrInvalidShow},
		{name: "ArityMismatch", content: `{"left": {"key": [1, 2]}}`, wantErr: mergejoin.ErrConfig},
		{name: "SameSeparators", content: `{"delimiter": "\\n"}`, wantErr: mergejoin.ErrConfig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tc.content != "" {
				writeFile(t, filepath.Join(dir, ".mjoin.json"), tc.content)
			}

			_, err := config.LoadConfig(config.LoadConfigInput{WorkDirOverride: dir, ConfigPath: tc.path})
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func Test_ParseByte_Accepts_Single_Bytes_And_Escapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want byte
	}{
		{in: ",", want: ','},
		{in: `\t`, want: '\t'},
		{in: "\t", want: '\t'},
		{in: `\n`, want: '\n'},
		{in: `\r`, want: '\r'},
		{in: `\0`, want: 0},
		{in: `\\`, want: '\\'},
	}

	for _, tc := range cases {
		got, err := config.ParseByte(tc.in)
		require.NoError(t, err, tc.in)

		if got != tc.want {
			t.Errorf("ParseByte(%q)=%q, want=%q", tc.in, got, tc.want)
		}

		back, err := config.ParseByte(config.FormatByte(got))
		require.NoError(t, err)
		assert.Equal(t, got, back)
	}

	for _, bad := range []string{"", ";;", `\x`, "é"} {
		_, err := config.ParseByte(bad)
		require.ErrorIs(t, err, config.ErrInvalidByte, bad)
	}
}

func Test_ParseKey_Parses_Positions_When_Valid(t *testing.T) {
	t.Parallel()

	key, err := config.ParseKey("3, 1,2")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, key)
	assert.Equal(t, "3,1,2", config.FormatKey(key))

	for _, bad := range []string{"", "0", "a", "1,,2", "-1"} {
		_, err := config.ParseKey(bad)
		require.ErrorIs(t, err, config.ErrInvalidKey, bad)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	err = os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}
