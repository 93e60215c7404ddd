package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgcrop/config"
	"github.com/imgcrop/transcoder"
)

// isolateAWS leaves the default credential chain with nothing to find.
func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{
		"AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY",
		"AWS_SECRET_ACCESS_KEY", "AWS_SECRET_KEY",
		"AWS_SESSION_TOKEN", "AWS_PROFILE", "AWS_DEFAULT_PROFILE",
		"AWS_SDK_LOAD_CONFIG", "AWS_ROLE_ARN", "AWS_WEB_IDENTITY_TOKEN_FILE",
		"AWS_CONTAINER_CREDENTIALS_RELATIVE_URI", "AWS_CONTAINER_CREDENTIALS_FULL_URI",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", dir)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestNewTranscoder(t *testing.T) {
	local := config.Server{
		Transcoder: config.TranscoderLocal,
		S3:         config.S3{Bucket: "bucket", Region: "us-east-1"},
	}

	tests := []struct {
		name    string
		cfg     config.Server
		env     map[string]string
		wantErr bool
		want    transcoder.Service
	}{
		{
			name:    "local without credentials",
			cfg:     local,
			wantErr: true,
		},
		{
			name: "local with env credentials",
			cfg:  local,
			env:  map[string]string{"AWS_ACCESS_KEY_ID": "AKID", "AWS_SECRET_ACCESS_KEY": "SECRET"},
			want: &transcoder.Local{},
		},
		{
			name: "remote",
			cfg: config.Server{
				Transcoder: config.TranscoderRemote,
				Remote:     config.Remote{Endpoint: "https://cdn.example.com/upload", APIKey: "key"},
			},
			want: &transcoder.Remote{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolateAWS(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			tr, err := newTranscoder(context.Background(), tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "resolving aws credentials")
				assert.Nil(t, tr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, tr)
		})
	}
}
