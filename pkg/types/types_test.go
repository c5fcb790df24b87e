// SPDX-License-Identifier: MPL-2.0

package types_test

import (
	"errors"
	"testing"

	"cfxforge-cli/pkg/types"
)

func TestFilesystemPath_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    types.FilesystemPath
		wantErr bool
	}{
		{name: "valid relative path", path: "src/plugins", wantErr: false},
		{name: "valid absolute path", path: "/srv/fivem/resources", wantErr: false},
		{name: "empty string", path: "", wantErr: true},
		{name: "whitespace only", path: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.path.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("FilesystemPath(%q).Validate() error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, types.ErrInvalidFilesystemPath) {
				t.Errorf("FilesystemPath(%q).Validate() error does not wrap ErrInvalidFilesystemPath", tt.path)
			}
		})
	}
}

func TestResourceName_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   types.ResourceName
		wantErr bool
	}{
		{name: "simple name", value: "garage", wantErr: false},
		{name: "name with dash and underscore", value: "hud_speedo-v2", wantErr: false},
		{name: "leading digit", value: "2fa", wantErr: false},
		{name: "empty", value: "", wantErr: true},
		{name: "bracketed category dir", value: "[gameplay]", wantErr: true},
		{name: "path separator", value: "a/b", wantErr: true},
		{name: "leading dash", value: "-bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.value.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ResourceName(%q).Validate() error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, types.ErrInvalidResourceName) {
				t.Errorf("ResourceName(%q).Validate() error does not wrap ErrInvalidResourceName", tt.value)
			}
		})
	}
}

func TestExitCode_Validate(t *testing.T) {
	t.Parallel()

	if err := types.ExitPartial.Validate(); err != nil {
		t.Errorf("ExitPartial.Validate() = %v, want nil", err)
	}
	if err := types.ExitCode(300).Validate(); !errors.Is(err, types.ErrInvalidExitCode) {
		t.Errorf("ExitCode(300).Validate() = %v, want ErrInvalidExitCode", err)
	}
	if !types.ExitSuccess.IsSuccess() {
		t.Error("ExitSuccess.IsSuccess() = false, want true")
	}
	if types.ExitPartial.IsSuccess() {
		t.Error("ExitPartial.IsSuccess() = true, want false")
	}
}

func TestListenPort_Validate(t *testing.T) {
	t.Parallel()

	if err := types.ListenPort(30120).Validate(); err != nil {
		t.Errorf("ListenPort(30120).Validate() = %v, want nil", err)
	}
	for _, p := range []types.ListenPort{0, -1, 70000} {
		if err := p.Validate(); !errors.Is(err, types.ErrInvalidListenPort) {
			t.Errorf("ListenPort(%d).Validate() = %v, want ErrInvalidListenPort", p, err)
		}
	}
}
