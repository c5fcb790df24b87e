// SPDX-License-Identifier: MPL-2.0

package pluginfile_test

import (
	"testing"

	"cfxforge-cli/pkg/pluginfile"
)

func TestOutputRelPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "garage", want: "garage"},
		{in: "[gameplay]/garage", want: "[gameplay]/garage"},
		{in: "./garage", want: "garage"},
		{in: "[core]/[hud]/speedo", want: "[core]/[hud]/speedo"},
	}
	for _, tt := range tests {
		if got := pluginfile.OutputRelPath(tt.in); got != tt.want {
			t.Errorf("OutputRelPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsScriptSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "client/index.ts", want: true},
		{in: "ui/panel.tsx", want: true},
		{in: "server/main.js", want: true},
		{in: "client/app.jsx", want: true},
		{in: "types/natives.d.ts", want: false},
		{in: "styles/app.css", want: false},
		{in: "data/vehicles.meta", want: false},
		{in: "plugin.json", want: false},
	}
	for _, tt := range tests {
		if got := pluginfile.IsScriptSource(tt.in); got != tt.want {
			t.Errorf("IsScriptSource(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOutputScriptPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "client/index.ts", want: "client/index.js"},
		{in: "client/app.tsx", want: "client/app.js"},
		{in: "server/main.js", want: "server/main.js"},
		{in: "styles/app.css", want: "styles/app.css"},
		{in: "types/natives.d.ts", want: "types/natives.d.ts"},
	}
	for _, tt := range tests {
		if got := pluginfile.OutputScriptPath(tt.in); got != tt.want {
			t.Errorf("OutputScriptPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRewriteScriptPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "client/*.ts", want: "client/*.js"},
		{in: "server/**/*.tsx", want: "server/**/*.js"},
		{in: "client/index.js", want: "client/index.js"},
		{in: "data/*.meta", want: "data/*.meta"},
	}
	for _, tt := range tests {
		if got := pluginfile.RewriteScriptPattern(tt.in); got != tt.want {
			t.Errorf("RewriteScriptPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsServerPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "server/main.ts", want: true},
		{in: "jobs/server/payout.ts", want: true},
		{in: "client/index.ts", want: false},
		{in: "shared/serverinfo.ts", want: false},
	}
	for _, tt := range tests {
		if got := pluginfile.IsServerPath(tt.in); got != tt.want {
			t.Errorf("IsServerPath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
