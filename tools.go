//go:build tools

// Package tools blank-imports the module's build-time and dev-time
// dependencies under the "tools" build tag, pinning them in go.mod alongside
// the direct imports most of them also have in regular packages.
package tools

import (
	_ "github.com/BurntSushi/toml"
	_ "github.com/bmatcuk/doublestar/v4"
	_ "github.com/cespare/xxhash/v2"
	_ "github.com/charmbracelet/bubbletea"
	_ "github.com/charmbracelet/huh"
	_ "github.com/charmbracelet/lipgloss"
	_ "github.com/charmbracelet/log"
	_ "github.com/dustin/go-humanize"
	_ "github.com/mitchellh/hashstructure/v2"
	_ "github.com/spf13/cobra"
	_ "github.com/spf13/cobra/doc"
	_ "github.com/stretchr/testify/assert"
)
