// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"

	"github.com/jeranaias/agentui/internal/util"
)

// Watch reloads the config at path whenever it changes and hands the result
// to onChange. A file that fails to load or validate is reported with a nil
// Config; the caller keeps its previous settings. Watch blocks until ctx is
// done.
func Watch(ctx context.Context, path string, onChange func(*Config, error)) error {
	return util.WatchFile(ctx, path, util.DefaultDebounce, func() {
		cfg, err := LoadFromPath(path)
		onChange(cfg, err)
	})
}
