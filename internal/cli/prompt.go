package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/morrisclay/cds-console/internal/store"
	"github.com/morrisclay/cds-console/internal/tui/components"
)

// confirmDelete asks before deleting what. yes skips the question; without
// a terminal the question cannot be asked and --yes is required.
func confirmDelete(what string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !isInputInteractive() {
		return false, fmt.Errorf("refusing to delete %s without --yes", what)
	}
	return components.RunConfirm("Delete "+what, "This cannot be undone.", true)
}

// withOverwrite runs a project mutation. When the project was changed by
// someone else since it was loaded, the user decides whether to overwrite
// those changes; force decides up front.
func withOverwrite(ctx context.Context, key string, force bool, mutate func(ctx context.Context) error) error {
	if force {
		console.projects.ConfirmOverwrite(key)
	}
	err := mutate(ctx)
	if !errors.Is(err, store.ErrExternallyChanged) {
		return err
	}
	if !isInputInteractive() {
		return fmt.Errorf("%s: %w; use --force to overwrite or resync first", key, err)
	}

	ok, cerr := components.RunOverwriteConfirm(key)
	if cerr != nil {
		return cerr
	}
	if !ok {
		if _, rerr := console.projects.Resync(ctx, key); rerr != nil {
			return rerr
		}
		warn(fmt.Sprintf("%s reloaded, your change was not applied", key))
		return nil
	}
	console.projects.ConfirmOverwrite(key)
	return mutate(ctx)
}
