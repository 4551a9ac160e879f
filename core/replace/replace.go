// Package replace swaps a verified candidate file in for an original with
// crash-safety guarantees: the target ends up containing exactly the
// candidate's bytes, or keeps its original content on failure whenever that
// is achievable.
package replace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Hooks for fault injection in tests.
var (
	renameFn = os.Rename
	removeFn = os.Remove
)

// Replace moves tmp over target. tmp must live in the same directory
// (same volume) as target; cross-volume renames are not atomic and are
// never attempted here.
//
// The direct path removes an existing target and renames tmp into place,
// atomic on filesystems that support rename-over. If the target is locked
// by another process (a permission-class failure), the fallback renames
// the target aside to a .old sibling, moves tmp into place, then deletes
// the sibling; if moving into place fails after the original was set
// aside, the sibling is renamed back best-effort before the error returns.
func Replace(tmp, target string) error {
	if _, err := os.Lstat(tmp); err != nil {
		return fmt.Errorf("replace %s: candidate missing: %w", target, err)
	}

	err := direct(tmp, target)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return fallback(tmp, target)
}

func direct(tmp, target string) error {
	if err := removeFn(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return renameFn(tmp, target)
}

func fallback(tmp, target string) error {
	old := target + ".old"
	setAside := false
	if _, err := os.Lstat(target); err == nil {
		if err := renameFn(target, old); err != nil {
			return fmt.Errorf("replace %s: move aside: %w", target, err)
		}
		setAside = true
	}

	if err := renameFn(tmp, target); err != nil {
		if setAside {
			if _, statErr := os.Lstat(target); statErr != nil {
				// Best-effort restoration only; arbitrary crash points in
				// between are out of contract.
				_ = renameFn(old, target)
			}
		}
		return fmt.Errorf("replace %s: move into place: %w", target, err)
	}

	if setAside {
		_ = removeFn(old)
	}
	return nil
}
