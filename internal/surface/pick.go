package surface

import (
	"errors"

	"github.com/sqweek/dialog"
)

// ErrCancelled is returned by PickFile when the user dismisses the dialog.
var ErrCancelled = errors.New("file selection cancelled")

// PickFile shows a native open dialog for an equation file.
func PickFile() (string, error) {
	filename, err := dialog.File().
		Filter("Equation files", "txt", "eq").
		Filter("All Files", "*").
		Title("Open equation file").
		Load()
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			return "", ErrCancelled
		}
		return "", err
	}
	return filename, nil
}
