package location

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// UpdateToken replaces the renewables.ninja token of the named location.
// Comments in generation_inputs.yaml are preserved.
func UpdateToken(root, name, token string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("empty API token")
	}
	l := At(root, name)
	if _, err := os.Stat(l.Dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	path := l.Path(GenerationInputsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s has no %s", ErrNotFound, name, GenerationInputsFile)
		}
		return err
	}
	out, err := setScalar(data, "token", token)
	if err != nil {
		return fmt.Errorf("%s: %w", GenerationInputsFile, err)
	}
	return os.WriteFile(path, out, 0o644)
}
