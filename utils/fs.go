package utils

import (
	"encoding/json"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

type Fs struct {
	AppFs afero.Fs
}

func NewFs(appFs afero.Fs) Fs {
	return Fs{AppFs: appFs}
}

// WriteJSON writes data as indented JSON, replacing any existing file.
func (fs Fs) WriteJSON(filePath string, data interface{}) error {
	f, err := fs.AppFs.Create(filePath)
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err = f.Write(b); err != nil {
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	return nil
}

// Exists reports whether filePath exists on the underlying filesystem.
func (fs Fs) Exists(filePath string) (bool, error) {
	ok, err := afero.Exists(fs.AppFs, filePath)
	if err != nil {
		return false, xerrors.Errorf("unable to stat %s: %w", filePath, err)
	}
	return ok, nil
}
