package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/psirt-checker/utils"
)

const (
	platformColumn = "platform"
	versionColumn  = "ios_version"
)

// DeviceQuery is one platform/release pair to look up.
type DeviceQuery struct {
	Platform       string
	ReleaseVersion string
}

// MalformedInputError means the inventory could not be read or lacks the
// required columns. Nothing should be fetched when it is returned.
type MalformedInputError struct {
	Path string
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed input: %s", e.Err)
	}
	return fmt.Sprintf("malformed input %s: %s", e.Path, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Load opens path on fs and parses it with Parse.
func Load(fs afero.Fs, path string) ([]DeviceQuery, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Err: xerrors.Errorf("unable to open: %w", err)}
	}
	defer f.Close()

	queries, err := Parse(f)
	if err != nil {
		var mErr *MalformedInputError
		if errors.As(err, &mErr) {
			mErr.Path = path
		}
		return nil, err
	}
	return queries, nil
}

// Parse reads a CSV inventory with a header row. Row order and duplicate
// rows are preserved; columns other than platform and ios_version are ignored.
func Parse(r io.Reader) ([]DeviceQuery, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &MalformedInputError{Err: xerrors.New("missing header row")}
	} else if err != nil {
		return nil, &MalformedInputError{Err: xerrors.Errorf("failed to read header: %w", err)}
	}

	platformIdx, versionIdx := -1, -1
	for i, name := range header {
		switch normalizeHeader(name) {
		case platformColumn:
			platformIdx = i
		case versionColumn:
			versionIdx = i
		}
	}

	var missing []string
	if platformIdx < 0 {
		missing = append(missing, platformColumn)
	}
	if versionIdx < 0 {
		missing = append(missing, versionColumn)
	}
	if len(missing) > 0 {
		return nil, &MalformedInputError{Err: xerrors.Errorf("missing required columns: %s", strings.Join(missing, ", "))}
	}

	var queries []DeviceQuery
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, &MalformedInputError{Err: xerrors.Errorf("failed to read row: %w", err)}
		}

		q := DeviceQuery{
			Platform:       field(record, platformIdx),
			ReleaseVersion: field(record, versionIdx),
		}
		if q.Platform == "" && q.ReleaseVersion == "" {
			continue
		}
		queries = append(queries, q)
	}

	return queries, nil
}

// Platforms returns the distinct platform labels in first-seen order.
func Platforms(queries []DeviceQuery) []string {
	return lo.Uniq(lo.Map(queries, func(q DeviceQuery, _ int) string {
		return q.Platform
	}))
}

func normalizeHeader(s string) string {
	return strings.ToLower(utils.TrimSpaceNewline(strings.TrimPrefix(s, "\ufeff")))
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return utils.TrimSpaceNewline(record[idx])
}
