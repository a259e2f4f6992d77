package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/psirt-checker/aggregate"
)

const listSeparator = "/ "

var csvHeader = []string{"advisory_id", "advisory_title", "first_fixed", "bug_ids"}

// WriteCSV writes one row per advisory, in first-seen order, followed by a
// True/False column per platform.
func WriteCSV(w io.Writer, t *aggregate.Table) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := append(append([]string{}, csvHeader...), t.Platforms...)
	if err := cw.Write(header); err != nil {
		return xerrors.Errorf("failed to write CSV header: %w", err)
	}

	for _, id := range t.IDs() {
		row := t.Rows[id]
		log.Debugf("Writing %s", id)

		record := []string{
			row.AdvisoryID,
			row.AdvisoryTitle,
			strings.Join(row.FirstFixed, listSeparator),
			strings.Join(row.BugIDs, listSeparator),
		}
		for _, p := range t.Platforms {
			record = append(record, boolCell(row.AffectedPlatforms[p]))
		}
		if err := cw.Write(record); err != nil {
			return xerrors.Errorf("failed to write CSV row %s: %w", id, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return xerrors.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// SaveCSV writes the table to path, replacing any existing file.
func SaveCSV(fs afero.Fs, path string, t *aggregate.Table) error {
	f, err := fs.Create(path)
	if err != nil {
		return xerrors.Errorf("unable to create %s: %w", path, err)
	}
	defer f.Close()

	if err = WriteCSV(f, t); err != nil {
		return xerrors.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// DumpJSON writes the aggregate keyed by advisory ID as indented JSON.
func DumpJSON(w io.Writer, t *aggregate.Table) error {
	b, err := json.MarshalIndent(t.Rows, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err = w.Write(append(b, '\n')); err != nil {
		return xerrors.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func boolCell(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
