package advisory

import (
	"fmt"
	"time"
)

// Unknown replaces any field missing from an advisory object.
const Unknown = "Unknown"

type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Record is a normalized advisory. List fields hold []string{Unknown} when
// the API omitted them.
type Record struct {
	AdvisoryID     string     `json:"advisory_id"`
	AdvisoryTitle  string     `json:"advisory_title"`
	BugIDs         []string   `json:"bug_ids"`
	FirstFixed     []string   `json:"first_fixed"`
	CVEs           []string   `json:"cves,omitempty"`
	SIR            string     `json:"sir,omitempty"`
	CVSSBaseScore  string     `json:"cvss_base_score,omitempty"`
	PublicationURL string     `json:"publication_url,omitempty"`
	FirstPublished *time.Time `json:"first_published,omitempty"`
}

// PlatformResult is the outcome of one lookup. ErrorDetail carries the HTTP
// status code of a failed lookup, or 0 when no response was received.
type PlatformResult struct {
	Platform       string
	ReleaseVersion string
	Advisories     []Record
	Status         Status
	ErrorDetail    int
	Err            error
}

// Detail describes why the lookup failed.
func (r PlatformResult) Detail() string {
	switch {
	case r.Err == nil:
		return fmt.Sprint(r.ErrorDetail)
	case r.ErrorDetail == 0:
		return r.Err.Error()
	default:
		return fmt.Sprintf("%d (%s)", r.ErrorDetail, r.Err)
	}
}

// RawAdvisory mirrors one element of the API "advisories" array. Pointer and
// nil-slice fields distinguish absent keys from empty values.
type RawAdvisory struct {
	AdvisoryID     *string  `json:"advisoryId"`
	AdvisoryTitle  *string  `json:"advisoryTitle"`
	BugIDs         []string `json:"bugIDs"`
	FirstFixed     []string `json:"firstFixed"`
	CVEs           []string `json:"cves"`
	SIR            string   `json:"sir"`
	CVSSBaseScore  string   `json:"cvssBaseScore"`
	PublicationURL string   `json:"publicationUrl"`
	FirstPublished string   `json:"firstPublished"`
}

type response struct {
	Advisories []*RawAdvisory `json:"advisories"`
}
