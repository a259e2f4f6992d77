package advisory

import (
	"github.com/araddon/dateparse"
	log "github.com/sirupsen/logrus"
)

// Normalize converts raw API advisories into records, skipping null entries.
func Normalize(raws []*RawAdvisory) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		records = append(records, normalize(*raw))
	}
	return records
}

func normalize(raw RawAdvisory) Record {
	r := Record{
		AdvisoryID:     stringOrUnknown(raw.AdvisoryID),
		AdvisoryTitle:  stringOrUnknown(raw.AdvisoryTitle),
		BugIDs:         listOrUnknown(raw.BugIDs),
		FirstFixed:     listOrUnknown(raw.FirstFixed),
		CVEs:           raw.CVEs,
		SIR:            raw.SIR,
		CVSSBaseScore:  raw.CVSSBaseScore,
		PublicationURL: raw.PublicationURL,
	}

	if raw.FirstPublished != "" {
		t, err := dateparse.ParseAny(raw.FirstPublished)
		if err != nil {
			log.Debugf("%s: unparseable firstPublished %q: %s", r.AdvisoryID, raw.FirstPublished, err)
		} else {
			r.FirstPublished = &t
		}
	}
	return r
}

func stringOrUnknown(s *string) string {
	if s == nil {
		return Unknown
	}
	return *s
}

func listOrUnknown(l []string) []string {
	if l == nil {
		return []string{Unknown}
	}
	return l
}
