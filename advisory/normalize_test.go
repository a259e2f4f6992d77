package advisory

import (
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"
)

func TestNormalize(t *testing.T) {
	id := "cisco-sa-snmp-dos-USxSyTk5"
	title := "Cisco IOS and IOS XE Software SNMP Denial of Service Vulnerabilities"
	published := time.Date(2023, 3, 22, 16, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		raws []*RawAdvisory
		want []Record
	}{
		"all fields": {
			raws: []*RawAdvisory{
				{
					AdvisoryID:     &id,
					AdvisoryTitle:  &title,
					BugIDs:         []string{"CSCvz12345"},
					FirstFixed:     []string{"15.2(7)E7", "15.9(3)M6"},
					CVEs:           []string{"CVE-2023-20018"},
					SIR:            "High",
					CVSSBaseScore:  "7.7",
					FirstPublished: "2023-03-22T16:00:00",
				},
			},
			want: []Record{
				{
					AdvisoryID:     id,
					AdvisoryTitle:  title,
					BugIDs:         []string{"CSCvz12345"},
					FirstFixed:     []string{"15.2(7)E7", "15.9(3)M6"},
					CVEs:           []string{"CVE-2023-20018"},
					SIR:            "High",
					CVSSBaseScore:  "7.7",
					FirstPublished: &published,
				},
			},
		},
		"missing fields become Unknown": {
			raws: []*RawAdvisory{{}},
			want: []Record{
				{
					AdvisoryID:    Unknown,
					AdvisoryTitle: Unknown,
					BugIDs:        []string{Unknown},
					FirstFixed:    []string{Unknown},
				},
			},
		},
		"empty list is kept": {
			raws: []*RawAdvisory{{AdvisoryID: &id, BugIDs: []string{}, FirstFixed: []string{}}},
			want: []Record{
				{
					AdvisoryID:    id,
					AdvisoryTitle: Unknown,
					BugIDs:        []string{},
					FirstFixed:    []string{},
				},
			},
		},
		"null entries are skipped": {
			raws: []*RawAdvisory{nil, {AdvisoryID: &id}, nil},
			want: []Record{
				{
					AdvisoryID:    id,
					AdvisoryTitle: Unknown,
					BugIDs:        []string{Unknown},
					FirstFixed:    []string{Unknown},
				},
			},
		},
		"unparseable date is dropped": {
			raws: []*RawAdvisory{{AdvisoryID: &id, FirstPublished: "yesterday-ish"}},
			want: []Record{
				{
					AdvisoryID:    id,
					AdvisoryTitle: Unknown,
					BugIDs:        []string{Unknown},
					FirstFixed:    []string{Unknown},
				},
			},
		},
	}

	for testname, tt := range tests {
		got := Normalize(tt.raws)
		if diff := pretty.Compare(got, tt.want); diff != "" {
			t.Errorf("[%s]\n diff: %s", testname, diff)
		}
	}
}
