package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/aquasecurity/psirt-checker/advisory"
)

var (
	errorColor   = color.New(color.FgRed)
	releaseColor = color.New(color.FgGreen, color.Bold)
)

type ConsoleOption func(*Console)

func WithDetail(detail bool) ConsoleOption {
	return func(c *Console) { c.detail = detail }
}

func WithComparator(cmp Comparator) ConsoleOption {
	return func(c *Console) { c.cmp = cmp }
}

// Console renders the per-device summary.
type Console struct {
	w      io.Writer
	detail bool
	cmp    Comparator
}

func NewConsole(w io.Writer, opts ...ConsoleOption) Console {
	c := Console{
		w:      w,
		detail: true,
		cmp:    Lexical,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Print writes one block per lookup, in lookup order.
func (c Console) Print(results []advisory.PlatformResult) error {
	for _, r := range results {
		if err := c.print(r); err != nil {
			return err
		}
	}
	return nil
}

func (c Console) print(r advisory.PlatformResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Platform: %s, Current release: %s\n", r.Platform, r.ReleaseVersion)
	fmt.Fprintf(&b, "  %d advisories\n", len(r.Advisories))

	switch {
	case r.Status == advisory.StatusError:
		b.WriteString("    ")
		errorColor.Fprintf(&b, "ERROR encountered during lookup: %s", r.Detail())
		b.WriteString("\n")
	case len(r.Advisories) == 0:
		b.WriteString("    None found\n")
	default:
		b.WriteString("  Minimum suggested release: ")
		releaseColor.Fprint(&b, MinimumSuggestedRelease(r.Advisories, c.cmp))
		b.WriteString("\n")
		if c.detail {
			for _, a := range r.Advisories {
				writeDetail(&b, a)
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(c.w, b.String())
	return err
}

func writeDetail(b *strings.Builder, a advisory.Record) {
	fmt.Fprintf(b, "    ID %s -- %s\n", a.AdvisoryID, a.AdvisoryTitle)
	fmt.Fprintf(b, "      First fixed: %s\n", strings.Join(a.FirstFixed, ", "))
	fmt.Fprintf(b, "      Bug IDs: %s\n", strings.Join(a.BugIDs, ", "))
	if len(a.CVEs) > 0 {
		fmt.Fprintf(b, "      CVEs: %s\n", strings.Join(a.CVEs, ", "))
	}
	if a.SIR != "" {
		fmt.Fprintf(b, "      Impact: %s", a.SIR)
		if a.CVSSBaseScore != "" {
			fmt.Fprintf(b, " (CVSS %s)", a.CVSSBaseScore)
		}
		b.WriteString("\n")
	}
	if a.FirstPublished != nil {
		fmt.Fprintf(b, "      Published: %s\n", a.FirstPublished.Format("2006-01-02"))
	}
}
