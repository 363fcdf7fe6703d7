// Package render draws the terminal dashboard for normalized reports.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"statusdeck/internal/domain"
	"statusdeck/internal/kb"
	"statusdeck/internal/status"
)

// Options control optional dashboard sections.
type Options struct {
	ShowRaw bool
	Now     func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Dashboard renders one report: status banner, info cards, findings,
// timeline, metadata, and optionally the raw JSON inspector.
func Dashboard(w io.Writer, rep domain.Report, opts Options) {
	fmt.Fprintf(w, "Application %s\n", rep.Application.ID)
	if !rep.HasStatus {
		fmt.Fprintln(w, "  No status available for this application.")
		if opts.ShowRaw {
			rawSection(w, rep.Application)
		}
		return
	}

	banner(w, *rep.Classification)
	infoCards(w, rep, opts)
	findings(w, *rep.Findings)
	timeline(w, rep)
	metadata(w, *rep.Primary)
	if opts.ShowRaw {
		rawSection(w, rep.Application)
	}
}

// Batch renders every report in order, separated by a blank line.
func Batch(w io.Writer, reports []domain.Report, opts Options) {
	for i, rep := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		Dashboard(w, rep, opts)
	}
}

func banner(w io.Writer, cls domain.Classification) {
	color := sentimentColor(cls.Sentiment)
	fmt.Fprintf(w, "\n  %s  (%s)\n", color.Sprint(cls.Title), cls.Sentiment)
	fmt.Fprintf(w, "  %s\n", cls.Description)
	if cls.Actionable {
		fmt.Fprintln(w, "  Action needed: have your reference number ready and contact application support.")
	}
}

func infoCards(w io.Writer, rep domain.Report, opts Options) {
	rec := *rep.Primary
	ref := status.ReferenceNumber(rep.Application, rec)
	if ref == "" {
		ref = "N/A"
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Status Code", "Reference Number", "Last Status Change"})
	tw.AppendRow(table.Row{
		rec.StatusCode,
		ref,
		fmt.Sprintf("%s (%s)", formatTime(rec.StatusChangeTimestamp), timeAgo(rec.StatusChangeTimestamp, opts.now())),
	})
	tw.Render()
}

func findings(w io.Writer, f domain.Findings) {
	if f.None() {
		fmt.Fprintln(w, "\n  No action required: no pending documents or immediate actions in the status response.")
		return
	}
	if len(f.Errors) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Error Code"})
		for _, e := range f.Errors {
			tw.AppendRow(table.Row{e.ErrorCode})
		}
		tw.SetTitle("Errors Detected")
		tw.Render()
	}
	if len(f.Actions) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Required Action"})
		for _, a := range f.Actions {
			tw.AppendRow(table.Row{a})
		}
		tw.Render()
	}
	if len(f.DocumentGroups) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Document Category", "Requested"})
		for _, g := range f.DocumentGroups {
			for _, name := range g.DocumentTypeName {
				tw.AppendRow(table.Row{g.DocumentCategoryName, name})
			}
		}
		tw.SetTitle("Required Documents")
		tw.Render()
	}
}

func timeline(w io.Writer, rep domain.Report) {
	type entry struct {
		label string
		ts    string
	}
	entries := []entry{
		{"Application Created", rep.Application.CreateTimestamp},
		{"Application Submitted", rep.Application.SubmitTimestamp},
		{"Last System Update", rep.Application.LastUpdateTimestamp},
		{"Status Changed", rep.Primary.StatusChangeTimestamp},
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Timeline", "When"})
	rows := 0
	for _, e := range entries {
		if e.ts == "" {
			continue
		}
		tw.AppendRow(table.Row{e.label, formatTime(e.ts)})
		rows++
	}
	if rows > 0 {
		tw.Render()
	}
}

func metadata(w io.Writer, rec domain.StatusRecord) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Meta", "Value"})
	tw.AppendRow(table.Row{"Product Code", orNA(rec.ProductCode)})
	tw.AppendRow(table.Row{"Sub Product", orNA(rec.SubProductCode)})
	tw.AppendRow(table.Row{"Acquisition Source", orNA(rec.AcquisitionSourceName)})
	tw.AppendRow(table.Row{"Market Cell ID", orNA(rec.MarketCellID)})
	eligibility := "N/A"
	if add := rec.AdditionalInformation; add != nil && add.StraightThroughEligibility != nil {
		eligibility = fmt.Sprintf("%v", *add.StraightThroughEligibility)
	}
	tw.AppendRow(table.Row{"Straight-Through Eligibility", eligibility})
	tw.Render()
}

func rawSection(w io.Writer, app domain.Application) {
	fmt.Fprintln(w, "\n  Raw JSON:")
	if len(app.Raw) == 0 {
		fmt.Fprintln(w, "  (not available)")
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, app.Raw, "  ", "  "); err != nil {
		fmt.Fprintf(w, "  %s\n", app.Raw)
		return
	}
	fmt.Fprintf(w, "  %s\n", buf.String())
}

// Codes renders the knowledge base listing.
func Codes(w io.Writer, catalog kb.Catalog) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Code", "Title", "Sentiment", "Actionable"})
	for _, code := range catalog.Codes() {
		cls := catalog.Classify(code)
		tw.AppendRow(table.Row{cls.Code, cls.Title, cls.Sentiment, cls.Actionable})
	}
	tw.Render()
}

// History renders the ingest history, newest first.
func History(w io.Writer, events []domain.IngestEvent) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"When", "Source", "Applications", "Primary Status"})
	for _, ev := range events {
		tw.AppendRow(table.Row{formatTime(ev.TS), ev.Source, ev.Applications, orNA(ev.StatusCode)})
	}
	tw.Render()
}

func sentimentColor(s domain.Sentiment) text.Colors {
	switch s {
	case domain.SentimentSuccess:
		return text.Colors{text.FgGreen, text.Bold}
	case domain.SentimentWarning:
		return text.Colors{text.FgYellow, text.Bold}
	case domain.SentimentError:
		return text.Colors{text.FgRed, text.Bold}
	default:
		return text.Colors{text.Bold}
	}
}

func formatTime(ts string) string {
	if ts == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("Jan 2, 2006 15:04:05")
}

func timeAgo(ts string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}
	diff := now.Sub(t)
	switch {
	case diff >= 24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	case diff >= time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff >= time.Minute:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	default:
		return "just now"
	}
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
