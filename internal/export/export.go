// Package export converts the store's snapshots to and from portable
// formats: a versioned JSON backup, a CSV table and an HTML report.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/webmark/webmark/internal/domain"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatHTML = "html"
)

// envelopeVersion tags JSON backups for future migrations.
const envelopeVersion = "1"

// Envelope is the JSON backup payload. Only the highlights collection
// is required on import; settings and stats travel along when present.
type Envelope struct {
	Version    string                       `json:"version"`
	Timestamp  int64                        `json:"timestamp"`
	Highlights map[string]*domain.Highlight `json:"highlights"`
	Settings   *domain.Settings             `json:"settings,omitempty"`
	Stats      *domain.Stats                `json:"stats,omitempty"`
}

// Output is the literal serialized content plus download metadata.
type Output struct {
	Data     string `json:"data"`
	Format   string `json:"format"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

// Export serializes the snapshot in the requested format.
func Export(records map[string]*domain.Highlight, settings *domain.Settings, stats *domain.Stats, format string) (*Output, error) {
	now := time.Now()
	var data string
	var err error

	switch format {
	case FormatJSON:
		data, err = toJSON(records, settings, stats, now)
	case FormatCSV:
		data, err = toCSV(sorted(records))
	case FormatHTML:
		data, err = toHTML(sorted(records), now)
	default:
		return nil, domain.NewError(domain.CodeUnsupportedFormat,
			"unsupported export format: %q", format)
	}
	if err != nil {
		return nil, err
	}

	return &Output{
		Data:     data,
		Format:   format,
		Filename: filename(format, now),
		Size:     len(data),
	}, nil
}

func filename(format string, now time.Time) string {
	date := now.Format("2006-01-02")
	switch format {
	case FormatCSV:
		return fmt.Sprintf("webmark-highlights-%s.csv", date)
	case FormatHTML:
		return fmt.Sprintf("webmark-report-%s.html", date)
	default:
		return fmt.Sprintf("webmark-backup-%s.json", date)
	}
}

func toJSON(records map[string]*domain.Highlight, settings *domain.Settings, stats *domain.Stats, now time.Time) (string, error) {
	env := Envelope{
		Version:    envelopeVersion,
		Timestamp:  now.UnixMilli(),
		Highlights: records,
		Settings:   settings,
		Stats:      stats,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup: %w", err)
	}
	return string(data), nil
}

func toCSV(records []*domain.Highlight) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "text", "color", "url", "page_title", "note", "tags", "created_at"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, h := range records {
		row := []string{
			h.ID,
			h.Text,
			string(h.Color),
			h.URL,
			h.PageTitle,
			h.Note,
			joinTags(h.Tags),
			h.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.String(), nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>webmark report</title>
<style>
body { font-family: sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
.highlight { margin: 16px 0; padding: 12px; border-left: 4px solid; background: #f9f9f9; }
.meta { font-size: 12px; color: #666; margin-top: 8px; }
</style>
</head>
<body>
<h1>webmark report</h1>
<p>Generated {{.Generated}} &mdash; {{.Count}} highlights</p>
{{range .Highlights}}
<div class="highlight" style="border-color: {{.Hex}}">
  <div>{{.Text}}</div>
  <div class="meta">
    <a href="{{.URL}}">{{if .PageTitle}}{{.PageTitle}}{{else}}{{.URL}}{{end}}</a>
    &middot; {{.Color}} &middot; {{.Created}}
    {{if .Note}}<div>{{.Note}}</div>{{end}}
  </div>
</div>
{{end}}
</body>
</html>
`))

type reportEntry struct {
	Text      string
	URL       string
	PageTitle string
	Color     string
	Hex       template.CSS
	Note      string
	Created   string
}

func toHTML(records []*domain.Highlight, now time.Time) (string, error) {
	entries := make([]reportEntry, 0, len(records))
	for _, h := range records {
		entries = append(entries, reportEntry{
			Text:      h.Text,
			URL:       h.URL,
			PageTitle: h.PageTitle,
			Color:     string(h.Color),
			Hex:       template.CSS(h.Color.Hex()),
			Note:      h.Note,
			Created:   h.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, map[string]any{
		"Generated":  now.Format("2006-01-02 15:04"),
		"Count":      len(entries),
		"Highlights": entries,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

func sorted(records map[string]*domain.Highlight) []*domain.Highlight {
	out := make([]*domain.Highlight, 0, len(records))
	for _, h := range records {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func joinTags(tags []string) string {
	var buf bytes.Buffer
	for i, t := range tags {
		if i > 0 {
			buf.WriteByte(';')
		}
		buf.WriteString(t)
	}
	return buf.String()
}
