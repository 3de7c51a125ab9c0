package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/pipeline"
)

// Format renders a batch result in the requested output format: text,
// json, csv, or yaml.
func Format(result pipeline.BatchResult, format string) (string, error) {
	switch format {
	case "text", "":
		return formatText(result), nil
	case "json":
		return formatJSON(result)
	case "csv":
		return formatCSV(result)
	case "yaml":
		return formatYAML(result)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatCards renders assembled business cards in the requested format.
func FormatCards(cards []card.BusinessCard, format string) (string, error) {
	switch format {
	case "text", "":
		return formatCardsText(cards), nil
	case "json":
		out, err := json.MarshalIndent(cards, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out) + "\n", nil
	case "csv":
		return formatCardsCSV(cards)
	case "yaml":
		out, err := yaml.Marshal(cards)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

type jsonItem struct {
	Source     string  `json:"source" yaml:"source"`
	Text       string  `json:"text,omitempty" yaml:"text,omitempty"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Engine     string  `json:"engine,omitempty" yaml:"engine,omitempty"`
	Error      string  `json:"error,omitempty" yaml:"error,omitempty"`
}

type jsonSummary struct {
	Items       []jsonItem `json:"items" yaml:"items"`
	Total       int        `json:"total" yaml:"total"`
	Succeeded   int        `json:"succeeded" yaml:"succeeded"`
	Failed      int        `json:"failed" yaml:"failed"`
	SuccessRate float64    `json:"success_rate" yaml:"success_rate"`
}

func summarize(result pipeline.BatchResult) jsonSummary {
	s := jsonSummary{
		Total:       result.Total(),
		Succeeded:   len(result.Successful),
		Failed:      len(result.Failed),
		SuccessRate: result.SuccessRate(),
	}
	for _, item := range result.Successful {
		s.Items = append(s.Items, jsonItem{
			Source:     item.Source,
			Text:       item.Result.RawText,
			Confidence: item.Result.Confidence,
			Engine:     item.Result.Engine,
		})
	}
	for _, f := range result.Failed {
		s.Items = append(s.Items, jsonItem{Source: f.Source, Error: f.Err.Error()})
	}
	return s
}

func formatJSON(result pipeline.BatchResult) (string, error) {
	out, err := json.MarshalIndent(summarize(result), "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}

func formatYAML(result pipeline.BatchResult) (string, error) {
	out, err := yaml.Marshal(summarize(result))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func formatCSV(result pipeline.BatchResult) (string, error) {
	rows := [][]string{{"source", "text", "confidence", "engine", "error"}}
	for _, item := range result.Successful {
		rows = append(rows, []string{
			item.Source,
			item.Result.RawText,
			fmt.Sprintf("%.3f", item.Result.Confidence),
			item.Result.Engine,
			"",
		})
	}
	for _, f := range result.Failed {
		rows = append(rows, []string{f.Source, "", "0", "", f.Err.Error()})
	}

	var output strings.Builder
	writer := csv.NewWriter(&output)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

func formatText(result pipeline.BatchResult) string {
	var output strings.Builder
	for i, item := range result.Successful {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s (confidence %.2f)\n", item.Source, item.Result.Confidence)
		output.WriteString(item.Result.RawText)
		if !strings.HasSuffix(item.Result.RawText, "\n") {
			output.WriteString("\n")
		}
	}
	for _, f := range result.Failed {
		fmt.Fprintf(&output, "\n# %s: FAILED: %v\n", f.Source, f.Err)
	}
	return output.String()
}

func formatCardsText(cards []card.BusinessCard) string {
	var output strings.Builder
	for i, c := range cards {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "Name:     %s\n", c.Name)
		if c.JobTitle != "" {
			fmt.Fprintf(&output, "Title:    %s\n", c.JobTitle)
		}
		if c.Company != "" {
			fmt.Fprintf(&output, "Company:  %s\n", c.Company)
		}
		if c.Email != "" {
			fmt.Fprintf(&output, "Email:    %s\n", c.Email)
		}
		if c.Phone != "" {
			fmt.Fprintf(&output, "Phone:    %s\n", c.Phone)
		}
		if c.Mobile != "" {
			fmt.Fprintf(&output, "Mobile:   %s\n", c.Mobile)
		}
		if c.Website != "" {
			fmt.Fprintf(&output, "Website:  %s\n", c.Website)
		}
		if c.Address != "" {
			fmt.Fprintf(&output, "Address:  %s\n", c.Address)
		}
		if len(c.Tags) > 0 {
			fmt.Fprintf(&output, "Tags:     %s\n", strings.Join(c.Tags, ", "))
		}
	}
	return output.String()
}

func formatCardsCSV(cards []card.BusinessCard) (string, error) {
	rows := [][]string{{"id", "name", "job_title", "company", "email", "phone", "mobile", "website", "address", "favorite"}}
	for _, c := range cards {
		rows = append(rows, []string{
			c.ID, c.Name, c.JobTitle, c.Company, c.Email,
			c.Phone, c.Mobile, c.Website, c.Address,
			strconv.FormatBool(c.IsFavorite),
		})
	}

	var output strings.Builder
	writer := csv.NewWriter(&output)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}
