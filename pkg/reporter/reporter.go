// Package reporter renders cycle results for humans and tooling.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

// Format selects the output rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Reporter writes cycle results in a fixed format.
type Reporter struct {
	format Format
}

// New creates a reporter for the given format.
func New(format Format) *Reporter {
	return &Reporter{format: format}
}

// Write renders the result to w.
func (r *Reporter) Write(w io.Writer, result *models.CycleResult) error {
	switch r.format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatCSV:
		return writeCSV(w, result)
	case FormatHTML:
		return writeHTML(w, result)
	case FormatText, "":
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown report format: %s", r.format)
	}
}

func writeJSON(w io.Writer, result *models.CycleResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// actionTarget names what a recommendation acts on, for display.
func actionTarget(rec *models.Recommendation) string {
	switch {
	case rec.ScalePods != nil:
		return rec.ScalePods.Namespace + "/" + rec.ScalePods.DeploymentName
	case rec.RightSize != nil:
		return rec.RightSize.InstanceID
	case rec.SpotMigration != nil:
		return rec.SpotMigration.InstanceID
	case rec.Schedule != nil:
		return rec.Schedule.Window
	default:
		return "-"
	}
}
