package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alejandrodnm/polysim/internal/domain"
)

// JSON implements ports.ReportSink with a machine-readable rendering,
// for piping into jq or downstream tooling.
type JSON struct {
	out io.Writer
}

func NewJSON() *JSON {
	return &JSON{out: os.Stdout}
}

func NewJSONWriter(w io.Writer) *JSON {
	return &JSON{out: w}
}

func (j *JSON) Publish(_ context.Context, r *domain.Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
