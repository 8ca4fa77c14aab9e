package cliprint

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// StageSummary is one row of the end-of-run stage timing table.
type StageSummary struct {
	Name     string
	Duration time.Duration
	Detail   string
}

// Summary renders the per-stage timing breakdown printed after a
// successful compose run.
func (p *Printer) Summary(stages []StageSummary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Stage", "Duration", "Detail"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	for _, s := range stages {
		tw.AppendRow(table.Row{s.Name, fmt.Sprintf("%.2fs", s.Duration.Seconds()), s.Detail})
	}

	tw.Render()
}
