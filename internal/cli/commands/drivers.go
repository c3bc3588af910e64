package commands

import (
	"strings"

	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	"github.com/spf13/cobra"
)

// DriverInfo describes what a registered engine offers in the select form.
type DriverInfo struct {
	Name      string         `json:"name"`
	Operators []string       `json:"operators"`
	Like      string         `json:"like"`
	Regexp    string         `json:"regexp,omitempty"`
	Features  []core.Feature `json:"features"`
}

// NewDriversCommand creates the drivers command.
func NewDriversCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "drivers",
		Short:       "List the supported database engines",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{SkipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutSession(cmd)
			return cc.Renderer.Render(driversTable(DescribeDrivers()))
		},
	}
}

// DescribeDrivers lists every registered driver with its dialect. The
// drivers are created but never connected.
func DescribeDrivers() []DriverInfo {
	names := driver.List()
	infos := make([]DriverInfo, 0, len(names))
	for _, name := range names {
		drv, err := driver.New(core.ConnectionConfig{Driver: name}, nil)
		if err != nil {
			continue
		}
		d := drv.Dialect()
		infos = append(infos, DriverInfo{
			Name:      name,
			Operators: d.Operators(),
			Like:      d.LikeOperator(),
			Regexp:    d.RegexpOperator(),
			Features:  d.Features(),
		})
	}
	return infos
}

func driversTable(infos []DriverInfo) output.Table {
	rows := make([][]string, len(infos))
	for i, info := range infos {
		features := make([]string, len(info.Features))
		for j, f := range info.Features {
			features[j] = string(f)
		}
		rows[i] = []string{info.Name, info.Like, info.Regexp, strings.Join(info.Operators, " "), strings.Join(features, ", ")}
	}
	return output.Table{
		Headers: []string{"Driver", "Like", "Regexp", "Operators", "Features"},
		Rows:    rows,
		JSON:    infos,
	}
}
