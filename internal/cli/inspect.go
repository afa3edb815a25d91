package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/metro"
)

// inspectCommand creates the inspect command that summarizes a snapshot.
func (c *CLI) inspectCommand() *cobra.Command {
	var stations bool

	cmd := &cobra.Command{
		Use:   "inspect [map.json|-]",
		Short: "Summarize the tracks and stations of a map snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			m, err := document.Unmarshal(data)
			if err != nil {
				return err
			}
			c.printInspect(m, stations)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&stations, "stations", "s", false, "list every station")

	return cmd
}

func (c *CLI) printInspect(m *metro.Map, withStations bool) {
	stats := document.FromMap(m).Stats()

	fmt.Fprintln(stdout, StyleTitle.Render("Map"))
	printKeyValue("Tracks", StyleNumber.Render(strconv.Itoa(stats.Tracks)))
	printKeyValue("Segments", StyleNumber.Render(strconv.Itoa(stats.Segments)))
	printKeyValue("Stations", StyleNumber.Render(strconv.Itoa(stats.Stations)))
	printKeyValue("Minor", StyleNumber.Render(strconv.Itoa(stats.Minor)))
	printKeyValue("Connections", StyleNumber.Render(strconv.Itoa(stats.Connections)))
	printNewline()

	tracks := newTable("Track", "Color", "Segments", "Major", "Minor", "Length")
	for _, t := range m.Tracks() {
		length := 0.0
		for _, seg := range t.Segments() {
			length += seg.Length()
		}
		tracks.Row(
			t.ID,
			StyleHighlight.Render(t.SegmentStyle().StrokeColor),
			strconv.Itoa(len(t.Segments())),
			strconv.Itoa(len(t.MajorStations())),
			strconv.Itoa(len(t.MinorStations())),
			fmt.Sprintf("%.0f", length),
		)
	}
	fmt.Fprintln(stdout, tracks.Render())

	if !withStations {
		return
	}
	table := newTable("Station", "Name", "Kind", "Track", "Position")
	for _, t := range m.Tracks() {
		for _, st := range t.Stations() {
			p := st.Position()
			table.Row(st.ID, st.Name, st.Kind().String(), t.ID, fmt.Sprintf("%.1f, %.1f", p.X, p.Y))
		}
	}
	fmt.Fprintln(stdout, table.Render())
}
