package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/autonreplay/pkg/replay"
)

type InspectCommand struct {
	Limit int `short:"n" long:"limit" default:"20" description:"Number of frames to print (0 for all)"`
	Args  struct {
		File string `positional-arg-name:"file" description:"Recording file (default from config)"`
	} `positional-args:"yes"`
}

func (c *InspectCommand) Execute(args []string) error {
	path := c.Args.File
	if path == "" {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		path = cfg.Recording.Path
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	frames, err := replay.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	fmt.Println(headerStyle.Render(path))
	var dur time.Duration
	if n := len(frames); n > 0 {
		dur = time.Duration(frames[n-1].Timestamp) * time.Millisecond
	}
	fmt.Printf("%d frames, %s\n\n", len(frames), dur)
	if len(frames) == 0 {
		return nil
	}

	fmt.Println(renderFrames(frames, c.Limit))
	return nil
}

func renderFrames(frames []replay.Frame, limit int) string {
	shown := frames
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableIndexStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableButtonStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)

	rows := make([][]string, 0, len(shown))
	for i, fr := range shown {
		rows = append(rows, []string{
			strconv.Itoa(i),
			strconv.FormatUint(uint64(fr.Timestamp), 10),
			strconv.Itoa(int(fr.LeftStick)),
			strconv.Itoa(int(fr.RightStick)),
			fmt.Sprintf("%.1f", fr.Heading),
			fr.Buttons.String(),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("#", "ms", "Left", "Right", "Heading", "Buttons").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableIndexStyle
			case 5:
				return tableButtonStyle
			default:
				return tableCellStyle
			}
		})

	out := t.Render()
	if len(shown) < len(frames) {
		out += "\n" + dimStyle.Render(fmt.Sprintf("... %d more", len(frames)-len(shown)))
	}
	return out
}
