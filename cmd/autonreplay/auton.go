package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gwillem/autonreplay/pkg/clock"
	"github.com/gwillem/autonreplay/pkg/replay"
	"github.com/gwillem/autonreplay/pkg/teleop"
)

type AutonCommand struct {
	Sim     bool    `long:"sim" description:"Play back on a simulated robot"`
	Gain    float64 `long:"gain" description:"Heading correction gain (default from config)"`
	File    string  `short:"f" long:"file" description:"Recording file (default from config)"`
	Verbose bool    `short:"v" long:"verbose" description:"Print every dispatched frame"`
}

func (c *AutonCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.Sim)
	if err != nil {
		return err
	}
	path := cfg.Recording.Path
	if c.File != "" {
		path = c.File
	}
	gain := cfg.Recording.CorrectionGain
	if c.Gain != 0 {
		gain = c.Gain
	}

	clk := clock.NewRealClock()
	hw, release, err := openHardware(cfg, c.Sim, clk)
	if err != nil {
		return err
	}
	defer release()

	console := teleop.NewConsole(clk, teleop.DefaultHistory, func(format string, args ...any) {
		fmt.Println(subHeaderStyle.Render(fmt.Sprintf(format, args...)))
	})
	session, err := replay.NewSession(replay.Config{
		Actuators: hw,
		Heading:   hw,
		Feedback:  console,
		Store:     replay.FileStore{Path: path},
		Clock:     clk,
		Gain:      gain,
		Logf: func(format string, args ...any) {
			fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf(format, args...)))
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(headerStyle.Render("autonreplay auton"))
	fmt.Printf("%s, gain %.2f\n", path, gain)
	fmt.Println()

	sum, err := session.Playback(ctx, func(d replay.Dispatch) {
		if !c.Verbose {
			return
		}
		fmt.Printf("%6d ms  L %4d  R %4d  hdg %6.1f/%6.1f  corr %+5.1f  %s\n",
			d.Frame.Timestamp, d.Left, d.Right, d.Frame.Heading, d.LiveHeading, d.Correction, d.Fired)
	})
	if replay.IsNoRecording(err) {
		fmt.Println(errorStyle.Render("Nothing to play back."))
		return nil
	}
	if sum != nil {
		fmt.Println()
		fmt.Println(successStyle.Render(sum.String()))
	}

	fmt.Println()
	fmt.Println(subHeaderStyle.Render("Console"))
	for _, e := range console.History() {
		fmt.Println(dimStyle.Render(e.String()))
	}
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	return nil
}
