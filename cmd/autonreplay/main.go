package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `short:"c" long:"config" default:"autonreplay.json" description:"Robot configuration file"`

	Setup   SetupCommand   `command:"setup" description:"Find the motor bridge and write the configuration"`
	Drive   DriveCommand   `command:"drive" description:"Drive the robot and record an autonomous routine"`
	Auton   AutonCommand   `command:"auton" alias:"play" description:"Play back the stored routine"`
	Inspect InspectCommand `command:"inspect" description:"Decode and print a recording file"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "autonreplay - record a driver's routine and replay it with heading correction"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
