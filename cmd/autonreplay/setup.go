package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.bug.st/serial"

	"github.com/gwillem/autonreplay/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("autonreplay setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	path := configPath()
	cfg := robot.DefaultConfig()
	if robot.ConfigExists(path) {
		existing, err := robot.LoadConfigFrom(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ignoring unreadable %s: %v\n", path, err)
		} else {
			cfg = existing
		}
	}

	// Step 1: Find the bridge
	port, err := choosePort(cfg.Bridge.Port)
	if err != nil {
		return err
	}
	cfg.Bridge.Port = port

	// Step 2: Mechanism wiring
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Mechanisms ━━━"))
	fmt.Println()
	if err := askMechanisms(cfg); err != nil {
		return err
	}

	// Step 3: Playback tuning
	if err := askRecording(cfg); err != nil {
		return err
	}

	if err := cfg.SaveTo(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", path)
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("Motor channels"))
	fmt.Println(renderChannelMap(cfg.Motors))
	fmt.Println()
	fmt.Println("Record a routine with: " + headerStyle.Render("autonreplay drive"))

	return nil
}

// findBridges returns the serial ports where a bridge answers the handshake.
func findBridges() []string {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var found []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		if robot.ProbeBridge(port) {
			fmt.Printf("  Found bridge on %s\n", port)
			found = append(found, port)
		}
	}
	return found
}

func choosePort(current string) (string, error) {
	fmt.Println("Scanning for the motor bridge...")
	fmt.Println()

	bridges := findBridges()
	if len(bridges) == 0 {
		fmt.Println(errorStyle.Render("No bridge answered."))
		fmt.Println("Make sure the microcontroller is connected and flashed.")
		fmt.Println()

		port := current
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Serial port of the bridge").
					Description("Saved as is, checked when driving").
					Value(&port).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("port required")
						}
						return nil
					}),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}
		return strings.TrimSpace(port), nil
	}

	if len(bridges) == 1 {
		return bridges[0], nil
	}

	var options []huh.Option[string]
	for _, p := range bridges {
		options = append(options, huh.NewOption(p, p))
	}
	port := bridges[0]
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the robot?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port, nil
}

func askMechanisms(cfg *robot.Config) error {
	if cfg.Mechanisms == nil {
		cfg.Mechanisms = make(map[robot.Mechanism]robot.MechanismConfig)
	}

	for _, m := range robot.AllMechanisms() {
		mc := cfg.Mechanisms[m]
		if mc.Kind == "" {
			mc.Kind = robot.MechanismGPIO
		}
		servoID := strconv.Itoa(mc.ServoID)

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("How is %s actuated?", m)).
					Options(
						huh.NewOption("Solenoid valve on a GPIO pin", robot.MechanismGPIO),
						huh.NewOption("Bus servo", robot.MechanismServo),
					).
					Value(&mc.Kind),
			),
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("GPIO pin for %s", m)).
					Placeholder("GPIO17").
					Value(&mc.Pin),
			).WithHideFunc(func() bool { return mc.Kind != robot.MechanismGPIO }),
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("Servo ID for %s", m)).
					Value(&servoID).
					Validate(validateInt),
			).WithHideFunc(func() bool { return mc.Kind != robot.MechanismServo }),
		)
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}

		if mc.Kind == robot.MechanismServo {
			mc.ServoID, _ = strconv.Atoi(servoID)
			if mc.Extended == 0 {
				mc.Retracted, mc.Extended = 1024, 3072
			}
		}
		cfg.Mechanisms[m] = mc
	}

	for _, mc := range cfg.Mechanisms {
		if mc.Kind == robot.MechanismServo && cfg.ServoPort == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Serial port of the servo bus").
						Value(&cfg.ServoPort),
				),
			)
			if err := form.Run(); err != nil {
				fmt.Println()
				os.Exit(0)
			}
			break
		}
	}
	return nil
}

func askRecording(cfg *robot.Config) error {
	gain := strconv.FormatFloat(cfg.Recording.CorrectionGain, 'f', -1, 64)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Recording file").
				Value(&cfg.Recording.Path),
			huh.NewInput().
				Title("Heading correction gain").
				Description("Stick units per degree of heading error").
				Value(&gain).
				Validate(func(s string) error {
					_, err := strconv.ParseFloat(s, 64)
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	g, err := strconv.ParseFloat(gain, 64)
	if err != nil {
		return fmt.Errorf("parse gain: %w", err)
	}
	cfg.Recording.CorrectionGain = g
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(s); err != nil {
		return errors.New("must be a number")
	}
	return nil
}

// renderChannelMap lists the bridge channels in motor-group order.
func renderChannelMap(cal robot.Calibration) string {
	rows := make([][]string, 0, len(cal))
	for _, ch := range cal.Channels() {
		name, mc, ok := cal.ByChannel(ch)
		if !ok {
			continue
		}
		dir := "forward"
		if mc.Reversed {
			dir = "reversed"
		}
		rows = append(rows, []string{strconv.Itoa(ch), name, string(mc.Group), dir})
	}

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Channel", "Motor", "Group", "Direction").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true).Foreground(lipgloss.Color("12"))
			}
			return cellStyle
		}).
		Render()
}
