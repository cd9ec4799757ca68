package main

import (
	"fmt"
	"io"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var defaultStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF00"))

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Long:  "List audio input devices. Use a device name as audio.device_id in the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevices(cmd.OutOrStdout())
		},
	}
}

func runDevices(w io.Writer) error {
	devices, err := audio.ListInputDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, "No input devices found")
		return nil
	}

	for _, d := range devices {
		line := fmt.Sprintf("%s (%d ch, %.0f Hz)", d.Name, d.Channels, d.SampleRate)
		if d.Default {
			line = defaultStyle.Render("* " + line)
		} else {
			line = "  " + line
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
