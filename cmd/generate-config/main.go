package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

const header = "# spawnwrite configuration example\n" +
	"# Copy this file to config.yaml and customize as needed.\n" +
	"# ${VAR} references are expanded from the environment when the file is loaded.\n\n"

var (
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func render() ([]byte, error) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return append([]byte(header), yamlData...), nil
}

func main() {
	output, err := render()
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Error generating YAML: "+err.Error()))
		os.Exit(1)
	}

	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		os.Stdout.Write(output)
		return
	}

	if err := os.WriteFile(outputFile, output, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Error writing file: "+err.Error()))
		os.Exit(1)
	}
	fmt.Println(okStyle.Render("Generated example config: " + outputFile))
}
