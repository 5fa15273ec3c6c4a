package main

import (
	"flag"
	"fmt"
	"os"

	"gpscam/internal/di"
	"gpscam/internal/services"
	"gpscam/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "", "path to the configuration directory")
	flag.BoolVar(&flags.DebugMode, "debug", false, "enable debug logging")
	lat := flag.Float64("lat", 37.7749, "simulated position latitude")
	lng := flag.Float64("lng", -122.4194, "simulated position longitude")
	flag.Parse()

	// Simulated collaborators; real deployments inject platform-backed
	// position and frame providers here.
	position := &services.SimulatedPositionProvider{Latitude: *lat, Longitude: *lng}
	frames := &services.SyntheticFrameProvider{}

	if _, err := di.InitApp(flags, position, frames); err != nil {
		fmt.Fprintf(os.Stderr, "gpscam: %v\n", err)
		os.Exit(1)
	}
}
