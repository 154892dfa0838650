package main

import (
	"fmt"
	"os"

	"github.com/zalepa/bmtcstats/cmd"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "clean":
		cmd.Clean(os.Args[2:])
	case "stats":
		cmd.Stats(os.Args[2:])
	case "report":
		cmd.Report(os.Args[2:])
	case "web":
		cmd.Web(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: bmtcstats <command>\n\nCommands:\n"+
		"  clean    Clean a BMTC revenue CSV into a year x category table\n"+
		"  stats    Print summary statistics, correlations and a hypothesis test\n"+
		"  report   Render the statistical report as a multi-page PDF\n"+
		"  web      Start the interactive dashboard\n")
}
