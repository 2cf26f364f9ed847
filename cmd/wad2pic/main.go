package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/neilforshaw/wad2pic"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"Usage: %s [options] iwad.wad [MAPNAME] [pwad.wad|pwad.pk3]\n\n"+
			"Renders an isometric picture of a level. MAPNAME is E1M1, MAP01\n"+
			"and so on; ALL renders every map slot.\n\nOptions:\n",
		os.Args[0])
	flag.PrintDefaults()
}

func main() {
	opts := wad2pic.DefaultOptions()

	flag.Usage = usage
	flag.IntVar(&opts.Margins, "margin", opts.Margins, "margin around the map, in pixels")
	flag.Float64Var(&opts.Gamma, "gamma", opts.Gamma, "gamma correction, lower is lighter")
	flag.Float64Var(&opts.CoefX, "coefx", opts.CoefX, "X projection coefficient for heights")
	flag.Float64Var(&opts.CoefY, "coefy", opts.CoefY, "Y projection coefficient for heights")
	flag.IntVar(&opts.Rotate, "rotate", opts.Rotate, "rotate the map, in degrees")
	flag.Float64Var(&opts.ScaleY, "scaley", opts.ScaleY, "Y axis compression")
	flag.IntVar(&opts.Shrink, "shrink", opts.Shrink, "shrink the map by an integer factor")
	flag.IntVar(&opts.Difficulty, "skill", opts.Difficulty, "skill bitmask for placed things (1 easy, 2 medium, 4 hard)")
	deathmatch := flag.Bool("deathmatch", false, "show deathmatch starts instead of the player start")
	zstyle := flag.Bool("zstyle", false, "read extended (Hexen-style) linedefs and things")
	flag.StringVar(&opts.Output, "output", "", "output file name (default <wad>-<map>.png)")
	hideinfo := flag.Bool("hideinfo", false, "skip the statistics overlay")
	quiet := flag.Bool("quiet", false, "no progress output")
	debug := flag.Bool("debug", false, "crash on a broken map instead of skipping it")
	flag.IntVar(&opts.Workers, "n", opts.Workers, "maps to render in parallel with ALL")
	flag.Parse()

	opts.Deathmatch = *deathmatch
	opts.ZStyle = *zstyle
	opts.HideInfo = *hideinfo
	opts.Verbose = !*quiet
	opts.Debug = *debug

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	iwad := args[0]
	mapName := "ALL"
	if len(args) > 1 {
		mapName = args[1]
	}
	pwad := ""
	if len(args) > 2 {
		pwad = args[2]
	}

	for _, f := range []string{iwad, pwad} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", f, err)
			os.Exit(1)
		}
	}

	if opts.Verbose {
		wad2pic.SetLogger(log.New(os.Stdout, "", 0))
	}

	wad2pic.Run(iwad, mapName, pwad, opts)
}
