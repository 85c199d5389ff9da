package main

import (
	"fmt"
	"os"

	"github.com/dacweb/dac/pkg/contentsync"
	"github.com/dacweb/dac/pkg/playback"
	"github.com/dacweb/dac/pkg/render"
	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
)

func main() {
	log := logger.New()

	var opts struct {
		Verbose bool `short:"v" long:"verbose" description:"Print every module and chapter"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/check-learning-data <path/to/learning-data.json>")
		os.Exit(1)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		log.Err(err).Fatal("read file error")
	}

	doc, err := contentsync.Validate(raw)
	if err != nil {
		log.Err(err).Fatal("learning data is invalid")
	}

	modules, chapters := doc.Counts()
	fmt.Printf("Modules: %d\nChapters: %d\n", modules, chapters)

	unplayable := 0
	for _, m := range doc.Modules {
		if opts.Verbose {
			fmt.Printf("%s  %s (%d chapters)\n", m.ID, m.Title, len(m.Chapters))
		}
		for _, c := range m.Chapters {
			ok := playback.ValidVideoID(c.VideoID)
			if !ok {
				unplayable++
			}
			if opts.Verbose || !ok {
				mark := " "
				if !ok {
					mark = "!"
				}
				fmt.Printf("  %s %s  %s [%s] %s\n", mark, c.ID, c.Title, c.VideoID, render.FormatDuration(c.Duration))
			}
		}
	}

	if unplayable > 0 {
		fmt.Printf("%d chapter(s) have a video id the player can't load\n", unplayable)
		os.Exit(1)
	}
}
