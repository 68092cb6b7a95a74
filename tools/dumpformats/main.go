// Command dumpformats resolves a video ID and prints the format list
// with the selection decision, for debugging extraction issues.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"ytfree/config"
	"ytfree/services/extractor"
)

func main() {
	var (
		configPath = flag.String("config", "cache/settings.json", "Path to backend settings.json")
		videoID    = flag.String("id", "", "Video ID to resolve")
		kind       = flag.String("type", "video", "Track kind: video or audio")
	)
	flag.Parse()

	if *videoID == "" {
		log.Fatal("usage: dumpformats -id <videoID> [-type video|audio]")
	}

	mgr := config.NewManager(*configPath)
	settings, err := mgr.Load()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	svc := extractor.NewService(settings.Stream.UserAgent)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := svc.Resolve(ctx, *videoID)
	if err != nil {
		log.Fatalf("resolve: %v", err)
	}

	trackKind := extractor.ParseTrackKind(*kind)
	selected, selErr := extractor.Select(res.Formats, trackKind, settings.Stream.MaxHeight)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITAG\tHEIGHT\tVCODEC\tACODEC\tABR\tLABEL\tSELECTED")
	for _, f := range res.Formats {
		marker := ""
		if selErr == nil && f.Itag == selected.Itag {
			marker = "<--"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%s\t%s\n",
			f.Itag, f.Height, f.VideoCodec, f.AudioCodec, f.AudioBitrate, f.QualityLabel, marker)
	}
	w.Flush()

	if selErr != nil {
		log.Fatalf("selection (%s): %v", trackKind, selErr)
	}

	streamURL, err := svc.StreamURL(ctx, res, selected.Itag)
	if err != nil {
		log.Fatalf("stream url: %v", err)
	}
	fmt.Printf("\norigin URL for itag %d:\n%s\n", selected.Itag, streamURL)
}
