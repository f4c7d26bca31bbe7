package main

import (
	"fmt"
	"io"
	"time"

	"recpanel/app"
	"recpanel/models"
)

var nowFunc = time.Now

func printStatus(out io.Writer, s models.Status, now time.Time) {
	if !s.Recording {
		fmt.Fprintln(out, "Stopped")
		return
	}
	if s.StartTime == nil {
		fmt.Fprintln(out, "Recording")
		return
	}
	fmt.Fprintf(out, "Recording %s (since %s)\n",
		app.FormatElapsed(now.Sub(s.StartTime.Time)),
		s.StartTime.Format(time.RFC3339))
}

func printList(out io.Writer, names []string, downloadURL func(string) string) {
	if len(names) == 0 {
		fmt.Fprintln(out, "No videos found")
		return
	}
	for _, name := range names {
		fmt.Fprintf(out, "%s\t%s\n", name, downloadURL(name))
	}
}
