// Command test-clipboard is a manual test for clipboard publishing.
// It writes test text to the clipboard and, with --paste, waits 3 seconds
// and sends the paste shortcut. Focus a text editor before the countdown
// finishes.
//
// Usage:
//
//	go run ./cmd/test-clipboard [--paste] [--text "..."]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chaz8081/whisperclip/internal/clipboard"
)

func main() {
	paste := flag.Bool("paste", false, "paste into the focused window after writing")
	text := flag.String("text", "Hello from whisperclip!", "text to write")
	flag.Parse()

	if *paste {
		fmt.Printf("Will copy and paste %q in 3 seconds...\n", *text)
		fmt.Println("Focus a text editor now!")
		for i := 3; i > 0; i-- {
			fmt.Printf("%d...\n", i)
			time.Sleep(time.Second)
		}
	}

	if err := clipboard.NewWriter(*paste).Write(*text); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clipboard now holds %q\n", *text)
}
