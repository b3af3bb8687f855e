// Command test-hotkey is a manual test for the global hotkey listener.
// Run it, then press the key to see events.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey [--key f12] [--mode hold|toggle] [--capture]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaz8081/whisperclip/internal/hotkey"
)

func main() {
	key := flag.String("key", "f12", "key to listen for")
	mode := flag.String("mode", "hold", "hotkey mode: hold or toggle")
	capture := flag.Bool("capture", false, "print the name of the next key pressed and exit")
	flag.Parse()

	if *capture {
		fmt.Println("Press any key...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		name, err := hotkey.CaptureKey(ctx)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Captured: %s\n", name)
		return
	}

	listener, err := hotkey.NewListener(*key, *mode)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := listener.Register(hotkey.DefaultRegisterTimeout); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Listening for %s in %q mode...\n", listener.Key(), *mode)
	fmt.Println("Press Ctrl+C to exit.")

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	// Read events
	go func() {
		for ev := range listener.Events() {
			switch ev.Type {
			case hotkey.EventStart:
				fmt.Println(">>> START (recording)")
			case hotkey.EventStop:
				fmt.Println("<<< STOP  (stopped)")
			}
		}
		fmt.Println("Event channel closed.")
	}()

	// Blocks until stopped
	listener.Start()
	fmt.Println("Done.")
}
