package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/casacolor/casacolor-backend-go/internal/circle"
	"github.com/casacolor/casacolor-backend-go/pkg/logger"
)

// secretctl is an operator utility for the payments entity secret:
//
//	secretctl new                      generate a fresh 32-byte secret in hex
//	secretctl check   -secret <hex>    validate a configured secret
//	secretctl encrypt -secret <hex>    produce a one-time ciphertext for
//	                                   registering the secret with the provider
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "new":
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			fatal("failed to generate secret: %v", err)
		}
		fmt.Println(hex.EncodeToString(secret))

	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		secret := fs.String("secret", "", "entity secret in hex")
		fs.Parse(os.Args[2:])

		if err := circle.ValidateEntitySecretHex(*secret); err != nil {
			fatal("%v", err)
		}
		fmt.Println("ok")

	case "encrypt":
		fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
		secret := fs.String("secret", "", "entity secret in hex")
		apiKey := fs.String("api-key", os.Getenv("CIRCLE_API_KEY"), "provider API key")
		baseURL := fs.String("base-url", "https://api.circle.com", "provider base URL")
		fs.Parse(os.Args[2:])

		if *apiKey == "" {
			fatal("an API key is required, set -api-key or CIRCLE_API_KEY")
		}

		log := logger.New()
		keys := circle.NewKeyCache(*baseURL, *apiKey, 30*time.Second, log)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		ciphertext, err := circle.GenerateCiphertext(ctx, keys, *secret)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Println(ciphertext)

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: secretctl <new|check|encrypt> [flags]")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
