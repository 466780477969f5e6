// mint issues a signed bearer token for a given identity, bypassing the OTP
// flow. Useful for exercising the websocket and API endpoints during
// development and load testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Vjnishad/mescon/internal/auth"
)

func main() {
	identity := flag.String("identity", "", "Phone number to mint a token for")
	secret := flag.String("secret", os.Getenv("TOKEN_SECRET"), "Signing secret (defaults to TOKEN_SECRET env)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *identity == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "Usage: mint -identity <phone-number> [-secret <secret>] [-ttl <duration>]")
		fmt.Fprintln(os.Stderr, "  Reads the secret from TOKEN_SECRET if -secret not specified")
		os.Exit(1)
	}

	token, err := auth.NewTokens(*secret, *ttl).Sign(*identity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
