// Command fingerprint computes and prints the 60-digit safety-number
// fingerprint between a local and a remote Curve25519 identity key, the
// way a messaging client's "verify safety number" screen would.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/wire"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("fingerprint: no .env file loaded: %v", err)
	}

	var (
		localIdentifier   = flag.String("local-identifier", envOr("FP_LOCAL_ID", "local"), "local participant identifier")
		localIdentityHex  = flag.String("local-identity-key", os.Getenv("FP_LOCAL_KEY"), "hex-encoded local identity public key (generated if omitted)")
		remoteIdentifier  = flag.String("remote-identifier", envOr("FP_REMOTE_ID", "remote"), "remote participant identifier")
		remoteIdentityHex = flag.String("remote-identity-key", os.Getenv("FP_REMOTE_KEY"), "hex-encoded remote identity public key (required)")
		version           = flag.Uint("version", 1, "fingerprint algorithm version")
	)
	flag.Parse()

	localKey, err := resolvePublicKey(*localIdentityHex)
	if err != nil {
		log.Fatalf("fingerprint: local identity key: %v", err)
	}
	if *remoteIdentityHex == "" {
		log.Fatal("fingerprint: -remote-identity-key is required")
	}
	remoteKey, err := resolvePublicKey(*remoteIdentityHex)
	if err != nil {
		log.Fatalf("fingerprint: remote identity key: %v", err)
	}

	fp, err := wire.NewFingerprint(uint16(*version), *localIdentifier, localKey, *remoteIdentifier, remoteKey)
	if err != nil {
		log.Fatalf("fingerprint: compute: %v", err)
	}

	fmt.Println(fp.DisplayableText)
}

// resolvePublicKey decodes a hex-encoded public key, or generates a fresh
// identity key pair and prints its hex encoding when hexKey is empty — a
// convenience for trying the command out without an existing identity.
func resolvePublicKey(hexKey string) (ecc.PublicKey, error) {
	if hexKey == "" {
		pair, err := ecc.GenerateKeyPair(rand.Reader)
		if err != nil {
			return ecc.PublicKey{}, err
		}
		fmt.Fprintf(os.Stderr, "generated identity key: %s\n", hex.EncodeToString(pair.Public.Serialize()))
		return pair.Public, nil
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return ecc.PublicKey{}, fmt.Errorf("invalid hex: %w", err)
	}
	return ecc.DecodePublicKey(raw)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
