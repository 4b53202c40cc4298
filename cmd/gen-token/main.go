// Command gen-token prints bearer tokens for an API running with
// AUTH0_TEST_MODE=1.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

func main() {
	var (
		count  = flag.Int("count", 1, "number of tokens to generate")
		prefix = flag.String("prefix", "todo-user", "prefix for generated user IDs when count > 1")
		start  = flag.Int("start", 1, "starting index for generated user IDs when count > 1")
		ttl    = flag.Duration("ttl", time.Hour, "token lifetime")
		output = flag.String("output", "", "file to write generated tokens as a JSON array")
	)
	flag.Parse()

	if *count < 1 {
		log.Fatal("count must be at least 1")
	}
	if *start < 1 {
		log.Fatal("start index must be at least 1")
	}
	explicit := flag.Arg(0)
	if explicit != "" && *count > 1 {
		log.Fatal("explicit user ID cannot be provided when generating multiple tokens")
	}

	secret := os.Getenv("TEST_JWT_SECRET")
	now := time.Now()
	ids := userIDs(explicit, *prefix, *count, *start)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tok, err := signToken(secret, id, *ttl, now)
		if err != nil {
			log.Fatalf("generate token: %v", err)
		}
		tokens[i] = tok
	}

	if *output != "" {
		if err := writeTokens(*output, tokens); err != nil {
			log.Fatalf("write tokens: %v", err)
		}
	}
	fmt.Print(tokens[0])
}

func writeTokens(path string, tokens []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
