// Package recipient loads the payout address list.
package recipient

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"bulktransfer-go/internal/util"
)

// Load reads one address per line from path, drops blank lines and returns
// the rest in shuffled order. Read failures are logged and yield an empty
// list so callers can treat them the same as an empty file.
func Load(path string, rng util.Rand, log zerolog.Logger) []string {
	addresses, err := readLines(path)
	if err != nil {
		log.Error().Msgf("failed to load recipients file %s: %v", path, err)
		return nil
	}
	rng.Shuffle(len(addresses), func(i, j int) {
		addresses[i], addresses[j] = addresses[j], addresses[i]
	})
	log.Info().Msgf("loaded and shuffled %d recipient addresses", len(addresses))
	return addresses
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recipients: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recipients: %w", err)
	}
	return lines, nil
}
