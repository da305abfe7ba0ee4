package data

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadUniverse reads a symbol list: one symbol per line, # comments and
// blank lines ignored, symbols upper-cased and de-duplicated in file order.
func LoadUniverse(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var symbols []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbol := strings.ToUpper(line)
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("universe file %s names no symbols", path)
	}
	return symbols, nil
}
