package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads KEY=VALUE files into the process environment so TAXDESK_*
// settings can live in a local .env file. Variables already set in the
// environment win, and missing files are skipped. It returns the keys set.
func Load(paths ...string) ([]string, error) {
	var set []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		f, err := os.Open(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return set, err
		}
		vars, err := Parse(f)
		_ = f.Close()
		if err != nil {
			return set, fmt.Errorf("%s: %w", p, err)
		}
		for _, kv := range vars {
			if _, ok := os.LookupEnv(kv[0]); ok {
				continue
			}
			if err := os.Setenv(kv[0], kv[1]); err != nil {
				return set, err
			}
			set = append(set, kv[0])
		}
	}
	return set, nil
}

// Parse returns the key/value pairs of a dotenv document in file order.
func Parse(r io.Reader) ([][2]string, error) {
	var out [][2]string
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		k, v, ok := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("line %d: expected KEY=VALUE", n)
		}
		out = append(out, [2]string{k, unquote(strings.TrimSpace(v))})
	}
	return out, sc.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}
