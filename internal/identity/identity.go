package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	moods   = []string{"brave", "calm", "eager", "fancy", "gentle", "happy", "jolly", "lucky", "merry", "quiet", "swift", "witty"}
	colors  = []string{"amber", "azure", "coral", "crimson", "golden", "ivory", "jade", "olive", "ruby", "silver", "teal", "violet"}
	animals = []string{"badger", "crane", "falcon", "fox", "heron", "lynx", "otter", "panda", "raven", "tiger", "walrus", "wolf"}
)

const suffixLen = 5

// Generate returns a new player name such as "lucky-jade-otter-3f9a1".
func Generate(rng *rand.Rand) string {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	return strings.Join([]string{
		moods[rng.Intn(len(moods))],
		colors[rng.Intn(len(colors))],
		animals[rng.Intn(len(animals))],
		suffix,
	}, "-")
}

// Valid reports whether name can be used as a player id.
func Valid(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Load returns the player name stored at path. When the file does not exist a
// new name is generated and written there so later runs reuse it.
func Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		name := strings.TrimSpace(string(b))
		if !Valid(name) {
			return "", fmt.Errorf("invalid player name in %s", path)
		}
		return name, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read player file: %w", err)
	}

	name := Generate(nil)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create player dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(name+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write player file: %w", err)
	}
	return name, nil
}

// Resolve picks the configured name if set, otherwise the persisted one.
func Resolve(configured, path string) (string, error) {
	if configured != "" {
		if !Valid(configured) {
			return "", fmt.Errorf("invalid player name %q", configured)
		}
		return configured, nil
	}
	return Load(path)
}
