package recctl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"recommendd/internal/common/fsutil"
	"recommendd/pkg/types"
)

// loadUserProfile and loadHardwareProfile share the same extension-dispatch
// idiom as internal/config.Load and internal/catalog.Load: .yaml/.yml via
// yaml.v3, .json via encoding/json, .toml via go-toml/v2.
func loadUserProfile(path string) (types.UserProfile, error) {
	var user types.UserProfile
	b, err := readDocument(path)
	if err != nil {
		return user, err
	}
	err = decodeByExtension(path, b, &user)
	return user, err
}

func loadHardwareProfile(path string) (types.HardwareProfile, error) {
	var hw types.HardwareProfile
	b, err := readDocument(path)
	if err != nil {
		return hw, err
	}
	err = decodeByExtension(path, b, &hw)
	return hw, err
}

func readDocument(path string) ([]byte, error) {
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(expanded)
}

func decodeByExtension(path string, b []byte, out any) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, out)
	case ".json":
		return json.Unmarshal(b, out)
	case ".toml":
		return toml.Unmarshal(b, out)
	default:
		return fmt.Errorf("unsupported document extension: %s", ext)
	}
}
