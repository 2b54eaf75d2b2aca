package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-spectral-sdf/pkg/config"
)

// ErrUnknownScene is returned when no built-in scene has the requested ID
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "preset"
	Scene       string `json:"scene"`       // Built-in scene a preset renders
	FilePath    string `json:"filePath"`    // Path to the preset config (preset type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const builtinGroup = "Built-in Scenes"

var builtins = []func() Scene{
	func() Scene { return NewDefaultScene() },
	func() Scene { return NewLambertSphereScene() },
	func() Scene { return NewGlassSphereScene() },
	func() Scene { return NewFogScene() },
	func() Scene { return NewGlowScene() },
}

// Lookup creates the built-in scene with the given ID
func Lookup(id string) (Scene, error) {
	for _, create := range builtins {
		s := create()
		if s.Name() == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
}

// Resolve turns a scene ID from ListAllScenes into a scene and its starting
// configuration. Preset IDs ("preset:<name>") load <name>.json from
// presetDir over the defaults of the built-in scene the preset names.
func Resolve(id, presetDir string) (Scene, config.Config, error) {
	name, isPreset := strings.CutPrefix(id, "preset:")
	if !isPreset {
		s, err := Lookup(id)
		if err != nil {
			return nil, config.Config{}, err
		}
		return s, DefaultConfig(s), nil
	}

	path := filepath.Join(presetDir, name+".json")
	info, err := ParsePresetMetadata(path)
	if err != nil {
		return nil, config.Config{}, err
	}
	s, err := Lookup(info.Scene)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("preset %s: %w", name, err)
	}
	cfg, err := config.LoadOver(DefaultConfig(s), path)
	if err != nil {
		return nil, config.Config{}, err
	}
	cfg.Scene = s.Name()
	return s, cfg, nil
}

// ListBuiltinScenes describes every built-in scene
func ListBuiltinScenes() []SceneInfo {
	infos := make([]SceneInfo, 0, len(builtins))
	for _, create := range builtins {
		s := create()
		infos = append(infos, SceneInfo{
			ID:          s.Name(),
			Name:        titleCase(s.Name()),
			Description: s.Description(),
			Group:       builtinGroup,
			Type:        "builtin",
			Scene:       s.Name(),
		})
	}
	return infos
}

// presetHeader is the metadata a preset config may carry next to the
// regular config fields
type presetHeader struct {
	Scene       string `json:"scene"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

// ListPresets scans dir for JSON config presets
func ListPresets(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		// No presets directory, return empty list
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan presets directory: %w", err)
	}

	var presets []SceneInfo
	for _, filePath := range files {
		info, err := ParsePresetMetadata(filePath)
		if err != nil {
			return nil, err
		}
		presets = append(presets, info)
	}

	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})

	return presets, nil
}

// ParsePresetMetadata reads the header fields of a preset config, falling
// back to values derived from the file name
func ParsePresetMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:       fmt.Sprintf("preset:%s", nameWithoutExt),
		Name:     titleCase(nameWithoutExt),
		Group:    "Presets",
		Type:     "preset",
		FilePath: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info, fmt.Errorf("failed to read preset %s: %w", filePath, err)
	}
	var header presetHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return info, fmt.Errorf("failed to parse preset %s: %w", filePath, err)
	}

	if header.Name != "" {
		info.Name = header.Name
	}
	if header.Group != "" {
		info.Group = header.Group
	}
	info.Description = header.Description
	info.Scene = header.Scene
	if info.Scene == "" {
		info.Scene = NewDefaultScene().Name()
	}
	return info, nil
}

// ListAllScenes returns built-in scenes and presets, grouped by category
func ListAllScenes(presetDir string) (ScenesResponse, error) {
	var response ScenesResponse

	presets, err := ListPresets(presetDir)
	if err != nil {
		return response, fmt.Errorf("failed to list presets: %w", err)
	}

	allScenes := append(ListBuiltinScenes(), presets...)

	groupMap := make(map[string][]SceneInfo)
	for _, s := range allScenes {
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if group, exists := groupMap[builtinGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{Name: builtinGroup, Scenes: group})
	}
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "glass-sphere" -> "Glass Sphere"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
