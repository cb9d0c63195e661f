// Package registry holds the closed set of hosted generation models and
// their fixed parameters. Adding a model is a data change only.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jjoyayroo/alphathreads/internal/domain"
)

// ModelConfig describes one hosted generation model: its provider-side
// reference and the fixed parameters merged into every request.
type ModelConfig struct {
	ID      string
	Version string
	Params  map[string]any
}

var models = map[string]ModelConfig{
	"flux": {
		ID:      "flux",
		Version: "black-forest-labs/flux-1.1-pro",
		Params: map[string]any{
			"aspect_ratio":      "1:1",
			"output_format":     "webp",
			"output_quality":    80,
			"safety_tolerance":  2,
			"prompt_upsampling": true,
		},
	},
	"sdxl": {
		ID:      "sdxl",
		Version: "ac732df83cea7fff18b8472768c88ad041fa750ff7682a21affe81863cbe77e4",
		Params: map[string]any{
			"width":               768,
			"height":              768,
			"num_inference_steps": 50,
			"guidance_scale":      7.5,
		},
	},
	"ideogram": {
		ID:      "ideogram",
		Version: "ideogram-ai/ideogram-v2",
		Params: map[string]any{
			"aspect_ratio":        "1:1",
			"resolution":          "None",
			"style_type":          "None",
			"magic_prompt_option": "Auto",
		},
	},
}

// Resolve looks up a model by identifier. The returned config carries a
// copy of the parameter map so callers cannot mutate the registry.
func Resolve(id string) (ModelConfig, error) {
	cfg, ok := models[id]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%w: %q (valid models: %s)",
			domain.ErrUnknownModel, id, strings.Join(IDs(), ", "))
	}

	params := make(map[string]any, len(cfg.Params))
	for k, v := range cfg.Params {
		params[k] = v
	}
	cfg.Params = params

	return cfg, nil
}

// IDs returns the sorted set of valid model identifiers.
func IDs() []string {
	ids := make([]string, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
