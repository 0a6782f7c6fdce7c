package entity

// Rule pairs a key pattern with a destination and optional decoder configuration.
// Pattern is a regular expression; it is compiled at resolution time.
type Rule struct {
	ID           int64          `json:"id,omitempty" yaml:"-"`
	Pattern      string         `json:"pattern" yaml:"pattern"`
	Destination  string         `json:"destination" yaml:"destination"`
	DecodeConfig map[string]any `json:"decode_config,omitempty" yaml:"decode_config,omitempty"`
}
