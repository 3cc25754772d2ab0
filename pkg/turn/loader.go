package turn

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/pivot/pkg/anim"
)

//go:embed animset.schema.json
var animSetSchemaJSON string

var animSetSchema = jsonschema.MustCompileString("animset.schema.json", animSetSchemaJSON)

// AnimSetSchema returns the embedded JSON schema that anim set documents
// are validated against. The schemas directory is republished from it.
func AnimSetSchema() string {
	return animSetSchemaJSON
}

// animSetFile mirrors the YAML document layout of an animation set.
// Pointer fields distinguish absent keys from explicit zero values so
// absent keys fall back to the built-in defaults.
type animSetFile struct {
	Name                      string         `yaml:"name"`
	Params                    *paramsFile    `yaml:"params"`
	PlayRateOnDirectionChange *float64       `yaml:"play_rate_on_direction_change"`
	PlayRateAtMaxAngle        *float64       `yaml:"play_rate_at_max_angle"`
	MaintainMaxAnglePlayRate  *bool          `yaml:"maintain_max_angle_play_rate"`
	LeftTurns                 []sequenceFile `yaml:"left_turns"`
	RightTurns                []sequenceFile `yaml:"right_turns"`
}

type paramsFile struct {
	State               string                `yaml:"state"`
	SelectMode          string                `yaml:"select_mode"`
	SelectOffset        *float64              `yaml:"select_offset"`
	TurnAngles          map[string]anglesFile `yaml:"turn_angles"`
	StepSizes           []int                 `yaml:"step_sizes"`
	MovingInterpOutRate *float64              `yaml:"moving_interp_out_rate"`
	Montages            *montageRulesFile     `yaml:"montages"`
}

type anglesFile struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type montageRulesFile struct {
	IgnoreAdditive *bool    `yaml:"ignore_additive"`
	IgnoreSlots    []string `yaml:"ignore_slots"`
	IgnoreNames    []string `yaml:"ignore_names"`
}

type sequenceFile struct {
	Name      string               `yaml:"name"`
	Length    float64              `yaml:"length"`
	RateScale float64              `yaml:"rate_scale"`
	Bake      *bakeFile            `yaml:"bake"`
	Curves    map[string]curveFile `yaml:"curves"`
}

type bakeFile struct {
	TurnAngle     float64 `yaml:"turn_angle"`
	Duration      float64 `yaml:"duration"`
	RecoveryStart float64 `yaml:"recovery_start"`
	SampleRate    float64 `yaml:"sample_rate"`
}

type curveFile struct {
	Interp string       `yaml:"interp"`
	Keys   [][2]float64 `yaml:"keys"`
}

// LoadAnimSet reads, validates and builds an animation set from a YAML file.
func LoadAnimSet(path string) (*AnimSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read anim set: %w", err)
	}
	set, err := ParseAnimSet(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse anim set %s: %w", path, err)
	}
	return set, nil
}

// ParseAnimSet validates YAML data against the embedded schema and builds
// an AnimSet from it. Fields absent from the document keep the defaults
// from DefaultParams and DefaultAnimSet.
func ParseAnimSet(data []byte) (*AnimSet, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if err := animSetSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var file animSetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return buildAnimSet(&file)
}

func buildAnimSet(file *animSetFile) (*AnimSet, error) {
	set := &AnimSet{
		Name:                      file.Name,
		Params:                    DefaultParams(),
		PlayRateOnDirectionChange: 1.7,
		PlayRateAtMaxAngle:        1.3,
		MaintainMaxAnglePlayRate:  true,
	}
	if file.PlayRateOnDirectionChange != nil {
		set.PlayRateOnDirectionChange = *file.PlayRateOnDirectionChange
	}
	if file.PlayRateAtMaxAngle != nil {
		set.PlayRateAtMaxAngle = *file.PlayRateAtMaxAngle
	}
	if file.MaintainMaxAnglePlayRate != nil {
		set.MaintainMaxAnglePlayRate = *file.MaintainMaxAnglePlayRate
	}
	if file.Params != nil {
		if err := applyParamsFile(&set.Params, file.Params); err != nil {
			return nil, err
		}
	}

	var err error
	set.LeftTurns, err = buildSequences(file.LeftTurns)
	if err != nil {
		return nil, fmt.Errorf("left_turns: %w", err)
	}
	set.RightTurns, err = buildSequences(file.RightTurns)
	if err != nil {
		return nil, fmt.Errorf("right_turns: %w", err)
	}
	return set, nil
}

func applyParamsFile(p *Params, file *paramsFile) error {
	if file.State != "" {
		state, err := ParseState(file.State)
		if err != nil {
			return err
		}
		p.State = state
	}
	if file.SelectMode != "" {
		mode, err := ParseSelectMode(file.SelectMode)
		if err != nil {
			return err
		}
		p.SelectMode = mode
	}
	if file.SelectOffset != nil {
		p.SelectOffset = *file.SelectOffset
	}
	for name, angles := range file.TurnAngles {
		var mode TurnMode
		switch name {
		case "movement":
			mode = TurnModeMovement
		case "strafe":
			mode = TurnModeStrafe
		default:
			return fmt.Errorf("unknown turn mode %q", name)
		}
		p.TurnAngles[mode] = Angles{Min: angles.Min, Max: angles.Max}
	}
	if file.StepSizes != nil {
		p.StepSizes = append([]int(nil), file.StepSizes...)
	}
	if file.MovingInterpOutRate != nil {
		p.MovingInterpOutRate = *file.MovingInterpOutRate
	}
	if file.Montages != nil {
		if file.Montages.IgnoreAdditive != nil {
			p.Montages.IgnoreAdditive = *file.Montages.IgnoreAdditive
		}
		if file.Montages.IgnoreSlots != nil {
			p.Montages.IgnoreSlots = append([]string(nil), file.Montages.IgnoreSlots...)
		}
		if file.Montages.IgnoreNames != nil {
			p.Montages.IgnoreNames = append([]string(nil), file.Montages.IgnoreNames...)
		}
	}
	return nil
}

func buildSequences(files []sequenceFile) ([]*anim.Sequence, error) {
	if len(files) == 0 {
		return nil, nil
	}
	out := make([]*anim.Sequence, 0, len(files))
	for _, file := range files {
		seq, err := buildSequence(&file)
		if err != nil {
			return nil, fmt.Errorf("sequence %q: %w", file.Name, err)
		}
		out = append(out, seq)
	}
	return out, nil
}

func buildSequence(file *sequenceFile) (*anim.Sequence, error) {
	if file.Bake != nil {
		seq := anim.BakeTurnSequence(anim.BakeParams{
			Name:          file.Name,
			TurnAngle:     file.Bake.TurnAngle,
			Duration:      file.Bake.Duration,
			RecoveryStart: file.Bake.RecoveryStart,
			SampleRate:    file.Bake.SampleRate,
		})
		if file.RateScale != 0 {
			seq.RateScale = file.RateScale
		}
		return seq, nil
	}

	seq := &anim.Sequence{
		Name:      file.Name,
		Length:    file.Length,
		RateScale: file.RateScale,
	}
	for name, curve := range file.Curves {
		c := &anim.Curve{}
		if curve.Interp == "step" {
			c.Interp = anim.InterpStep
		}
		for _, key := range curve.Keys {
			c.AddKey(key[0], key[1])
		}
		seq.SetCurve(name, c)
	}
	return seq, nil
}
