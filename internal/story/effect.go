package story

import "fmt"

// EffectKind tags an Effect.
type EffectKind string

const (
	EffectNone           EffectKind = "none"
	EffectAppendItem     EffectKind = "append_item"
	EffectAdjustMorality EffectKind = "adjust_morality"
	EffectSetEnding      EffectKind = "set_ending"
)

// Ending names the outcome chosen at the bypass junction.
type Ending string

const (
	EndingNone    Ending = ""
	EndingSever   Ending = "sever"
	EndingAmplify Ending = "amplify"
)

// Effect is one state mutation carried by a choice. Only the field matching
// Kind is meaningful.
type Effect struct {
	Kind   EffectKind `toml:"kind"`
	Item   string     `toml:"item,omitempty"`
	Delta  int        `toml:"delta,omitempty"`
	Ending Ending     `toml:"ending,omitempty"`
}

func NoEffect() Effect                { return Effect{Kind: EffectNone} }
func AppendItem(label string) Effect  { return Effect{Kind: EffectAppendItem, Item: label} }
func AdjustMorality(delta int) Effect { return Effect{Kind: EffectAdjustMorality, Delta: delta} }
func SetEnding(ending Ending) Effect  { return Effect{Kind: EffectSetEnding, Ending: ending} }

// Validate checks that the fields required by Kind are present.
func (e Effect) Validate() error {
	switch e.Kind {
	case EffectNone:
		return nil
	case EffectAppendItem:
		if e.Item == "" {
			return fmt.Errorf("%w: append_item without item", ErrInvalidEffect)
		}
	case EffectAdjustMorality:
		if e.Delta == 0 {
			return fmt.Errorf("%w: adjust_morality with zero delta", ErrInvalidEffect)
		}
	case EffectSetEnding:
		if e.Ending != EndingSever && e.Ending != EndingAmplify {
			return fmt.Errorf("%w: unknown ending %q", ErrInvalidEffect, e.Ending)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEffect, e.Kind)
	}
	return nil
}

func (e Effect) String() string {
	switch e.Kind {
	case EffectAppendItem:
		return fmt.Sprintf("append_item(%s)", e.Item)
	case EffectAdjustMorality:
		return fmt.Sprintf("adjust_morality(%+d)", e.Delta)
	case EffectSetEnding:
		return fmt.Sprintf("set_ending(%s)", e.Ending)
	default:
		return string(EffectNone)
	}
}
