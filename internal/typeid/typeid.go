package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser       = "user"
	PrefixBlueprint  = "bp"
	PrefixScene      = "scene"
	PrefixBody       = "body"
	PrefixConstraint = "cons"
	PrefixGroup      = "group"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string       { return New(PrefixUser) }
func NewBlueprintID() string  { return New(PrefixBlueprint) }
func NewSceneID() string      { return New(PrefixScene) }
func NewBodyID() string       { return New(PrefixBody) }
func NewConstraintID() string { return New(PrefixConstraint) }
func NewGroupID() string      { return New(PrefixGroup) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
