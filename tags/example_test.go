package tags_test

import (
	"fmt"

	"github.com/jonwraymond/statgauge/tags"
)

func ExampleUniverse_ExpandPermissive() {
	u := tags.NewUniverse()
	fire, _ := u.Register("FIRE")
	ice, _ := u.Register("ICE")
	elemental, _ := u.RegisterCategory("ELEMENTAL", fire|ice)

	query := u.ExpandPermissive(fire)
	fmt.Println(u.Format(query))
	fmt.Println(tags.Matches(elemental, query))
	fmt.Println(tags.Matches(fire, u.ExpandPermissive(elemental)))
	// Output:
	// {FIRE|ELEMENTAL}
	// true
	// false
}
