package poker

import (
	"fmt"
	"sync"
)

// Category is a coarse preflop strength bucket used by bots and statistics.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryTrash
	CategoryWeak
	CategoryMedium
	CategoryStrong
	CategoryPremium
)

var categoryNames = [...]string{"Unknown", "Trash", "Weak", "Medium", "Strong", "Premium"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// Strongest first. Anything not listed is trash.
var categoryTiers = []struct {
	category Category
	notation string
}{
	{CategoryPremium, "JJ+,AK"},
	{CategoryStrong, "TT,AQ,AJ"},
	{CategoryMedium, "99-77,ATs,KQs,KJs,KTs,QJs,QTs,JTs"},
	{CategoryWeak, "66-22,T9s,98s,87s,76s,65s,54s,43s,32s,J9s,T8s,97s,86s,75s,64s,53s,42s"},
}

var tierRanges = sync.OnceValue(func() []*HandRange {
	out := make([]*HandRange, len(categoryTiers))
	for i, tier := range categoryTiers {
		out[i] = MustParseHandRange(tier.notation)
	}
	return out
})

// Categorize buckets a starting holding. Omaha holdings take the category of
// their best two card subset.
func Categorize(hole []Card) Category {
	if len(hole) < 2 {
		return CategoryUnknown
	}
	for _, c := range hole {
		if !c.Valid() {
			return CategoryUnknown
		}
	}
	for i, r := range tierRanges() {
		if r.ContainsAny(hole) {
			return categoryTiers[i].category
		}
	}
	return CategoryTrash
}
