package model

import (
	"fmt"
	"strings"
)

// Category is a waste class predicted by the classifier. Its integer value
// is the index of the class in the model output tensor.
type Category int

const (
	Battery Category = iota
	Biological
	Bottle
	Cardboard
	Clothes
	Glass
	Paper
	Plastic
	Shoes
	Trash
)

// NumCategories is the size of the model output vector.
const NumCategories = 10

var categoryNames = [NumCategories]string{
	"Battery",
	"Biological",
	"Bottle",
	"Cardboard",
	"Clothes",
	"Glass",
	"Paper",
	"Plastic",
	"Shoes",
	"Trash",
}

// Categories returns all categories in output-index order.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// CategoryNames returns the class labels in output-index order.
func CategoryNames() []string {
	names := make([]string, NumCategories)
	copy(names, categoryNames[:])
	return names
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c >= 0 && c < NumCategories
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory maps a label to its category, ignoring case.
func ParseCategory(label string) (Category, bool) {
	label = strings.TrimSpace(label)
	for i, name := range categoryNames {
		if strings.EqualFold(name, label) {
			return Category(i), true
		}
	}
	return 0, false
}
