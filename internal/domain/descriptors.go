package domain

// DescriptorPool is the closed aroma/flavour vocabulary permitted for one
// wine category. Pools constrain the synthesis prompt and validate what the
// selection UI may offer, so each defined category carries exactly ten
// entries per side.
type DescriptorPool struct {
	Aromas   []string
	Flavours []string
}

var descriptorPools = map[WineCategory]DescriptorPool{
	CategoryRed: {
		Aromas: []string{
			"Blackberry", "Black Cherry", "Plum", "Cassis",
			"Violet", "Dried Rose", "Tobacco", "Cedar",
			"Earth", "Black Pepper",
		},
		Flavours: []string{
			"Blackberry", "Black Cherry", "Raspberry", "Plum",
			"Chocolate", "Coffee", "Tobacco", "Licorice",
			"Baking Spice", "Oak",
		},
	},
	CategoryWhite: {
		Aromas: []string{
			"Lemon", "Lime", "Green Apple", "Pear",
			"Peach", "Apricot", "Pineapple", "White Blossom",
			"Honeysuckle", "Wet Stone",
		},
		Flavours: []string{
			"Citrus", "Green Apple", "Stone Fruit", "Tropical Fruit",
			"Melon", "Almond", "Brioche", "Butter",
			"Honey", "Mineral",
		},
	},
	CategoryRose: {
		Aromas: []string{
			"Strawberry", "Raspberry", "Red Currant", "Watermelon",
			"Peach", "Rose Petal", "Orange Zest", "Citrus Blossom",
			"Herbes de Provence", "Mineral",
		},
		Flavours: []string{
			"Strawberry", "Cherry", "Watermelon", "Peach",
			"Melon", "Citrus", "Pomegranate", "Herbal",
			"Candied Fruit", "Mineral",
		},
	},
	CategoryOrange: {
		Aromas: []string{
			"Dried Apricot", "Orange Peel", "Tea Leaf", "Honey",
			"Bruised Apple", "Quince", "Chamomile", "Ginger",
			"Spice", "Nutty",
		},
		Flavours: []string{
			"Apricot", "Orange Peel", "Almond Skin", "Dried Fruit",
			"Herbal Tea", "Tannin Grip", "Honey", "Quince",
			"Ginger", "Candied Citrus",
		},
	},
	CategoryRedSparkling: {
		Aromas: []string{
			"Strawberry", "Raspberry", "Red Cherry", "Cranberry",
			"Pomegranate", "Rose Petal", "Violet", "Red Currant",
			"Brioche", "Baking Spice",
		},
		Flavours: []string{
			"Strawberry", "Cherry", "Raspberry", "Red Plum",
			"Cranberry", "Brioche", "Cream", "Spice",
			"Cocoa", "Toast",
		},
	},
	CategoryWhiteSparkling: {
		Aromas: []string{
			"Green Apple", "Lemon", "Pear", "White Peach",
			"Green Plum", "Brioche", "Almond", "Hazelnut",
			"Toast", "Cream",
		},
		Flavours: []string{
			"Citrus", "Green Apple", "Stone Fruit", "Biscuit",
			"Brioche", "Almond", "Hazelnut", "Honey",
			"Mineral", "Yeast",
		},
	},
	CategoryRedDessert: {
		Aromas: []string{
			"Fig", "Raisin", "Prune", "Date",
			"Black Cherry Jam", "Chocolate", "Coffee", "Caramel",
			"Nutmeg", "Clove",
		},
		Flavours: []string{
			"Fig", "Raisin", "Plum Jam", "Chocolate",
			"Mocha", "Toffee", "Spice", "Dried Cherry",
			"Nutty", "Vanilla",
		},
	},
	CategoryWhiteDessert: {
		Aromas: []string{
			"Apricot", "Peach", "Orange Marmalade", "Honey",
			"Dried Pineapple", "Ginger", "Botrytis", "Chamomile",
			"Saffron", "Caramel",
		},
		Flavours: []string{
			"Honey", "Apricot", "Candied Orange", "Peach",
			"Pineapple", "Ginger", "Caramel", "Almond",
			"Dried Mango", "Spice",
		},
	},
	CategoryRedFortified: {
		Aromas: []string{
			"Dried Cherry", "Fig", "Prune", "Blackcurrant Liqueur",
			"Dark Chocolate", "Walnut", "Leather", "Black Pepper",
			"Clove", "Toffee",
		},
		Flavours: []string{
			"Dried Plum", "Raisin", "Fig", "Chocolate",
			"Coffee", "Caramel", "Nutty", "Spice",
			"Licorice", "Molasses",
		},
	},
	CategoryWhiteFortified: {
		Aromas: []string{
			"Almond", "Dough", "Green Apple", "Sea Spray",
			"Orange Peel", "Chamomile", "Walnut", "Caramel",
			"Hazelnut", "Brine",
		},
		Flavours: []string{
			"Almond", "Saline", "Baked Apple", "Toasted Bread",
			"Orange Zest", "Toffee", "Dried Apricot", "Nutty",
			"Caramel", "Umami",
		},
	},
}

// Descriptors returns the vocabulary pair for c. The unknown category gets
// the white ∪ red union so the synthesizer and selection UI never receive an
// empty vocabulary. Returned slices are fresh copies; callers may reorder.
func (c WineCategory) Descriptors() DescriptorPool {
	if p, ok := descriptorPools[c]; ok {
		return DescriptorPool{
			Aromas:   append([]string(nil), p.Aromas...),
			Flavours: append([]string(nil), p.Flavours...),
		}
	}
	white, red := descriptorPools[CategoryWhite], descriptorPools[CategoryRed]
	return DescriptorPool{
		Aromas:   append(append([]string(nil), white.Aromas...), red.Aromas...),
		Flavours: append(append([]string(nil), white.Flavours...), red.Flavours...),
	}
}

// AromaPool is shorthand for Descriptors().Aromas.
func (c WineCategory) AromaPool() []string { return c.Descriptors().Aromas }

// FlavourPool is shorthand for Descriptors().Flavours.
func (c WineCategory) FlavourPool() []string { return c.Descriptors().Flavours }
