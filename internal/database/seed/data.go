// Package seed provides sample data for a new bakery database.
package seed

// Suppliers the sample purchases are split across.
var Suppliers = []string{
	"Mill Street Wholesale",
	"Valley Dairy Co-op",
	"Corner Craft Supply",
}

// ProductSeed is a sample ingredient with its typical pack size and price.
type ProductSeed struct {
	Slug     string
	Name     string
	Unit     string
	PackQty  string
	UnitCost string
}

// Products are the sample ingredients.
var Products = []ProductSeed{
	{"flour_ap", "All-Purpose Flour", "g", "5000", "0.0018"},
	{"sugar_white", "Granulated Sugar", "g", "4000", "0.0021"},
	{"sugar_brown", "Brown Sugar", "g", "2000", "0.0030"},
	{"butter", "Unsalted Butter", "g", "2000", "0.0110"},
	{"eggs", "Large Eggs", "each", "36", "0.3300"},
	{"vanilla", "Vanilla Extract", "ml", "236", "0.0850"},
	{"baking_soda", "Baking Soda", "g", "454", "0.0040"},
	{"salt", "Fine Salt", "g", "737", "0.0020"},
	{"choc_chips", "Semi-Sweet Chocolate Chips", "g", "1000", "0.0120"},
	{"cocoa", "Cocoa Powder", "g", "500", "0.0160"},
	{"molasses", "Molasses", "ml", "355", "0.0140"},
	{"ginger", "Ground Ginger", "g", "60", "0.0900"},
}

// MaterialSeed is a sample packaging material and the portions cut from it.
type MaterialSeed struct {
	Slug     string
	Name     string
	Unit     string
	PackQty  string
	UnitCost string
	Units    []MaterialUnitSeed
}

// MaterialUnitSeed is one consumable portion of a material.
type MaterialUnitSeed struct {
	Name            string
	QuantityPerUnit string
}

// Materials are the sample packaging materials.
var Materials = []MaterialSeed{
	{"ribbon_red", "Red Satin Ribbon", "cm", "2000", "0.0120", []MaterialUnitSeed{
		{"Box Bow", "45"},
		{"Bag Tie", "25"},
	}},
	{"box_kraft", "Kraft Gift Box", "each", "25", "0.8500", []MaterialUnitSeed{
		{"Gift Box", "1"},
	}},
	{"bag_cello", "Cellophane Bag", "each", "100", "0.0900", []MaterialUnitSeed{
		{"Treat Bag", "1"},
	}},
	{"tissue", "Tissue Paper", "sheet", "50", "0.1200", []MaterialUnitSeed{
		{"Box Liner", "2"},
	}},
}

// RecipeSeed is a sample recipe with its ingredient lines keyed by product slug.
type RecipeSeed struct {
	Slug        string
	Name        string
	Yield       string
	YieldUnit   string
	Ingredients map[string]string
	Units       []UnitSeed
}

// UnitSeed is a finished unit made from a sample recipe. A non-empty
// Percentage makes it a batch portion, otherwise PerBatch items are made.
type UnitSeed struct {
	Slug       string
	Name       string
	PerBatch   string
	Percentage string
}

// Recipes are the sample recipes.
var Recipes = []RecipeSeed{
	{
		Slug: "choc_chip", Name: "Chocolate Chip Cookies", Yield: "48", YieldUnit: "cookies",
		Ingredients: map[string]string{
			"flour_ap": "560", "sugar_white": "200", "sugar_brown": "220", "butter": "454",
			"eggs": "2", "vanilla": "10", "baking_soda": "6", "salt": "6", "choc_chips": "680",
		},
		Units: []UnitSeed{{Slug: "choc_chip_cookie", Name: "Chocolate Chip Cookie", PerBatch: "48"}},
	},
	{
		Slug: "sugar_cookie", Name: "Sugar Cookies", Yield: "36", YieldUnit: "cookies",
		Ingredients: map[string]string{
			"flour_ap": "375", "sugar_white": "300", "butter": "227", "eggs": "1",
			"vanilla": "5", "baking_soda": "3", "salt": "3",
		},
		Units: []UnitSeed{{Slug: "sugar_cookie", Name: "Sugar Cookie", PerBatch: "36"}},
	},
	{
		Slug: "gingerbread", Name: "Gingerbread", Yield: "24", YieldUnit: "cutouts",
		Ingredients: map[string]string{
			"flour_ap": "390", "sugar_brown": "100", "butter": "113", "eggs": "1",
			"molasses": "120", "ginger": "8", "baking_soda": "4", "salt": "2",
		},
		Units: []UnitSeed{{Slug: "gingerbread_man", Name: "Gingerbread Man", PerBatch: "24"}},
	},
	{
		Slug: "brownie", Name: "Fudge Brownies", Yield: "1", YieldUnit: "pan",
		Ingredients: map[string]string{
			"flour_ap": "95", "sugar_white": "400", "butter": "227", "eggs": "4",
			"cocoa": "85", "vanilla": "10", "salt": "3",
		},
		Units: []UnitSeed{
			{Slug: "brownie_square", Name: "Brownie Square", PerBatch: "16"},
			{Slug: "brownie_half_pan", Name: "Half Pan of Brownies", Percentage: "50"},
		},
	},
}

// ComponentSeed is one component of a sample finished good. Exactly one of
// Unit, Good and MaterialUnit names the component by slug or name.
type ComponentSeed struct {
	Unit         string
	Good         string
	MaterialUnit string
	Quantity     string
}

// GoodSeed is a sample finished good. Goods are created in order, so a good
// may only contain goods listed before it.
type GoodSeed struct {
	Slug       string
	Name       string
	Type       string
	Components []ComponentSeed
}

// Goods are the sample finished goods.
var Goods = []GoodSeed{
	{"cookie_sampler", "Cookie Sampler Bag", "bundle", []ComponentSeed{
		{Unit: "choc_chip_cookie", Quantity: "3"},
		{Unit: "sugar_cookie", Quantity: "3"},
		{MaterialUnit: "Treat Bag", Quantity: "1"},
		{MaterialUnit: "Bag Tie", Quantity: "1"},
	}},
	{"holiday_box", "Holiday Gift Box", "gift_box", []ComponentSeed{
		{Unit: "gingerbread_man", Quantity: "4"},
		{Unit: "brownie_square", Quantity: "4"},
		{Good: "cookie_sampler", Quantity: "1"},
		{MaterialUnit: "Gift Box", Quantity: "1"},
		{MaterialUnit: "Box Liner", Quantity: "1"},
		{MaterialUnit: "Box Bow", Quantity: "1"},
	}},
	{"party_tray", "Party Tray", "bakery_tray", []ComponentSeed{
		{Unit: "choc_chip_cookie", Quantity: "24"},
		{Unit: "brownie_square", Quantity: "16"},
	}},
}
