package theme

// defaultPalette is served when no palette file is configured or it cannot
// be read.
var defaultPalette = Palette{
	{Name: "Army", Hex: "#4B5320"}, {Name: "Asphalt", Hex: "#3E3E3C"}, {Name: "Athletic Grey", Hex: "#A9A9A9"}, {Name: "Atlantic", Hex: "#337EA9"},
	{Name: "Aqua", Hex: "#5BC8D1"}, {Name: "Autumn", Hex: "#C1440E"}, {Name: "Baby Blue", Hex: "#BFE1EB"}, {Name: "Berry", Hex: "#9B2D5D"},
	{Name: "Black", Hex: "#101820"}, {Name: "Blue Storm", Hex: "#748E9A"}, {Name: "Brown", Hex: "#5C4033"}, {Name: "Burnt Orange", Hex: "#CC5500"},
	{Name: "Canvas Red", Hex: "#BA2C2F"}, {Name: "Cardinal", Hex: "#9B2335"}, {Name: "Carolina Blue", Hex: "#A3C1DA"}, {Name: "Charity Pink", Hex: "#ED7A9E"},
	{Name: "Chestnut", Hex: "#964B00"}, {Name: "Citron", Hex: "#F6EB61"}, {Name: "Clay", Hex: "#B66E41"}, {Name: "Columbia Blue", Hex: "#C4DDEC"},
	{Name: "Cool Blue", Hex: "#4C6A92"}, {Name: "Coral", Hex: "#F88379"}, {Name: "Dark Grey", Hex: "#585E6F"}, {Name: "Dark Lavender", Hex: "#A592B1"},
	{Name: "Deep Teal", Hex: "#005F5F"}, {Name: "Dust", Hex: "#E5E4E2"}, {Name: "Dusty Blue", Hex: "#A2B6C0"}, {Name: "Electric Blue", Hex: "#3E8EDE"},
	{Name: "Evergreen", Hex: "#115E59"}, {Name: "Forest", Hex: "#314F3A"}, {Name: "Fuchsia", Hex: "#C154C1"}, {Name: "Gold", Hex: "#FDB813"},
	{Name: "Kelly", Hex: "#28A745"}, {Name: "Lavender Blue", Hex: "#C5CBE1"}, {Name: "Lavender Dust", Hex: "#C4B6C8"}, {Name: "Leaf", Hex: "#6D9F4B"},
	{Name: "Light Blue", Hex: "#ADD8E6"}, {Name: "Light Violet", Hex: "#D6AEDD"}, {Name: "Lilac", Hex: "#B98EB1"}, {Name: "Maize Yellow", Hex: "#F4D35E"},
	{Name: "Marine", Hex: "#2A6F9E"}, {Name: "Maroon", Hex: "#6E2E2A"}, {Name: "Mauve", Hex: "#D8A39D"}, {Name: "Military Green", Hex: "#4B5320"},
	{Name: "Mint", Hex: "#AAF0D1"}, {Name: "Mustard", Hex: "#D6A52D"}, {Name: "Navy", Hex: "#1A1F71"}, {Name: "Natural", Hex: "#EDE6D6"},
	{Name: "New Cocoa", Hex: "#A9746E"}, {Name: "New Hunter Green", Hex: "#355E3B"}, {Name: "New Pink Gravel", Hex: "#D1A8A4"}, {Name: "New Purple Storm", Hex: "#836EAA"},
	{Name: "New Vintage Denim", Hex: "#5C6D82"}, {Name: "New Vintage Red", Hex: "#913144"}, {Name: "Ocean Blue", Hex: "#5BA8C1"}, {Name: "Olive", Hex: "#708238"},
	{Name: "Orange", Hex: "#F76300"}, {Name: "Orchid", Hex: "#CBAACB"}, {Name: "Oxblood Black", Hex: "#43302E"}, {Name: "Peach", Hex: "#FFE5B4"},
	{Name: "Pebble Brown", Hex: "#A9746E"}, {Name: "Pine", Hex: "#4F7160"}, {Name: "Pink", Hex: "#F4C6D7"}, {Name: "Poppy", Hex: "#EF4136"},
	{Name: "Red", Hex: "#C8102E"}, {Name: "Royal Purple", Hex: "#652D90"}, {Name: "Rust", Hex: "#B7410E"}, {Name: "Sage", Hex: "#B2AC88"},
	{Name: "Sand Dune", Hex: "#D6BAA3"}, {Name: "Silver", Hex: "#C0C0C0"}, {Name: "Slate", Hex: "#708090"}, {Name: "Soft Cream", Hex: "#F3E4B2"},
	{Name: "Soft Pink", Hex: "#F4D8E4"}, {Name: "Spring Green", Hex: "#A8DAB5"}, {Name: "Steel Blue", Hex: "#4682B4"}, {Name: "Storm", Hex: "#A2A2A1"},
	{Name: "Strobe", Hex: "#F9E79F"}, {Name: "Sunset", Hex: "#F6A58E"}, {Name: "Synthetic Green", Hex: "#009879"}, {Name: "Tan", Hex: "#D2B48C"},
	{Name: "Teal", Hex: "#008080"}, {Name: "Team Navy", Hex: "#1A2D5A"}, {Name: "Team Purple", Hex: "#5C4E8A"}, {Name: "Terracotta", Hex: "#E2725B"},
	{Name: "Toast", Hex: "#D1A26C"}, {Name: "True Royal", Hex: "#3F4C9A"}, {Name: "Turquoise", Hex: "#30D5C8"}, {Name: "Vintage Black", Hex: "#1C1C1C"},
	{Name: "Vintage Brown", Hex: "#8B6D5C"}, {Name: "Vintage Navy", Hex: "#2C3E50"}, {Name: "Vintage White", Hex: "#F5F5F0"}, {Name: "White", Hex: "#FFFFFF"},
	{Name: "Yellow", Hex: "#F6EB61"},}
