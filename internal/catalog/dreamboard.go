package catalog

var boardCategories = []BoardCategory{
	{1, "home", "Where we live", []BoardCard{
		{"A", "House with a garden in the suburbs"},
		{"B", "Apartment in the heart of the city"},
		{"C", "Cabin somewhere quiet and green"},
		{"D", "No fixed base, move every few years"},
	}},
	{2, "career", "How we work", []BoardCard{
		{"A", "Climb as high as we can"},
		{"B", "Stable jobs, work stays at work"},
		{"C", "Build something of our own"},
		{"D", "Work less, live more"},
	}},
	{3, "family", "Growing our family", []BoardCard{
		{"A", "Kids, the sooner the better"},
		{"B", "Kids someday, no rush"},
		{"C", "Pets are our kids"},
		{"D", "Just the two of us"},
	}},
	{4, "travel", "How we see the world", []BoardCard{
		{"A", "One big adventure every year"},
		{"B", "Spontaneous weekend trips"},
		{"C", "Slow travel, months at a time"},
		{"D", "Home is the best destination"},
	}},
	{5, "money", "How we handle money", []BoardCard{
		{"A", "Save hard, retire early"},
		{"B", "Spend on memories, not things"},
		{"C", "Invest in a home and roots"},
		{"D", "Comfortable now, flexible later"},
	}},
	{6, "health", "How we stay well", []BoardCard{
		{"A", "Train together, race together"},
		{"B", "Long walks and good food"},
		{"C", "Calm first: sleep, yoga, quiet"},
		{"D", "Spontaneous and outdoorsy"},
	}},
	{7, "social", "Our people", []BoardCard{
		{"A", "Open house, friends always welcome"},
		{"B", "A tight inner circle"},
		{"C", "Community builders, hosts of everything"},
		{"D", "Mostly each other, and that's plenty"},
	}},
	{8, "growth", "How we keep growing", []BoardCard{
		{"A", "Always studying something new"},
		{"B", "Growth through travel and people"},
		{"C", "Creative projects side by side"},
		{"D", "Depth over breadth, master a few things"},
	}},
	{9, "adventure", "Our wildest shared dream", []BoardCard{
		{"A", "Sabbatical year around the world"},
		{"B", "Build or restore a house together"},
		{"C", "Start a business together"},
		{"D", "Live abroad for a few years"},
	}},
	{10, "legacy", "What we leave behind", []BoardCard{
		{"A", "A close, thriving family"},
		{"B", "Work that outlives us"},
		{"C", "A community that remembers us"},
		{"D", "A life fully enjoyed, no regrets"},
	}},
}
