package catalog

var wyrQuestions = []WYRQuestion{
	{1, "lifestyle", "Live in a big city forever", "Live in the countryside forever"},
	{2, "lifestyle", "Always wake up at sunrise", "Always stay up past midnight"},
	{3, "travel", "One long trip abroad every year", "Many weekend getaways"},
	{4, "travel", "Beach vacation", "Mountain vacation"},
	{5, "food", "Cook every meal together", "Eat out every night"},
	{6, "food", "Give up coffee forever", "Give up dessert forever"},
	{7, "social", "Big party with all your friends", "Quiet dinner for two"},
	{8, "social", "Host gatherings at home", "Always be the guest"},
	{9, "money", "Spend on experiences", "Spend on things"},
	{10, "money", "Save aggressively for the future", "Enjoy more of it now"},
	{11, "lifestyle", "Work from home forever", "Never work from home again"},
	{12, "lifestyle", "Have a strict daily routine", "Never plan a single day"},
	{13, "travel", "Road trip with no itinerary", "Trip planned to the hour"},
	{14, "travel", "Revisit a favorite place", "Somewhere new every time"},
	{15, "food", "Spicy food at every meal", "Never eat spicy food again"},
	{16, "food", "Breakfast for dinner", "Dinner for breakfast"},
	{17, "social", "Know everyone a little", "Know a few people deeply"},
	{18, "social", "Always arrive early", "Always arrive fashionably late"},
	{19, "money", "Windfall: pay off the house", "Windfall: travel the world"},
	{20, "money", "One splurge a year", "Small treats every week"},
	{21, "family", "Live near your parents", "Live near your friends"},
	{22, "family", "Big holiday gatherings", "Holidays just for the two of you"},
	{23, "pets", "Dog person household", "Cat person household"},
	{24, "pets", "Several pets", "No pets, more freedom"},
	{25, "lifestyle", "Gym together at 6am", "Late-night walks instead"},
	{26, "lifestyle", "Minimalist home", "Cozy and full of stuff"},
	{27, "fun", "Movie marathon weekend", "Outdoor adventure weekend"},
	{28, "fun", "Board games night", "Video games night"},
	{29, "fun", "Concert of your favorite band", "Front-row sports game"},
	{30, "fun", "Learn to dance together", "Learn to cook together"},
	{31, "travel", "Camp under the stars", "Five-star hotel"},
	{32, "travel", "Move abroad for two years", "Never leave your home country"},
	{33, "money", "Joint account for everything", "Keep finances separate"},
	{34, "money", "Buy a fixer-upper", "Rent something perfect"},
	{35, "family", "Kids early", "Kids later (or never)"},
	{36, "family", "Family game night weekly", "Date night weekly"},
	{37, "social", "Couple friends only", "Keep separate friend groups"},
	{38, "social", "Post everything together", "Keep the relationship offline"},
	{39, "lifestyle", "Live somewhere always warm", "Live with four seasons"},
	{40, "lifestyle", "House with a garden", "Apartment with a skyline view"},
	{41, "fun", "Karaoke duet in public", "Slow dance in public"},
	{42, "fun", "Surprise parties", "No surprises ever"},
	{43, "food", "Street food tour", "Tasting menu"},
	{44, "food", "Same restaurant every Friday", "Never the same place twice"},
	{45, "money", "Retire early and modestly", "Work longer and retire rich"},
	{46, "travel", "See the northern lights", "Dive a coral reef"},
	{47, "family", "Weekly call with in-laws", "Monthly visit with in-laws"},
	{48, "lifestyle", "No phones at dinner", "Phones allowed, no judgment"},
	{49, "fun", "Relive your first date", "Fast-forward to your tenth anniversary"},
	{50, "social", "New Year's Eve out", "New Year's Eve in"},
}
