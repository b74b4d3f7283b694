package catalog

var nhieQuestions = []NHIEQuestion{
	{1, "travel", "Never have I ever traveled alone to another country"},
	{2, "travel", "Never have I ever missed a flight"},
	{3, "travel", "Never have I ever slept in an airport"},
	{4, "adventure", "Never have I ever gone skydiving or bungee jumping"},
	{5, "adventure", "Never have I ever swum in the ocean at night"},
	{6, "adventure", "Never have I ever gotten a tattoo on impulse"},
	{7, "food", "Never have I ever eaten something I dropped on the floor"},
	{8, "food", "Never have I ever sent a dish back at a restaurant"},
	{9, "food", "Never have I ever cooked a meal that was completely inedible"},
	{10, "romance", "Never have I ever had a crush on a friend's sibling"},
	{11, "romance", "Never have I ever written a love letter"},
	{12, "romance", "Never have I ever been on a blind date"},
	{13, "romance", "Never have I ever gotten back together with an ex"},
	{14, "embarrassing", "Never have I ever called someone by the wrong name mid-conversation"},
	{15, "embarrassing", "Never have I ever tripped in public and pretended it was fine"},
	{16, "embarrassing", "Never have I ever sent a text to the wrong person"},
	{17, "embarrassing", "Never have I ever laughed at a funeral or serious event"},
	{18, "rebellious", "Never have I ever snuck out of the house"},
	{19, "rebellious", "Never have I ever gotten a speeding ticket"},
	{20, "rebellious", "Never have I ever lied to get out of work"},
	{21, "rebellious", "Never have I ever crashed a party"},
	{22, "life", "Never have I ever pulled an all-nighter for fun"},
	{23, "life", "Never have I ever quit a job without a backup plan"},
	{24, "life", "Never have I ever moved to a new city knowing nobody"},
	{25, "life", "Never have I ever kept a secret for more than a year"},
	{26, "social", "Never have I ever pretended to know someone I didn't remember"},
	{27, "social", "Never have I ever ghosted someone"},
	{28, "social", "Never have I ever stalked an ex on social media"},
	{29, "social", "Never have I ever cried at a movie on a first date"},
	{30, "life", "Never have I ever made a five-year plan and actually followed it"},
}
