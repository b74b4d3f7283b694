package catalog

var wwydScenarios = []WWYDScenario{
	{1, "honesty", "You find a wallet with $500 and an ID. What would you do?"},
	{2, "honesty", "Your best friend's partner flirts with you at a party. What would you do?"},
	{3, "loyalty", "Your partner's close friend tells you a secret that affects your relationship. What would you do?"},
	{4, "money", "You win $50,000 tomorrow. What would you do with it?"},
	{5, "money", "Your partner wants to make a big purchase you think is a mistake. What would you do?"},
	{6, "family", "Your family openly disapproves of your partner. What would you do?"},
	{7, "family", "A parent needs long-term care and money is tight. What would you do?"},
	{8, "career", "You get a dream job offer in a city your partner hates. What would you do?"},
	{9, "career", "Your partner wants to quit a stable job to chase a risky dream. What would you do?"},
	{10, "conflict", "You and your partner disagree strongly in front of friends. What would you do?"},
	{11, "conflict", "Your partner hurt your feelings but doesn't realize it. What would you do?"},
	{12, "crisis", "Your partner calls you at 3am stranded two hours away. What would you do?"},
	{13, "crisis", "A close friend confides they're in serious trouble and swears you to secrecy from everyone, including your partner. What would you do?"},
	{14, "values", "You could save a lot of money by bending a rule nobody checks. What would you do?"},
	{15, "values", "Your partner asks you to lie to their family to keep the peace. What would you do?"},
}
