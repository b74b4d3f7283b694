package catalog

// isQuestions is ordered easy to spicy; sessions play it in this order.
var isQuestions = []ISQuestion{
	{1, "affection", "How much do you enjoy holding hands in public?", "Not my thing", "Love it"},
	{2, "affection", "How important are good-morning texts?", "Unnecessary", "Essential"},
	{3, "affection", "How much physical affection do you want day to day?", "Light touch", "Constant contact"},
	{4, "time", "How much alone time do you need in a week?", "Barely any", "A lot"},
	{5, "time", "Ideal weekend together?", "Side by side, separate things", "Everything together"},
	{6, "affection", "How do you feel about public displays of affection?", "Keep it private", "Show the world"},
	{7, "communication", "How often should a couple talk about feelings?", "When something's wrong", "Daily check-ins"},
	{8, "communication", "Comfort with discussing past relationships?", "Off limits", "Open book"},
	{9, "romance", "How important are planned date nights?", "Spontaneity only", "Sacred weekly ritual"},
	{10, "romance", "Grand gestures or small daily gestures?", "Small and daily", "Grand and rare"},
	{11, "time", "Falling asleep: tangled up or own side of the bed?", "Own side", "Tangled up"},
	{12, "romance", "How romantic should anniversaries be?", "Low key", "All out"},
	{13, "communication", "Arguing style?", "Cool off first", "Hash it out now"},
	{14, "affection", "Compliments: how often do you want them?", "Occasionally", "Every day"},
	{15, "trust", "Sharing phone passcodes?", "Never needed", "Of course"},
	{16, "trust", "Close friends of the gender you date?", "Uncomfortable", "Totally fine"},
	{17, "time", "Weeknight evenings?", "Own hobbies", "Always together"},
	{18, "romance", "Love notes hidden in bags and pockets?", "Cheesy", "Swoon"},
	{19, "trust", "How much jealousy is healthy?", "None at all", "A little is flattering"},
	{20, "communication", "Talking about money?", "Private matter", "Full transparency"},
	{21, "desire", "How adventurous do you want date nights to get?", "Comfortable classics", "Always pushing it"},
	{22, "desire", "Importance of physical chemistry?", "Grows with time", "Must be instant"},
	{23, "desire", "How openly can you talk about what you want?", "Hard for me", "Completely open"},
	{24, "desire", "Initiating: whose job is it?", "One pursuer", "Totally equal"},
	{25, "desire", "Trying new things together?", "Slow and steady", "Yes to everything once"},
	{26, "trust", "How soon is too soon to say 'I love you'?", "Months in", "When you feel it"},
	{27, "desire", "Morning person or night owl, romantically?", "Mornings", "Nights"},
	{28, "desire", "Importance of keeping the spark deliberate?", "It keeps itself", "Work at it weekly"},
	{29, "trust", "Full honesty even when it stings?", "Soften the truth", "Always the whole truth"},
	{30, "desire", "Where should the line between private and shared life sit?", "Lots kept private", "Nothing held back"},
}
