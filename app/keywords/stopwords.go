package keywords

// Function words dropped before stemming. Headlines are short, so the lists also
// cover common reporting verbs that never distinguish topics.

var englishStopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and",
	"any", "are", "as", "at", "be", "because", "been", "before", "being", "below",
	"between", "both", "but", "by", "can", "could", "did", "do", "does", "doing", "down",
	"during", "each", "few", "for", "from", "further", "had", "has", "have", "having",
	"he", "her", "here", "hers", "herself", "him", "himself", "his", "how", "i", "if",
	"in", "into", "is", "it", "its", "itself", "just", "me", "more", "most", "my",
	"myself", "new", "no", "nor", "not", "now", "of", "off", "on", "once", "only", "or",
	"other", "our", "ours", "ourselves", "out", "over", "own", "same", "says", "said",
	"she", "should", "so", "some", "such", "than", "that", "the", "their", "theirs",
	"them", "themselves", "then", "there", "these", "they", "this", "those", "through",
	"to", "too", "under", "until", "up", "very", "was", "we", "were", "what", "when",
	"where", "which", "while", "who", "whom", "why", "will", "with", "would", "you",
	"your", "yours", "yourself", "yourselves", "amid", "via", "per", "vs", "may",
}

var russianStopWords = []string{
	"а", "без", "более", "бы", "был", "была", "были", "было", "быть", "в", "вам", "вас",
	"весь", "во", "вот", "все", "всего", "всех", "вы", "где", "да", "даже", "для", "до",
	"его", "ее", "ей", "ему", "если", "есть", "еще", "же", "за", "здесь", "и", "из",
	"или", "им", "их", "к", "как", "какой", "когда", "кто", "ли", "либо", "между",
	"меня", "мне", "может", "мы", "на", "над", "надо", "наш", "не", "него", "нее",
	"нет", "ни", "них", "но", "ну", "о", "об", "однако", "он", "она", "они", "оно",
	"от", "очень", "по", "под", "после", "при", "про", "раз", "с", "сам", "свой",
	"себя", "со", "так", "также", "такой", "там", "те", "тем", "то", "того", "тоже",
	"той", "только", "том", "ты", "у", "уже", "хотя", "чего", "чей", "чем", "через",
	"что", "чтобы", "чье", "эта", "эти", "это", "этого", "этой", "этом", "этот", "я",
	"заявил", "заявила", "заявили", "рассказал", "рассказала", "сообщил", "сообщила",
	"сообщили", "стало", "известно", "будет", "будут", "против", "около", "ради",
}
